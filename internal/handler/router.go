package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tenantnotes/internal/metrics"
	"github.com/hitoshi/tenantnotes/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	CORSAllowedOrigins []string
	Guard              *middleware.RouteGuard
	Logger             *slog.Logger
	Metrics            metrics.MetricsCollector
	MetricsHandler     http.Handler // nilの場合は /metrics を公開しない
	HealthChecker      HealthChecker

	// テナントスコープの操作はすべてBinderを通す
	Binder TenantBinder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ノート
	NoteService NoteServiceInterface

	// テナント管理
	TenantService TenantServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → Recovery → SecurityHeaders → Logging → RouteGuard
//
// /api/* のテナント分離はRouteGuardではなく各ハンドラーのBinderで行う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// CORS ミドルウェアを最上位に適用（プリフライトはここで応答する）
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware(middleware.SecurityHeadersConfig{
		HSTS: deps.AuthConfig.CookieSecure,
	}))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Metrics))
	if deps.Guard != nil {
		r.Use(deps.Guard.Middleware)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Binder, deps.AuthConfig, deps.Metrics)
	noteHandler := NewNoteHandler(deps.NoteService, deps.Binder)
	tenantHandler := NewTenantHandler(deps.TenantService, deps.Binder)

	// --- 運用エンドポイント ---
	r.Get("/health", NewReadinessHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- ページ（RouteGuardが保護する） ---
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/notes", http.StatusTemporaryRedirect)
	})
	r.Get("/login", servePage("login.html"))
	r.Get("/notes", servePage("notes.html"))

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
		})

		r.Get("/me", authHandler.Me)

		// ノート管理
		r.Route("/notes", func(r chi.Router) {
			r.Get("/", noteHandler.ListNotes)
			r.Post("/", noteHandler.CreateNote)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", noteHandler.GetNote)
				r.Put("/", noteHandler.UpdateNote)
				r.Delete("/", noteHandler.DeleteNote)
			})
		})

		// テナント管理（パスのスラッグはBinderで照合する）
		r.Route("/tenants/{slug}", func(r chi.Router) {
			r.Post("/upgrade", tenantHandler.Upgrade)
			r.Post("/invite", tenantHandler.Invite)
		})
	})

	return r
}
