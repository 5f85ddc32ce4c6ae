package middleware

import (
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/hitoshi/tenantnotes/internal/auth"
	"github.com/hitoshi/tenantnotes/internal/metrics"
)

// PathClass はルートガードが扱うパスの分類。
type PathClass int

const (
	// ClassUnclassified はガードの対象外（API、静的ファイル、ヘルスチェック等）。
	ClassUnclassified PathClass = iota
	// ClassPublic は未認証向けのページ（ログイン画面）。
	ClassPublic
	// ClassProtectedPage は認証が必要なページ。
	ClassProtectedPage
	// ClassProtectedAPI は粗い認証チェックを行うAPI。
	ClassProtectedAPI
)

// Decision はルートガードの判定結果。
type Decision int

const (
	DecisionAllow Decision = iota
	DecisionRedirectLogin
	DecisionRedirectLanding
	DecisionReject
)

// String はメトリクスやログ用のラベルを返す。
func (d Decision) String() string {
	switch d {
	case DecisionAllow:
		return "allow"
	case DecisionRedirectLogin:
		return "redirect_login"
	case DecisionRedirectLanding:
		return "redirect_landing"
	case DecisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// GuardConfig はルートガードのパス設定。
// 各プレフィックスはパスと完全一致するか、プレフィックス+"/"で始まる場合に一致する。
type GuardConfig struct {
	LoginPath             string
	LandingPath           string
	PublicPaths           []string
	ProtectedPagePrefixes []string
	ProtectedAPIPrefixes  []string
}

// DefaultGuardConfig はデフォルトのガード設定を返す。
// APIはハンドラー側のテナントバインドで認証するため、デフォルトではガード対象外とする。
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		LoginPath:             "/login",
		LandingPath:           "/notes",
		PublicPaths:           []string{"/login"},
		ProtectedPagePrefixes: []string{"/notes"},
	}
}

// IdentitySource はヘッダーから検証済みのクレームを取り出すインターフェース。
type IdentitySource interface {
	Extract(h http.Header) (auth.ClaimSet, bool)
}

// RouteGuard はハンドラーの前段でトークンの有無と有効性だけを見て
// 通過・リダイレクト・拒否を決めるリクエストパイプラインの段。
// ロールやテナントは評価せず、データストアにもアクセスしない。
type RouteGuard struct {
	cfg      GuardConfig
	identity IdentitySource
	metrics  metrics.MetricsCollector
	logger   *slog.Logger
}

// GuardOption はRouteGuardのオプション設定関数。
type GuardOption func(*RouteGuard)

// WithGuardMetrics は判定結果を記録するメトリクスコレクターを設定する。
func WithGuardMetrics(m metrics.MetricsCollector) GuardOption {
	return func(g *RouteGuard) {
		g.metrics = m
	}
}

// WithGuardLogger はロガーを設定する。
func WithGuardLogger(l *slog.Logger) GuardOption {
	return func(g *RouteGuard) {
		g.logger = l
	}
}

// NewRouteGuard はRouteGuardを生成する。
func NewRouteGuard(cfg GuardConfig, identity IdentitySource, opts ...GuardOption) *RouteGuard {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/notes"
	}
	g := &RouteGuard{
		cfg:      cfg,
		identity: identity,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classify はパスを分類する。公開パスが保護パスより優先される。
func (g *RouteGuard) Classify(p string) PathClass {
	p = cleanPath(p)
	switch {
	case matchAny(p, g.cfg.PublicPaths):
		return ClassPublic
	case matchAny(p, g.cfg.ProtectedPagePrefixes):
		return ClassProtectedPage
	case matchAny(p, g.cfg.ProtectedAPIPrefixes):
		return ClassProtectedAPI
	default:
		return ClassUnclassified
	}
}

// Evaluate はリクエストに対する判定を返す。副作用を持たず、
// 同じリクエスト・トークン・時刻に対して常に同じ結果を返す。
func (g *RouteGuard) Evaluate(r *http.Request) Decision {
	switch g.Classify(r.URL.Path) {
	case ClassPublic:
		if g.hasIdentity(r) {
			return DecisionRedirectLanding
		}
		return DecisionAllow
	case ClassProtectedPage:
		if !g.hasIdentity(r) {
			return DecisionRedirectLogin
		}
		return DecisionAllow
	case ClassProtectedAPI:
		if !g.hasIdentity(r) {
			return DecisionReject
		}
		return DecisionAllow
	default:
		return DecisionAllow
	}
}

// Middleware はEvaluateの結果に従ってリクエストを処理するミドルウェアを返す。
// リダイレクトは307で行い、Cookieは変更しない。
func (g *RouteGuard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decision := g.Evaluate(r)
		if g.metrics != nil {
			g.metrics.RecordGuardDecision(decision.String())
		}

		switch decision {
		case DecisionRedirectLogin:
			g.logger.Debug("guard redirect",
				slog.String("path", r.URL.Path),
				slog.String("to", g.cfg.LoginPath),
			)
			http.Redirect(w, r, g.cfg.LoginPath, http.StatusTemporaryRedirect)
		case DecisionRedirectLanding:
			http.Redirect(w, r, g.cfg.LandingPath, http.StatusTemporaryRedirect)
		case DecisionReject:
			WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (g *RouteGuard) hasIdentity(r *http.Request) bool {
	_, ok := g.identity.Extract(r.Header)
	return ok
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func matchAny(p string, prefixes []string) bool {
	for _, prefix := range prefixes {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" {
			continue
		}
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}
