// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hitoshi/tenantnotes/internal/auth"
	"github.com/hitoshi/tenantnotes/internal/metrics"
	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/hitoshi/tenantnotes/internal/tenancy"
)

// ログイン結果のメトリクスラベル。
const (
	loginSuccess = "success"
	loginInvalid = "invalid"
	loginError   = "error"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
}

// TenantBinder はリクエストをテナントに結び付けるインターフェース。
// tenancy.Binderが実装する。
type TenantBinder interface {
	BindRequest(r *http.Request, pathSlug string) (*tenancy.Binding, error)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieSecure bool // trueの場合はTLSでなくてもSecure属性を付ける
	TokenMaxAge  int  // トークンCookieの有効期間（秒）
}

// AuthHandler はログイン・ログアウト・ログインユーザー情報のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	binder  TenantBinder
	config  AuthHandlerConfig
	metrics metrics.MetricsCollector
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilでもよい。
func NewAuthHandler(service AuthServiceInterface, binder TenantBinder, config AuthHandlerConfig, m metrics.MetricsCollector) *AuthHandler {
	if config.TokenMaxAge <= 0 {
		config.TokenMaxAge = int(auth.TokenTTL.Seconds())
	}
	return &AuthHandler{
		service: service,
		binder:  binder,
		config:  config,
		metrics: m,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// meResponse はログインユーザーとテナントの情報。
type meResponse struct {
	UserID string         `json:"userId"`
	Email  string         `json:"email"`
	Role   model.Role     `json:"role"`
	Tenant tenantResponse `json:"tenant"`
}

type tenantResponse struct {
	ID        string     `json:"id"`
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	Plan      model.Plan `json:"plan"`
	NoteLimit *int       `json:"noteLimit"`
}

// Login はメールアドレスとパスワードで認証し、トークンをCookieに設定する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("Missing email or password"))
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.recordLogin(err)
		handleServiceError(w, err)
		return
	}
	h.recordLogin(nil)

	// トークンはHttpOnly Cookieでのみ返す
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   h.config.TokenMaxAge,
		HttpOnly: true,
		Secure:   h.secure(r),
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Logout はトークンCookieを削除する。サーバー側に状態は持たない。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure(r),
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Me はログインユーザーと所属テナントの情報を返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		UserID: b.Claims.UserID,
		Email:  b.Claims.Email,
		Role:   b.Claims.Role,
		Tenant: toTenantResponse(b.Tenant),
	})
}

func (h *AuthHandler) secure(r *http.Request) bool {
	return h.config.CookieSecure || r.TLS != nil
}

func (h *AuthHandler) recordLogin(err error) {
	if h.metrics == nil {
		return
	}
	var apiErr *model.APIError
	switch {
	case err == nil:
		h.metrics.RecordLogin(loginSuccess)
	case errors.As(err, &apiErr) && apiErr.Code != model.ErrCodeStoreUnavailable:
		h.metrics.RecordLogin(loginInvalid)
	default:
		h.metrics.RecordLogin(loginError)
	}
}

func toTenantResponse(t *model.Tenant) tenantResponse {
	return tenantResponse{
		ID:        t.ID,
		Slug:      t.Slug,
		Name:      t.Name,
		Plan:      t.Plan,
		NoteLimit: t.NoteLimit,
	}
}
