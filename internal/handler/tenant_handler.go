package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/hitoshi/tenantnotes/internal/tenancy"
	"github.com/hitoshi/tenantnotes/internal/tenant"
)

// TenantServiceInterface はテナント管理ハンドラーが必要とするサービスインターフェース。
type TenantServiceInterface interface {
	Upgrade(ctx context.Context, b *tenancy.Binding) error
	Invite(ctx context.Context, b *tenancy.Binding, in tenant.InviteInput) (*tenant.InviteResult, error)
}

// TenantHandler はテナント管理のHTTPハンドラー。
// パスのスラッグはトークンのテナントと一致しなければならない。
type TenantHandler struct {
	service TenantServiceInterface
	binder  TenantBinder
}

// NewTenantHandler はTenantHandlerを生成する。
func NewTenantHandler(service TenantServiceInterface, binder TenantBinder) *TenantHandler {
	return &TenantHandler{
		service: service,
		binder:  binder,
	}
}

// inviteRequest はユーザー招待リクエストのボディ。
type inviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type invitedUserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	TenantID  string     `json:"tenantId"`
	CreatedAt time.Time  `json:"createdAt"`
}

type inviteResponse struct {
	User         invitedUserResponse `json:"user"`
	TempPassword string              `json:"tempPassword"`
}

// Upgrade はテナントをPROプランに変更する。
// POST /api/tenants/{slug}/upgrade
func (h *TenantHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Upgrade(r.Context(), b); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Invite はテナントにユーザーを招待する。
// POST /api/tenants/{slug}/invite
func (h *TenantHandler) Invite(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, chi.URLParam(r, "slug"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 解析できないボディは空の入力として扱い、権限確認の後で検証エラーにする
	var req inviteRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	res, err := h.service.Invite(r.Context(), b, tenant.InviteInput{Email: req.Email, Role: req.Role})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, inviteResponse{
		User: invitedUserResponse{
			ID:        res.User.ID,
			Email:     res.User.Email,
			Role:      res.User.Role,
			TenantID:  res.User.TenantID,
			CreatedAt: res.User.CreatedAt,
		},
		TempPassword: res.TempPassword,
	})
}
