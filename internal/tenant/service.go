// Package tenant はテナント管理者向けの操作（プラン変更、ユーザー招待）を提供する。
package tenant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/hitoshi/tenantnotes/internal/auth"
	"github.com/hitoshi/tenantnotes/internal/metrics"
	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/hitoshi/tenantnotes/internal/policy"
	"github.com/hitoshi/tenantnotes/internal/repository"
	"github.com/hitoshi/tenantnotes/internal/tenancy"
)

// InviteInput はユーザー招待の入力。Roleが空の場合はMEMBERとして扱う。
type InviteInput struct {
	Email string
	Role  string
}

// InviteResult は招待結果。TempPasswordは一度だけ呼び出し元に返し、保存しない。
type InviteResult struct {
	User         *model.User
	TempPassword string
}

// Service はテナント管理のサービス層。
type Service struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
	hasher  auth.PasswordHasher
	metrics metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(
	tenants repository.TenantRepository,
	users repository.UserRepository,
	hasher auth.PasswordHasher,
	m metrics.MetricsCollector,
) *Service {
	return &Service{
		tenants: tenants,
		users:   users,
		hasher:  hasher,
		metrics: m,
	}
}

// Upgrade はバインド済みテナントをPROプランに変更し、ノート上限を撤廃する。
// 既にPROの場合も成功として扱う。
func (s *Service) Upgrade(ctx context.Context, b *tenancy.Binding) error {
	if !s.allow(b, policy.ActionUpgradeTenantPlan) {
		return model.NewUpgradeForbiddenError()
	}

	if err := s.tenants.UpdatePlan(ctx, b.Tenant.ID, model.PlanPro, nil); err != nil {
		return fmt.Errorf("プランの変更に失敗しました: %w", err)
	}

	slog.Info("tenant upgraded",
		slog.String("tenant_id", b.Tenant.ID),
		slog.String("user_id", b.Claims.UserID),
	)
	return nil
}

// Invite はバインド済みテナントにユーザーを作成し、一時パスワードを返す。
func (s *Service) Invite(ctx context.Context, b *tenancy.Binding, in InviteInput) (*InviteResult, error) {
	if !s.allow(b, policy.ActionInviteUser) {
		return nil, model.NewForbiddenError()
	}

	email, role, err := validateInvite(in)
	if err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの検索に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewUserExistsError()
	}

	tempPassword := generateTempPassword()
	hash, err := s.hasher.Hash(tempPassword)
	if err != nil {
		return nil, fmt.Errorf("パスワードのハッシュ化に失敗しました: %w", err)
	}

	user := &model.User{
		TenantID:     b.Tenant.ID,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 検索と作成の間に同じメールアドレスが登録された場合
		if errors.Is(err, model.ErrDuplicateEmail) {
			return nil, model.NewUserExistsError()
		}
		return nil, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
	}

	slog.Info("user invited",
		slog.String("tenant_id", b.Tenant.ID),
		slog.String("invited_user_id", user.ID),
		slog.String("role", string(role)),
	)

	return &InviteResult{User: user, TempPassword: tempPassword}, nil
}

func (s *Service) allow(b *tenancy.Binding, action policy.Action) bool {
	if policy.Allow(b.Claims.Role, action) {
		return true
	}
	slog.Warn("authorization denied",
		slog.String("user_id", b.Claims.UserID),
		slog.String("role", string(b.Claims.Role)),
		slog.String("action", string(action)),
	)
	if s.metrics != nil {
		s.metrics.RecordPolicyDenial(string(action))
	}
	return false
}

// maxEmailLength はメールアドレスの最大文字数。users.emailの列長と一致させる。
const maxEmailLength = 255

// validateInvite は招待入力を検証し、正規化したメールアドレスとロールを返す。
func validateInvite(in InviteInput) (string, model.Role, error) {
	email := strings.TrimSpace(in.Email)
	if utf8.RuneCountInString(email) > maxEmailLength {
		return "", "", model.NewValidationError("Invalid body")
	}
	addr, err := mail.ParseAddress(email)
	if email == "" || err != nil || addr.Address != email {
		return "", "", model.NewValidationError("Invalid body")
	}

	if in.Role == "" {
		return email, model.RoleMember, nil
	}
	role, ok := model.ParseRole(in.Role)
	if !ok {
		return "", "", model.NewValidationError("Invalid body")
	}
	return email, role, nil
}

// generateTempPassword はUUIDの先頭セグメントに英大文字と記号を付けた一時パスワードを返す。
func generateTempPassword() string {
	prefix, _, _ := strings.Cut(uuid.NewString(), "-")
	return prefix + "A!"
}
