// Package auth はパスワード認証、アイデンティティトークンの発行・検証、
// リクエストからのアイデンティティ抽出を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/tenantnotes/internal/model"
)

// UserFinder はログインに必要なユーザー検索インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserFinder interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// TokenIssuer はトークン発行インターフェース。
type TokenIssuer interface {
	Issue(id Identity) (string, error)
}

// LoginResult はログイン成功時に返す値。
type LoginResult struct {
	Token  string
	Claims Identity
}

// Service はパスワードによるログイン処理を提供する。
type Service struct {
	users  UserFinder
	hasher PasswordHasher
	issuer TokenIssuer

	// dummyHash は存在しないユーザーでも照合コストを揃えるためのハッシュ。
	dummyHash string
}

// NewService はServiceを生成する。
func NewService(users UserFinder, hasher PasswordHasher, issuer TokenIssuer) *Service {
	s := &Service{
		users:  users,
		hasher: hasher,
		issuer: issuer,
	}
	if h, err := hasher.Hash("tenantnotes-dummy-password"); err == nil {
		s.dummyHash = h
	}
	return s
}

// Login はメールアドレスとパスワードを照合し、トークンを発行する。
// 入力欠落はVALIDATION_ERROR、照合失敗はINVALID_CREDENTIALSを返す。
// ユーザー不在とパスワード不一致はレスポンス上区別しない。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, model.NewValidationError("Missing email or password")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("failed to find user for login", slog.String("error", err.Error()))
		return nil, model.NewStoreUnavailableError()
	}
	if user == nil {
		// 照合時間からユーザーの存在が推測されないようにする
		s.hasher.Check(password, s.dummyHash)
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		slog.Warn("login failed", slog.String("user_id", user.ID))
		return nil, model.NewInvalidCredentialsError()
	}

	id := Identity{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
		Email:    user.Email,
	}
	token, err := s.issuer.Issue(id)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("tenant_id", user.TenantID),
	)

	return &LoginResult{Token: token, Claims: id}, nil
}
