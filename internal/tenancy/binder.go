// Package tenancy はアイデンティティのクレームを実在するテナントに結び付け、
// テナント間の分離を強制する。
package tenancy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/tenantnotes/internal/auth"
	"github.com/hitoshi/tenantnotes/internal/metrics"
	"github.com/hitoshi/tenantnotes/internal/model"
)

// バインド結果のメトリクスラベル。
const (
	OutcomeBound            = "bound"
	OutcomeUnauthorized     = "unauthorized"
	OutcomeTenantNotFound   = "tenant_not_found"
	OutcomeForbidden        = "forbidden"
	OutcomeStoreUnavailable = "store_unavailable"
)

// TenantFinder はテナントをIDで検索するインターフェース。
// repository.TenantRepositoryの部分集合として定義する。
type TenantFinder interface {
	// FindByID はIDでテナントを検索する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tenant, error)
}

// Binding はクレームと解決済みテナントの組。
type Binding struct {
	Claims auth.ClaimSet
	Tenant *model.Tenant
}

// Binder はテナントスコープの操作が必ず通過する単一の関門。
type Binder struct {
	tenants   TenantFinder
	extractor *auth.Extractor
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// BinderOption はBinderのオプション設定関数。
type BinderOption func(*Binder)

// WithMetrics はバインド結果を記録するメトリクスコレクターを設定する。
func WithMetrics(m metrics.MetricsCollector) BinderOption {
	return func(b *Binder) {
		b.metrics = m
	}
}

// WithLogger はロガーを設定する。
func WithLogger(l *slog.Logger) BinderOption {
	return func(b *Binder) {
		b.logger = l
	}
}

// NewBinder はBinderを生成する。
func NewBinder(tenants TenantFinder, extractor *auth.Extractor, opts ...BinderOption) *Binder {
	b := &Binder{
		tenants:   tenants,
		extractor: extractor,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind はクレームのテナントを解決し、pathSlugが指定されていればそれと一致することを確認する。
//
//   - claimsがnil: UNAUTHORIZED
//   - ストアエラー: STORE_UNAVAILABLE（テナント不在とは区別する）
//   - テナント不在: TENANT_NOT_FOUND
//   - スラッグ不一致: FORBIDDEN（パス側のテナントへフォールバックしない）
func (b *Binder) Bind(ctx context.Context, claims *auth.ClaimSet, pathSlug string) (*Binding, error) {
	if claims == nil {
		b.record(OutcomeUnauthorized)
		return nil, model.NewUnauthorizedError()
	}

	tenant, err := b.tenants.FindByID(ctx, claims.TenantID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			b.logger.Warn("tenant lookup abandoned",
				slog.String("tenant_id", claims.TenantID),
				slog.String("error", err.Error()),
			)
		} else {
			b.logger.Error("failed to find tenant",
				slog.String("tenant_id", claims.TenantID),
				slog.String("error", err.Error()),
			)
		}
		b.record(OutcomeStoreUnavailable)
		return nil, model.NewStoreUnavailableError()
	}
	if tenant == nil {
		b.logger.Warn("token references unknown tenant",
			slog.String("user_id", claims.UserID),
			slog.String("tenant_id", claims.TenantID),
		)
		b.record(OutcomeTenantNotFound)
		return nil, model.NewTenantNotFoundError()
	}

	if pathSlug != "" && pathSlug != tenant.Slug {
		b.logger.Warn("cross-tenant access denied",
			slog.String("user_id", claims.UserID),
			slog.String("tenant_slug", tenant.Slug),
			slog.String("path_slug", pathSlug),
		)
		b.record(OutcomeForbidden)
		return nil, model.NewForbiddenError()
	}

	b.record(OutcomeBound)
	return &Binding{Claims: *claims, Tenant: tenant}, nil
}

// BindRequest はリクエストからアイデンティティを抽出してBindを行う。
// 検索はリクエストのコンテキストで実行されるため、中断されたリクエストの検索は打ち切られる。
func (b *Binder) BindRequest(r *http.Request, pathSlug string) (*Binding, error) {
	var claims *auth.ClaimSet
	if c, ok := b.extractor.FromRequest(r); ok {
		claims = &c
	}
	return b.Bind(r.Context(), claims, pathSlug)
}

func (b *Binder) record(outcome string) {
	if b.metrics != nil {
		b.metrics.RecordBindOutcome(outcome)
	}
}
