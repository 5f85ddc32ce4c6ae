package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/tenantnotes/internal/model"
)

// PostgresTenantRepo はPostgreSQLを使用したテナントリポジトリ。
type PostgresTenantRepo struct {
	db *sql.DB
}

// NewPostgresTenantRepo はPostgresTenantRepoを生成する。
func NewPostgresTenantRepo(db *sql.DB) *PostgresTenantRepo {
	return &PostgresTenantRepo{db: db}
}

const tenantColumns = `id, slug, name, plan, note_limit, created_at`

func scanTenant(row interface{ Scan(...any) error }) (*model.Tenant, error) {
	t := &model.Tenant{}
	var noteLimit sql.NullInt64
	if err := row.Scan(&t.ID, &t.Slug, &t.Name, &t.Plan, &noteLimit, &t.CreatedAt); err != nil {
		return nil, err
	}
	if noteLimit.Valid {
		n := int(noteLimit.Int64)
		t.NoteLimit = &n
	}
	return t, nil
}

// FindByID は指定IDのテナントを取得する。見つからない場合はnilを返す。
// UUIDとして解釈できないIDは該当なしとして扱う。
func (r *PostgresTenantRepo) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	t, err := scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant by ID: %w", err)
	}
	return t, nil
}

// FindBySlug はスラッグでテナントを取得する。見つからない場合はnilを返す。
func (r *PostgresTenantRepo) FindBySlug(ctx context.Context, slug string) (*model.Tenant, error) {
	t, err := scanTenant(r.db.QueryRowContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE slug = $1`,
		slug,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tenant by slug: %w", err)
	}
	return t, nil
}

// UpdatePlan はテナントのプランとノート上限を更新する。
func (r *PostgresTenantRepo) UpdatePlan(ctx context.Context, id string, plan model.Plan, noteLimit *int) error {
	var limit sql.NullInt64
	if noteLimit != nil {
		limit = sql.NullInt64{Int64: int64(*noteLimit), Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET plan = $2, note_limit = $3, updated_at = now() WHERE id = $1`,
		id, string(plan), limit,
	)
	if err != nil {
		return fmt.Errorf("failed to update tenant plan: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("tenant not found: %s", id)
	}
	return nil
}

// Upsert はスラッグをキーにテナントを作成する。既存の場合は変更せずに既存行を返す。
func (r *PostgresTenantRepo) Upsert(ctx context.Context, tenant *model.Tenant) (*model.Tenant, error) {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if tenant.Plan == "" {
		tenant.Plan = model.PlanFree
	}
	var limit sql.NullInt64
	if tenant.NoteLimit != nil {
		limit = sql.NullInt64{Int64: int64(*tenant.NoteLimit), Valid: true}
	}

	// DO UPDATEで自身を代入することで既存行でもRETURNINGが行を返す
	t, err := scanTenant(r.db.QueryRowContext(ctx,
		`INSERT INTO tenants (id, slug, name, plan, note_limit)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slug) DO UPDATE SET slug = tenants.slug
		 RETURNING `+tenantColumns,
		tenant.ID, tenant.Slug, tenant.Name, string(tenant.Plan), limit,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tenant: %w", err)
	}
	return t, nil
}

// compile-time interface check
var _ TenantRepository = (*PostgresTenantRepo)(nil)
