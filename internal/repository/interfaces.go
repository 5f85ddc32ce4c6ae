// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
// 検索系メソッドは該当行が無い場合にnil, nilを返す。
package repository

import (
	"context"

	"github.com/hitoshi/tenantnotes/internal/model"
)

// TenantRepository はテナントデータの永続化インターフェース。
type TenantRepository interface {
	// FindByID は指定IDのテナントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Tenant, error)

	// FindBySlug はスラッグでテナントを取得する。見つからない場合はnilを返す。
	FindBySlug(ctx context.Context, slug string) (*model.Tenant, error)

	// UpdatePlan はテナントのプランとノート上限を更新する。noteLimitがnilの場合は無制限。
	UpdatePlan(ctx context.Context, id string, plan model.Plan, noteLimit *int) error

	// Upsert はスラッグをキーにテナントを作成する。既存の場合は変更せずに既存行を返す。
	Upsert(ctx context.Context, tenant *model.Tenant) (*model.Tenant, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスが重複する場合はmodel.ErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// CreateIfAbsent はメールアドレスが未登録の場合のみユーザーを作成し、作成したかを返す。
	CreateIfAbsent(ctx context.Context, user *model.User) (bool, error)
}

// NoteRepository はノートデータの永続化インターフェース。
// すべての操作はテナントIDで絞り込まれ、他テナントのノートは存在しないものとして扱う。
type NoteRepository interface {
	// ListByTenant はテナントのノートを作成日時の降順で返す。
	ListByTenant(ctx context.Context, tenantID string) ([]*model.Note, error)

	// FindByID はテナント内の指定IDのノートを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, tenantID, id string) (*model.Note, error)

	// CreateWithinLimit はテナントのノート上限を超えない場合のみノートを作成する。
	// 上限の確認と作成は同一トランザクション内で行い、同時作成でも上限を超えない。
	// 上限に達していた場合はfalseを返す。
	CreateWithinLimit(ctx context.Context, note *model.Note) (bool, error)

	// Update はテナント内のノートを部分更新し、更新後のノートを返す。
	// 見つからない場合はnilを返す。
	Update(ctx context.Context, tenantID, id string, upd model.NoteUpdate) (*model.Note, error)

	// Delete はテナント内のノートを削除し、削除したかを返す。
	Delete(ctx context.Context, tenantID, id string) (bool, error)
}
