package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/lib/pq"
)

// foreignKeyViolation はPostgreSQLの外部キー制約違反のエラーコード。
const foreignKeyViolation = "23503"

// PostgresNoteRepo はPostgreSQLを使用したノートリポジトリ。
type PostgresNoteRepo struct {
	db *sql.DB
}

// NewPostgresNoteRepo はPostgresNoteRepoを生成する。
func NewPostgresNoteRepo(db *sql.DB) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: db}
}

const noteColumns = `id, tenant_id, title, content, created_by, created_at, updated_at`

func scanNote(row interface{ Scan(...any) error }) (*model.Note, error) {
	n := &model.Note{}
	var createdBy sql.NullString
	if err := row.Scan(&n.ID, &n.TenantID, &n.Title, &n.Content, &createdBy, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	n.CreatedBy = createdBy.String
	return n, nil
}

// ListByTenant はテナントのノートを作成日時の降順で返す。
func (r *PostgresNoteRepo) ListByTenant(ctx context.Context, tenantID string) ([]*model.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE tenant_id = $1 ORDER BY created_at DESC, id`,
		tenantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]*model.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

// FindByID はテナント内の指定IDのノートを取得する。見つからない場合はnilを返す。
func (r *PostgresNoteRepo) FindByID(ctx context.Context, tenantID, id string) (*model.Note, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	n, err := scanNote(r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find note by ID: %w", err)
	}
	return n, nil
}

// CreateWithinLimit はテナントのノート上限を超えない場合のみノートを作成する。
// テナント行をFOR UPDATEでロックしてから件数を数えるため、同時作成でも上限を超えない。
func (r *PostgresNoteRepo) CreateWithinLimit(ctx context.Context, note *model.Note) (bool, error) {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var noteLimit sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT note_limit FROM tenants WHERE id = $1 FOR UPDATE`,
		note.TenantID,
	).Scan(&noteLimit)
	if err != nil {
		return false, fmt.Errorf("failed to lock tenant: %w", err)
	}

	if noteLimit.Valid {
		var count int64
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM notes WHERE tenant_id = $1`,
			note.TenantID,
		).Scan(&count); err != nil {
			return false, fmt.Errorf("failed to count notes: %w", err)
		}
		if count >= noteLimit.Int64 {
			return false, nil
		}
	}

	var createdBy sql.NullString
	if note.CreatedBy != "" {
		createdBy = sql.NullString{String: note.CreatedBy, Valid: true}
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO notes (id, tenant_id, title, content, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		note.ID, note.TenantID, note.Title, note.Content, createdBy,
	).Scan(&note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		// テナント行はロック済みなので、違反するのはcreated_byのみ
		if isForeignKeyViolation(err) {
			return false, model.ErrCreatorNotFound
		}
		return false, fmt.Errorf("failed to insert note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// Update はテナント内のノートを部分更新し、更新後のノートを返す。
// nilのフィールドは既存の値を維持する。見つからない場合はnilを返す。
func (r *PostgresNoteRepo) Update(ctx context.Context, tenantID, id string, upd model.NoteUpdate) (*model.Note, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	var title, content sql.NullString
	if upd.Title != nil {
		title = sql.NullString{String: *upd.Title, Valid: true}
	}
	if upd.Content != nil {
		content = sql.NullString{String: *upd.Content, Valid: true}
	}

	n, err := scanNote(r.db.QueryRowContext(ctx,
		`UPDATE notes
		 SET title = COALESCE($3, title),
		     content = COALESCE($4, content),
		     updated_at = now()
		 WHERE id = $1 AND tenant_id = $2
		 RETURNING `+noteColumns,
		id, tenantID, title, content,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return n, nil
}

// Delete はテナント内のノートを削除し、削除したかを返す。
func (r *PostgresNoteRepo) Delete(ctx context.Context, tenantID, id string) (bool, error) {
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// compile-time interface check
var _ NoteRepository = (*PostgresNoteRepo)(nil)

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation
}
