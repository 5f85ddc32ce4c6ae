// Package note はテナントにスコープされたノート操作のドメインロジックを提供する。
// すべての操作はtenancy.Binderで得たBindingを受け取り、認可ポリシーを確認してから実行する。
package note

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/tenantnotes/internal/metrics"
	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/hitoshi/tenantnotes/internal/policy"
	"github.com/hitoshi/tenantnotes/internal/repository"
	"github.com/hitoshi/tenantnotes/internal/security"
	"github.com/hitoshi/tenantnotes/internal/tenancy"
)

// maxTitleLength はタイトルの最大文字数。notes.titleの列長と一致させる。
const maxTitleLength = 255

// CreateInput はノート作成の入力。
type CreateInput struct {
	Title   string
	Content string
}

// Service はノート管理のサービス層。
type Service struct {
	notes     repository.NoteRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(notes repository.NoteRepository, sanitizer security.TextSanitizer, m metrics.MetricsCollector) *Service {
	return &Service{
		notes:     notes,
		sanitizer: sanitizer,
		metrics:   m,
	}
}

// List はテナントのノートを作成日時の降順で返す。
func (s *Service) List(ctx context.Context, b *tenancy.Binding) ([]*model.Note, error) {
	if err := s.authorize(b, policy.ActionListNotes); err != nil {
		return nil, err
	}

	notes, err := s.notes.ListByTenant(ctx, b.Tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("ノート一覧の取得に失敗しました: %w", err)
	}
	return notes, nil
}

// Get はテナント内のノートを返す。他テナントのノートは存在しないものとして扱う。
func (s *Service) Get(ctx context.Context, b *tenancy.Binding, id string) (*model.Note, error) {
	if err := s.authorize(b, policy.ActionReadNote); err != nil {
		return nil, err
	}

	n, err := s.notes.FindByID(ctx, b.Tenant.ID, id)
	if err != nil {
		return nil, fmt.Errorf("ノートの取得に失敗しました: %w", err)
	}
	if n == nil {
		return nil, model.NewNoteNotFoundError()
	}
	return n, nil
}

// Create はノートを作成する。タイトルは必須で、テナントのノート上限を超える場合は作成しない。
func (s *Service) Create(ctx context.Context, b *tenancy.Binding, in CreateInput) (*model.Note, error) {
	if err := s.authorize(b, policy.ActionCreateNote); err != nil {
		return nil, err
	}

	title := s.sanitizer.SanitizeText(in.Title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	n := &model.Note{
		TenantID:  b.Tenant.ID,
		Title:     title,
		Content:   s.sanitizer.SanitizeText(in.Content),
		CreatedBy: b.Claims.UserID,
	}
	created, err := s.notes.CreateWithinLimit(ctx, n)
	if errors.Is(err, model.ErrCreatorNotFound) {
		// トークンは有効だがユーザーが削除済み
		slog.Warn("note creator no longer exists", slog.String("user_id", b.Claims.UserID))
		return nil, model.NewUnauthorizedError()
	}
	if err != nil {
		return nil, fmt.Errorf("ノートの作成に失敗しました: %w", err)
	}
	if !created {
		slog.Info("note limit reached",
			slog.String("tenant_id", b.Tenant.ID),
			slog.String("plan", string(b.Tenant.Plan)),
		)
		return nil, model.NewNoteLimitReachedError()
	}
	return n, nil
}

// Update はノートを部分更新する。nilのフィールドは変更しない。
func (s *Service) Update(ctx context.Context, b *tenancy.Binding, id string, upd model.NoteUpdate) (*model.Note, error) {
	if err := s.authorize(b, policy.ActionUpdateNote); err != nil {
		return nil, err
	}

	if upd.Title != nil {
		title := s.sanitizer.SanitizeText(*upd.Title)
		if err := validateTitle(title); err != nil {
			return nil, err
		}
		upd.Title = &title
	}
	if upd.Content != nil {
		content := s.sanitizer.SanitizeText(*upd.Content)
		upd.Content = &content
	}

	n, err := s.notes.Update(ctx, b.Tenant.ID, id, upd)
	if err != nil {
		return nil, fmt.Errorf("ノートの更新に失敗しました: %w", err)
	}
	if n == nil {
		return nil, model.NewNoteNotFoundError()
	}
	return n, nil
}

// Delete はノートを削除する。
func (s *Service) Delete(ctx context.Context, b *tenancy.Binding, id string) error {
	if err := s.authorize(b, policy.ActionDeleteNote); err != nil {
		return err
	}

	deleted, err := s.notes.Delete(ctx, b.Tenant.ID, id)
	if err != nil {
		return fmt.Errorf("ノートの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewNoteNotFoundError()
	}
	return nil
}

func (s *Service) authorize(b *tenancy.Binding, action policy.Action) error {
	if policy.Allow(b.Claims.Role, action) {
		return nil
	}
	slog.Warn("authorization denied",
		slog.String("user_id", b.Claims.UserID),
		slog.String("role", string(b.Claims.Role)),
		slog.String("action", string(action)),
	)
	if s.metrics != nil {
		s.metrics.RecordPolicyDenial(string(action))
	}
	return model.NewForbiddenError()
}

func validateTitle(title string) error {
	if title == "" {
		return model.NewValidationError("Title required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return model.NewValidationError("Title too long")
	}
	return nil
}
