package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/hitoshi/tenantnotes/internal/note"
	"github.com/hitoshi/tenantnotes/internal/tenancy"
)

// NoteServiceInterface はノートハンドラーが必要とするサービスインターフェース。
type NoteServiceInterface interface {
	List(ctx context.Context, b *tenancy.Binding) ([]*model.Note, error)
	Get(ctx context.Context, b *tenancy.Binding, id string) (*model.Note, error)
	Create(ctx context.Context, b *tenancy.Binding, in note.CreateInput) (*model.Note, error)
	Update(ctx context.Context, b *tenancy.Binding, id string, upd model.NoteUpdate) (*model.Note, error)
	Delete(ctx context.Context, b *tenancy.Binding, id string) error
}

// NoteHandler はノート管理のHTTPハンドラー。
type NoteHandler struct {
	service NoteServiceInterface
	binder  TenantBinder
}

// NewNoteHandler はNoteHandlerを生成する。
func NewNoteHandler(service NoteServiceInterface, binder TenantBinder) *NoteHandler {
	return &NoteHandler{
		service: service,
		binder:  binder,
	}
}

// createNoteRequest はノート作成リクエストのボディ。
type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// updateNoteRequest はノート更新リクエストのボディ。省略したフィールドは変更しない。
type updateNoteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// noteResponse はノートのAPIレスポンス。
type noteResponse struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListNotes はテナントのノート一覧を返す。
// GET /api/notes
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	notes, err := h.service.List(r.Context(), b)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		resp = append(resp, toNoteResponse(n))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateNote はノートを作成する。
// POST /api/notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 解析できないボディはタイトル未指定として扱う
	var req createNoteRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	n, err := h.service.Create(r.Context(), b, note.CreateInput{Title: req.Title, Content: req.Content})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toNoteResponse(n))
}

// GetNote はノートを取得する。
// GET /api/notes/{id}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	n, err := h.service.Get(r.Context(), b, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// UpdateNote はノートを部分更新する。
// PUT /api/notes/{id}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req updateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewValidationError("Invalid body"))
		return
	}

	n, err := h.service.Update(r.Context(), b, chi.URLParam(r, "id"), model.NoteUpdate{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// DeleteNote はノートを削除する。
// DELETE /api/notes/{id}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	b, err := h.binder.BindRequest(r, "")
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), b, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func toNoteResponse(n *model.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		TenantID:  n.TenantID,
		Title:     n.Title,
		Content:   n.Content,
		CreatedBy: n.CreatedBy,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
