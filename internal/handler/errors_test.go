package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/tenantnotes/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewInvalidCredentialsError(), http.StatusUnauthorized},
		{model.NewForbiddenError(), http.StatusForbidden},
		{model.NewUpgradeForbiddenError(), http.StatusForbidden},
		{model.NewNoteLimitReachedError(), http.StatusForbidden},
		{model.NewTenantNotFoundError(), http.StatusNotFound},
		{model.NewNoteNotFoundError(), http.StatusNotFound},
		{model.NewValidationError("Invalid body"), http.StatusBadRequest},
		{model.NewUserExistsError(), http.StatusConflict},
		{model.NewStoreUnavailableError(), http.StatusServiceUnavailable},
		{&model.APIError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.want)
			}
		})
	}
}

func TestHandleServiceError_WrappedAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, fmt.Errorf("wrapped: %w", model.NewForbiddenError()))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
	assertErrorBody(t, w, "Forbidden")
}

func TestHandleServiceError_UnknownError_HidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	handleServiceError(w, errors.New("pq: connection refused to 10.0.0.5"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	assertErrorBody(t, w, "Internal server error")
}

// assertErrorBody はレスポンスが {"error": want} であることを検証する。
func assertErrorBody(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["error"] != want {
		t.Errorf("error = %q, want %q", body["error"], want)
	}
}
