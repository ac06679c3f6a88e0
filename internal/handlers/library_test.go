package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"deckly-backend/internal/middleware"
)

type failingLibraryStore struct{}

func (failingLibraryStore) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("connection refused")
}

func TestLibrary_ListStorageErrorIs500(t *testing.T) {
	h := &LibraryHandler{store: failingLibraryStore{}}

	req := httptest.NewRequest(http.MethodGet, "/library", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, uuid.New()))
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the library query fails, got %d", rr.Code)
	}
	if resp := decodeErrorEnvelope(t, rr); resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %q", resp.Error.Code)
	}
}

func TestLibrary_ListQuizFilterStorageErrorIs500(t *testing.T) {
	h := &LibraryHandler{store: failingLibraryStore{}}

	req := httptest.NewRequest(http.MethodGet, "/library?type=quiz", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, uuid.New()))
	rr := httptest.NewRecorder()
	h.List(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 when the quiz query fails, got %d", rr.Code)
	}
}
