package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"deckly-backend/internal/middleware"
	"deckly-backend/internal/models"
	"deckly-backend/internal/services"
)

// ProgressStore is what the handler needs from storage. Implemented by
// repository.ProgressRepo.
type ProgressStore interface {
	Get(ctx context.Context, userID, setID uuid.UUID) (*models.StudyProgress, error)
	Save(ctx context.Context, p *models.StudyProgress) error
	Reset(ctx context.Context, userID, setID uuid.UUID) (bool, error)
}

// SetReader resolves set titles for activity logging. Implemented by
// repository.FlashcardRepo.
type SetReader interface {
	GetSetByID(ctx context.Context, id uuid.UUID) (*models.FlashcardSet, error)
}

type StudyProgressHandler struct {
	store    ProgressStore
	sets     SetReader
	activity *services.ActivityService
}

func NewStudyProgressHandler(store ProgressStore, sets SetReader, activity *services.ActivityService) *StudyProgressHandler {
	return &StudyProgressHandler{store: store, sets: sets, activity: activity}
}

// Get returns the caller's saved progress for a set. No record is 404, not an
// empty default; the client decides what a fresh session looks like.
func (h *StudyProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setID, err := uuid.Parse(chi.URLParam(r, "setId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	progress, err := h.store.Get(r.Context(), userID, setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No study progress for this set", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load study progress", r))
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// Save upserts the caller's progress for a set. Validation failures reject the
// request before anything touches storage. A request with stats also logs a
// study activity, best-effort.
func (h *StudyProgressHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setID, err := uuid.Parse(chi.URLParam(r, "setId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	var req models.SaveStudyProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fieldErrors := make(map[string]string)
	if !models.ValidStudyMode(req.StudyMode) {
		fieldErrors["study_mode"] = "study_mode must be normal, review, or completed"
	}
	if req.CurrentCardIndex < 0 {
		fieldErrors["current_card_index"] = "current_card_index must not be negative"
	}
	if req.TotalCards < 0 {
		fieldErrors["total_cards"] = "total_cards must not be negative"
	}
	if len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fieldErrors, r))
		return
	}

	// Absent card maps mean "none", not "leave unchanged". Every save
	// replaces the whole record.
	if req.LearnedCards == nil {
		req.LearnedCards = map[string]bool{}
	}
	if req.ReviewLaterCards == nil {
		req.ReviewLaterCards = map[string]bool{}
	}

	progress := &models.StudyProgress{
		UserID:           userID,
		SetID:            setID,
		CurrentCardIndex: req.CurrentCardIndex,
		LearnedCards:     req.LearnedCards,
		ReviewLaterCards: req.ReviewLaterCards,
		StudyMode:        req.StudyMode,
		TotalCards:       req.TotalCards,
	}

	if err := h.store.Save(r.Context(), progress); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save study progress", r))
		return
	}

	if req.Stats != nil && h.activity != nil && h.sets != nil {
		if set, err := h.sets.GetSetByID(r.Context(), setID); err == nil {
			h.activity.LogFlashcardStudy(r.Context(), userID, set, req.Stats)
		}
	}

	writeJSON(w, http.StatusOK, progress)
}

// Reset deletes the caller's progress for a set. Resetting progress that does
// not exist succeeds; the response just says nothing was there.
func (h *StudyProgressHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setID, err := uuid.Parse(chi.URLParam(r, "setId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	deleted, err := h.store.Reset(r.Context(), userID, setID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to reset study progress", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}
