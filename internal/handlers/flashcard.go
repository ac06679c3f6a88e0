package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"deckly-backend/internal/middleware"
	"deckly-backend/internal/models"
	"deckly-backend/internal/repository"
	"deckly-backend/internal/services"
)

// Free-plan users can hold this many sets; pro has no cap.
const freePlanSetLimit = 20

type FlashcardHandler struct {
	repo     *repository.FlashcardRepo
	activity *services.ActivityService
	suggest  *services.SuggestService
}

func NewFlashcardHandler(repo *repository.FlashcardRepo, activity *services.ActivityService, suggest *services.SuggestService) *FlashcardHandler {
	return &FlashcardHandler{repo: repo, activity: activity, suggest: suggest}
}

func (h *FlashcardHandler) CreateSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title is required", r))
		return
	}
	for _, c := range req.Cards {
		if c.Front == "" || c.Back == "" {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Every card needs a front and a back", r))
			return
		}
	}

	if middleware.GetPlan(r.Context()) != "pro" {
		count, err := h.repo.CountSetsByUser(r.Context(), userID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create flashcard set", r))
			return
		}
		if count >= freePlanSetLimit {
			writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Free plan is limited to 20 flashcard sets. Upgrade to create more.", r))
			return
		}
	}

	set := &models.FlashcardSet{
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
	}

	if err := h.repo.CreateSet(r.Context(), set, req.Cards); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create flashcard set", r))
		return
	}

	h.activity.LogFlashcardCreation(r.Context(), userID, set)

	writeJSON(w, http.StatusCreated, set)
}

func (h *FlashcardHandler) GetSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	set, err := h.getOwnedSet(w, r, setID, userID)
	if set == nil {
		return
	}

	cards, err := h.repo.GetCardsBySet(r.Context(), setID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load cards", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"set":   set,
		"cards": cards,
	})
}

func (h *FlashcardHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sets, err := h.repo.ListSetsByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list flashcard sets", r))
		return
	}
	if sets == nil {
		sets = []*models.FlashcardSet{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"sets": sets})
}

func (h *FlashcardHandler) UpdateSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	var req models.UpdateSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title is required", r))
		return
	}

	set, _ := h.getOwnedSet(w, r, setID, userID)
	if set == nil {
		return
	}

	set.Title = req.Title
	set.Description = req.Description

	if err := h.repo.UpdateSet(r.Context(), set, req.Cards); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update flashcard set", r))
		return
	}

	h.activity.LogFlashcardUpdate(r.Context(), userID, set)

	writeJSON(w, http.StatusOK, set)
}

func (h *FlashcardHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	if err := h.repo.ToggleFavorite(r.Context(), setID, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update favorite", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Favorite toggled"})
}

func (h *FlashcardHandler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	setID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid set ID", r))
		return
	}

	set, _ := h.getOwnedSet(w, r, setID, userID)
	if set == nil {
		return
	}

	if err := h.repo.DeleteSet(r.Context(), setID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete flashcard set", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Flashcard set deleted"})
}

// Suggest drafts cards from pasted notes. Pro plan only; 503 when no API key
// is configured.
func (h *FlashcardHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	if middleware.GetPlan(r.Context()) != "pro" {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Card suggestions are a Pro feature", r))
		return
	}
	if !h.suggest.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("UNAVAILABLE", "Card suggestions are not available right now", r))
		return
	}

	var req models.SuggestCardsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Notes == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Notes are required", r))
		return
	}

	cards, err := h.suggest.SuggestCards(r.Context(), req.Notes, req.NumCards)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to suggest cards", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"cards": cards})
}

// getOwnedSet loads a set and enforces ownership. Writes the error response
// itself and returns nil when the caller should stop.
func (h *FlashcardHandler) getOwnedSet(w http.ResponseWriter, r *http.Request, setID, userID uuid.UUID) (*models.FlashcardSet, error) {
	set, err := h.repo.GetSetByID(r.Context(), setID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Flashcard set not found", r))
			return nil, err
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load flashcard set", r))
		return nil, err
	}
	if set.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Flashcard set not found", r))
		return nil, pgx.ErrNoRows
	}
	return set, nil
}
