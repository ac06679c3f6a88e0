package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"deckly-backend/internal/middleware"
	"deckly-backend/internal/models"
	"deckly-backend/internal/repository"
)

type DashboardHandler struct {
	pool         *pgxpool.Pool
	userRepo     *repository.UserRepo
	activityRepo *repository.ActivityRepo
}

func NewDashboardHandler(pool *pgxpool.Pool, userRepo *repository.UserRepo, activityRepo *repository.ActivityRepo) *DashboardHandler {
	return &DashboardHandler{pool: pool, userRepo: userRepo, activityRepo: activityRepo}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()

	var setCount, quizCount int
	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM flashcard_sets WHERE user_id = $1", userID).Scan(&setCount)
	h.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quizzes WHERE user_id = $1", userID).Scan(&quizCount)

	weeklySets, weeklyQuizzes, weeklyCardsStudied, err := h.userRepo.GetWeeklyStudyStats(ctx, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load dashboard stats", r))
		return
	}

	weekAgo := time.Now().AddDate(0, 0, -7)
	weeklySessions, _ := h.activityRepo.CountSince(ctx, userID, models.ActionStudy, weekAgo)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"flashcard_sets":       setCount,
		"quizzes":              quizCount,
		"weekly_sets":          weeklySets,
		"weekly_quizzes":       weeklyQuizzes,
		"weekly_cards_studied": weeklyCardsStudied,
		"weekly_sessions":      weeklySessions,
	})
}

// Recent returns the latest feed entries; the same data the websocket streams
// live, for the initial page render.
func (h *DashboardHandler) Recent(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	items, err := h.activityRepo.ListRecent(r.Context(), userID, 12)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load recent activity", r))
		return
	}
	if items == nil {
		items = []*models.Activity{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"recent": items})
}

func (h *DashboardHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	streak, err := h.activityRepo.Streak(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load streak", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"streak": streak})
}

func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	counts, err := h.activityRepo.WeeklyCounts(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load weekly activity", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"activity": counts})
}

// Library handler

// libraryStore is the slice of pool behavior the library page needs;
// *pgxpool.Pool satisfies it.
type libraryStore interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type LibraryHandler struct {
	store libraryStore
}

func NewLibraryHandler(pool *pgxpool.Pool) *LibraryHandler {
	return &LibraryHandler{store: pool}
}

type LibraryItem struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Title      string    `json:"title"`
	ItemCount  int       `json:"item_count"`
	IsFavorite bool      `json:"is_favorite"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *LibraryHandler) scanItems(ctx context.Context, query string, args []interface{}, itemType string) ([]LibraryItem, error) {
	rows, err := h.store.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []LibraryItem
	for rows.Next() {
		item := LibraryItem{Type: itemType}
		if err := rows.Scan(&item.ID, &item.Title, &item.ItemCount, &item.IsFavorite, &item.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// List returns sets and quizzes in one flat list for the library page, with
// optional type and title-substring filters.
func (h *LibraryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	ctx := r.Context()
	typeFilter := r.URL.Query().Get("type")
	searchQuery := strings.TrimSpace(r.URL.Query().Get("search"))
	searchLike := "%" + strings.ToLower(searchQuery) + "%"

	items := []LibraryItem{}

	if typeFilter == "" || typeFilter == "flashcard" {
		query := "SELECT id, title, card_count, is_favorite, created_at FROM flashcard_sets WHERE user_id = $1"
		args := []interface{}{userID}
		if searchQuery != "" {
			query += " AND LOWER(title) LIKE $2"
			args = append(args, searchLike)
		}
		query += " ORDER BY created_at DESC"

		sets, err := h.scanItems(ctx, query, args, "flashcard")
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load library", r))
			return
		}
		items = append(items, sets...)
	}

	if typeFilter == "" || typeFilter == "quiz" {
		query := "SELECT id, title, question_count, is_favorite, created_at FROM quizzes WHERE user_id = $1"
		args := []interface{}{userID}
		if searchQuery != "" {
			query += " AND LOWER(title) LIKE $2"
			args = append(args, searchLike)
		}
		query += " ORDER BY created_at DESC"

		quizzes, err := h.scanItems(ctx, query, args, "quiz")
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load library", r))
			return
		}
		items = append(items, quizzes...)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// User & Settings handler

type UserHandler struct {
	userRepo *repository.UserRepo
}

func NewUserHandler(userRepo *repository.UserRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	var update struct {
		FullName string  `json:"full_name"`
		Email    string  `json:"email"`
		Avatar   *string `json:"avatar_url"`
	}
	json.NewDecoder(r.Body).Decode(&update)

	if update.FullName != "" {
		user.FullName = update.FullName
	}
	if update.Email != "" {
		user.Email = update.Email
	}
	if update.Avatar != nil {
		user.AvatarURL = update.Avatar
	}

	if err := h.userRepo.Update(r.Context(), user); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update profile", r))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	json.NewDecoder(r.Body).Decode(&req)

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Current password is incorrect", r))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), 12)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to hash password", r))
		return
	}

	h.userRepo.UpdatePassword(r.Context(), userID, string(hash))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password changed successfully"})
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	h.userRepo.Delete(r.Context(), userID)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}

// UpdatePlan switches the caller between free and pro. Billing happens
// elsewhere; this endpoint just records the outcome.
func (h *UserHandler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Plan string `json:"plan"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Plan != "free" && req.Plan != "pro" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Plan must be free or pro", r))
		return
	}

	if err := h.userRepo.UpdatePlan(r.Context(), userID, req.Plan); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update plan", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"plan": req.Plan})
}

func (h *UserHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	settings, err := h.userRepo.GetSettings(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Settings not found", r))
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *UserHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var s models.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	s.UserID = userID

	if s.DefaultStudyMode != "" && s.DefaultStudyMode != models.StudyModeNormal && s.DefaultStudyMode != models.StudyModeReview {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "default_study_mode must be normal or review", r))
		return
	}

	if err := h.userRepo.UpdateSettings(r.Context(), &s); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update settings", r))
		return
	}

	writeJSON(w, http.StatusOK, s)
}

// SetNotification flips a single notification toggle without clobbering the
// rest of the settings blob.
func (h *UserHandler) SetNotification(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Key     string `json:"key"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Key != "weekly_digest" && req.Key != "study_reminders" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unknown notification key", r))
		return
	}

	if err := h.userRepo.SetNotificationSetting(r.Context(), userID, req.Key, req.Enabled); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update notification setting", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{req.Key: req.Enabled})
}
