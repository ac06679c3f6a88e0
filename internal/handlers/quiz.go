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

type QuizHandler struct {
	repo     *repository.QuizRepo
	activity *services.ActivityService
}

func NewQuizHandler(repo *repository.QuizRepo, activity *services.ActivityService) *QuizHandler {
	return &QuizHandler{repo: repo, activity: activity}
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req models.CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Title is required", r))
		return
	}
	if len(req.Questions) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "A quiz needs at least one question", r))
		return
	}
	for _, q := range req.Questions {
		if q.Question == "" || len(q.Options) < 2 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Every question needs text and at least two options", r))
			return
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "correct_index must point at one of the options", r))
			return
		}
	}

	questionsJSON, err := json.Marshal(req.Questions)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create quiz", r))
		return
	}

	quiz := &models.Quiz{
		UserID:        userID,
		Title:         req.Title,
		Description:   req.Description,
		QuestionsJSON: questionsJSON,
		QuestionCount: len(req.Questions),
	}

	if err := h.repo.Create(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create quiz", r))
		return
	}

	h.activity.LogQuizCreation(r.Context(), userID, quiz)

	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	quizzes, err := h.repo.ListByUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list quizzes", r))
		return
	}
	if quizzes == nil {
		quizzes = []*models.Quiz{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	quiz, _ := h.getOwnedQuiz(w, r, quizID, userID)
	if quiz == nil {
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	if err := h.repo.ToggleFavorite(r.Context(), quizID, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update favorite", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Favorite toggled"})
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	quiz, _ := h.getOwnedQuiz(w, r, quizID, userID)
	if quiz == nil {
		return
	}

	if err := h.repo.Delete(r.Context(), quizID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete quiz", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted"})
}

// Attempts

func (h *QuizHandler) StartAttempt(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	quiz, _ := h.getOwnedQuiz(w, r, quizID, userID)
	if quiz == nil {
		return
	}

	attempt := &models.QuizAttempt{QuizID: quizID, UserID: userID}
	if err := h.repo.CreateAttempt(r.Context(), attempt); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to start attempt", r))
		return
	}

	writeJSON(w, http.StatusCreated, attempt)
}

// SaveAnswer records one answer on an in-flight attempt. Answers are stored as
// a sparse index->answer map so out-of-order answering works.
func (h *QuizHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	attemptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid attempt ID", r))
		return
	}

	var req models.SaveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.QuestionIndex < 0 || req.AnswerIndex < 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Indexes must not be negative", r))
		return
	}

	attempt, ok := h.getOpenAttempt(w, r, attemptID, userID)
	if !ok {
		return
	}

	answers := decodeAnswers(attempt.AnswersJSON)
	answers[req.QuestionIndex] = req.AnswerIndex

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save answer", r))
		return
	}

	if err := h.repo.SaveAnswers(r.Context(), attemptID, answersJSON); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save answer", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Answer saved"})
}

// Submit grades the attempt against the quiz's answer key and finalizes it.
func (h *QuizHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	attemptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid attempt ID", r))
		return
	}

	var req struct {
		Answers map[int]int `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	attempt, ok := h.getOpenAttempt(w, r, attemptID, userID)
	if !ok {
		return
	}

	quiz, err := h.repo.GetByID(r.Context(), attempt.QuizID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return
	}

	var questions []models.QuizQuestion
	if err := json.Unmarshal(quiz.QuestionsJSON, &questions); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to grade attempt", r))
		return
	}

	// Final answers override anything saved incrementally.
	answers := decodeAnswers(attempt.AnswersJSON)
	for i, a := range req.Answers {
		answers[i] = a
	}

	correct, score := grade(questions, answers)

	answersJSON, err := json.Marshal(answers)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to submit attempt", r))
		return
	}

	if err := h.repo.SubmitAttempt(r.Context(), attemptID, score, correct, answersJSON); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to submit attempt", r))
		return
	}

	graded, err := h.repo.GetAttemptByID(r.Context(), attemptID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load attempt", r))
		return
	}

	timeSpent := 0
	if graded.TimeTakenSeconds != nil {
		timeSpent = *graded.TimeTakenSeconds
	}
	h.activity.LogQuizCompletion(r.Context(), userID, quiz, &models.QuizResult{
		Score:             score,
		QuestionsAnswered: len(answers),
		TimeSpent:         timeSpent,
	})

	writeJSON(w, http.StatusOK, graded)
}

func (h *QuizHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	attemptID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid attempt ID", r))
		return
	}

	attempt, err := h.repo.GetAttemptByID(r.Context(), attemptID)
	if err != nil || attempt.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Attempt not found", r))
		return
	}

	writeJSON(w, http.StatusOK, attempt)
}

func (h *QuizHandler) getOwnedQuiz(w http.ResponseWriter, r *http.Request, quizID, userID uuid.UUID) (*models.Quiz, error) {
	quiz, err := h.repo.GetByID(r.Context(), quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
			return nil, err
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load quiz", r))
		return nil, err
	}
	if quiz.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return nil, pgx.ErrNoRows
	}
	return quiz, nil
}

// getOpenAttempt loads an attempt, checks ownership and rejects re-submission
// of a completed attempt.
func (h *QuizHandler) getOpenAttempt(w http.ResponseWriter, r *http.Request, attemptID, userID uuid.UUID) (*models.QuizAttempt, bool) {
	attempt, err := h.repo.GetAttemptByID(r.Context(), attemptID)
	if err != nil || attempt.UserID != userID {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Attempt not found", r))
		return nil, false
	}
	if attempt.CompletedAt != nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Attempt is already completed", r))
		return nil, false
	}
	return attempt, true
}

// grade scores answers against the answer key. Unanswered and out-of-range
// questions count as wrong; the score is a percentage of all questions, not
// just the answered ones.
func grade(questions []models.QuizQuestion, answers map[int]int) (correct int, score float64) {
	for i, q := range questions {
		if a, ok := answers[i]; ok && a == q.CorrectIndex {
			correct++
		}
	}
	if len(questions) > 0 {
		score = float64(correct) / float64(len(questions)) * 100
	}
	return correct, score
}

func decodeAnswers(raw json.RawMessage) map[int]int {
	answers := map[int]int{}
	if len(raw) > 0 {
		json.Unmarshal(raw, &answers)
	}
	return answers
}
