package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Quiz struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Title         string          `json:"title"`
	Description   *string         `json:"description"`
	QuestionsJSON json.RawMessage `json:"questions"`
	QuestionCount int             `json:"question_count"`
	IsFavorite    bool            `json:"is_favorite"`
	CreatedAt     time.Time       `json:"created_at"`
}

type QuizQuestion struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation,omitempty"`
}

type QuizAttempt struct {
	ID               uuid.UUID       `json:"id"`
	QuizID           uuid.UUID       `json:"quiz_id"`
	UserID           uuid.UUID       `json:"user_id"`
	AnswersJSON      json.RawMessage `json:"answers"`
	ScorePercent     *float64        `json:"score_percent"`
	CorrectCount     *int            `json:"correct_count"`
	StartedAt        time.Time       `json:"started_at"`
	CompletedAt      *time.Time      `json:"completed_at"`
	TimeTakenSeconds *int            `json:"time_taken_seconds"`
}

type CreateQuizRequest struct {
	Title       string         `json:"title"`
	Description *string        `json:"description"`
	Questions   []QuizQuestion `json:"questions"`
}

type SaveAnswerRequest struct {
	QuestionIndex int `json:"question_index"`
	AnswerIndex   int `json:"answer_index"`
}

// QuizResult summarizes a graded attempt for activity logging.
type QuizResult struct {
	Score             float64 `json:"score"`
	QuestionsAnswered int     `json:"questions_answered"`
	TimeSpent         int     `json:"time_spent"` // seconds
}
