package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckly-backend/internal/models"
)

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	if len(q.QuestionsJSON) == 0 {
		q.QuestionsJSON = json.RawMessage("[]")
	}

	query := `INSERT INTO quizzes (id, user_id, title, description, questions_json, question_count)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.UserID, q.Title, q.Description, q.QuestionsJSON, q.QuestionCount,
	).Scan(&q.CreatedAt)
}

func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q := &models.Quiz{}
	query := `SELECT id, user_id, title, description, questions_json, question_count, is_favorite, created_at
		FROM quizzes WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.UserID, &q.Title, &q.Description, &q.QuestionsJSON, &q.QuestionCount, &q.IsFavorite, &q.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return q, nil
}

func (r *QuizRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Quiz, error) {
	query := `SELECT id, user_id, title, description, questions_json, question_count, is_favorite, created_at
		FROM quizzes WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quizzes []*models.Quiz
	for rows.Next() {
		q := &models.Quiz{}
		err := rows.Scan(&q.ID, &q.UserID, &q.Title, &q.Description, &q.QuestionsJSON, &q.QuestionCount, &q.IsFavorite, &q.CreatedAt)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepo) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE quizzes SET is_favorite = NOT is_favorite WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

func (r *QuizRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM quizzes WHERE id = $1", id)
	return err
}

// Attempt operations

func (r *QuizRepo) CreateAttempt(ctx context.Context, a *models.QuizAttempt) error {
	a.ID = uuid.New()

	query := `INSERT INTO quiz_attempts (id, quiz_id, user_id, answers_json)
		VALUES ($1, $2, $3, '{}'::jsonb) RETURNING started_at`

	return r.pool.QueryRow(ctx, query, a.ID, a.QuizID, a.UserID).Scan(&a.StartedAt)
}

func (r *QuizRepo) GetAttemptByID(ctx context.Context, id uuid.UUID) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	query := `SELECT id, quiz_id, user_id, answers_json, score_percent, correct_count, started_at, completed_at, time_taken_seconds
		FROM quiz_attempts WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&a.ID, &a.QuizID, &a.UserID, &a.AnswersJSON, &a.ScorePercent, &a.CorrectCount,
		&a.StartedAt, &a.CompletedAt, &a.TimeTakenSeconds,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (r *QuizRepo) SaveAnswers(ctx context.Context, attemptID uuid.UUID, answersJSON []byte) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE quiz_attempts SET answers_json = $1 WHERE id = $2", answersJSON, attemptID)
	return err
}

func (r *QuizRepo) SubmitAttempt(ctx context.Context, attemptID uuid.UUID, score float64, correct int, answersJSON []byte) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE quiz_attempts
		SET answers_json = $1,
			score_percent = $2,
			correct_count = $3,
			completed_at = NOW(),
			time_taken_seconds = EXTRACT(EPOCH FROM (NOW() - started_at))::INT
		WHERE id = $4
	`, answersJSON, score, correct, attemptID)
	return err
}
