package repository

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckly-backend/internal/models"
)

type ProgressRepo struct {
	pool *pgxpool.Pool
}

func NewProgressRepo(pool *pgxpool.Pool) *ProgressRepo {
	return &ProgressRepo{pool: pool}
}

// Get returns the study state for one (user, set) pair. A missing record
// surfaces as pgx.ErrNoRows; there is no implicit creation.
func (r *ProgressRepo) Get(ctx context.Context, userID, setID uuid.UUID) (*models.StudyProgress, error) {
	p := &models.StudyProgress{UserID: userID, SetID: setID}
	var learned, reviewLater []byte

	query := `SELECT current_card_index, learned_cards, review_later_cards, study_mode, total_cards, last_studied
		FROM study_progress WHERE user_id = $1 AND set_id = $2`

	err := r.pool.QueryRow(ctx, query, userID, setID).Scan(
		&p.CurrentCardIndex, &learned, &reviewLater, &p.StudyMode, &p.TotalCards, &p.LastStudied,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(learned, &p.LearnedCards); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(reviewLater, &p.ReviewLaterCards); err != nil {
		return nil, err
	}
	return p, nil
}

// Save upserts the full record in one statement. Concurrent saves for the
// same pair are last-writer-wins; fields never interleave across writers.
func (r *ProgressRepo) Save(ctx context.Context, p *models.StudyProgress) error {
	learned, err := json.Marshal(p.LearnedCards)
	if err != nil {
		return err
	}
	reviewLater, err := json.Marshal(p.ReviewLaterCards)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO study_progress (user_id, set_id, current_card_index, learned_cards, review_later_cards, study_mode, total_cards, last_studied)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id, set_id) DO UPDATE SET
			current_card_index = EXCLUDED.current_card_index,
			learned_cards = EXCLUDED.learned_cards,
			review_later_cards = EXCLUDED.review_later_cards,
			study_mode = EXCLUDED.study_mode,
			total_cards = EXCLUDED.total_cards,
			last_studied = NOW()
		RETURNING last_studied`

	return r.pool.QueryRow(ctx, query,
		p.UserID, p.SetID, p.CurrentCardIndex, learned, reviewLater, p.StudyMode, p.TotalCards,
	).Scan(&p.LastStudied)
}

// Reset deletes the record if present and reports whether one existed.
// Absence is not an error.
func (r *ProgressRepo) Reset(ctx context.Context, userID, setID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"DELETE FROM study_progress WHERE user_id = $1 AND set_id = $2", userID, setID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
