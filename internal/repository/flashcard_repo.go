package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckly-backend/internal/models"
)

type FlashcardRepo struct {
	pool *pgxpool.Pool
}

func NewFlashcardRepo(pool *pgxpool.Pool) *FlashcardRepo {
	return &FlashcardRepo{pool: pool}
}

// Set operations

func (r *FlashcardRepo) CreateSet(ctx context.Context, s *models.FlashcardSet, cards []models.CardInput) error {
	s.ID = uuid.New()
	s.CardCount = len(cards)

	query := `INSERT INTO flashcard_sets (id, user_id, title, description, card_count)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at, updated_at`

	if err := r.pool.QueryRow(ctx, query,
		s.ID, s.UserID, s.Title, s.Description, s.CardCount,
	).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}

	return r.insertCards(ctx, s.ID, cards)
}

func (r *FlashcardRepo) GetSetByID(ctx context.Context, id uuid.UUID) (*models.FlashcardSet, error) {
	s := &models.FlashcardSet{}
	query := `SELECT id, user_id, title, description, card_count, is_favorite, created_at, updated_at
		FROM flashcard_sets WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.UserID, &s.Title, &s.Description, &s.CardCount, &s.IsFavorite, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *FlashcardRepo) ListSetsByUser(ctx context.Context, userID uuid.UUID) ([]*models.FlashcardSet, error) {
	query := `SELECT id, user_id, title, description, card_count, is_favorite, created_at, updated_at
		FROM flashcard_sets WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sets []*models.FlashcardSet
	for rows.Next() {
		s := &models.FlashcardSet{}
		err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.CardCount, &s.IsFavorite, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (r *FlashcardRepo) CountSetsByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM flashcard_sets WHERE user_id = $1", userID).Scan(&n)
	return n, err
}

// UpdateSet replaces the set's title, description and, when cards is non-nil,
// its whole card list.
func (r *FlashcardRepo) UpdateSet(ctx context.Context, s *models.FlashcardSet, cards []models.CardInput) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE flashcard_sets SET title = $1, description = $2, updated_at = NOW() WHERE id = $3",
		s.Title, s.Description, s.ID,
	)
	if err != nil {
		return err
	}

	if cards == nil {
		return nil
	}

	if _, err := r.pool.Exec(ctx, "DELETE FROM flashcards WHERE set_id = $1", s.ID); err != nil {
		return err
	}
	if err := r.insertCards(ctx, s.ID, cards); err != nil {
		return err
	}

	s.CardCount = len(cards)
	_, err = r.pool.Exec(ctx, "UPDATE flashcard_sets SET card_count = $1 WHERE id = $2", len(cards), s.ID)
	return err
}

func (r *FlashcardRepo) ToggleFavorite(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE flashcard_sets SET is_favorite = NOT is_favorite WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

func (r *FlashcardRepo) DeleteSet(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM flashcard_sets WHERE id = $1", id)
	return err
}

// Card operations

func (r *FlashcardRepo) GetCardsBySet(ctx context.Context, setID uuid.UUID) ([]models.Flashcard, error) {
	query := `SELECT id, set_id, front, back, position
		FROM flashcards WHERE set_id = $1 ORDER BY position ASC`

	rows, err := r.pool.Query(ctx, query, setID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cards []models.Flashcard
	for rows.Next() {
		c := models.Flashcard{}
		if err := rows.Scan(&c.ID, &c.SetID, &c.Front, &c.Back, &c.Position); err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

func (r *FlashcardRepo) insertCards(ctx context.Context, setID uuid.UUID, cards []models.CardInput) error {
	for i, c := range cards {
		_, err := r.pool.Exec(ctx,
			"INSERT INTO flashcards (id, set_id, front, back, position) VALUES ($1, $2, $3, $4, $5)",
			uuid.New(), setID, c.Front, c.Back, i,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
