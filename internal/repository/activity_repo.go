package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckly-backend/internal/models"
)

type ActivityRepo struct {
	pool *pgxpool.Pool
}

func NewActivityRepo(pool *pgxpool.Pool) *ActivityRepo {
	return &ActivityRepo{pool: pool}
}

// Record performs the dedup find-or-create as a single statement: if an
// activity with the same (user, item, action) exists inside the trailing
// window it is returned untouched, otherwise a new row is inserted stamped
// now. One statement keeps the check and the insert atomic at the storage
// layer. The bool reports whether a new row was created.
func (r *ActivityRepo) Record(ctx context.Context, a *models.Activity, window time.Duration) (*models.Activity, bool, error) {
	query := `
		WITH recent AS (
			SELECT id, user_id, title, item_type, action_type, item_id, metadata, created_at
			FROM activities
			WHERE user_id = $1 AND item_id = $2 AND action_type = $3
			  AND created_at > NOW() - make_interval(secs => $4)
			ORDER BY created_at DESC
			LIMIT 1
		), inserted AS (
			INSERT INTO activities (id, user_id, title, item_type, action_type, item_id, metadata)
			SELECT $5, $1, $6, $7, $3, $2, $8
			WHERE NOT EXISTS (SELECT 1 FROM recent)
			RETURNING id, user_id, title, item_type, action_type, item_id, metadata, created_at
		)
		SELECT id, user_id, title, item_type, action_type, item_id, metadata, created_at, TRUE AS fresh FROM inserted
		UNION ALL
		SELECT id, user_id, title, item_type, action_type, item_id, metadata, created_at, FALSE FROM recent
		LIMIT 1`

	out := &models.Activity{}
	var created bool
	err := r.pool.QueryRow(ctx, query,
		a.UserID, a.ItemID, a.ActionType, window.Seconds(), uuid.New(), a.Title, a.ItemType, a.Metadata,
	).Scan(
		&out.ID, &out.UserID, &out.Title, &out.ItemType, &out.ActionType, &out.ItemID, &out.Metadata, &out.CreatedAt, &created,
	)
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (r *ActivityRepo) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Activity, error) {
	query := `SELECT id, user_id, title, item_type, action_type, item_id, metadata, created_at
		FROM activities WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.Activity
	for rows.Next() {
		a := &models.Activity{}
		err := rows.Scan(&a.ID, &a.UserID, &a.Title, &a.ItemType, &a.ActionType, &a.ItemID, &a.Metadata, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// Streak counts distinct days with any activity in the trailing 30 days.
func (r *ActivityRepo) Streak(ctx context.Context, userID uuid.UUID) (int, error) {
	var streak int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(DISTINCT DATE(created_at))
		FROM activities
		WHERE user_id = $1 AND created_at >= CURRENT_DATE - INTERVAL '30 days'
	`, userID).Scan(&streak)
	return streak, err
}

// WeeklyCounts returns activity counts per day of week (0=Sunday) for the
// trailing 7 days.
func (r *ActivityRepo) WeeklyCounts(ctx context.Context, userID uuid.UUID) ([7]int, error) {
	var counts [7]int
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(DOW FROM created_at)::int AS dow, COUNT(*)
		FROM activities
		WHERE user_id = $1 AND created_at >= CURRENT_DATE - INTERVAL '7 days'
		GROUP BY dow`, userID)
	if err != nil {
		return counts, err
	}
	defer rows.Close()

	for rows.Next() {
		var dow, count int
		if err := rows.Scan(&dow, &count); err != nil {
			return counts, err
		}
		if dow >= 0 && dow < 7 {
			counts[dow] = count
		}
	}
	return counts, rows.Err()
}

// LatestAt returns the timestamp of the user's most recent activity, or nil
// if none has ever been recorded. Used by the study-reminder scheduler.
func (r *ActivityRepo) LatestAt(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var at *time.Time
	err := r.pool.QueryRow(ctx,
		"SELECT MAX(created_at) FROM activities WHERE user_id = $1", userID).Scan(&at)
	if err != nil {
		return nil, err
	}
	return at, nil
}

// CountSince counts the user's activities of one action type since the cutoff.
func (r *ActivityRepo) CountSince(ctx context.Context, userID uuid.UUID, actionType string, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM activities
		WHERE user_id = $1 AND action_type = $2 AND created_at >= $3
	`, userID, actionType, since).Scan(&n)
	return n, err
}
