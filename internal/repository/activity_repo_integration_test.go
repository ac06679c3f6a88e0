package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"deckly-backend/internal/database"
	"deckly-backend/internal/models"
)

// setupTestPool connects to the database named by DATABASE_URL and makes sure
// the schema is current. Tests needing a real database skip when it is unset.
func setupTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	pool, err := database.NewPostgresPool(dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.RunMigrations(pool, "../../migrations"); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return pool
}

// createTestUser inserts a user row and removes it (cascading to activities)
// when the test finishes.
func createTestUser(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	id := uuid.New()
	email := fmt.Sprintf("it-%s@test.local", id)

	_, err := pool.Exec(context.Background(),
		"INSERT INTO users (id, email, password_hash, full_name) VALUES ($1, $2, 'x', 'Test User')",
		id, email)
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	t.Cleanup(func() {
		pool.Exec(context.Background(), "DELETE FROM users WHERE id = $1", id)
	})
	return id
}

func studyActivity(userID uuid.UUID) *models.Activity {
	return &models.Activity{
		UserID:     userID,
		Title:      "Organic Chemistry Basics",
		ItemType:   models.ItemTypeFlashcard,
		ActionType: models.ActionStudy,
		ItemID:     uuid.New(),
		Metadata:   json.RawMessage(`{}`),
	}
}

func countActivities(t *testing.T, pool *pgxpool.Pool, a *models.Activity) int {
	t.Helper()
	var n int
	err := pool.QueryRow(context.Background(),
		"SELECT COUNT(*) FROM activities WHERE user_id = $1 AND item_id = $2 AND action_type = $3",
		a.UserID, a.ItemID, a.ActionType).Scan(&n)
	if err != nil {
		t.Fatalf("failed to count activities: %v", err)
	}
	return n
}

func TestActivityRepo_Record_SecondCallInsideWindowReturnsExisting(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewActivityRepo(pool)
	ctx := context.Background()
	a := studyActivity(createTestUser(t, pool))

	first, created, err := repo.Record(ctx, a, 5*time.Second)
	if err != nil {
		t.Fatalf("first Record failed: %v", err)
	}
	if !created {
		t.Error("first Record: created = false, want true")
	}

	second, created, err := repo.Record(ctx, a, 5*time.Second)
	if err != nil {
		t.Fatalf("second Record failed: %v", err)
	}
	if created {
		t.Error("second Record inside window: created = true, want false")
	}
	if second.ID != first.ID {
		t.Errorf("second Record returned id %s, want existing %s", second.ID, first.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("second Record created_at = %v, want untouched %v", second.CreatedAt, first.CreatedAt)
	}

	if n := countActivities(t, pool, a); n != 1 {
		t.Errorf("expected 1 stored activity, got %d", n)
	}
}

func TestActivityRepo_Record_InsertsAgainPastWindow(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewActivityRepo(pool)
	ctx := context.Background()
	a := studyActivity(createTestUser(t, pool))

	first, _, err := repo.Record(ctx, a, 5*time.Second)
	if err != nil {
		t.Fatalf("first Record failed: %v", err)
	}

	// Age the row out of the window instead of sleeping through it.
	_, err = pool.Exec(ctx,
		"UPDATE activities SET created_at = created_at - INTERVAL '10 seconds' WHERE id = $1", first.ID)
	if err != nil {
		t.Fatalf("failed to backdate first activity: %v", err)
	}

	third, created, err := repo.Record(ctx, a, 5*time.Second)
	if err != nil {
		t.Fatalf("Record past window failed: %v", err)
	}
	if !created {
		t.Error("Record past window: created = false, want true")
	}
	if third.ID == first.ID {
		t.Error("Record past window returned the aged record instead of a new one")
	}

	if n := countActivities(t, pool, a); n != 2 {
		t.Errorf("expected 2 stored activities, got %d", n)
	}
}

func TestActivityRepo_Record_DifferentActionsAreNotCoalesced(t *testing.T) {
	pool := setupTestPool(t)
	repo := NewActivityRepo(pool)
	ctx := context.Background()
	a := studyActivity(createTestUser(t, pool))

	if _, _, err := repo.Record(ctx, a, 5*time.Second); err != nil {
		t.Fatalf("study Record failed: %v", err)
	}

	complete := *a
	complete.ActionType = models.ActionComplete
	_, created, err := repo.Record(ctx, &complete, 5*time.Second)
	if err != nil {
		t.Fatalf("complete Record failed: %v", err)
	}
	if !created {
		t.Error("different action inside window: created = false, want true")
	}
}
