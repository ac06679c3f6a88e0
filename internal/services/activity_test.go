package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"deckly-backend/internal/models"
)

type fakeActivityStore struct {
	calls   int
	last    *models.Activity
	failErr error
	// existing simulates a row already inside the dedup window
	existing *models.Activity
}

func (f *fakeActivityStore) Record(ctx context.Context, a *models.Activity, window time.Duration) (*models.Activity, bool, error) {
	f.calls++
	f.last = a
	if f.failErr != nil {
		return nil, false, f.failErr
	}
	if f.existing != nil {
		return f.existing, false, nil
	}
	out := *a
	out.ID = uuid.New()
	out.CreatedAt = time.Now()
	return &out, true, nil
}

func validParams() ActivityParams {
	return ActivityParams{
		UserID:     uuid.New(),
		Title:      "Spanish Vocab",
		ItemType:   models.ItemTypeFlashcard,
		ActionType: models.ActionStudy,
		ItemID:     uuid.New(),
	}
}

func TestLogActivity_RecordsValidInput(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, nil, 5*time.Second)

	got := svc.LogActivity(context.Background(), validParams())
	if got == nil {
		t.Fatal("expected a recorded activity")
	}
	if store.calls != 1 {
		t.Fatalf("expected one store call, got %d", store.calls)
	}
	if got.ID == uuid.Nil {
		t.Error("expected recorded activity to carry an ID")
	}
}

func TestLogActivity_InvalidInputNeverReachesStore(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ActivityParams)
	}{
		{"missing user", func(p *ActivityParams) { p.UserID = uuid.Nil }},
		{"missing item", func(p *ActivityParams) { p.ItemID = uuid.Nil }},
		{"empty title", func(p *ActivityParams) { p.Title = "" }},
		{"unknown item type", func(p *ActivityParams) { p.ItemType = "note" }},
		{"unknown action type", func(p *ActivityParams) { p.ActionType = "archive" }},
		{"empty action type", func(p *ActivityParams) { p.ActionType = "" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeActivityStore{}
			svc := NewActivityService(store, nil, 5*time.Second)

			p := validParams()
			tc.mutate(&p)

			if got := svc.LogActivity(context.Background(), p); got != nil {
				t.Errorf("expected nil for invalid input, got %+v", got)
			}
			if store.calls != 0 {
				t.Errorf("invalid input must not reach the store, got %d calls", store.calls)
			}
		})
	}
}

func TestLogActivity_StorageErrorIsSwallowed(t *testing.T) {
	store := &fakeActivityStore{failErr: errors.New("connection refused")}
	svc := NewActivityService(store, nil, 5*time.Second)

	// Must not panic or propagate; the caller's operation goes on.
	if got := svc.LogActivity(context.Background(), validParams()); got != nil {
		t.Errorf("expected nil on storage failure, got %+v", got)
	}
}

func TestLogActivity_DuplicateReturnsExistingRecord(t *testing.T) {
	existing := &models.Activity{
		ID:        uuid.New(),
		Title:     "Spanish Vocab",
		CreatedAt: time.Now().Add(-2 * time.Second),
	}
	store := &fakeActivityStore{existing: existing}
	svc := NewActivityService(store, nil, 5*time.Second)

	got := svc.LogActivity(context.Background(), validParams())
	if got == nil {
		t.Fatal("expected the existing record back")
	}
	if got.ID != existing.ID {
		t.Errorf("expected the deduplicated record, got ID %s", got.ID)
	}
}

func TestLogActivity_DefaultsMetadataToEmptyObject(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, nil, 5*time.Second)

	svc.LogActivity(context.Background(), validParams())

	if store.last == nil {
		t.Fatal("expected store call")
	}
	if string(store.last.Metadata) != "{}" {
		t.Errorf("expected empty-object metadata, got %s", store.last.Metadata)
	}
}

func TestLogFlashcardStudy_NilStatsDefaultToZero(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, nil, 5*time.Second)

	set := &models.FlashcardSet{ID: uuid.New(), Title: "Biology"}
	got := svc.LogFlashcardStudy(context.Background(), uuid.New(), set, nil)
	if got == nil {
		t.Fatal("expected a recorded activity")
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(store.last.Metadata, &meta); err != nil {
		t.Fatalf("failed to parse metadata: %v", err)
	}
	if meta["cardsStudied"] != float64(0) {
		t.Errorf("expected cardsStudied 0, got %v", meta["cardsStudied"])
	}
	if meta["correctPercentage"] != float64(0) {
		t.Errorf("expected correctPercentage 0, got %v", meta["correctPercentage"])
	}
	if meta["timeSpent"] != float64(0) {
		t.Errorf("expected timeSpent 0, got %v", meta["timeSpent"])
	}
}

func TestLogFlashcardCreation_CarriesCardCount(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, nil, 5*time.Second)

	set := &models.FlashcardSet{ID: uuid.New(), Title: "Chemistry", CardCount: 24}
	if got := svc.LogFlashcardCreation(context.Background(), uuid.New(), set); got == nil {
		t.Fatal("expected a recorded activity")
	}

	if store.last.ItemType != models.ItemTypeFlashcard || store.last.ActionType != models.ActionCreate {
		t.Errorf("unexpected item/action: %s/%s", store.last.ItemType, store.last.ActionType)
	}

	var meta map[string]interface{}
	json.Unmarshal(store.last.Metadata, &meta)
	if meta["cardCount"] != float64(24) {
		t.Errorf("expected cardCount 24, got %v", meta["cardCount"])
	}
}

func TestLogQuizCompletion_CarriesResult(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, nil, 5*time.Second)

	quiz := &models.Quiz{ID: uuid.New(), Title: "Midterm Review"}
	result := &models.QuizResult{Score: 87.5, QuestionsAnswered: 8, TimeSpent: 312}
	if got := svc.LogQuizCompletion(context.Background(), uuid.New(), quiz, result); got == nil {
		t.Fatal("expected a recorded activity")
	}

	if store.last.ItemType != models.ItemTypeQuiz || store.last.ActionType != models.ActionComplete {
		t.Errorf("unexpected item/action: %s/%s", store.last.ItemType, store.last.ActionType)
	}

	var meta map[string]interface{}
	json.Unmarshal(store.last.Metadata, &meta)
	if meta["score"] != 87.5 {
		t.Errorf("expected score 87.5, got %v", meta["score"])
	}
	if meta["questionsAnswered"] != float64(8) {
		t.Errorf("expected questionsAnswered 8, got %v", meta["questionsAnswered"])
	}
}

func TestLogWrappers_NilSubjectIsNoOp(t *testing.T) {
	store := &fakeActivityStore{}
	svc := NewActivityService(store, nil, 5*time.Second)
	userID := uuid.New()

	if svc.LogFlashcardCreation(context.Background(), userID, nil) != nil {
		t.Error("expected nil for nil set")
	}
	if svc.LogFlashcardStudy(context.Background(), userID, nil, &models.StudyStats{}) != nil {
		t.Error("expected nil for nil set")
	}
	if svc.LogQuizCompletion(context.Background(), userID, nil, nil) != nil {
		t.Error("expected nil for nil quiz")
	}
	if store.calls != 0 {
		t.Errorf("nil subjects must not reach the store, got %d calls", store.calls)
	}
}
