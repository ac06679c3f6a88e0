package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"deckly-backend/internal/models"
)

// ActivityStore is the storage primitive the recorder relies on: an atomic
// find-or-create scoped to (user, item, action) within the dedup window.
type ActivityStore interface {
	Record(ctx context.Context, a *models.Activity, window time.Duration) (*models.Activity, bool, error)
}

// ActivityParams describes one user action to log. UserID, Title, ItemType,
// ActionType and ItemID are required; Metadata is free-form and depends on
// the action (cardCount, cardsStudied, correctPercentage, timeSpent, score,
// questionsAnswered).
type ActivityParams struct {
	UserID     uuid.UUID
	Title      string
	ItemType   string
	ActionType string
	ItemID     uuid.UUID
	Metadata   map[string]interface{}
}

// ActivityService records the user activity feed. Logging is best-effort BY
// CONTRACT: invalid input degrades to a no-op and storage failures are logged
// and swallowed, so the business operation that triggered the log always
// proceeds. Do not change this into a call whose error the caller must handle.
type ActivityService struct {
	store  ActivityStore
	pubsub *redis.Client
	window time.Duration
}

// NewActivityService builds a recorder with the given dedup window. pubsub
// may be nil; live feed publishing is then skipped.
func NewActivityService(store ActivityStore, pubsub *redis.Client, window time.Duration) *ActivityService {
	return &ActivityService{store: store, pubsub: pubsub, window: window}
}

// LogActivity records one action, coalescing duplicates of the same
// (user, item, action) inside the dedup window into the existing record.
// Returns nil when nothing was recorded, never an error.
func (s *ActivityService) LogActivity(ctx context.Context, p ActivityParams) *models.Activity {
	if p.UserID == uuid.Nil || p.ItemID == uuid.Nil || p.Title == "" {
		return nil
	}
	if !models.ValidItemType(p.ItemType) || !models.ValidActionType(p.ActionType) {
		return nil
	}

	metadata := json.RawMessage("{}")
	if p.Metadata != nil {
		b, err := json.Marshal(p.Metadata)
		if err != nil {
			log.Printf("activity: failed to marshal metadata for %s/%s: %v", p.ItemType, p.ActionType, err)
			return nil
		}
		metadata = b
	}

	activity := &models.Activity{
		UserID:     p.UserID,
		Title:      p.Title,
		ItemType:   p.ItemType,
		ActionType: p.ActionType,
		ItemID:     p.ItemID,
		Metadata:   metadata,
	}

	recorded, created, err := s.store.Record(ctx, activity, s.window)
	if err != nil {
		log.Printf("activity: failed to record %s/%s for user %s: %v", p.ItemType, p.ActionType, p.UserID, err)
		return nil
	}

	if created {
		s.publish(ctx, recorded)
	}
	return recorded
}

// publish pushes a new feed entry to the user's live channel. Best-effort,
// same as the rest of the recorder.
func (s *ActivityService) publish(ctx context.Context, a *models.Activity) {
	if s.pubsub == nil {
		return
	}

	msg, err := json.Marshal(models.WSMessage{Type: "activity", Payload: a})
	if err != nil {
		return
	}

	if err := s.pubsub.Publish(ctx, "activity_feed:"+a.UserID.String(), msg).Err(); err != nil {
		log.Printf("activity: failed to publish feed event for user %s: %v", a.UserID, err)
	}
}

// Convenience wrappers. Pure field mapping over LogActivity; absent numeric
// stats default to 0.

func (s *ActivityService) LogFlashcardCreation(ctx context.Context, userID uuid.UUID, set *models.FlashcardSet) *models.Activity {
	if set == nil {
		return nil
	}
	return s.LogActivity(ctx, ActivityParams{
		UserID:     userID,
		Title:      set.Title,
		ItemType:   models.ItemTypeFlashcard,
		ActionType: models.ActionCreate,
		ItemID:     set.ID,
		Metadata:   map[string]interface{}{"cardCount": set.CardCount},
	})
}

func (s *ActivityService) LogFlashcardUpdate(ctx context.Context, userID uuid.UUID, set *models.FlashcardSet) *models.Activity {
	if set == nil {
		return nil
	}
	return s.LogActivity(ctx, ActivityParams{
		UserID:     userID,
		Title:      set.Title,
		ItemType:   models.ItemTypeFlashcard,
		ActionType: models.ActionUpdate,
		ItemID:     set.ID,
		Metadata:   map[string]interface{}{"cardCount": set.CardCount},
	})
}

func (s *ActivityService) LogFlashcardStudy(ctx context.Context, userID uuid.UUID, set *models.FlashcardSet, stats *models.StudyStats) *models.Activity {
	if set == nil {
		return nil
	}
	if stats == nil {
		stats = &models.StudyStats{}
	}
	return s.LogActivity(ctx, ActivityParams{
		UserID:     userID,
		Title:      set.Title,
		ItemType:   models.ItemTypeFlashcard,
		ActionType: models.ActionStudy,
		ItemID:     set.ID,
		Metadata: map[string]interface{}{
			"cardsStudied":      stats.CardsStudied,
			"correctPercentage": stats.CorrectPercentage,
			"timeSpent":         stats.TimeSpent,
		},
	})
}

func (s *ActivityService) LogQuizCreation(ctx context.Context, userID uuid.UUID, quiz *models.Quiz) *models.Activity {
	if quiz == nil {
		return nil
	}
	return s.LogActivity(ctx, ActivityParams{
		UserID:     userID,
		Title:      quiz.Title,
		ItemType:   models.ItemTypeQuiz,
		ActionType: models.ActionCreate,
		ItemID:     quiz.ID,
		Metadata:   map[string]interface{}{"questionCount": quiz.QuestionCount},
	})
}

func (s *ActivityService) LogQuizCompletion(ctx context.Context, userID uuid.UUID, quiz *models.Quiz, result *models.QuizResult) *models.Activity {
	if quiz == nil {
		return nil
	}
	if result == nil {
		result = &models.QuizResult{}
	}
	return s.LogActivity(ctx, ActivityParams{
		UserID:     userID,
		Title:      quiz.Title,
		ItemType:   models.ItemTypeQuiz,
		ActionType: models.ActionComplete,
		ItemID:     quiz.ID,
		Metadata: map[string]interface{}{
			"score":             result.Score,
			"questionsAnswered": result.QuestionsAnswered,
			"timeSpent":         result.TimeSpent,
		},
	})
}
