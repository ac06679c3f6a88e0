package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	ItemTypeFlashcard = "flashcard"
	ItemTypeQuiz      = "quiz"
)

const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionStudy    = "study"
	ActionComplete = "complete"
)

// Activity is one logged user action against a content item. Records are
// append-only; near-simultaneous duplicates of the same (user, item, action)
// are coalesced at insert time and the existing record returned untouched.
type Activity struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	Title      string          `json:"title"`
	ItemType   string          `json:"item_type"`
	ActionType string          `json:"action_type"`
	ItemID     uuid.UUID       `json:"item_id"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"created_at"`
}

func ValidItemType(t string) bool {
	return t == ItemTypeFlashcard || t == ItemTypeQuiz
}

func ValidActionType(a string) bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionStudy, ActionComplete:
		return true
	}
	return false
}
