package models

import (
	"time"

	"github.com/google/uuid"
)

// Study modes for a progress record. "normal" is the first pass over a set,
// "review" revisits cards deferred for later, "completed" marks the session
// finished.
const (
	StudyModeNormal    = "normal"
	StudyModeReview    = "review"
	StudyModeCompleted = "completed"
)

// StudyProgress is the resumable study state for one (user, set) pair.
// At most one record exists per pair; saves replace all tracked fields.
type StudyProgress struct {
	UserID           uuid.UUID       `json:"user_id"`
	SetID            uuid.UUID       `json:"set_id"`
	CurrentCardIndex int             `json:"current_card_index"`
	LearnedCards     map[string]bool `json:"learned_cards"`
	ReviewLaterCards map[string]bool `json:"review_later_cards"`
	StudyMode        string          `json:"study_mode"`
	TotalCards       int             `json:"total_cards"`
	LastStudied      time.Time       `json:"last_studied"`
}

type SaveStudyProgressRequest struct {
	CurrentCardIndex int             `json:"current_card_index"`
	LearnedCards     map[string]bool `json:"learned_cards"`
	ReviewLaterCards map[string]bool `json:"review_later_cards"`
	StudyMode        string          `json:"study_mode"`
	TotalCards       int             `json:"total_cards"`
	Stats            *StudyStats     `json:"stats,omitempty"`
}

func ValidStudyMode(mode string) bool {
	switch mode {
	case StudyModeNormal, StudyModeReview, StudyModeCompleted:
		return true
	}
	return false
}
