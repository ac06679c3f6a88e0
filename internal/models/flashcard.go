package models

import (
	"time"

	"github.com/google/uuid"
)

type FlashcardSet struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	CardCount   int       `json:"card_count"`
	IsFavorite  bool      `json:"is_favorite"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Flashcard struct {
	ID       uuid.UUID `json:"id"`
	SetID    uuid.UUID `json:"set_id"`
	Front    string    `json:"front"`
	Back     string    `json:"back"`
	Position int       `json:"position"`
}

type CardInput struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

type CreateSetRequest struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Cards       []CardInput `json:"cards"`
}

type UpdateSetRequest struct {
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	Cards       []CardInput `json:"cards"`
}

// StudyStats is the client-reported outcome of one study pass over a set.
type StudyStats struct {
	CardsStudied      int     `json:"cards_studied"`
	CorrectPercentage float64 `json:"correct_percentage"`
	TimeSpent         int     `json:"time_spent"` // seconds
}

type SuggestCardsRequest struct {
	Notes    string `json:"notes"`
	NumCards int    `json:"num_cards"`
}
