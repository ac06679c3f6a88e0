package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type UserSettings struct {
	UserID            uuid.UUID       `json:"user_id"`
	DefaultStudyMode  string          `json:"default_study_mode"` // "normal" | "review"
	CardsPerSession   int             `json:"cards_per_session"`
	Language          string          `json:"language"`
	NotificationsJSON json.RawMessage `json:"notifications"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// WebSocket message envelope
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
