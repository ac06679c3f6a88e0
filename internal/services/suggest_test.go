package services

import (
	"encoding/json"
	"testing"

	"deckly-backend/internal/models"
)

func TestCleanJSONResponse_StripsCodeFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare json", `[{"front":"a","back":"b"}]`, `[{"front":"a","back":"b"}]`},
		{"json fence", "```json\n[{\"front\":\"a\",\"back\":\"b\"}]\n```", `[{"front":"a","back":"b"}]`},
		{"plain fence", "```\n[]\n```", `[]`},
		{"surrounding whitespace", "  \n[]\n  ", `[]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := cleanJSONResponse(tc.raw)
			if got != tc.want {
				t.Errorf("expected %q, got %q", tc.want, got)
			}

			var cards []models.CardInput
			if err := json.Unmarshal([]byte(got), &cards); err != nil {
				t.Errorf("cleaned output must parse as JSON: %v", err)
			}
		})
	}
}

func TestSuggestService_NilIsDisabled(t *testing.T) {
	svc, err := NewSuggestService("")
	if err != nil {
		t.Fatalf("empty key must not error: %v", err)
	}
	if svc.Enabled() {
		t.Error("expected service disabled without an API key")
	}

	// Close on the nil service must be safe.
	svc.Close()
}
