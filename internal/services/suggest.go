package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"deckly-backend/internal/models"
)

// SuggestService turns pasted study notes into draft flashcards using Gemini.
// Pro-plan feature; the service is nil-safe so the rest of the app runs
// without an API key.
type SuggestService struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewSuggestService(apiKey string) (*SuggestService, error) {
	if apiKey == "" {
		return nil, nil
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	return &SuggestService{client: client, model: model}, nil
}

func (s *SuggestService) Enabled() bool {
	return s != nil && s.client != nil
}

func (s *SuggestService) Close() {
	if s != nil && s.client != nil {
		s.client.Close()
	}
}

// SuggestCards asks the model for numCards front/back pairs drawn from the
// notes. The response must be a bare JSON array; code fences are stripped
// before parsing.
func (s *SuggestService) SuggestCards(ctx context.Context, notes string, numCards int) ([]models.CardInput, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("suggestion service is not configured")
	}
	if numCards <= 0 || numCards > 50 {
		numCards = 10
	}

	prompt := fmt.Sprintf(`You create study flashcards. From the notes below, produce exactly %d flashcards.
Respond with ONLY a JSON array, no prose, in this shape:
[{"front": "term or question", "back": "definition or answer"}]

Notes:
%s`, numCards, notes)

	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	raw := cleanJSONResponse(extractText(resp))

	var cards []models.CardInput
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		return nil, fmt.Errorf("failed to parse suggested cards: %w", err)
	}

	// Drop incomplete pairs rather than failing the batch.
	out := cards[:0]
	for _, c := range cards {
		if c.Front != "" && c.Back != "" {
			out = append(out, c)
		}
	}
	return out, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	return sb.String()
}

func cleanJSONResponse(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	return strings.TrimSpace(raw)
}
