package handlers

import (
	"encoding/json"
	"testing"

	"deckly-backend/internal/models"
)

func sampleQuestions() []models.QuizQuestion {
	return []models.QuizQuestion{
		{Question: "2+2?", Options: []string{"3", "4", "5"}, CorrectIndex: 1},
		{Question: "Capital of France?", Options: []string{"Paris", "Lyon"}, CorrectIndex: 0},
		{Question: "H2O is?", Options: []string{"Salt", "Water"}, CorrectIndex: 1},
		{Question: "Largest planet?", Options: []string{"Jupiter", "Mars"}, CorrectIndex: 0},
	}
}

func TestGrade_AllCorrect(t *testing.T) {
	correct, score := grade(sampleQuestions(), map[int]int{0: 1, 1: 0, 2: 1, 3: 0})

	if correct != 4 {
		t.Errorf("expected 4 correct, got %d", correct)
	}
	if score != 100 {
		t.Errorf("expected score 100, got %v", score)
	}
}

func TestGrade_PartialAndUnanswered(t *testing.T) {
	// Two right, one wrong, one unanswered.
	correct, score := grade(sampleQuestions(), map[int]int{0: 1, 1: 1, 2: 1})

	if correct != 2 {
		t.Errorf("expected 2 correct, got %d", correct)
	}
	if score != 50 {
		t.Errorf("expected score 50 over all questions, got %v", score)
	}
}

func TestGrade_StrayAnswerIndexes(t *testing.T) {
	// Answers for question indexes the quiz doesn't have are ignored.
	correct, score := grade(sampleQuestions(), map[int]int{7: 0, 42: 1})

	if correct != 0 {
		t.Errorf("expected 0 correct, got %d", correct)
	}
	if score != 0 {
		t.Errorf("expected score 0, got %v", score)
	}
}

func TestGrade_NoQuestions(t *testing.T) {
	correct, score := grade(nil, map[int]int{0: 0})

	if correct != 0 || score != 0 {
		t.Errorf("expected 0/0 for empty quiz, got %d/%v", correct, score)
	}
}

func TestDecodeAnswers_RoundTrip(t *testing.T) {
	answers := map[int]int{0: 2, 3: 1}
	raw, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got := decodeAnswers(raw)
	if len(got) != 2 || got[0] != 2 || got[3] != 1 {
		t.Errorf("expected %v back, got %v", answers, got)
	}
}

func TestDecodeAnswers_EmptyAndMalformed(t *testing.T) {
	if got := decodeAnswers(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty map for nil input, got %v", got)
	}
	if got := decodeAnswers(json.RawMessage(`{}`)); len(got) != 0 {
		t.Errorf("expected empty map for empty object, got %v", got)
	}
	if got := decodeAnswers(json.RawMessage(`not-json`)); got == nil {
		t.Error("expected usable map even for malformed input")
	}
}
