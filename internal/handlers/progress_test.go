package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"deckly-backend/internal/middleware"
	"deckly-backend/internal/models"
)

// fakeProgressStore keeps records in a map keyed by (user, set), mirroring the
// one-record-per-pair storage contract.
type fakeProgressStore struct {
	records map[[2]uuid.UUID]*models.StudyProgress
	saves   int
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: make(map[[2]uuid.UUID]*models.StudyProgress)}
}

func (f *fakeProgressStore) Get(ctx context.Context, userID, setID uuid.UUID) (*models.StudyProgress, error) {
	p, ok := f.records[[2]uuid.UUID{userID, setID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgressStore) Save(ctx context.Context, p *models.StudyProgress) error {
	f.saves++
	cp := *p
	f.records[[2]uuid.UUID{p.UserID, p.SetID}] = &cp
	return nil
}

func (f *fakeProgressStore) Reset(ctx context.Context, userID, setID uuid.UUID) (bool, error) {
	key := [2]uuid.UUID{userID, setID}
	_, ok := f.records[key]
	delete(f.records, key)
	return ok, nil
}

func newProgressRouter(store *fakeProgressStore, userID uuid.UUID) http.Handler {
	h := NewStudyProgressHandler(store, nil, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/study-progress/{setId}", h.Get)
	r.Post("/study-progress/{setId}", h.Save)
	r.Delete("/study-progress/{setId}", h.Reset)
	return r
}

func TestStudyProgress_GetMissingIs404(t *testing.T) {
	store := newFakeProgressStore()
	router := newProgressRouter(store, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/study-progress/"+uuid.NewString(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing progress, got %d", rr.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND code, got %q", resp.Error.Code)
	}
}

func TestStudyProgress_SaveThenGetRoundTrip(t *testing.T) {
	store := newFakeProgressStore()
	userID := uuid.New()
	setID := uuid.New()
	router := newProgressRouter(store, userID)

	body, _ := json.Marshal(models.SaveStudyProgressRequest{
		CurrentCardIndex: 4,
		LearnedCards:     map[string]bool{"card-1": true, "card-2": true},
		ReviewLaterCards: map[string]bool{"card-3": true},
		StudyMode:        models.StudyModeNormal,
		TotalCards:       10,
	})

	req := httptest.NewRequest(http.MethodPost, "/study-progress/"+setID.String(), bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on save, got %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/study-progress/"+setID.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on get, got %d", rr.Code)
	}

	var got models.StudyProgress
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode progress: %v", err)
	}

	if got.CurrentCardIndex != 4 {
		t.Errorf("expected current_card_index 4, got %d", got.CurrentCardIndex)
	}
	if !got.LearnedCards["card-1"] || !got.LearnedCards["card-2"] {
		t.Errorf("learned cards did not round-trip: %v", got.LearnedCards)
	}
	if !got.ReviewLaterCards["card-3"] {
		t.Errorf("review-later cards did not round-trip: %v", got.ReviewLaterCards)
	}
	if got.StudyMode != models.StudyModeNormal {
		t.Errorf("expected study_mode normal, got %q", got.StudyMode)
	}
	if got.TotalCards != 10 {
		t.Errorf("expected total_cards 10, got %d", got.TotalCards)
	}
}

func TestStudyProgress_SecondSaveReplacesFirst(t *testing.T) {
	store := newFakeProgressStore()
	userID := uuid.New()
	setID := uuid.New()
	router := newProgressRouter(store, userID)

	save := func(req models.SaveStudyProgressRequest) {
		body, _ := json.Marshal(req)
		r := httptest.NewRequest(http.MethodPost, "/study-progress/"+setID.String(), bytes.NewReader(body))
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, r)
		if rr.Code != http.StatusOK {
			t.Fatalf("save failed with %d: %s", rr.Code, rr.Body.String())
		}
	}

	save(models.SaveStudyProgressRequest{
		CurrentCardIndex: 2,
		LearnedCards:     map[string]bool{"a": true, "b": true},
		StudyMode:        models.StudyModeNormal,
		TotalCards:       5,
	})
	save(models.SaveStudyProgressRequest{
		CurrentCardIndex: 0,
		LearnedCards:     map[string]bool{"c": true},
		StudyMode:        models.StudyModeReview,
		TotalCards:       5,
	})

	got, err := store.Get(context.Background(), userID, setID)
	if err != nil {
		t.Fatalf("expected record after saves: %v", err)
	}
	if got.StudyMode != models.StudyModeReview {
		t.Errorf("expected second save to win, got mode %q", got.StudyMode)
	}
	if len(got.LearnedCards) != 1 || !got.LearnedCards["c"] {
		t.Errorf("expected learned cards fully replaced, got %v", got.LearnedCards)
	}
}

func TestStudyProgress_SaveValidation(t *testing.T) {
	tests := []struct {
		name string
		req  models.SaveStudyProgressRequest
	}{
		{"unknown study mode", models.SaveStudyProgressRequest{StudyMode: "cramming", TotalCards: 5}},
		{"empty study mode", models.SaveStudyProgressRequest{TotalCards: 5}},
		{"negative card index", models.SaveStudyProgressRequest{StudyMode: models.StudyModeNormal, CurrentCardIndex: -1}},
		{"negative total cards", models.SaveStudyProgressRequest{StudyMode: models.StudyModeNormal, TotalCards: -3}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := newFakeProgressStore()
			router := newProgressRouter(store, uuid.New())

			body, _ := json.Marshal(tc.req)
			req := httptest.NewRequest(http.MethodPost, "/study-progress/"+uuid.NewString(), bytes.NewReader(body))
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if store.saves != 0 {
				t.Errorf("invalid request must not reach storage, got %d saves", store.saves)
			}
		})
	}
}

func TestStudyProgress_SaveIndexPastEndIsAccepted(t *testing.T) {
	// The client owns index semantics; the index may point past the last
	// card and is stored as sent.
	store := newFakeProgressStore()
	userID := uuid.New()
	setID := uuid.New()
	router := newProgressRouter(store, userID)

	body, _ := json.Marshal(models.SaveStudyProgressRequest{
		CurrentCardIndex: 99,
		StudyMode:        models.StudyModeCompleted,
		TotalCards:       10,
	})
	req := httptest.NewRequest(http.MethodPost, "/study-progress/"+setID.String(), bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	got, _ := store.Get(context.Background(), userID, setID)
	if got.CurrentCardIndex != 99 {
		t.Errorf("expected index stored as sent, got %d", got.CurrentCardIndex)
	}
}

func TestStudyProgress_SaveDefaultsNilMaps(t *testing.T) {
	store := newFakeProgressStore()
	userID := uuid.New()
	setID := uuid.New()
	router := newProgressRouter(store, userID)

	req := httptest.NewRequest(http.MethodPost, "/study-progress/"+setID.String(),
		bytes.NewReader([]byte(`{"study_mode":"normal","total_cards":3}`)))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	got, _ := store.Get(context.Background(), userID, setID)
	if got.LearnedCards == nil || got.ReviewLaterCards == nil {
		t.Fatalf("expected card maps defaulted to empty, got learned=%v review=%v",
			got.LearnedCards, got.ReviewLaterCards)
	}
	if len(got.LearnedCards) != 0 || len(got.ReviewLaterCards) != 0 {
		t.Errorf("expected empty card maps, got learned=%v review=%v",
			got.LearnedCards, got.ReviewLaterCards)
	}
}

func TestStudyProgress_ResetReportsWhetherRecordExisted(t *testing.T) {
	store := newFakeProgressStore()
	userID := uuid.New()
	setID := uuid.New()
	router := newProgressRouter(store, userID)

	store.Save(context.Background(), &models.StudyProgress{
		UserID: userID, SetID: setID, StudyMode: models.StudyModeNormal,
	})

	req := httptest.NewRequest(http.MethodDelete, "/study-progress/"+setID.String(), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp map[string]bool
	json.NewDecoder(rr.Body).Decode(&resp)
	if !resp["deleted"] {
		t.Errorf("expected deleted=true for existing record")
	}

	// Second reset is still OK, just reports nothing was there.
	req = httptest.NewRequest(http.MethodDelete, "/study-progress/"+setID.String(), nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for reset of missing record, got %d", rr.Code)
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["deleted"] {
		t.Errorf("expected deleted=false when no record existed")
	}
}

func TestStudyProgress_InvalidSetID(t *testing.T) {
	store := newFakeProgressStore()
	router := newProgressRouter(store, uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/study-progress/not-a-uuid", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed set ID, got %d", rr.Code)
	}
}
