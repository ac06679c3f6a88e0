package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"deckly-backend/internal/models"
)

func decodeErrorEnvelope(t *testing.T, rr *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	return resp
}

func TestAuth_RegisterRejectsMalformedBody(t *testing.T) {
	// A nil service proves validation answers before the service is touched.
	h := NewAuthHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.Register(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rr.Code)
	}
	if resp := decodeErrorEnvelope(t, rr); resp.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %q", resp.Error.Code)
	}
}

func TestAuth_RefreshRequiresToken(t *testing.T) {
	h := NewAuthHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.Refresh(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty refresh token, got %d", rr.Code)
	}
}

func TestAuth_VerifyEmailRequiresToken(t *testing.T) {
	h := NewAuthHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/auth/verify", nil)
	rr := httptest.NewRecorder()
	h.VerifyEmail(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing token, got %d", rr.Code)
	}
}

func TestAuth_LogoutWithoutTokenStillSucceeds(t *testing.T) {
	h := NewAuthHandler(nil)

	for _, body := range []string{`{}`, `not json`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/auth/logout", strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.Logout(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("body %q: expected 200, got %d", body, rr.Code)
		}
	}
}

func TestAuth_ResendVerificationRequiresEmail(t *testing.T) {
	h := NewAuthHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/auth/resend-verification", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ResendVerification(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", rr.Code)
	}
}
