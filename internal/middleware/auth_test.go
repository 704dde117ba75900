package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/macrolog/internal/auth"
)

func protected(t *testing.T, reached *string) http.Handler {
	t.Helper()
	verifier := auth.NewVerifier("test-secret")
	return RequireUser(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected Identity in request context")
		}
		*reached = id.UserID
		w.WriteHeader(http.StatusOK)
	}))
}

func signed(t *testing.T, secret, userID string) string {
	t.Helper()
	token, err := auth.NewVerifier(secret).Sign(userID, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return token
}

func TestRequireUserNoToken(t *testing.T) {
	var reached string
	handler := protected(t, &reached)

	req := httptest.NewRequest("GET", "/api/foods", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Error("expected error message in body")
	}
	if reached != "" {
		t.Error("handler should not be reached")
	}
}

func TestRequireUserInvalidToken(t *testing.T) {
	var reached string
	handler := protected(t, &reached)

	for name, header := range map[string]string{
		"wrong key":   "Bearer " + signed(t, "other-secret", "user-1"),
		"garbage":     "Bearer nope",
		"basic auth":  "Basic dXNlcjpwYXNz",
		"bare scheme": "Bearer",
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/foods", nil)
			req.Header.Set("Authorization", header)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestRequireUserBearer(t *testing.T) {
	var reached string
	handler := protected(t, &reached)

	req := httptest.NewRequest("GET", "/api/foods", nil)
	req.Header.Set("Authorization", "Bearer "+signed(t, "test-secret", "user-42"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if reached != "user-42" {
		t.Errorf("UserID = %q, want user-42", reached)
	}
}

func TestRequireUserQueryToken(t *testing.T) {
	var reached string
	handler := protected(t, &reached)

	req := httptest.NewRequest("GET", "/ws?access_token="+signed(t, "test-secret", "user-9"), nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if reached != "user-9" {
		t.Errorf("UserID = %q, want user-9", reached)
	}
}
