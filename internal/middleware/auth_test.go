package middleware

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fanpost/kanva/internal/auth"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/handler"
	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockVerifier implements TokenVerifier for testing.
type mockVerifier struct {
	VerifyFunc func(raw string) (*domain.Identity, error)
}

func (m *mockVerifier) Verify(raw string) (*domain.Identity, error) {
	return m.VerifyFunc(raw)
}

func acceptToken(valid string, id *domain.Identity) *mockVerifier {
	return &mockVerifier{VerifyFunc: func(raw string) (*domain.Identity, error) {
		if raw != valid {
			return nil, errors.New("invalid token")
		}
		return id, nil
	}}
}

func TestAuthMiddleware_WithIdentity(t *testing.T) {
	caller := &domain.Identity{ID: uuid.New(), Email: "coach@example.ch"}
	mw := NewAuthMiddleware(acceptToken("good", caller), testLogger())

	tests := []struct {
		name   string
		header string
		want   *domain.Identity
	}{
		{"valid bearer", "Bearer good", caller},
		{"case-insensitive scheme", "bearer good", caller},
		{"invalid token", "Bearer bad", nil},
		{"no header", "", nil},
		{"basic scheme", "Basic Z29vZA==", nil},
		{"empty token", "Bearer ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *domain.Identity
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got = auth.GetIdentity(r.Context())
			})

			req := httptest.NewRequest("GET", "/api/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			mw.WithIdentity(next).ServeHTTP(httptest.NewRecorder(), req)

			if !called {
				t.Fatal("expected next handler to be called")
			}
			if got != tt.want {
				t.Errorf("identity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_Authenticated(t *testing.T) {
	caller := &domain.Identity{ID: uuid.New()}
	mw := NewAuthMiddleware(acceptToken("good", caller), testLogger())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := mw.Authenticated(next)

	t.Run("valid token passes", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("missing token is 401 JSON", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/me", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if rec.Header().Get("WWW-Authenticate") == "" {
			t.Error("expected WWW-Authenticate header")
		}

		var body handler.JSONError
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Error.Code != domain.EUNAUTHORIZED {
			t.Errorf("expected code %q, got %q", domain.EUNAUTHORIZED, body.Error.Code)
		}
	})

	t.Run("expired token is 401", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/me", nil)
		req.Header.Set("Authorization", "Bearer expired")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", rec.Code)
		}
	})
}

func TestStack_Order(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Stack(mark("outer"), mark("inner"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
		}
	}
}

func TestRecover(t *testing.T) {
	h := Recover(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("POST", "/api/slots", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body handler.JSONError
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Message != "An unexpected error occurred" {
		t.Errorf("unexpected message %q", body.Error.Message)
	}
}
