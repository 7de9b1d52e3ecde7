package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/google/uuid"
)

func TestAccountHandler_Me(t *testing.T) {
	accounts := &mockAccountService{
		GetAccountFunc: func(ctx context.Context, caller *domain.Identity) (*domain.Account, error) {
			return &domain.Account{
				UserID:        caller.ID,
				Email:         caller.Email,
				Role:          domain.RolePaid,
				IsPaid:        true,
				CreditsStatus: domain.CreditsStatusReady,
			}, nil
		},
	}
	h := NewAccountHandler(accounts, testLogger())

	rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) }, http.MethodGet, "/api/me", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var account domain.Account
	if err := json.NewDecoder(rec.Body).Decode(&account); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if account.UserID != testIdentity.ID || !account.IsPaid {
		t.Errorf("unexpected account %+v", account)
	}
}

func TestAccountHandler_DeleteAccount(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		h := NewAccountHandler(&mockAccountService{}, testLogger())

		rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) }, http.MethodDelete, "/api/account", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		var body deleteAccountResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "complete" || len(body.FailedSteps) != 0 {
			t.Errorf("unexpected body %+v", body)
		}
	})

	t.Run("partial hides step errors", func(t *testing.T) {
		accounts := &mockAccountService{
			DeleteAccountFunc: func(ctx context.Context, userID uuid.UUID) (*domain.DeletionResult, error) {
				result := &domain.DeletionResult{UserID: userID, IdentityRemoved: true}
				result.Record(domain.DeleteStepTeamSlots, 2, nil)
				result.Record(domain.DeleteStepFiles, 0, errors.New("s3: access denied for bucket kanva-private"))
				return result, nil
			},
		}
		h := NewAccountHandler(accounts, testLogger())

		rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) }, http.MethodDelete, "/api/account", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if strings.Contains(rec.Body.String(), "kanva-private") {
			t.Errorf("response leaks step error: %s", rec.Body.String())
		}
		var body deleteAccountResponse
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body.Status != "partial" {
			t.Errorf("expected status partial, got %q", body.Status)
		}
		if len(body.FailedSteps) != 1 || body.FailedSteps[0] != domain.DeleteStepFiles {
			t.Errorf("expected failed step %q, got %v", domain.DeleteStepFiles, body.FailedSteps)
		}
	})

	t.Run("identity removal failed", func(t *testing.T) {
		accounts := &mockAccountService{
			DeleteAccountFunc: func(ctx context.Context, userID uuid.UUID) (*domain.DeletionResult, error) {
				return nil, domain.Unavailable(errors.New("timeout"), "op", "Identity provider unavailable")
			},
		}
		h := NewAccountHandler(accounts, testLogger())

		rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) }, http.MethodDelete, "/api/account", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status 503, got %d", rec.Code)
		}
	})
}
