package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/google/uuid"
)

func TestTeamSlotHandler_List(t *testing.T) {
	now := time.Now().UTC()
	slots := &mockTeamSlotService{
		ListSlotsFunc: func(ctx context.Context, ownerID uuid.UUID) ([]domain.TeamSlot, error) {
			if ownerID != testIdentity.ID {
				t.Errorf("expected owner %s, got %s", testIdentity.ID, ownerID)
			}
			return []domain.TeamSlot{
				{ID: uuid.New(), OwnerID: ownerID, TeamID: "429", LastChangedAt: now},
				{ID: uuid.New(), OwnerID: ownerID, TeamID: "430", LastChangedAt: now.Add(-8 * domain.Day)},
			}, nil
		},
		DaysUntilEditableFunc: func(slot *domain.TeamSlot) int {
			return slot.DaysUntilEditable(now)
		},
	}
	h := NewTeamSlotHandler(slots, testLogger())

	rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) }, http.MethodGet, "/api/slots", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Slots []slotView `json:"slots"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(body.Slots))
	}
	if body.Slots[0].DaysUntilEditable != 7 || body.Slots[0].Editable {
		t.Errorf("fresh slot: expected 7 days and not editable, got %+v", body.Slots[0])
	}
	if body.Slots[1].DaysUntilEditable != 0 || !body.Slots[1].Editable {
		t.Errorf("old slot: expected editable, got %+v", body.Slots[1])
	}
}

func TestTeamSlotHandler_Ensure(t *testing.T) {
	tests := []struct {
		name    string
		created bool
		err     error
		status  int
	}{
		{"new slot", true, nil, http.StatusCreated},
		{"existing slot", false, nil, http.StatusOK},
		{"quota reached", false, domain.QuotaExceeded("op", 1, 1), http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slots := &mockTeamSlotService{
				EnsureSlotFunc: func(ctx context.Context, ownerID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, bool, error) {
					if team.TeamID != "429" || team.Sport != domain.SportUnihockey {
						t.Errorf("unexpected team ref %+v", team)
					}
					if tt.err != nil {
						return nil, false, tt.err
					}
					return &domain.TeamSlot{ID: uuid.New(), OwnerID: ownerID, TeamID: team.TeamID}, tt.created, nil
				},
			}
			h := NewTeamSlotHandler(slots, testLogger())

			rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) },
				http.MethodPost, "/api/slots", `{"team_id":"429","sport":"unihockey"}`)

			if rec.Code != tt.status {
				t.Errorf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestTeamSlotHandler_Ensure_MalformedBody(t *testing.T) {
	slots := &mockTeamSlotService{
		EnsureSlotFunc: func(ctx context.Context, ownerID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, bool, error) {
			t.Error("service should not be called")
			return nil, false, nil
		},
	}
	h := NewTeamSlotHandler(slots, testLogger())

	rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) },
		http.MethodPost, "/api/slots", `{"team_id":`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", rec.Code)
	}
}

func TestTeamSlotHandler_Rebind_Cooldown(t *testing.T) {
	slotID := uuid.New()
	slots := &mockTeamSlotService{
		RebindSlotFunc: func(ctx context.Context, ownerID, id uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, error) {
			if id != slotID {
				t.Errorf("expected slot %s, got %s", slotID, id)
			}
			return nil, domain.CooldownActive("op", 4)
		},
	}
	h := NewTeamSlotHandler(slots, testLogger())

	rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) },
		http.MethodPut, "/api/slots/"+slotID.String(), `{"team_id":"500"}`)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rec.Code)
	}
	if got := decodeError(t, rec).Error.Details["days_remaining"]; got != 4 {
		t.Errorf("expected days_remaining 4, got %d", got)
	}
}

func TestTeamSlotHandler_Delete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h := NewTeamSlotHandler(&mockTeamSlotService{}, testLogger())
		rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) },
			http.MethodDelete, "/api/slots/"+uuid.NewString(), "")
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}
	})

	t.Run("invalid id is not found", func(t *testing.T) {
		h := NewTeamSlotHandler(&mockTeamSlotService{}, testLogger())
		rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, fakeAuth) },
			http.MethodDelete, "/api/slots/not-a-uuid", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		h := NewTeamSlotHandler(&mockTeamSlotService{}, testLogger())
		rec := serve(func(mux *http.ServeMux) { h.RegisterRoutes(mux, noAuth) },
			http.MethodDelete, "/api/slots/"+uuid.NewString(), "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})
}
