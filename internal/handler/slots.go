package handler

import (
	"log/slog"
	"net/http"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/service"
)

// TeamSlotHandler manages the caller's team slots.
//
// Routes handled:
//   - GET    /api/slots      -> List
//   - POST   /api/slots      -> Ensure
//   - PUT    /api/slots/{id} -> Rebind
//   - DELETE /api/slots/{id} -> Delete
type TeamSlotHandler struct {
	slots  service.TeamSlotService
	logger *slog.Logger
}

// NewTeamSlotHandler creates a new TeamSlotHandler.
func NewTeamSlotHandler(slots service.TeamSlotService, logger *slog.Logger) *TeamSlotHandler {
	return &TeamSlotHandler{
		slots:  slots,
		logger: logger,
	}
}

// RegisterRoutes registers slot routes with the provided middleware.
func (h *TeamSlotHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/slots", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/slots", requireUser(http.HandlerFunc(h.Ensure)))
	mux.Handle("PUT /api/slots/{id}", requireUser(http.HandlerFunc(h.Rebind)))
	mux.Handle("DELETE /api/slots/{id}", requireUser(http.HandlerFunc(h.Delete)))
}

// slotView is a slot plus the cooldown the UI shows next to it.
type slotView struct {
	domain.TeamSlot
	DaysUntilEditable int  `json:"days_until_editable"`
	Editable          bool `json:"editable"`
}

func (h *TeamSlotHandler) view(slot *domain.TeamSlot) slotView {
	days := h.slots.DaysUntilEditable(slot)
	return slotView{TeamSlot: *slot, DaysUntilEditable: days, Editable: days == 0}
}

// List returns the caller's slots, oldest first.
func (h *TeamSlotHandler) List(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	slots, err := h.slots.ListSlots(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	views := make([]slotView, len(slots))
	for i := range slots {
		views[i] = h.view(&slots[i])
	}
	WriteJSON(w, http.StatusOK, map[string]any{"slots": views})
}

// Ensure binds a team to a slot. 201 when a slot was created, 200 when the
// team already had one.
func (h *TeamSlotHandler) Ensure(w http.ResponseWriter, r *http.Request) {
	const op = "TeamSlotHandler.Ensure"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var team domain.TeamRef
	if err := decodeJSON(w, r, op, &team); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	slot, created, err := h.slots.EnsureSlot(r.Context(), id.ID, team)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	WriteJSON(w, status, h.view(slot))
}

// Rebind points a slot at another team.
func (h *TeamSlotHandler) Rebind(w http.ResponseWriter, r *http.Request) {
	const op = "TeamSlotHandler.Rebind"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	slotID, err := pathUUID(r, op, "id", "team slot")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var team domain.TeamRef
	if err := decodeJSON(w, r, op, &team); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	slot, err := h.slots.RebindSlot(r.Context(), id.ID, slotID, team)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.view(slot))
}

// Delete frees a slot once its cooldown has elapsed.
func (h *TeamSlotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "TeamSlotHandler.Delete"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	slotID, err := pathUUID(r, op, "id", "team slot")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.slots.DeleteSlot(r.Context(), id.ID, slotID); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
