package handler

import (
	"log/slog"
	"net/http"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/service"
)

// ProfileHandler reads and writes user preferences.
//
// Routes handled:
//   - GET /api/profile/preferences -> Get
//   - PUT /api/profile/preferences -> Update
type ProfileHandler struct {
	profiles service.ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// RegisterRoutes registers profile routes with the provided middleware.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/profile/preferences", requireUser(http.HandlerFunc(h.Get)))
	mux.Handle("PUT /api/profile/preferences", requireUser(http.HandlerFunc(h.Update)))
}

// Get returns the caller's profile, defaults included.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	profile, err := h.profiles.GetProfile(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}

// Update merges the submitted preferences and returns the stored value so
// the client can reconcile its optimistic state.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	const op = "ProfileHandler.Update"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var prefs domain.Preferences
	if err := decodeJSON(w, r, op, &prefs); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	profile, err := h.profiles.UpdatePreferences(r.Context(), id, prefs)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, profile)
}
