package handler

import (
	"log/slog"
	"net/http"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/sportsdata"
)

// SportsHandler proxies team lookups to the federation APIs.
//
// Routes handled:
//   - GET /api/sports/{sport}/clubs/{clubId}/teams -> ClubTeams
type SportsHandler struct {
	gateway sportsdata.Gateway
	logger  *slog.Logger
}

// NewSportsHandler creates a new SportsHandler.
func NewSportsHandler(gateway sportsdata.Gateway, logger *slog.Logger) *SportsHandler {
	return &SportsHandler{
		gateway: gateway,
		logger:  logger,
	}
}

// RegisterRoutes registers sports data routes with the provided middleware.
func (h *SportsHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/sports/{sport}/clubs/{clubId}/teams", requireUser(http.HandlerFunc(h.ClubTeams)))
}

// ClubTeams lists the teams a club fields in a sport.
func (h *SportsHandler) ClubTeams(w http.ResponseWriter, r *http.Request) {
	sport := domain.Sport(r.PathValue("sport"))
	teams, err := h.gateway.ClubTeams(r.Context(), sport, r.PathValue("clubId"))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if teams == nil {
		teams = []sportsdata.Team{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{"sport": sport, "teams": teams})
}
