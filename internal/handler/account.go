package handler

import (
	"log/slog"
	"net/http"

	"github.com/fanpost/kanva/internal/service"
)

// AccountHandler serves the caller's account summary and account deletion.
//
// Routes handled:
//   - GET    /api/me      -> Me
//   - DELETE /api/account -> DeleteAccount
type AccountHandler struct {
	accounts service.AccountService
	logger   *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		logger:   logger,
	}
}

// RegisterRoutes registers account routes with the provided middleware.
func (h *AccountHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/me", requireUser(http.HandlerFunc(h.Me)))
	mux.Handle("DELETE /api/account", requireUser(http.HandlerFunc(h.DeleteAccount)))
}

// Me returns role, entitlement, credit balance and slot usage.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, account)
}

type deleteAccountResponse struct {
	Status      string   `json:"status"`
	FailedSteps []string `json:"failed_steps,omitempty"`
}

// DeleteAccount removes the caller's data and identity. Step errors stay
// in the logs; the client only learns which steps failed.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.accounts.DeleteAccount(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := deleteAccountResponse{Status: "complete", FailedSteps: result.Failed()}
	if len(resp.FailedSteps) > 0 {
		resp.Status = "partial"
	}
	WriteJSON(w, http.StatusOK, resp)
}
