package handler

import (
	"log/slog"
	"net/http"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/service"
)

// CreditHandler exposes the caller's export credit ledger.
//
// Routes handled:
//   - GET  /api/credits           -> Balance
//   - POST /api/credits/consume   -> Consume
//   - POST /api/credits/provision -> Provision
type CreditHandler struct {
	credits service.CreditService
	logger  *slog.Logger
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(credits service.CreditService, logger *slog.Logger) *CreditHandler {
	return &CreditHandler{
		credits: credits,
		logger:  logger,
	}
}

// RegisterRoutes registers credit routes with the provided middleware.
func (h *CreditHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/credits", requireUser(http.HandlerFunc(h.Balance)))
	mux.Handle("POST /api/credits/consume", requireUser(http.HandlerFunc(h.Consume)))
	mux.Handle("POST /api/credits/provision", requireUser(http.HandlerFunc(h.Provision)))
}

type balanceResponse struct {
	Status       string                     `json:"status"`
	Balance      *domain.CreditBalance      `json:"balance,omitempty"`
	Transactions []domain.CreditTransaction `json:"transactions"`
}

// Balance returns the ledger and its latest entries. A user without a
// ledger gets status "uninitialized", never a zero balance.
func (h *CreditHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	balance, err := h.credits.FetchBalance(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := balanceResponse{Status: domain.CreditsStatusUninitialized, Transactions: []domain.CreditTransaction{}}
	if balance != nil {
		resp.Status = domain.CreditsStatusReady
		resp.Balance = balance

		txs, err := h.credits.ListTransactions(r.Context(), id.ID, queryInt(r, "limit", 20, 100))
		if err != nil {
			ErrorResponse(w, r, h.logger, err)
			return
		}
		if txs != nil {
			resp.Transactions = txs
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Consume debits one credit. An empty or missing ledger answers 402 and
// leaves everything unchanged.
func (h *CreditHandler) Consume(w http.ResponseWriter, r *http.Request) {
	const op = "CreditHandler.Consume"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	ok, err := h.credits.ConsumeCredit(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if !ok {
		ErrorResponse(w, r, h.logger, domain.InsufficientCredits(op))
		return
	}

	balance, err := h.credits.FetchBalance(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"consumed": true, "balance": balance})
}

// Provision creates the ledger with the role's monthly allowance.
func (h *CreditHandler) Provision(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	balance, err := h.credits.ProvisionLedger(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, balance)
}
