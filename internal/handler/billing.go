package handler

import (
	"log/slog"
	"net/http"

	"github.com/fanpost/kanva/internal/billing"
	"github.com/fanpost/kanva/internal/service"
)

// BillingHandler starts Stripe Checkout and portal sessions and lets a user
// force a subscription sync.
//
// Routes handled:
//   - POST /api/billing/checkout -> CreateCheckout
//   - POST /api/billing/portal   -> OpenPortal
//   - POST /api/billing/sync     -> Sync
type BillingHandler struct {
	subscriptions service.SubscriptionService
	baseURL       string
	logger        *slog.Logger
}

// NewBillingHandler creates a new BillingHandler. baseURL is the web app
// origin Stripe redirects back to.
func NewBillingHandler(subscriptions service.SubscriptionService, baseURL string, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		subscriptions: subscriptions,
		baseURL:       baseURL,
		logger:        logger,
	}
}

// RegisterRoutes registers billing routes with the provided middleware.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("POST /api/billing/checkout", requireUser(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/billing/portal", requireUser(http.HandlerFunc(h.OpenPortal)))
	mux.Handle("POST /api/billing/sync", requireUser(http.HandlerFunc(h.Sync)))
}

type checkoutRequest struct {
	Plan billing.Plan `json:"plan"`
}

// CreateCheckout returns the Checkout URL for the requested plan.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.CreateCheckout"

	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req checkoutRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	successURL := h.baseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"
	cancelURL := h.baseURL + "/billing"

	url, err := h.subscriptions.CreateCheckout(r.Context(), id, req.Plan, successURL, cancelURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	h.logger.Info("checkout session created", "user_id", id.ID, "plan", req.Plan)
	WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// OpenPortal returns the customer portal URL.
func (h *BillingHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	url, err := h.subscriptions.CreatePortal(r.Context(), id.ID, h.baseURL+"/billing")
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Sync re-reads the caller's subscriptions and reports the resulting role.
// The web app calls it after returning from Checkout.
func (h *BillingHandler) Sync(w http.ResponseWriter, r *http.Request) {
	id, err := caller(r)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.subscriptions.SyncSubscription(r.Context(), id.ID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}
