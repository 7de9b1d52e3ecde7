package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fanpost/kanva/internal/billing"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/service"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v79"
)

// maxWebhookBody bounds Stripe webhook payloads.
const maxWebhookBody = 65536

// WebhookHandler applies Stripe webhook events.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// This route is public; the Stripe signature is the authentication.
type WebhookHandler struct {
	billing       billing.Service
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
// billingService may be nil when Stripe is not configured.
func NewWebhookHandler(billingService billing.Service, subscriptions service.SubscriptionService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing:       billingService,
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and dispatches a Stripe event. Failures that
// may succeed later answer 500 so Stripe redelivers; everything else is
// acknowledged.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	if h.billing == nil {
		h.logger.Warn("stripe webhook received but billing is not configured")
		w.WriteHeader(http.StatusOK)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := h.billing.VerifyWebhookSignature(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.logger.Info("stripe webhook received", "type", event.Type, "id", event.ID)

	eventType := string(event.Type)
	switch {
	case eventType == "checkout.session.completed":
		err = h.handleCheckoutCompleted(r, event)
	case strings.HasPrefix(eventType, "customer.subscription."):
		err = h.handleSubscriptionEvent(r, event)
	case eventType == "invoice.payment_succeeded", eventType == "invoice.payment_failed":
		err = h.handleInvoiceEvent(r, event)
	default:
		h.logger.Debug("unhandled webhook event type", "type", event.Type)
	}

	if err != nil {
		code := domain.ErrorCode(err)
		h.logger.Error("webhook processing failed", "type", event.Type, "id", event.ID, "code", code, "error", err)
		if code == domain.EUNAVAILABLE || code == domain.EINTERNAL {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) handleCheckoutCompleted(r *http.Request, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("failed to parse checkout session", "error", err)
		return nil
	}
	if session.Customer == nil {
		h.logger.Warn("checkout session missing customer", "session_id", session.ID)
		return nil
	}

	completion := service.CheckoutCompletion{
		SessionID:  session.ID,
		CustomerID: session.Customer.ID,
		Plan:       billing.Plan(session.Metadata["plan"]),
	}
	if session.ClientReferenceID != "" {
		if userID, err := uuid.Parse(session.ClientReferenceID); err == nil {
			completion.UserID = userID
		}
	}
	return h.subscriptions.HandleCheckoutCompleted(r.Context(), completion)
}

func (h *WebhookHandler) handleSubscriptionEvent(r *http.Request, event stripe.Event) error {
	var sub stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		h.logger.Error("failed to parse subscription event", "error", err, "type", event.Type)
		return nil
	}
	if sub.Customer == nil {
		h.logger.Warn("subscription event missing customer", "subscription_id", sub.ID)
		return nil
	}

	result, err := h.subscriptions.HandleSubscriptionEvent(r.Context(), sub.Customer.ID, billing.FromStripe(&sub))
	if err != nil {
		return err
	}
	if result != nil {
		h.logger.Info("subscription event processed",
			"customer_id", sub.Customer.ID,
			"subscription_id", sub.ID,
			"status", sub.Status,
			"from", result.From,
			"to", result.To,
		)
	}
	return nil
}

func (h *WebhookHandler) handleInvoiceEvent(r *http.Request, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		h.logger.Error("failed to parse invoice event", "error", err, "type", event.Type)
		return nil
	}
	if invoice.Customer == nil {
		return nil
	}
	if event.Type == "invoice.payment_failed" {
		h.logger.Warn("payment failed", "customer_id", invoice.Customer.ID)
	}

	_, err := h.subscriptions.HandleSubscriptionEvent(r.Context(), invoice.Customer.ID, nil)
	return err
}
