// Package billing provides Stripe billing integration for subscription management.
package billing

import (
	"errors"
	"fmt"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/customer"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Plan identifies what a Stripe price sells.
type Plan string

const (
	PlanMonthly    Plan = "monthly"
	PlanYearly     Plan = "yearly"
	PlanCreditPack Plan = "credit_pack"
)

// IsSubscription returns true for recurring plans.
func (p Plan) IsSubscription() bool {
	return p == PlanMonthly || p == PlanYearly
}

// Subscription is the billing state of a customer as far as role sync
// cares about it.
type Subscription struct {
	ID                string
	Status            domain.SubscriptionStatus
	PriceID           string
	CurrentPeriodEnd  time.Time
	CancelAtPeriodEnd bool
}

// Service defines the interface for billing operations.
type Service interface {
	// CreateCustomer creates a new Stripe customer for the given email.
	// userID is stored in the customer metadata.
	CreateCustomer(email, userID string) (string, error)

	// CreateCheckoutSession creates a Stripe Checkout session for a plan.
	// Returns the checkout URL to redirect the user to.
	CreateCheckoutSession(customerID string, plan Plan, successURL, cancelURL string) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the user to.
	CreatePortalSession(customerID, returnURL string) (string, error)

	// FindActiveSubscription returns the customer's subscription that grants
	// access (active or trialing), or nil if there is none.
	FindActiveSubscription(customerID string) (*Subscription, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)

	// PlanForPriceID returns the plan sold by a Stripe price ID, or "".
	PlanForPriceID(priceID string) Plan
}

// PriceConfig holds the Stripe price IDs for each plan.
type PriceConfig struct {
	MonthlyPriceID    string
	YearlyPriceID     string
	CreditPackPriceID string
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
	prices        PriceConfig
	priceToPlan   map[string]Plan
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey is used to authenticate Stripe API calls.
// The webhookSecret is used to verify incoming webhook signatures.
func NewStripeService(secretKey, webhookSecret string, prices PriceConfig) Service {
	stripe.Key = secretKey

	priceToPlan := make(map[string]Plan)
	if prices.MonthlyPriceID != "" {
		priceToPlan[prices.MonthlyPriceID] = PlanMonthly
	}
	if prices.YearlyPriceID != "" {
		priceToPlan[prices.YearlyPriceID] = PlanYearly
	}
	if prices.CreditPackPriceID != "" {
		priceToPlan[prices.CreditPackPriceID] = PlanCreditPack
	}

	return &stripeService{
		webhookSecret: webhookSecret,
		prices:        prices,
		priceToPlan:   priceToPlan,
	}
}

func (s *stripeService) CreateCustomer(email, userID string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
	}
	params.AddMetadata("user_id", userID)
	c, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return c.ID, nil
}

func (s *stripeService) CreateCheckoutSession(customerID string, plan Plan, successURL, cancelURL string) (string, error) {
	priceID := s.priceFor(plan)
	if priceID == "" {
		return "", fmt.Errorf("no price configured for plan %q", plan)
	}

	mode := stripe.CheckoutSessionModePayment
	if plan.IsSubscription() {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Customer: stripe.String(customerID),
		Mode:     stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.AddMetadata("plan", string(plan))
	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) FindActiveSubscription(customerID string) (*Subscription, error) {
	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String("all"),
	}
	params.Limit = stripe.Int64(20)

	var best *Subscription
	iter := subscription.List(params)
	for iter.Next() {
		sub := FromStripe(iter.Subscription())
		if !sub.Status.GrantsAccess() {
			continue
		}
		if best == nil || sub.CurrentPeriodEnd.After(best.CurrentPeriodEnd) {
			best = sub
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe list subscriptions: %w", err)
	}
	return best, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

func (s *stripeService) PlanForPriceID(priceID string) Plan {
	return s.priceToPlan[priceID]
}

func (s *stripeService) priceFor(plan Plan) string {
	switch plan {
	case PlanMonthly:
		return s.prices.MonthlyPriceID
	case PlanYearly:
		return s.prices.YearlyPriceID
	case PlanCreditPack:
		return s.prices.CreditPackPriceID
	}
	return ""
}

// FromStripe converts a Stripe subscription object.
func FromStripe(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                sub.ID,
		Status:            domain.SubscriptionStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		out.PriceID = sub.Items.Data[0].Price.ID
	}
	return out
}

// ErrNotConfigured is returned by Disabled for every call.
var ErrNotConfigured = errors.New("billing is not configured")

// Disabled is the Service used when no Stripe key is set. Users without a
// billing customer still sync to free.
type Disabled struct{}

func (Disabled) CreateCustomer(string, string) (string, error) { return "", ErrNotConfigured }

func (Disabled) CreateCheckoutSession(string, Plan, string, string) (string, error) {
	return "", ErrNotConfigured
}

func (Disabled) CreatePortalSession(string, string) (string, error) { return "", ErrNotConfigured }

func (Disabled) FindActiveSubscription(string) (*Subscription, error) { return nil, ErrNotConfigured }

func (Disabled) VerifyWebhookSignature([]byte, string) (stripe.Event, error) {
	return stripe.Event{}, ErrNotConfigured
}

func (Disabled) PlanForPriceID(string) Plan { return "" }
