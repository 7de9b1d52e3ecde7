package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/fanpost/kanva/internal/billing"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/fanpost/kanva/internal/worker"
	"github.com/google/uuid"
)

// DefaultCreditPackSize is how many credits one credit pack purchase adds.
const DefaultCreditPackSize = 25

// syncSpacing staggers bulk sync jobs so a full resync stays well under
// Stripe's API rate limit.
const syncSpacing = 100 * time.Millisecond

// CheckoutCompletion is the part of a completed Stripe Checkout session the
// sync cares about.
type CheckoutCompletion struct {
	SessionID  string
	CustomerID string
	Plan       billing.Plan
	// UserID comes from the session's client reference. Used when the
	// customer is not yet linked to a profile.
	UserID uuid.UUID
}

// =============================================================================
// Interface Definition
// =============================================================================

// SubscriptionService reconciles roles with the billing provider and starts
// checkout and portal sessions.
type SubscriptionService interface {
	// SyncSubscription polls the billing provider for the user's
	// subscriptions and promotes or demotes the role accordingly.
	// Users without a billing customer have no subscription.
	SyncSubscription(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionSync, error)

	// HandleSubscriptionEvent applies a customer.subscription.* webhook.
	// A nil sub (invoice events) re-reads the customer's subscriptions.
	// Unknown customers are ignored.
	HandleSubscriptionEvent(ctx context.Context, customerID string, sub *billing.Subscription) (*domain.SubscriptionSync, error)

	// HandleCheckoutCompleted applies a finished checkout: credit packs are
	// granted once per session, subscriptions trigger a sync.
	HandleCheckoutCompleted(ctx context.Context, c CheckoutCompletion) error

	// CreateCheckout starts a Stripe Checkout session for the caller,
	// creating the billing customer on first use.
	CreateCheckout(ctx context.Context, identity *domain.Identity, plan billing.Plan, successURL, cancelURL string) (string, error)

	// CreatePortal starts a customer portal session.
	CreatePortal(ctx context.Context, userID uuid.UUID, returnURL string) (string, error)

	// EnqueueSyncAll schedules a sync job for every non-admin user with a
	// billing customer. Returns the number of jobs enqueued.
	EnqueueSyncAll(ctx context.Context) (int, error)
}

// =============================================================================
// Implementation
// =============================================================================

type subscriptionService struct {
	store          repository.Store
	tiers          TierService
	credits        CreditService
	billing        billing.Service
	creditPackSize int
	logger         *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService. A creditPackSize
// of zero uses DefaultCreditPackSize; a nil billingSvc disables billing.
func NewSubscriptionService(
	store repository.Store,
	tiers TierService,
	credits CreditService,
	billingSvc billing.Service,
	creditPackSize int,
	logger *slog.Logger,
) SubscriptionService {
	if creditPackSize <= 0 {
		creditPackSize = DefaultCreditPackSize
	}
	if billingSvc == nil {
		billingSvc = billing.Disabled{}
	}
	return &subscriptionService{
		store:          store,
		tiers:          tiers,
		credits:        credits,
		billing:        billingSvc,
		creditPackSize: creditPackSize,
		logger:         logger,
	}
}

func (s *subscriptionService) SyncSubscription(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionSync, error) {
	const op = "SubscriptionService.SyncSubscription"

	customerID := ""
	profile, err := s.store.GetProfile(ctx, userID)
	switch {
	case err == nil:
		customerID = domain.NullStringValue(profile.StripeCustomerID)
	case repository.IsNotFound(err):
	default:
		return nil, storeError(err, op, "failed to load profile")
	}

	status := domain.SubscriptionStatusInactive
	if customerID != "" {
		sub, err := s.billing.FindActiveSubscription(customerID)
		if err != nil {
			return nil, domain.Unavailable(err, op, "The billing provider is temporarily unavailable. Please try again.")
		}
		if sub != nil {
			status = sub.Status
		}
	}

	return s.apply(ctx, op, userID, customerID, status)
}

func (s *subscriptionService) HandleSubscriptionEvent(ctx context.Context, customerID string, sub *billing.Subscription) (*domain.SubscriptionSync, error) {
	const op = "SubscriptionService.HandleSubscriptionEvent"

	userID, ok, err := s.userForCustomer(ctx, op, customerID)
	if err != nil || !ok {
		return nil, err
	}

	status := domain.SubscriptionStatusInactive
	if sub != nil {
		status = sub.Status
	}
	if !status.GrantsAccess() {
		// The customer may hold another subscription that still grants
		// access; only the full list is authoritative.
		active, err := s.billing.FindActiveSubscription(customerID)
		if err != nil {
			return nil, domain.Unavailable(err, op, "The billing provider is temporarily unavailable. Please try again.")
		}
		if active != nil {
			status = active.Status
		}
	}

	return s.apply(ctx, op, userID, customerID, status)
}

func (s *subscriptionService) HandleCheckoutCompleted(ctx context.Context, c CheckoutCompletion) error {
	const op = "SubscriptionService.HandleCheckoutCompleted"

	userID, ok, err := s.userForCustomer(ctx, op, c.CustomerID)
	if err != nil {
		return err
	}
	if !ok {
		if c.UserID == uuid.Nil {
			s.logger.Warn("Checkout completed for unknown customer",
				"customer_id", c.CustomerID,
				"session_id", c.SessionID,
			)
			return nil
		}
		userID = c.UserID
	}

	if c.Plan == billing.PlanCreditPack {
		_, err := s.credits.GrantPurchasedCredits(ctx, userID, s.creditPackSize, c.SessionID)
		return err
	}

	_, err = s.SyncSubscription(ctx, userID)
	return err
}

func (s *subscriptionService) CreateCheckout(ctx context.Context, identity *domain.Identity, plan billing.Plan, successURL, cancelURL string) (string, error) {
	const op = "SubscriptionService.CreateCheckout"

	switch plan {
	case billing.PlanMonthly, billing.PlanYearly, billing.PlanCreditPack:
	default:
		return "", domain.NewValidationError(op, "plan", "Plan must be monthly, yearly or credit_pack")
	}

	if plan.IsSubscription() && s.tiers.IsPaidUser(s.tiers.ResolveRole(ctx, identity.ID)) {
		return "", domain.Conflict(op, "You already have an active subscription.")
	}

	customerID, err := s.ensureCustomer(ctx, op, identity)
	if err != nil {
		return "", err
	}

	url, err := s.billing.CreateCheckoutSession(customerID, plan, successURL, cancelURL)
	if err != nil {
		return "", domain.Unavailable(err, op, "Could not start checkout. Please try again.")
	}
	return url, nil
}

func (s *subscriptionService) CreatePortal(ctx context.Context, userID uuid.UUID, returnURL string) (string, error) {
	const op = "SubscriptionService.CreatePortal"

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil && !repository.IsNotFound(err) {
		return "", storeError(err, op, "failed to load profile")
	}
	customerID := domain.NullStringValue(profile.StripeCustomerID)
	if customerID == "" {
		return "", domain.NotFound(op, "billing customer", userID.String())
	}

	url, err := s.billing.CreatePortalSession(customerID, returnURL)
	if err != nil {
		return "", domain.Unavailable(err, op, "Could not open the billing portal. Please try again.")
	}
	return url, nil
}

func (s *subscriptionService) EnqueueSyncAll(ctx context.Context) (int, error) {
	const op = "SubscriptionService.EnqueueSyncAll"

	profiles, err := s.store.ListSyncableProfiles(ctx)
	if err != nil {
		return 0, storeError(err, op, "failed to list profiles")
	}

	enqueued := 0
	for i, p := range profiles {
		_, err := worker.EnqueueSyncSubscription(ctx, s.store, p.UserID,
			worker.WithPriority(worker.PriorityLow),
			worker.WithDelay(time.Duration(i)*syncSpacing),
		)
		if err != nil {
			return enqueued, storeError(err, op, "failed to enqueue subscription sync")
		}
		enqueued++
	}

	s.logger.Info("Subscription sync enqueued",
		"jobs", enqueued,
	)
	return enqueued, nil
}

// apply writes the role implied by status.
func (s *subscriptionService) apply(ctx context.Context, op string, userID uuid.UUID, customerID string, status domain.SubscriptionStatus) (*domain.SubscriptionSync, error) {
	from, to, err := s.tiers.ApplySubscription(ctx, userID, status.GrantsAccess())
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Subscription synced",
		"op", op,
		"user_id", userID,
		"status", status,
		"role", to,
	)
	return &domain.SubscriptionSync{
		UserID:     userID,
		CustomerID: customerID,
		Status:     status,
		From:       from,
		To:         to,
	}, nil
}

// userForCustomer maps a billing customer to its user. ok is false when no
// profile references the customer.
func (s *subscriptionService) userForCustomer(ctx context.Context, op, customerID string) (uuid.UUID, bool, error) {
	if customerID == "" {
		return uuid.Nil, false, nil
	}
	profile, err := s.store.GetProfileByStripeCustomerID(ctx, domain.ToNullString(customerID))
	if err != nil {
		if repository.IsNotFound(err) {
			s.logger.Info("Ignoring billing event for unknown customer",
				"customer_id", customerID,
			)
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, storeError(err, op, "failed to look up customer")
	}
	return profile.UserID, true, nil
}

// ensureCustomer returns the caller's billing customer, creating and
// linking one if needed.
func (s *subscriptionService) ensureCustomer(ctx context.Context, op string, identity *domain.Identity) (string, error) {
	profile, err := s.store.GetProfile(ctx, identity.ID)
	if err != nil && !repository.IsNotFound(err) {
		return "", storeError(err, op, "failed to load profile")
	}
	if id := domain.NullStringValue(profile.StripeCustomerID); id != "" {
		return id, nil
	}

	customerID, err := s.billing.CreateCustomer(identity.Email, identity.ID.String())
	if err != nil {
		return "", domain.Unavailable(err, op, "Could not start checkout. Please try again.")
	}

	email := profile.Email
	if email == "" {
		email = identity.Email
	}
	if err := s.store.SetStripeCustomerID(ctx, repository.SetStripeCustomerIDParams{
		UserID:           identity.ID,
		Email:            email,
		StripeCustomerID: domain.ToNullString(customerID),
	}); err != nil {
		return "", storeError(err, op, "failed to link billing customer")
	}

	s.logger.Info("Billing customer created",
		"user_id", identity.ID,
		"customer_id", customerID,
	)
	return customerID, nil
}
