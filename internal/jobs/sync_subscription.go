// Package jobs contains the background job handlers run by the worker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/worker"
	"github.com/google/uuid"
)

// SubscriptionSyncer re-reads a user's subscription and adjusts their role.
type SubscriptionSyncer interface {
	SyncSubscription(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionSync, error)
}

// SyncSubscriptionHandler reconciles one user's role with Stripe.
type SyncSubscriptionHandler struct {
	syncer SubscriptionSyncer
	logger *slog.Logger
}

// NewSyncSubscriptionHandler creates a new handler for subscription sync jobs.
func NewSyncSubscriptionHandler(syncer SubscriptionSyncer, logger *slog.Logger) *SyncSubscriptionHandler {
	return &SyncSubscriptionHandler{
		syncer: syncer,
		logger: logger,
	}
}

// Type returns the job type identifier.
func (h *SyncSubscriptionHandler) Type() string {
	return worker.JobTypeSyncSubscription
}

// Handle executes the sync. Billing or database outages are retried; domain
// outcomes (user gone, bad input) are not.
func (h *SyncSubscriptionHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.SyncSubscriptionPayload
	if err := worker.DecodePayload(payload, &p); err != nil {
		return err
	}
	if p.UserID == uuid.Nil {
		return worker.NewPermanentError(fmt.Errorf("sync subscription: missing user_id"))
	}

	result, err := h.syncer.SyncSubscription(ctx, p.UserID)
	if err != nil {
		switch domain.ErrorCode(err) {
		case domain.EUNAVAILABLE, domain.EINTERNAL:
			return fmt.Errorf("sync subscription %s: %w", p.UserID, err)
		}
		return worker.NewPermanentError(fmt.Errorf("sync subscription %s: %w", p.UserID, err))
	}

	if result.Changed() {
		h.logger.Info("Subscription sync changed role",
			"user_id", p.UserID,
			"from", result.From,
			"to", result.To,
			"status", result.Status,
		)
	}
	return nil
}
