// Package service contains the business logic layer.
//
// Services orchestrate interactions between the store, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Transaction coordination
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/google/uuid"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// utcNow is the default Clock.
func utcNow() time.Time {
	return time.Now().UTC()
}

// storeError translates a store failure into a domain error. Errors that
// already carry a domain code (returned from inside a transaction) pass
// through untouched.
func storeError(err error, op, message string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return err
	}
	if repository.IsUnavailable(err) {
		return domain.Unavailable(err, op, "The service is temporarily unavailable. Please try again.")
	}
	return domain.Internal(err, op, message)
}

// publish sends a domain event without failing the caller.
func publish(ctx context.Context, pub events.Publisher, logger *slog.Logger, name string, userID uuid.UUID, data map[string]any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, events.New(name, userID, data)); err != nil {
		logger.Warn("Failed to publish event",
			"event", name,
			"user_id", userID,
			"error", err,
		)
	}
}
