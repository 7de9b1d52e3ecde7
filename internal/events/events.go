// Package events publishes domain events for other services to react to
// (analytics, notification mailers). Publishing is fire-and-forget: a failed
// publish is logged and never fails the operation that produced the event.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubjectPrefix is prepended to every event name to form the NATS subject.
const SubjectPrefix = "kanva."

// Event names.
const (
	TeamSlotCreated = "team_slot.created"
	TeamSlotRebound = "team_slot.rebound"
	TeamSlotDeleted = "team_slot.deleted"
	RoleChanged     = "role.changed"
	AccountDeleted  = "account.deleted"
	CreditsDepleted = "credits.depleted"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID         uuid.UUID      `json:"id"`
	Name       string         `json:"name"`
	UserID     uuid.UUID      `json:"user_id"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// New creates an event envelope.
func New(name string, userID uuid.UUID, data map[string]any) Event {
	return Event{
		ID:         uuid.New(),
		Name:       name,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// Subject returns the NATS subject for the event.
func (e Event) Subject() string {
	return SubjectPrefix + e.Name
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
