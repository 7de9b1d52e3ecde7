// Package domain contains core business types and interfaces.
//
// This file defines the authenticated identity and the subscription state
// reported by the billing provider. Identities are owned by the external
// identity provider; this service only ever sees their ID and email.
package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus represents the possible states of a billing subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
)

// GrantsAccess returns true for statuses that entitle the customer to the
// paid tier.
func (s SubscriptionStatus) GrantsAccess() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusTrialing
}

// SubscriptionSync is the outcome of reconciling one user's role with the
// billing provider.
type SubscriptionSync struct {
	UserID     uuid.UUID          `json:"user_id"`
	CustomerID string             `json:"-"`
	Status     SubscriptionStatus `json:"status"`
	From       Role               `json:"from"`
	To         Role               `json:"to"`
}

// Changed returns true when the sync moved the user to another role.
func (s *SubscriptionSync) Changed() bool {
	return s.From != s.To
}

// Identity is the authenticated caller, extracted from a verified access token.
type Identity struct {
	ID    uuid.UUID
	Email string
	// Role as claimed by the token. Informational only: authorization
	// decisions always re-read the role from the store.
	ClaimedRole string
	ExpiresAt   time.Time
}

// Account summarises what the API reports about the caller.
type Account struct {
	UserID        uuid.UUID      `json:"user_id"`
	Email         string         `json:"email"`
	Role          Role           `json:"role"`
	IsPaid        bool           `json:"is_paid"`
	Entitlement   Entitlement    `json:"entitlement"`
	Credits       *CreditBalance `json:"credits,omitempty"`
	CreditsStatus string         `json:"credits_status"`
	TeamSlots     int            `json:"team_slots"`
}

// Credit ledger states reported on Account.
const (
	CreditsStatusReady         = "ready"
	CreditsStatusUninitialized = "uninitialized"
)

// =============================================================================
// Conversion helpers from repository types
// =============================================================================

// NullStringValue safely extracts a string from sql.NullString.
func NullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// ToNullString converts a string to sql.NullString.
func ToNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}
