// Package domain contains core business types and interfaces.
//
// This file defines the per-user credit ledger. Credits are consumed by
// exports; the balance is only ever changed by single atomic statements.
package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxCreditAmount is the largest number of credits a single grant or a
// monthly allowance may carry. Ledger columns are 32-bit integers.
const MaxCreditAmount = math.MaxInt32

// CreditBalance is the ledger row of one owner.
type CreditBalance struct {
	UserID           uuid.UUID `json:"user_id"`
	CreditsRemaining int       `json:"credits_remaining"`
	CreditsPurchased int       `json:"credits_purchased"`
	LastResetDate    time.Time `json:"last_reset_date"`
}

// CreditTransactionKind classifies a ledger movement.
type CreditTransactionKind string

const (
	CreditTransactionConsume   CreditTransactionKind = "consume"
	CreditTransactionReset     CreditTransactionKind = "reset"
	CreditTransactionPurchase  CreditTransactionKind = "purchase"
	CreditTransactionProvision CreditTransactionKind = "provision"
)

// CreditTransaction is an append-only record of a balance change.
type CreditTransaction struct {
	ID          uuid.UUID             `json:"id"`
	UserID      uuid.UUID             `json:"user_id"`
	Amount      int                   `json:"amount"`
	Kind        CreditTransactionKind `json:"kind"`
	Description string                `json:"description,omitempty"`
	CreatedAt   time.Time             `json:"created_at"`
}

// MonthStart returns the first instant of t's month in UTC.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// NeedsMonthlyReset returns true when lastReset falls in an earlier UTC
// calendar month than now.
func NeedsMonthlyReset(lastReset, now time.Time) bool {
	return lastReset.UTC().Before(MonthStart(now))
}
