package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/metrics"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

const (
	// DefaultTransactionLimit is used when a caller does not ask for a
	// specific number of ledger entries.
	DefaultTransactionLimit = 50

	// MaxTransactionLimit caps a single ledger listing.
	MaxTransactionLimit = 200
)

// =============================================================================
// Interface Definition
// =============================================================================

// CreditService reads and changes the per-user credit ledger. Every balance
// change is a single conditional statement, recorded together with a ledger
// entry in one transaction.
type CreditService interface {
	// ConsumeCredit debits one credit. Returns false, without changing
	// anything, when the balance is zero or the ledger does not exist.
	// A ledger last reset in an earlier month is topped up first.
	ConsumeCredit(ctx context.Context, userID uuid.UUID) (bool, error)

	// FetchBalance returns the ledger row. A user without a ledger yields
	// (nil, nil): the ledger is uninitialized, which is distinct from empty.
	FetchBalance(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error)

	// ProvisionLedger creates the ledger with the role's monthly allowance.
	// It is idempotent and returns the existing ledger if there is one.
	ProvisionLedger(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error)

	// ResetMonthlyCredits tops the balance up to the monthly allowance if
	// it was last reset in an earlier calendar month (UTC). Returns whether
	// a reset happened.
	ResetMonthlyCredits(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, bool, error)

	// GrantPurchasedCredits adds a purchased credit pack to the balance.
	// reference identifies the payment and is kept on the ledger entry; a
	// reference that was already granted leaves the balance unchanged, so
	// redelivered payment events are harmless.
	GrantPurchasedCredits(ctx context.Context, userID uuid.UUID, amount int, reference string) (*domain.CreditBalance, error)

	// ListTransactions returns the most recent ledger entries first.
	ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CreditTransaction, error)
}

// =============================================================================
// Implementation
// =============================================================================

type creditService struct {
	store  repository.Store
	tiers  TierService
	events events.Publisher
	logger *slog.Logger
	now    Clock
}

// NewCreditService creates a new CreditService.
func NewCreditService(store repository.Store, tiers TierService, pub events.Publisher, logger *slog.Logger) CreditService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &creditService{
		store:  store,
		tiers:  tiers,
		events: pub,
		logger: logger,
		now:    utcNow,
	}
}

func (s *creditService) ConsumeCredit(ctx context.Context, userID uuid.UUID) (bool, error) {
	const op = "CreditService.ConsumeCredit"

	allowance := s.allowance(ctx, userID)
	now := s.now()

	var (
		debited bool
		balance repository.UserCredit
	)
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := s.resetIfDue(ctx, q, userID, allowance, now); err != nil {
			return err
		}

		row, err := q.ConsumeCredit(ctx, userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return nil
			}
			return err
		}

		if _, err := q.CreateCreditTransaction(ctx, repository.CreateCreditTransactionParams{
			UserID:      userID,
			Amount:      -1,
			Kind:        string(domain.CreditTransactionConsume),
			Description: domain.ToNullString("Export"),
		}); err != nil {
			return err
		}
		debited = true
		balance = row
		return nil
	})
	if err != nil {
		return false, storeError(err, op, "failed to consume credit")
	}

	metrics.CreditAttempt(debited)
	if !debited {
		s.logger.Info("Credit consumption denied",
			"user_id", userID,
		)
		return false, nil
	}

	if balance.CreditsRemaining == 0 {
		publish(ctx, s.events, s.logger, events.CreditsDepleted, userID, nil)
	}
	return true, nil
}

func (s *creditService) FetchBalance(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error) {
	const op = "CreditService.FetchBalance"

	row, err := s.store.GetUserCredits(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, storeError(err, op, "failed to fetch credit balance")
	}
	return toCreditBalance(row), nil
}

func (s *creditService) ProvisionLedger(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, error) {
	const op = "CreditService.ProvisionLedger"

	allowance := s.allowance(ctx, userID)
	now := s.now()

	var row repository.UserCredit
	created := false
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		var err error
		row, err = q.ProvisionUserCredits(ctx, repository.ProvisionUserCreditsParams{
			UserID:           userID,
			CreditsRemaining: int32(allowance),
			LastResetDate:    now,
		})
		if repository.IsNotFound(err) {
			row, err = q.GetUserCredits(ctx, userID)
			return err
		}
		if err != nil {
			return err
		}

		created = true
		_, err = q.CreateCreditTransaction(ctx, repository.CreateCreditTransactionParams{
			UserID:      userID,
			Amount:      int32(allowance),
			Kind:        string(domain.CreditTransactionProvision),
			Description: domain.ToNullString("Initial monthly allowance"),
		})
		return err
	})
	if err != nil {
		return nil, storeError(err, op, "failed to provision credit ledger")
	}

	if created {
		s.logger.Info("Credit ledger provisioned",
			"user_id", userID,
			"credits", allowance,
		)
	}
	return toCreditBalance(row), nil
}

func (s *creditService) ResetMonthlyCredits(ctx context.Context, userID uuid.UUID) (*domain.CreditBalance, bool, error) {
	const op = "CreditService.ResetMonthlyCredits"

	allowance := s.allowance(ctx, userID)
	now := s.now()

	var row repository.UserCredit
	reset := false
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		before, err := q.GetUserCreditsForUpdate(ctx, userID)
		if err != nil {
			if repository.IsNotFound(err) {
				return domain.NotFound(op, "credit ledger", userID.String())
			}
			return err
		}

		row, err = q.ResetMonthlyCredits(ctx, repository.ResetMonthlyCreditsParams{
			Allowance:  int32(allowance),
			Now:        now,
			UserID:     userID,
			MonthStart: domain.MonthStart(now),
		})
		if repository.IsNotFound(err) {
			row = before
			return nil
		}
		if err != nil {
			return err
		}

		reset = true
		return recordReset(ctx, q, userID, before, row)
	})
	if err != nil {
		return nil, false, storeError(err, op, "failed to reset monthly credits")
	}
	return toCreditBalance(row), reset, nil
}

func (s *creditService) GrantPurchasedCredits(ctx context.Context, userID uuid.UUID, amount int, reference string) (*domain.CreditBalance, error) {
	const op = "CreditService.GrantPurchasedCredits"

	if amount <= 0 {
		return nil, domain.Invalid(op, "amount must be positive")
	}
	if amount > domain.MaxCreditAmount {
		return nil, domain.Invalid(op, fmt.Sprintf("amount must not exceed %d", domain.MaxCreditAmount))
	}

	metadata, err := json.Marshal(map[string]string{"reference": reference})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to encode transaction metadata")
	}

	allowance := s.allowance(ctx, userID)
	now := s.now()

	var row repository.UserCredit
	duplicate := false
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.LockOwner(ctx, userID.String()); err != nil {
			return err
		}

		if reference != "" {
			exists, err := q.CreditTransactionExists(ctx, repository.CreditTransactionExistsParams{
				UserID:    userID,
				Kind:      string(domain.CreditTransactionPurchase),
				Reference: reference,
			})
			if err != nil {
				return err
			}
			if exists {
				duplicate = true
				row, err = q.GetUserCredits(ctx, userID)
				return err
			}
		}

		// A purchase before the first export still needs a ledger.
		if _, err := q.ProvisionUserCredits(ctx, repository.ProvisionUserCreditsParams{
			UserID:           userID,
			CreditsRemaining: int32(allowance),
			LastResetDate:    now,
		}); err != nil && !repository.IsNotFound(err) {
			return err
		}

		var err error
		row, err = q.GrantPurchasedCredits(ctx, repository.GrantPurchasedCreditsParams{
			Amount: int32(amount),
			UserID: userID,
		})
		if err != nil {
			return err
		}

		_, err = q.CreateCreditTransaction(ctx, repository.CreateCreditTransactionParams{
			UserID:      userID,
			Amount:      int32(amount),
			Kind:        string(domain.CreditTransactionPurchase),
			Description: domain.ToNullString(fmt.Sprintf("Credit pack (%d)", amount)),
			Metadata:    pqtype.NullRawMessage{RawMessage: metadata, Valid: true},
		})
		return err
	})
	if err != nil {
		return nil, storeError(err, op, "failed to grant purchased credits")
	}

	if duplicate {
		s.logger.Info("Purchased credits already granted",
			"user_id", userID,
			"reference", reference,
		)
		return toCreditBalance(row), nil
	}

	s.logger.Info("Purchased credits granted",
		"user_id", userID,
		"amount", amount,
		"reference", reference,
	)
	return toCreditBalance(row), nil
}

func (s *creditService) ListTransactions(ctx context.Context, userID uuid.UUID, limit int) ([]domain.CreditTransaction, error) {
	const op = "CreditService.ListTransactions"

	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	if limit > MaxTransactionLimit {
		limit = MaxTransactionLimit
	}

	rows, err := s.store.ListCreditTransactions(ctx, repository.ListCreditTransactionsParams{
		UserID: userID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, storeError(err, op, "failed to list credit transactions")
	}

	txs := make([]domain.CreditTransaction, len(rows))
	for i, row := range rows {
		txs[i] = domain.CreditTransaction{
			ID:          row.ID,
			UserID:      row.UserID,
			Amount:      int(row.Amount),
			Kind:        domain.CreditTransactionKind(row.Kind),
			Description: domain.NullStringValue(row.Description),
			CreatedAt:   row.CreatedAt,
		}
	}
	return txs, nil
}

// allowance returns the monthly credits of the user's current role.
func (s *creditService) allowance(ctx context.Context, userID uuid.UUID) int {
	return s.tiers.LimitsFor(s.tiers.ResolveRole(ctx, userID)).MonthlyCredits
}

// resetIfDue applies a pending monthly reset inside the caller's transaction.
func (s *creditService) resetIfDue(ctx context.Context, q repository.Querier, userID uuid.UUID, allowance int, now time.Time) error {
	before, err := q.GetUserCreditsForUpdate(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !domain.NeedsMonthlyReset(before.LastResetDate, now) {
		return nil
	}

	after, err := q.ResetMonthlyCredits(ctx, repository.ResetMonthlyCreditsParams{
		Allowance:  int32(allowance),
		Now:        now,
		UserID:     userID,
		MonthStart: domain.MonthStart(now),
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	return recordReset(ctx, q, userID, before, after)
}

// recordReset appends the ledger entry for a monthly reset. before must
// come from GetUserCreditsForUpdate in the same transaction.
func recordReset(ctx context.Context, q repository.Querier, userID uuid.UUID, before, after repository.UserCredit) error {
	_, err := q.CreateCreditTransaction(ctx, repository.CreateCreditTransactionParams{
		UserID:      userID,
		Amount:      after.CreditsRemaining - before.CreditsRemaining,
		Kind:        string(domain.CreditTransactionReset),
		Description: domain.ToNullString("Monthly allowance"),
	})
	return err
}

func toCreditBalance(row repository.UserCredit) *domain.CreditBalance {
	return &domain.CreditBalance{
		UserID:           row.UserID,
		CreditsRemaining: int(row.CreditsRemaining),
		CreditsPurchased: int(row.CreditsPurchased),
		LastResetDate:    row.LastResetDate,
	}
}
