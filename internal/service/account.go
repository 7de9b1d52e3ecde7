package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/identity"
	"github.com/fanpost/kanva/internal/metrics"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/fanpost/kanva/internal/storage"
	"github.com/fanpost/kanva/internal/worker"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// AccountService reports on and deletes a caller's account.
type AccountService interface {
	// GetAccount summarises the caller: role, entitlement, credit balance
	// (applying a pending monthly reset) and slot usage. A missing ledger is
	// reported as uninitialized, not provisioned.
	GetAccount(ctx context.Context, caller *domain.Identity) (*domain.Account, error)

	// DeleteAccount removes everything the user owns. Data steps are
	// independent: a failed step is recorded and the next one still runs.
	// Identity removal runs last and is the only step whose failure is
	// returned as an error.
	DeleteAccount(ctx context.Context, userID uuid.UUID) (*domain.DeletionResult, error)
}

// =============================================================================
// Implementation
// =============================================================================

type accountService struct {
	store    repository.Store
	tiers    TierService
	credits  CreditService
	identity identity.Admin
	events   events.Publisher
	logger   *slog.Logger
	now      Clock
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	store repository.Store,
	tiers TierService,
	credits CreditService,
	admin identity.Admin,
	pub events.Publisher,
	logger *slog.Logger,
) AccountService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &accountService{
		store:    store,
		tiers:    tiers,
		credits:  credits,
		identity: admin,
		events:   pub,
		logger:   logger,
		now:      utcNow,
	}
}

func (s *accountService) GetAccount(ctx context.Context, caller *domain.Identity) (*domain.Account, error) {
	const op = "AccountService.GetAccount"

	role := s.tiers.ResolveRole(ctx, caller.ID)
	account := &domain.Account{
		UserID:        caller.ID,
		Email:         caller.Email,
		Role:          role,
		IsPaid:        s.tiers.IsPaidUser(role),
		Entitlement:   s.tiers.LimitsFor(role),
		CreditsStatus: domain.CreditsStatusUninitialized,
	}

	balance, err := s.credits.FetchBalance(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	if balance != nil {
		if domain.NeedsMonthlyReset(balance.LastResetDate, s.now()) {
			balance, _, err = s.credits.ResetMonthlyCredits(ctx, caller.ID)
			if err != nil {
				return nil, err
			}
		}
		account.Credits = balance
		account.CreditsStatus = domain.CreditsStatusReady
	}

	slots, err := s.store.CountTeamSlotsByUser(ctx, caller.ID)
	if err != nil {
		return nil, storeError(err, op, "failed to count team slots")
	}
	account.TeamSlots = int(slots)

	return account, nil
}

func (s *accountService) DeleteAccount(ctx context.Context, userID uuid.UUID) (*domain.DeletionResult, error) {
	const op = "AccountService.DeleteAccount"

	result := &domain.DeletionResult{UserID: userID}

	steps := []struct {
		name string
		run  func(context.Context, uuid.UUID) (int64, error)
	}{
		{domain.DeleteStepTeamSlots, s.store.DeleteTeamSlotsByUser},
		{domain.DeleteStepCreditTransactions, s.store.DeleteCreditTransactionsByUser},
		{domain.DeleteStepCredits, s.store.DeleteUserCredits},
		{domain.DeleteStepTemplates, s.store.DeleteTemplatesByUser},
		{domain.DeleteStepRole, s.store.DeleteUserRole},
		{domain.DeleteStepProfile, s.store.DeleteProfile},
		{domain.DeleteStepFiles, s.enqueueFilePurge},
	}

	for _, step := range steps {
		rows, err := step.run(ctx, userID)
		result.Record(step.name, rows, err)
		if err != nil {
			s.logger.Warn("Account deletion step failed",
				"op", op,
				"user_id", userID,
				"step", step.name,
				"error", err,
			)
		}
	}

	if err := s.identity.DeleteUser(ctx, userID); err != nil {
		result.Record(domain.DeleteStepIdentity, 0, err)
		metrics.AccountDeleted("failed")
		s.logger.Error("Identity removal failed",
			"op", op,
			"user_id", userID,
			"error", err,
		)
		return result, domain.Unavailable(err, op, "Your account could not be deleted. Please try again.")
	}
	result.Record(domain.DeleteStepIdentity, 1, nil)
	result.IdentityRemoved = true

	failed := result.Failed()
	status := "complete"
	if len(failed) > 0 {
		status = "partial"
	}
	metrics.AccountDeleted(status)

	s.logger.Info("Account deleted",
		"user_id", userID,
		"status", status,
		"failed_steps", failed,
	)
	publish(ctx, s.events, s.logger, events.AccountDeleted, userID, map[string]any{
		"status":       status,
		"failed_steps": failed,
	})
	return result, nil
}

// enqueueFilePurge schedules removal of the user's stored objects. Deleting
// a large prefix can take a while, so it runs as a background job.
func (s *accountService) enqueueFilePurge(ctx context.Context, userID uuid.UUID) (int64, error) {
	if _, err := worker.EnqueuePurgeUserFiles(ctx, s.store, userID, storage.UserPrefix(userID)); err != nil {
		return 0, fmt.Errorf("enqueue file purge: %w", err)
	}
	return 1, nil
}
