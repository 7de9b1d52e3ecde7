package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/fanpost/kanva/internal/storage"
	"github.com/fanpost/kanva/internal/worker"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	DeleteUserFunc func(ctx context.Context, userID uuid.UUID) error
	deleted        []uuid.UUID
}

func (a *fakeAdmin) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	if a.DeleteUserFunc != nil {
		if err := a.DeleteUserFunc(ctx, userID); err != nil {
			return err
		}
	}
	a.deleted = append(a.deleted, userID)
	return nil
}

func newAccountService(f *fixture, admin *fakeAdmin, now time.Time) AccountService {
	credits := NewCreditService(f.store, f.tiers, f.events, testLogger()).(*creditService)
	credits.now = fixedClock(now)
	svc := NewAccountService(f.store, f.tiers, credits, admin, f.events, testLogger()).(*accountService)
	svc.now = fixedClock(now)
	return svc
}

func seedAccount(t *testing.T, f *fixture, user uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	f.setRole(t, user, domain.RolePaid)
	f.addLedger(t, user, 10, testNow)
	f.addSlot(t, user, "429", testNow)
	_, err := f.store.CreateCreditTransaction(ctx, repository.CreateCreditTransactionParams{
		UserID: user, Amount: 10, Kind: string(domain.CreditTransactionProvision),
	})
	require.NoError(t, err)
	_, err = f.store.CreateTemplate(ctx, repository.CreateTemplateParams{
		UserID: user, Name: "Matchday", Kind: "preview", Data: []byte(`{"schema_version":2,"layers":[]}`), SchemaVersion: 2,
	})
	require.NoError(t, err)
	f.linkCustomer(t, user, "cus_"+user.String()[:8])
}

func TestAccountService_GetAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("uninitialized ledger", func(t *testing.T) {
		f := newFixture()
		svc := newAccountService(f, &fakeAdmin{}, testNow)
		caller := &domain.Identity{ID: uuid.New(), Email: "coach@club.ch"}

		account, err := svc.GetAccount(ctx, caller)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleFree, account.Role)
		assert.False(t, account.IsPaid)
		assert.Nil(t, account.Credits)
		assert.Equal(t, domain.CreditsStatusUninitialized, account.CreditsStatus)
		assert.Equal(t, 1, account.Entitlement.MaxTeams)
	})

	t.Run("ready ledger with pending reset", func(t *testing.T) {
		f := newFixture()
		svc := newAccountService(f, &fakeAdmin{}, testNow)
		caller := &domain.Identity{ID: uuid.New()}
		f.setRole(t, caller.ID, domain.RolePaid)
		f.addLedger(t, caller.ID, 2, testNow.AddDate(0, -2, 0))
		f.addSlot(t, caller.ID, "429", testNow)

		account, err := svc.GetAccount(ctx, caller)
		require.NoError(t, err)
		assert.True(t, account.IsPaid)
		assert.Equal(t, domain.CreditsStatusReady, account.CreditsStatus)
		assert.Equal(t, 50, account.Credits.CreditsRemaining)
		assert.Equal(t, 1, account.TeamSlots)
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := &fakeAdmin{}
	svc := newAccountService(f, admin, testNow)
	user, bystander := uuid.New(), uuid.New()
	seedAccount(t, f, user)
	seedAccount(t, f, bystander)

	result, err := svc.DeleteAccount(ctx, user)
	require.NoError(t, err)
	assert.True(t, result.IdentityRemoved)
	assert.Empty(t, result.Failed())
	assert.Equal(t, []uuid.UUID{user}, admin.deleted)

	names := make([]string, len(result.Steps))
	for i, s := range result.Steps {
		names[i] = s.Name
	}
	assert.Equal(t, []string{
		domain.DeleteStepTeamSlots,
		domain.DeleteStepCreditTransactions,
		domain.DeleteStepCredits,
		domain.DeleteStepTemplates,
		domain.DeleteStepRole,
		domain.DeleteStepProfile,
		domain.DeleteStepFiles,
		domain.DeleteStepIdentity,
	}, names)

	n, err := f.store.CountTeamSlotsByUser(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, n)
	_, err = f.store.GetUserCredits(ctx, user)
	assert.True(t, repository.IsNotFound(err))
	_, err = f.store.GetProfile(ctx, user)
	assert.True(t, repository.IsNotFound(err))

	jobs := f.store.Jobs(worker.JobTypePurgeUserFiles)
	require.Len(t, jobs, 1)
	assert.Contains(t, string(jobs[0].Payload), storage.UserPrefix(user))

	n, err = f.store.CountTeamSlotsByUser(ctx, bystander)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "other owners are untouched")

	assert.Equal(t, []string{events.AccountDeleted}, f.events.Names())
}

func TestAccountService_DeleteAccount_StepFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := &fakeAdmin{}
	svc := newAccountService(f, admin, testNow)
	user := uuid.New()
	seedAccount(t, f, user)
	f.store.FailOn("DeleteTemplatesByUser", errors.New("lock timeout"))

	result, err := svc.DeleteAccount(ctx, user)
	require.NoError(t, err)
	assert.True(t, result.IdentityRemoved)
	assert.Equal(t, []string{domain.DeleteStepTemplates}, result.Failed())

	_, err = f.store.GetUserRole(ctx, user)
	assert.True(t, repository.IsNotFound(err), "steps after the failed one still ran")
}

func TestAccountService_DeleteAccount_IdentityFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	admin := &fakeAdmin{DeleteUserFunc: func(context.Context, uuid.UUID) error {
		return errors.New("provider returned 500")
	}}
	svc := newAccountService(f, admin, testNow)
	user := uuid.New()
	seedAccount(t, f, user)

	result, err := svc.DeleteAccount(ctx, user)
	require.Error(t, err)
	assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	assert.False(t, result.IdentityRemoved)
	assert.Equal(t, []string{domain.DeleteStepIdentity}, result.Failed())
	assert.Empty(t, f.events.Names())
}
