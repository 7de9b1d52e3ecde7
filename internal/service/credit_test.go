package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCreditService(f *fixture, now time.Time) CreditService {
	svc := NewCreditService(f.store, f.tiers, f.events, testLogger()).(*creditService)
	svc.now = fixedClock(now)
	return svc
}

func TestCreditService_ConsumeCredit(t *testing.T) {
	ctx := context.Background()

	t.Run("debits one credit", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 3, testNow)

		ok, err := svc.ConsumeCredit(ctx, user)
		require.NoError(t, err)
		assert.True(t, ok)

		balance, err := svc.FetchBalance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 2, balance.CreditsRemaining)

		txs, err := svc.ListTransactions(ctx, user, 0)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, -1, txs[0].Amount)
		assert.Equal(t, domain.CreditTransactionConsume, txs[0].Kind)
	})

	t.Run("empty balance is refused without change", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 0, testNow)

		ok, err := svc.ConsumeCredit(ctx, user)
		require.NoError(t, err)
		assert.False(t, ok)

		txs, err := svc.ListTransactions(ctx, user, 0)
		require.NoError(t, err)
		assert.Empty(t, txs)
	})

	t.Run("missing ledger is refused", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)

		ok, err := svc.ConsumeCredit(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("last credit publishes depletion", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 1, testNow)

		ok, err := svc.ConsumeCredit(ctx, user)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []string{events.CreditsDepleted}, f.events.Names())
	})

	t.Run("stale month is reset before consuming", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 0, testNow.AddDate(0, -1, 0))

		ok, err := svc.ConsumeCredit(ctx, user)
		require.NoError(t, err)
		assert.True(t, ok)

		balance, err := svc.FetchBalance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, domain.DefaultEntitlements[domain.RoleFree].MonthlyCredits-1, balance.CreditsRemaining)
		assert.Equal(t, testNow, balance.LastResetDate)
	})

	t.Run("store failure rolls back", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 3, testNow)
		f.store.FailOn("CreateCreditTransaction", errors.New("disk full"))

		_, err := svc.ConsumeCredit(ctx, user)
		assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))

		f.store.FailOn("CreateCreditTransaction", nil)
		balance, err := svc.FetchBalance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 3, balance.CreditsRemaining, "debit must not survive a failed ledger write")
	})
}

func TestCreditService_ConsumeCredit_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newCreditService(f, testNow)
	user := uuid.New()

	const (
		credits = 5
		callers = 25
	)
	f.addLedger(t, user, credits, testNow)

	var (
		wg      sync.WaitGroup
		debited atomic.Int32
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := svc.ConsumeCredit(ctx, user)
			assert.NoError(t, err)
			if ok {
				debited.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(credits), debited.Load())

	balance, err := svc.FetchBalance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 0, balance.CreditsRemaining)

	txs, err := svc.ListTransactions(ctx, user, MaxTransactionLimit)
	require.NoError(t, err)
	assert.Len(t, txs, credits)
}

func TestCreditService_FetchBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newCreditService(f, testNow)

	balance, err := svc.FetchBalance(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, balance, "missing ledger is uninitialized, not zero")

	f.store.FailOn("GetUserCredits", errors.New("timeout"))
	_, err = svc.FetchBalance(ctx, uuid.New())
	assert.Error(t, err)
}

func TestCreditService_ProvisionLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newCreditService(f, testNow)
	user := uuid.New()
	f.setRole(t, user, domain.RolePaid)

	balance, err := svc.ProvisionLedger(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 50, balance.CreditsRemaining)

	_, err = svc.ConsumeCredit(ctx, user)
	require.NoError(t, err)

	again, err := svc.ProvisionLedger(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 49, again.CreditsRemaining, "second provision returns the existing ledger")

	txs, err := svc.ListTransactions(ctx, user, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
}

func TestCreditService_ResetMonthlyCredits(t *testing.T) {
	ctx := context.Background()
	lastMonth := time.Date(2026, 2, 27, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		balance   int
		lastReset time.Time
		wantReset bool
		want      int
	}{
		{name: "tops up to allowance", balance: 1, lastReset: lastMonth, wantReset: true, want: 3},
		{name: "keeps purchased surplus", balance: 20, lastReset: lastMonth, wantReset: true, want: 20},
		{name: "same month is a no-op", balance: 1, lastReset: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			svc := newCreditService(f, testNow)
			user := uuid.New()
			f.addLedger(t, user, tt.balance, tt.lastReset)

			balance, reset, err := svc.ResetMonthlyCredits(ctx, user)
			require.NoError(t, err)
			assert.Equal(t, tt.wantReset, reset)
			assert.Equal(t, tt.want, balance.CreditsRemaining)

			_, again, err := svc.ResetMonthlyCredits(ctx, user)
			require.NoError(t, err)
			assert.False(t, again, "reset happens at most once a month")
		})
	}

	t.Run("missing ledger", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)

		_, _, err := svc.ResetMonthlyCredits(ctx, uuid.New())
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
	})
	t.Run("ledger entry carries the top-up", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 1, lastMonth)

		_, reset, err := svc.ResetMonthlyCredits(ctx, user)
		require.NoError(t, err)
		require.True(t, reset)

		txs, err := svc.ListTransactions(ctx, user, 10)
		require.NoError(t, err)
		require.NotEmpty(t, txs)
		assert.Equal(t, domain.CreditTransactionReset, txs[0].Kind)
		assert.Equal(t, 2, txs[0].Amount)
	})

	t.Run("balance is read under the row lock", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 1, lastMonth)
		f.store.FailOn("GetUserCreditsForUpdate", errors.New("lock timeout"))

		_, _, err := svc.ResetMonthlyCredits(ctx, user)
		require.Error(t, err)

		f.store.FailOn("GetUserCreditsForUpdate", nil)
		balance, err := svc.FetchBalance(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, 1, balance.CreditsRemaining, "nothing reset without the locked read")
	})
}

func TestCreditService_GrantPurchasedCredits(t *testing.T) {
	ctx := context.Background()

	t.Run("provisions and grants", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()

		balance, err := svc.GrantPurchasedCredits(ctx, user, 25, "cs_test_1")
		require.NoError(t, err)
		assert.Equal(t, 28, balance.CreditsRemaining)
		assert.Equal(t, 25, balance.CreditsPurchased)
	})

	t.Run("same reference is granted once", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 0, testNow)

		_, err := svc.GrantPurchasedCredits(ctx, user, 25, "cs_test_1")
		require.NoError(t, err)
		balance, err := svc.GrantPurchasedCredits(ctx, user, 25, "cs_test_1")
		require.NoError(t, err)
		assert.Equal(t, 25, balance.CreditsRemaining)

		balance, err = svc.GrantPurchasedCredits(ctx, user, 25, "cs_test_2")
		require.NoError(t, err)
		assert.Equal(t, 50, balance.CreditsRemaining)
		assert.Equal(t, 50, balance.CreditsPurchased)
	})

	t.Run("rejects non-positive amounts", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)

		_, err := svc.GrantPurchasedCredits(ctx, uuid.New(), 0, "x")
		assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))
	})

	t.Run("rejects amounts beyond the ledger column", func(t *testing.T) {
		f := newFixture()
		svc := newCreditService(f, testNow)
		user := uuid.New()
		f.addLedger(t, user, 0, testNow)

		for _, amount := range []int{domain.MaxCreditAmount + 1, 1<<32 + 5} {
			_, err := svc.GrantPurchasedCredits(ctx, user, amount, "cs_big")
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err), amount)
		}

		balance, err := svc.FetchBalance(ctx, user)
		require.NoError(t, err)
		assert.Zero(t, balance.CreditsRemaining)
		assert.Zero(t, balance.CreditsPurchased)
	})
}

func TestCreditService_ListTransactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newCreditService(f, testNow)
	user := uuid.New()
	f.addLedger(t, user, 10, testNow)

	for i := 0; i < 4; i++ {
		_, err := svc.ConsumeCredit(ctx, user)
		require.NoError(t, err)
	}
	_, err := svc.GrantPurchasedCredits(ctx, user, 5, "cs_1")
	require.NoError(t, err)

	txs, err := svc.ListTransactions(ctx, user, 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, domain.CreditTransactionPurchase, txs[0].Kind, "newest first")
	assert.Equal(t, domain.CreditTransactionConsume, txs[1].Kind)
}
