package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/fanpost/kanva/internal/repository/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

type fixture struct {
	store  *mock.Store
	events *events.Recorder
	tiers  TierService
}

func newFixture() *fixture {
	store := mock.NewStore()
	store.Now = func() time.Time { return testNow }
	rec := &events.Recorder{}
	return &fixture{
		store:  store,
		events: rec,
		tiers:  NewTierService(store, nil, rec, testLogger()),
	}
}

func (f *fixture) setRole(t *testing.T, userID uuid.UUID, role domain.Role) {
	t.Helper()
	_, err := f.store.UpsertUserRole(context.Background(), repository.UpsertUserRoleParams{
		UserID: userID,
		Role:   role.String(),
	})
	require.NoError(t, err)
}

func (f *fixture) addSlot(t *testing.T, userID uuid.UUID, teamID string, changedAt time.Time) repository.UserTeamSlot {
	t.Helper()
	var row repository.UserTeamSlot
	err := f.store.ExecTx(context.Background(), func(q repository.Querier) error {
		var err error
		row, err = q.InsertTeamSlot(context.Background(), repository.InsertTeamSlotParams{
			UserID:        userID,
			TeamID:        teamID,
			LastChangedAt: changedAt,
		})
		return err
	})
	require.NoError(t, err)
	return row
}

func (f *fixture) addLedger(t *testing.T, userID uuid.UUID, credits int, lastReset time.Time) {
	t.Helper()
	_, err := f.store.ProvisionUserCredits(context.Background(), repository.ProvisionUserCreditsParams{
		UserID:           userID,
		CreditsRemaining: int32(credits),
		LastResetDate:    lastReset,
	})
	require.NoError(t, err)
}
