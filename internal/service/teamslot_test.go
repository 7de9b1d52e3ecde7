package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTeamSlotService(f *fixture, now time.Time) TeamSlotService {
	svc := NewTeamSlotService(f.store, f.tiers, f.events, testLogger()).(*teamSlotService)
	svc.now = fixedClock(now)
	return svc
}

func TestTeamSlotService_EnsureSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("creates slot within quota", func(t *testing.T) {
		f := newFixture()
		svc := newTeamSlotService(f, testNow)
		owner := uuid.New()

		slot, created, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{
			TeamID:   " 429 ",
			TeamName: "UHC Thun",
			Sport:    "Unihockey",
			ClubID:   "17",
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "429", slot.TeamID)
		assert.Equal(t, domain.SportUnihockey, slot.Sport)
		assert.Equal(t, testNow, slot.LastChangedAt)
		assert.Equal(t, []string{events.TeamSlotCreated}, f.events.Names())
	})

	t.Run("free user at quota is rejected without write", func(t *testing.T) {
		f := newFixture()
		svc := newTeamSlotService(f, testNow)
		owner := uuid.New()
		f.addSlot(t, owner, "1", testNow.Add(-30*domain.Day))

		_, _, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "2"})
		require.Error(t, err)
		assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
		assert.Equal(t, map[string]int{"limit": 1, "current": 1}, domain.ErrorDetails(err))

		slots, err := svc.ListSlots(ctx, owner)
		require.NoError(t, err)
		assert.Len(t, slots, 1)
	})

	t.Run("paid user gets more slots", func(t *testing.T) {
		f := newFixture()
		svc := newTeamSlotService(f, testNow)
		owner := uuid.New()
		f.setRole(t, owner, domain.RolePaid)

		for _, team := range []string{"a", "b", "c"} {
			_, created, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: team})
			require.NoError(t, err)
			assert.True(t, created)
		}
		_, _, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "d"})
		assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
	})

	t.Run("upgrade applies to the next call", func(t *testing.T) {
		f := newFixture()
		svc := newTeamSlotService(f, testNow)
		owner := uuid.New()

		_, _, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "a"})
		require.NoError(t, err)
		_, _, err = svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "b"})
		assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))

		f.setRole(t, owner, domain.RolePaid)
		_, created, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "b"})
		require.NoError(t, err)
		assert.True(t, created)
	})

	t.Run("role read failure falls back to the free quota", func(t *testing.T) {
		f := newFixture()
		svc := newTeamSlotService(f, testNow)
		owner := uuid.New()
		f.setRole(t, owner, domain.RolePaid)
		f.store.FailOn("GetUserRole", errors.New("timeout"))

		_, _, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "a"})
		require.NoError(t, err)
		_, _, err = svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "b"})
		assert.Equal(t, domain.EQUOTA, domain.ErrorCode(err))
	})

	t.Run("existing team refreshes details only", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()
		changedAt := testNow.Add(-2 * domain.Day)
		f.addSlot(t, owner, "429", changedAt)
		svc := newTeamSlotService(f, testNow)

		slot, created, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "429", TeamName: "Renamed"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "Renamed", slot.TeamName)
		assert.Equal(t, changedAt, slot.LastChangedAt, "refresh must not restart the cooldown")
		assert.Empty(t, f.events.Names())
	})

	t.Run("existing team at quota is still refreshed", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()
		f.addSlot(t, owner, "429", testNow)
		svc := newTeamSlotService(f, testNow)

		_, created, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "429"})
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture()
		svc := newTeamSlotService(f, testNow)

		_, _, err := svc.EnsureSlot(ctx, uuid.New(), domain.TeamRef{TeamID: "  "})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "team_id")

		_, _, err = svc.EnsureSlot(ctx, uuid.New(), domain.TeamRef{TeamID: "1", Sport: "curling"})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "sport")
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		svc := newTeamSlotService(f, testNow)
		f.store.FailOn("CountTeamSlotsByUser", errors.New("boom"))

		_, _, err := svc.EnsureSlot(ctx, uuid.New(), domain.TeamRef{TeamID: "1"})
		assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
	})
}

func TestTeamSlotService_EnsureSlot_ConcurrentRespectsQuota(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newTeamSlotService(f, testNow)
	owner := uuid.New()
	f.setRole(t, owner, domain.RolePaid)
	limit := f.tiers.LimitsFor(domain.RolePaid).MaxTeams

	const callers = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		quota   int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: uuid.NewString()})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && ok:
				created++
			case domain.ErrorCode(err) == domain.EQUOTA:
				quota++
			default:
				t.Errorf("unexpected result: created=%v err=%v", ok, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, limit, created)
	assert.Equal(t, callers-limit, quota)

	slots, err := svc.ListSlots(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, slots, limit)
}

func TestTeamSlotService_EnsureSlot_ConcurrentSameTeam(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := newTeamSlotService(f, testNow)
	owner := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: "429"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	slots, err := svc.ListSlots(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, slots, 1)
}

func TestTeamSlotService_DeleteSlot(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		age       time.Duration
		wantCode  string
		wantDays  int
		wantSlots int
	}{
		{name: "just created", age: 0, wantCode: domain.ECOOLDOWN, wantDays: 7, wantSlots: 1},
		{name: "six days and 23 hours", age: 7*domain.Day - time.Hour, wantCode: domain.ECOOLDOWN, wantDays: 1, wantSlots: 1},
		{name: "three and a half days", age: 3*domain.Day + 12*time.Hour, wantCode: domain.ECOOLDOWN, wantDays: 4, wantSlots: 1},
		{name: "exactly seven days", age: 7 * domain.Day, wantSlots: 0},
		{name: "long ago", age: 90 * domain.Day, wantSlots: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			owner := uuid.New()
			row := f.addSlot(t, owner, "429", testNow.Add(-tt.age))
			svc := newTeamSlotService(f, testNow)

			err := svc.DeleteSlot(ctx, owner, row.ID)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
				assert.Equal(t, tt.wantDays, domain.ErrorDetails(err)["days_remaining"])
				assert.Empty(t, f.events.Names())
			} else {
				require.NoError(t, err)
				assert.Equal(t, []string{events.TeamSlotDeleted}, f.events.Names())
			}

			slots, err := svc.ListSlots(ctx, owner)
			require.NoError(t, err)
			assert.Len(t, slots, tt.wantSlots)
		})
	}
}

func TestTeamSlotService_DeleteSlot_Ownership(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner, other := uuid.New(), uuid.New()
	row := f.addSlot(t, owner, "429", testNow.Add(-30*domain.Day))
	svc := newTeamSlotService(f, testNow)

	err := svc.DeleteSlot(ctx, other, row.ID)
	assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	assert.True(t, domain.IsStale(err))

	err = svc.DeleteSlot(ctx, owner, uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	require.NoError(t, svc.DeleteSlot(ctx, owner, row.ID))
	err = svc.DeleteSlot(ctx, owner, row.ID)
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err), "second delete sees a stale reference")
}

func TestTeamSlotService_RebindSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("inside cooldown", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()
		row := f.addSlot(t, owner, "429", testNow.Add(-2*domain.Day))
		svc := newTeamSlotService(f, testNow)

		_, err := svc.RebindSlot(ctx, owner, row.ID, domain.TeamRef{TeamID: "500"})
		assert.Equal(t, domain.ECOOLDOWN, domain.ErrorCode(err))
		assert.Equal(t, 5, domain.ErrorDetails(err)["days_remaining"])
	})

	t.Run("after cooldown restarts it", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()
		row := f.addSlot(t, owner, "429", testNow.Add(-8*domain.Day))
		svc := newTeamSlotService(f, testNow)

		slot, err := svc.RebindSlot(ctx, owner, row.ID, domain.TeamRef{TeamID: "500", Sport: domain.SportHandball})
		require.NoError(t, err)
		assert.Equal(t, "500", slot.TeamID)
		assert.Equal(t, testNow, slot.LastChangedAt)
		assert.Equal(t, 7, svc.DaysUntilEditable(slot))
		assert.Equal(t, []string{events.TeamSlotRebound}, f.events.Names())
	})

	t.Run("same team is a refresh inside cooldown", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()
		changedAt := testNow.Add(-time.Hour)
		row := f.addSlot(t, owner, "429", changedAt)
		svc := newTeamSlotService(f, testNow)

		slot, err := svc.RebindSlot(ctx, owner, row.ID, domain.TeamRef{TeamID: "429", TeamName: "UHC Thun"})
		require.NoError(t, err)
		assert.Equal(t, "UHC Thun", slot.TeamName)
		assert.Equal(t, changedAt, slot.LastChangedAt)
	})

	t.Run("team already in another slot", func(t *testing.T) {
		f := newFixture()
		owner := uuid.New()
		f.setRole(t, owner, domain.RolePaid)
		row := f.addSlot(t, owner, "429", testNow.Add(-8*domain.Day))
		f.addSlot(t, owner, "500", testNow.Add(-8*domain.Day))
		svc := newTeamSlotService(f, testNow)

		_, err := svc.RebindSlot(ctx, owner, row.ID, domain.TeamRef{TeamID: "500"})
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})

	t.Run("other owner", func(t *testing.T) {
		f := newFixture()
		row := f.addSlot(t, uuid.New(), "429", testNow.Add(-8*domain.Day))
		svc := newTeamSlotService(f, testNow)

		_, err := svc.RebindSlot(ctx, uuid.New(), row.ID, domain.TeamRef{TeamID: "500"})
		assert.Equal(t, domain.EFORBIDDEN, domain.ErrorCode(err))
	})
}

func TestTeamSlotService_DaysUntilEditable_MatchesEnforcement(t *testing.T) {
	ctx := context.Background()

	for hours := 0; hours <= 8*24; hours += 5 {
		f := newFixture()
		owner := uuid.New()
		row := f.addSlot(t, owner, "429", testNow.Add(-time.Duration(hours)*time.Hour))
		svc := newTeamSlotService(f, testNow)

		slots, err := svc.ListSlots(ctx, owner)
		require.NoError(t, err)
		display := svc.DaysUntilEditable(&slots[0])

		err = svc.DeleteSlot(ctx, owner, row.ID)
		if display > 0 {
			assert.Equal(t, display, domain.ErrorDetails(err)["days_remaining"], "hours=%d", hours)
		} else {
			assert.NoError(t, err, "hours=%d", hours)
		}
	}
}

func TestTeamSlotService_ListSlots_Order(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	owner := uuid.New()
	f.setRole(t, owner, domain.RolePaid)
	svc := newTeamSlotService(f, testNow)

	for i, team := range []string{"c", "a", "b"} {
		f.store.Now = func() time.Time { return testNow.Add(time.Duration(i) * time.Minute) }
		_, _, err := svc.EnsureSlot(ctx, owner, domain.TeamRef{TeamID: team})
		require.NoError(t, err)
	}

	slots, err := svc.ListSlots(ctx, owner)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{slots[0].TeamID, slots[1].TeamID, slots[2].TeamID})
}
