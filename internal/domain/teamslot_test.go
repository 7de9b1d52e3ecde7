package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDaysUntilEditable(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		elapsed time.Duration
		want    int
	}{
		{"just changed", 0, 7},
		{"one hour", time.Hour, 7},
		{"just under one day", Day - time.Second, 7},
		{"exactly one day", Day, 6},
		{"six days", 6 * Day, 1},
		{"six days and 23 hours", 6*Day + 23*time.Hour, 1},
		{"exactly seven days", 7 * Day, 0},
		{"thirty days", 30 * Day, 0},
		{"clock skew into the future", -2 * time.Hour, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DaysUntilEditable(base, base.Add(tt.elapsed))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTeamSlot_Editable(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	slot := &TeamSlot{LastChangedAt: last}

	assert.False(t, slot.Editable(last.Add(6*Day)))
	assert.Equal(t, 1, slot.DaysUntilEditable(last.Add(6*Day)))
	assert.True(t, slot.Editable(last.Add(7*Day)))
}

func TestDaysSinceChange_IgnoresCalendarBoundaries(t *testing.T) {
	// 23:00 to 01:00 the next day crosses midnight but is only two hours.
	last := time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)
	now := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysSinceChange(last, now))
}

func TestTeamRef_NormalizeAndValidate(t *testing.T) {
	tests := []struct {
		name      string
		ref       TeamRef
		wantField string
	}{
		{"valid minimal", TeamRef{TeamID: "429503"}, ""},
		{"valid full", TeamRef{TeamID: " 429503 ", TeamName: " UHC Thun ", Sport: " Unihockey ", ClubID: "441"}, ""},
		{"missing team id", TeamRef{TeamID: "   "}, "team_id"},
		{"unknown sport", TeamRef{TeamID: "1", Sport: "curling"}, "sport"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ref.Normalize().Validate("test")
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestTeamRef_Normalize(t *testing.T) {
	ref := TeamRef{TeamID: " 42 ", TeamName: " Volley Luzern ", Sport: "VOLLEYBALL", ClubID: " 7 "}.Normalize()

	assert.Equal(t, "42", ref.TeamID)
	assert.Equal(t, "Volley Luzern", ref.TeamName)
	assert.Equal(t, SportVolleyball, ref.Sport)
	assert.Equal(t, "7", ref.ClubID)
}
