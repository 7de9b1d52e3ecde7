// Package domain contains core business types and interfaces.
//
// This file defines team slots: the teams an owner generates graphics for.
// The number of slots is capped by the owner's entitlement and a slot can
// only be changed or removed once its weekly cooldown has elapsed.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sport identifies which upstream league API a team belongs to.
type Sport string

const (
	SportUnihockey  Sport = "unihockey"
	SportVolleyball Sport = "volleyball"
	SportHandball   Sport = "handball"
)

// Sports lists every supported sport.
var Sports = []Sport{SportUnihockey, SportVolleyball, SportHandball}

// IsValid returns true if the sport is a recognized value.
func (s Sport) IsValid() bool {
	switch s {
	case SportUnihockey, SportVolleyball, SportHandball:
		return true
	}
	return false
}

const (
	// SlotCooldownDays is how many whole days must pass after a slot was
	// bound to a team before it can be rebound or deleted.
	SlotCooldownDays = 7

	// Day is the unit for cooldown arithmetic. Cooldowns count exact 24h
	// multiples of elapsed time, never calendar boundaries.
	Day = 24 * time.Hour
)

// TeamSlot binds one upstream team to an owner.
type TeamSlot struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	TeamID        string    `json:"team_id"`
	TeamName      string    `json:"team_name,omitempty"`
	Sport         Sport     `json:"sport,omitempty"`
	ClubID        string    `json:"club_id,omitempty"`
	LastChangedAt time.Time `json:"last_changed_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// DaysUntilEditable returns how many days remain before the slot may be
// rebound or deleted.
func (s *TeamSlot) DaysUntilEditable(now time.Time) int {
	return DaysUntilEditable(s.LastChangedAt, now)
}

// Editable returns true once the cooldown has elapsed.
func (s *TeamSlot) Editable(now time.Time) bool {
	return s.DaysUntilEditable(now) == 0
}

// DaysSinceChange returns the number of whole 24h periods between
// lastChangedAt and now. A timestamp in the future counts as zero days.
func DaysSinceChange(lastChangedAt, now time.Time) int {
	elapsed := now.Sub(lastChangedAt)
	if elapsed < 0 {
		return 0
	}
	return int(elapsed / Day)
}

// DaysUntilEditable is the single definition used both for display and for
// enforcement: 7 minus the floored days since the last change, never below 0.
func DaysUntilEditable(lastChangedAt, now time.Time) int {
	remaining := SlotCooldownDays - DaysSinceChange(lastChangedAt, now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// TeamRef describes the upstream team a caller wants to occupy a slot with.
type TeamRef struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name,omitempty"`
	Sport    Sport  `json:"sport,omitempty"`
	ClubID   string `json:"club_id,omitempty"`
}

// Normalize trims whitespace from all fields.
func (t TeamRef) Normalize() TeamRef {
	return TeamRef{
		TeamID:   strings.TrimSpace(t.TeamID),
		TeamName: strings.TrimSpace(t.TeamName),
		Sport:    Sport(strings.ToLower(strings.TrimSpace(string(t.Sport)))),
		ClubID:   strings.TrimSpace(t.ClubID),
	}
}

// Validate checks the reference after normalization.
func (t TeamRef) Validate(op string) error {
	if t.TeamID == "" {
		return NewValidationError(op, "team_id", "Team ID is required")
	}
	if len(t.TeamID) > 128 {
		return NewValidationError(op, "team_id", "Team ID is too long")
	}
	if t.Sport != "" && !t.Sport.IsValid() {
		return NewValidationError(op, "sport", "Sport must be unihockey, volleyball or handball")
	}
	return nil
}
