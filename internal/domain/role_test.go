package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
	}{
		{"free_user", RoleFree},
		{"paid_user", RolePaid},
		{"admin", RoleAdmin},
		{"", RoleFree},
		{"superuser", RoleFree},
		{"ADMIN", RoleFree},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.in))
		})
	}
}

func TestRole_IsPaid(t *testing.T) {
	assert.False(t, RoleFree.IsPaid())
	assert.True(t, RolePaid.IsPaid())
	assert.True(t, RoleAdmin.IsPaid())
	assert.False(t, Role("unknown").IsPaid())
}

func TestSubscriptionRole(t *testing.T) {
	tests := []struct {
		name    string
		current Role
		active  bool
		want    Role
	}{
		{"free promoted", RoleFree, true, RolePaid},
		{"paid stays paid", RolePaid, true, RolePaid},
		{"paid demoted", RolePaid, false, RoleFree},
		{"free stays free", RoleFree, false, RoleFree},
		{"admin never promoted", RoleAdmin, true, RoleAdmin},
		{"admin never demoted", RoleAdmin, false, RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SubscriptionRole(tt.current, tt.active))
		})
	}
}

func TestEntitlements_For(t *testing.T) {
	assert.Equal(t, 1, DefaultEntitlements.For(RoleFree).MaxTeams)
	assert.Equal(t, 3, DefaultEntitlements.For(RolePaid).MaxTeams)
	assert.Equal(t, 10, DefaultEntitlements.For(RoleAdmin).MaxTeams)

	// Unknown roles get the most restrictive tier.
	assert.Equal(t, DefaultEntitlements[RoleFree], DefaultEntitlements.For(Role("gold")))

	// A table without a free tier still falls back to the built-in one.
	partial := Entitlements{RolePaid: {MaxTeams: 5, MonthlyCredits: 10}}
	assert.Equal(t, DefaultEntitlements[RoleFree], partial.For(Role("gold")))
}

func TestEntitlements_Validate(t *testing.T) {
	assert.NoError(t, DefaultEntitlements.Validate())

	tests := []struct {
		name    string
		table   Entitlements
		wantMsg string
	}{
		{
			name:    "missing admin",
			table:   Entitlements{RoleFree: {MaxTeams: 1}, RolePaid: {MaxTeams: 3}},
			wantMsg: "missing entitlement",
		},
		{
			name:    "zero teams",
			table:   Entitlements{RoleFree: {MaxTeams: 0}, RolePaid: {MaxTeams: 3}, RoleAdmin: {MaxTeams: 3}},
			wantMsg: "max_teams",
		},
		{
			name:    "negative credits",
			table:   Entitlements{RoleFree: {MaxTeams: 1, MonthlyCredits: -1}, RolePaid: {MaxTeams: 3}, RoleAdmin: {MaxTeams: 3}},
			wantMsg: "monthly_credits",
		},
		{
			name:    "credits beyond 32 bits",
			table:   Entitlements{RoleFree: {MaxTeams: 1}, RolePaid: {MaxTeams: 3}, RoleAdmin: {MaxTeams: 3, MonthlyCredits: MaxCreditAmount + 1}},
			wantMsg: "monthly_credits",
		},
		{
			name:    "unknown role",
			table:   Entitlements{RoleFree: {MaxTeams: 1}, RolePaid: {MaxTeams: 3}, RoleAdmin: {MaxTeams: 3}, "gold": {MaxTeams: 5}},
			wantMsg: "unknown role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.table.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
