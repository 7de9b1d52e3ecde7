package domain

import "fmt"

// Entitlement defines what a role is allowed to use.
type Entitlement struct {
	MaxTeams       int `yaml:"max_teams" json:"max_teams"`
	MonthlyCredits int `yaml:"monthly_credits" json:"monthly_credits"`
}

// Entitlements maps roles to their limits.
type Entitlements map[Role]Entitlement

// DefaultEntitlements is used when no entitlements file is configured.
// Free tier has one team; paid tiers get a small fixed number.
var DefaultEntitlements = Entitlements{
	RoleFree: {
		MaxTeams:       1,
		MonthlyCredits: 3,
	},
	RolePaid: {
		MaxTeams:       3,
		MonthlyCredits: 50,
	},
	RoleAdmin: {
		MaxTeams:       10,
		MonthlyCredits: 1000,
	},
}

// For returns the entitlement for a role, defaulting to the free tier for
// unknown roles. If the table itself lacks a free tier, the built-in free
// tier is used.
func (e Entitlements) For(role Role) Entitlement {
	if ent, ok := e[role]; ok {
		return ent
	}
	if ent, ok := e[RoleFree]; ok {
		return ent
	}
	return DefaultEntitlements[RoleFree]
}

// Validate checks that every known role is present and sane.
func (e Entitlements) Validate() error {
	for _, role := range []Role{RoleFree, RolePaid, RoleAdmin} {
		ent, ok := e[role]
		if !ok {
			return fmt.Errorf("missing entitlement for role %q", role)
		}
		if ent.MaxTeams < 1 {
			return fmt.Errorf("role %q: max_teams must be at least 1, got %d", role, ent.MaxTeams)
		}
		if ent.MonthlyCredits < 0 || ent.MonthlyCredits > MaxCreditAmount {
			return fmt.Errorf("role %q: monthly_credits must be between 0 and %d, got %d", role, MaxCreditAmount, ent.MonthlyCredits)
		}
	}
	for role := range e {
		if !role.IsValid() {
			return fmt.Errorf("unknown role %q", role)
		}
	}
	return nil
}
