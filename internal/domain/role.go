// Package domain contains core business types and interfaces.
//
// This file defines the subscription roles attached to every identity.
package domain

// Role is the subscription tier of an identity. Exactly one role row exists
// per identity; a missing row is treated as RoleFree.
type Role string

const (
	RoleFree  Role = "free_user"
	RolePaid  Role = "paid_user"
	RoleAdmin Role = "admin"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// IsValid returns true if the role is a recognized value.
func (r Role) IsValid() bool {
	switch r {
	case RoleFree, RolePaid, RoleAdmin:
		return true
	}
	return false
}

// IsPaid returns true for roles with paid privileges.
func (r Role) IsPaid() bool {
	return r == RolePaid || r == RoleAdmin
}

// ParseRole converts a stored value into a Role. Unknown values map to
// RoleFree so that a corrupt or future value never grants paid privileges.
func ParseRole(s string) Role {
	r := Role(s)
	if r.IsValid() {
		return r
	}
	return RoleFree
}

// SubscriptionRole returns the role an identity should hold given whether the
// billing system reports an active subscription. Admins are never promoted
// or demoted automatically.
func SubscriptionRole(current Role, hasActiveSubscription bool) Role {
	if current == RoleAdmin {
		return RoleAdmin
	}
	if hasActiveSubscription {
		return RolePaid
	}
	return RoleFree
}
