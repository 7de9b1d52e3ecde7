package service

import (
	"context"
	"log/slog"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/events"
	"github.com/fanpost/kanva/internal/metrics"
	"github.com/fanpost/kanva/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// TierService resolves subscription roles and the limits they grant.
type TierService interface {
	// ResolveRole returns the stored role of a user. A missing row or a read
	// failure resolves to domain.RoleFree; it never returns an error so that
	// an outage can only ever reduce privileges.
	ResolveRole(ctx context.Context, userID uuid.UUID) domain.Role

	// ResolveRoles resolves many users at once. Users without a row map to
	// domain.RoleFree.
	ResolveRoles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]domain.Role, error)

	// IsPaidUser reports whether the role has paid privileges.
	IsPaidUser(role domain.Role) bool

	// LimitsFor returns the entitlement for a role.
	LimitsFor(role domain.Role) domain.Entitlement

	// SetRole stores a new role. Returns false when the role was already set.
	SetRole(ctx context.Context, userID uuid.UUID, role domain.Role) (bool, error)

	// ApplySubscription moves a user between the free and paid tiers
	// according to the billing state. Admins are left untouched. Unlike
	// ResolveRole, a failed read is an error: sync must never act on a
	// fallback role.
	ApplySubscription(ctx context.Context, userID uuid.UUID, active bool) (from, to domain.Role, err error)
}

// =============================================================================
// Implementation
// =============================================================================

type tierService struct {
	store        repository.Store
	entitlements domain.Entitlements
	events       events.Publisher
	logger       *slog.Logger
}

// NewTierService creates a new TierService. A nil entitlement table uses
// domain.DefaultEntitlements.
func NewTierService(store repository.Store, entitlements domain.Entitlements, pub events.Publisher, logger *slog.Logger) TierService {
	if entitlements == nil {
		entitlements = domain.DefaultEntitlements
	}
	if pub == nil {
		pub = events.Nop{}
	}
	return &tierService{
		store:        store,
		entitlements: entitlements,
		events:       pub,
		logger:       logger,
	}
}

func (s *tierService) ResolveRole(ctx context.Context, userID uuid.UUID) domain.Role {
	row, err := s.store.GetUserRole(ctx, userID)
	if err != nil {
		if !repository.IsNotFound(err) {
			s.logger.Warn("Role lookup failed, falling back to free tier",
				"user_id", userID,
				"error", err,
			)
		}
		return domain.RoleFree
	}
	return domain.ParseRole(row.Role)
}

func (s *tierService) ResolveRoles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]domain.Role, error) {
	const op = "TierService.ResolveRoles"

	roles := make(map[uuid.UUID]domain.Role, len(userIDs))
	for _, id := range userIDs {
		roles[id] = domain.RoleFree
	}
	if len(userIDs) == 0 {
		return roles, nil
	}

	rows, err := s.store.ListRolesByUserIDs(ctx, userIDs)
	if err != nil {
		return nil, storeError(err, op, "failed to list roles")
	}
	for _, row := range rows {
		roles[row.UserID] = domain.ParseRole(row.Role)
	}
	return roles, nil
}

func (s *tierService) IsPaidUser(role domain.Role) bool {
	return role.IsPaid()
}

func (s *tierService) LimitsFor(role domain.Role) domain.Entitlement {
	return s.entitlements.For(role)
}

func (s *tierService) SetRole(ctx context.Context, userID uuid.UUID, role domain.Role) (bool, error) {
	const op = "TierService.SetRole"

	if !role.IsValid() {
		return false, domain.Invalid(op, "unknown role")
	}

	_, _, changed, err := s.updateRole(ctx, userID, func(domain.Role) domain.Role { return role })
	if err != nil {
		return false, storeError(err, op, "failed to update role")
	}
	return changed, nil
}

func (s *tierService) ApplySubscription(ctx context.Context, userID uuid.UUID, active bool) (domain.Role, domain.Role, error) {
	const op = "TierService.ApplySubscription"

	from, to, _, err := s.updateRole(ctx, userID, func(current domain.Role) domain.Role {
		return domain.SubscriptionRole(current, active)
	})
	if err != nil {
		return "", "", storeError(err, op, "failed to apply subscription state")
	}
	return from, to, nil
}

// updateRole reads the stored role and writes next(current) in one
// transaction. Read failures abort instead of falling back to the free tier.
// A missing row is written even when the role does not change so that every
// synced identity has an explicit role.
func (s *tierService) updateRole(ctx context.Context, userID uuid.UUID, next func(domain.Role) domain.Role) (from, to domain.Role, changed bool, err error) {
	from = domain.RoleFree
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		exists := true
		row, err := q.GetUserRole(ctx, userID)
		switch {
		case err == nil:
			from = domain.ParseRole(row.Role)
		case repository.IsNotFound(err):
			exists = false
		default:
			return err
		}

		to = next(from)
		if exists && to == from {
			return nil
		}
		if _, err := q.UpsertUserRole(ctx, repository.UpsertUserRoleParams{
			UserID: userID,
			Role:   to.String(),
		}); err != nil {
			return err
		}
		changed = from != to
		return nil
	})
	if err != nil {
		return "", "", false, err
	}

	if changed {
		metrics.RoleChanged(from.String(), to.String())
		s.logger.Info("Role changed",
			"user_id", userID,
			"from", from,
			"to", to,
		)
		publish(ctx, s.events, s.logger, events.RoleChanged, userID, map[string]any{
			"from": from.String(),
			"to":   to.String(),
		})
	}
	return from, to, changed, nil
}
