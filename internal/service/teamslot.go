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

// TeamSlotService enforces the team-slot quota and the weekly cooldown.
//
// Every mutation runs in one transaction holding a per-owner advisory lock,
// so concurrent requests of the same owner (several tabs or devices) are
// serialized and the store stays the sole arbiter.
type TeamSlotService interface {
	// ListSlots returns the owner's slots, oldest first.
	ListSlots(ctx context.Context, ownerID uuid.UUID) ([]domain.TeamSlot, error)

	// EnsureSlot makes sure the team occupies one of the owner's slots.
	// If the team is already bound, its details are refreshed and the
	// cooldown timestamp is left alone. Otherwise a new slot is created,
	// unless the owner already uses every slot their role grants.
	// Returns domain.EQUOTA when the quota is reached.
	EnsureSlot(ctx context.Context, ownerID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, bool, error)

	// RebindSlot binds an existing slot to another team. Changing the team
	// restarts the cooldown and is only allowed once the previous cooldown
	// has elapsed. Passing the currently bound team only refreshes details.
	// Returns domain.ENOTFOUND, domain.EFORBIDDEN, domain.ECOOLDOWN or
	// domain.ECONFLICT (team already in another slot).
	RebindSlot(ctx context.Context, ownerID, slotID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, error)

	// DeleteSlot removes a slot once its cooldown has elapsed.
	// Returns domain.ENOTFOUND, domain.EFORBIDDEN or domain.ECOOLDOWN.
	DeleteSlot(ctx context.Context, ownerID, slotID uuid.UUID) error

	// DaysUntilEditable returns how many days remain before the slot can be
	// changed or deleted. It uses the same rule as enforcement.
	DaysUntilEditable(slot *domain.TeamSlot) int
}

// =============================================================================
// Implementation
// =============================================================================

type teamSlotService struct {
	store  repository.Store
	tiers  TierService
	events events.Publisher
	logger *slog.Logger
	now    Clock
}

// NewTeamSlotService creates a new TeamSlotService.
func NewTeamSlotService(store repository.Store, tiers TierService, pub events.Publisher, logger *slog.Logger) TeamSlotService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &teamSlotService{
		store:  store,
		tiers:  tiers,
		events: pub,
		logger: logger,
		now:    utcNow,
	}
}

func (s *teamSlotService) ListSlots(ctx context.Context, ownerID uuid.UUID) ([]domain.TeamSlot, error) {
	const op = "TeamSlotService.ListSlots"

	rows, err := s.store.ListTeamSlotsByUser(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, op, "failed to list team slots")
	}

	slots := make([]domain.TeamSlot, len(rows))
	for i, row := range rows {
		slots[i] = toTeamSlot(row)
	}
	return slots, nil
}

func (s *teamSlotService) EnsureSlot(ctx context.Context, ownerID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, bool, error) {
	const op = "TeamSlotService.EnsureSlot"

	team = team.Normalize()
	if err := team.Validate(op); err != nil {
		return nil, false, err
	}

	// The role is read before the owner lock is taken so a failed role read
	// can still fall back to the free tier; inside the transaction it would
	// abort the whole statement batch. A role change committed meanwhile
	// takes effect on the next call.
	role := s.tiers.ResolveRole(ctx, ownerID)
	limit := s.tiers.LimitsFor(role).MaxTeams
	now := s.now()

	var (
		row     repository.UserTeamSlot
		created bool
	)
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.LockOwner(ctx, ownerID.String()); err != nil {
			return err
		}

		existing, err := q.GetTeamSlotByUserAndTeam(ctx, repository.GetTeamSlotByUserAndTeamParams{
			UserID: ownerID,
			TeamID: team.TeamID,
		})
		switch {
		case err == nil:
			row, err = q.UpdateTeamSlotDetails(ctx, detailsParams(existing, team))
			return err
		case !repository.IsNotFound(err):
			return err
		}

		count, err := q.CountTeamSlotsByUser(ctx, ownerID)
		if err != nil {
			return err
		}
		if count >= int64(limit) {
			return domain.QuotaExceeded(op, int(count), limit)
		}

		row, err = q.InsertTeamSlot(ctx, repository.InsertTeamSlotParams{
			UserID:        ownerID,
			TeamID:        team.TeamID,
			TeamName:      domain.ToNullString(team.TeamName),
			Sport:         domain.ToNullString(string(team.Sport)),
			ClubID:        domain.ToNullString(team.ClubID),
			LastChangedAt: now,
		})
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.EQUOTA {
			metrics.SlotRejected("quota")
			s.logger.Info("Team slot quota reached",
				"user_id", ownerID,
				"role", role,
				"team_id", team.TeamID,
				"limit", limit,
			)
			return nil, false, err
		}
		return nil, false, storeError(err, op, "failed to save team slot")
	}

	slot := toTeamSlot(row)
	if created {
		metrics.TeamSlotsCreated.Inc()
		s.logger.Info("Team slot created",
			"user_id", ownerID,
			"slot_id", slot.ID,
			"team_id", slot.TeamID,
		)
		publish(ctx, s.events, s.logger, events.TeamSlotCreated, ownerID, map[string]any{
			"slot_id": slot.ID.String(),
			"team_id": slot.TeamID,
			"sport":   string(slot.Sport),
		})
	}
	return &slot, created, nil
}

func (s *teamSlotService) RebindSlot(ctx context.Context, ownerID, slotID uuid.UUID, team domain.TeamRef) (*domain.TeamSlot, error) {
	const op = "TeamSlotService.RebindSlot"

	team = team.Normalize()
	if err := team.Validate(op); err != nil {
		return nil, err
	}

	now := s.now()
	var (
		row      repository.UserTeamSlot
		previous string
		rebound  bool
	)
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.LockOwner(ctx, ownerID.String()); err != nil {
			return err
		}

		current, err := s.lockOwnedSlot(ctx, q, op, ownerID, slotID)
		if err != nil {
			return err
		}

		if current.TeamID == team.TeamID {
			row, err = q.UpdateTeamSlotDetails(ctx, detailsParams(current, team))
			return err
		}

		if days := domain.DaysUntilEditable(current.LastChangedAt, now); days > 0 {
			return domain.CooldownActive(op, days)
		}

		row, err = q.RebindTeamSlot(ctx, repository.RebindTeamSlotParams{
			ID:            current.ID,
			TeamID:        team.TeamID,
			TeamName:      domain.ToNullString(team.TeamName),
			Sport:         domain.ToNullString(string(team.Sport)),
			ClubID:        domain.ToNullString(team.ClubID),
			LastChangedAt: now,
		})
		if repository.IsUniqueViolation(err) {
			return domain.Conflict(op, "This team is already in one of your slots.")
		}
		if err != nil {
			return err
		}
		previous = current.TeamID
		rebound = true
		return nil
	})
	if err != nil {
		return nil, s.slotError(err, op, ownerID, slotID, "failed to rebind team slot")
	}

	slot := toTeamSlot(row)
	if rebound {
		s.logger.Info("Team slot rebound",
			"user_id", ownerID,
			"slot_id", slot.ID,
			"from_team_id", previous,
			"to_team_id", slot.TeamID,
		)
		publish(ctx, s.events, s.logger, events.TeamSlotRebound, ownerID, map[string]any{
			"slot_id":      slot.ID.String(),
			"from_team_id": previous,
			"team_id":      slot.TeamID,
		})
	}
	return &slot, nil
}

func (s *teamSlotService) DeleteSlot(ctx context.Context, ownerID, slotID uuid.UUID) error {
	const op = "TeamSlotService.DeleteSlot"

	now := s.now()
	var teamID string
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		current, err := s.lockOwnedSlot(ctx, q, op, ownerID, slotID)
		if err != nil {
			return err
		}

		if days := domain.DaysUntilEditable(current.LastChangedAt, now); days > 0 {
			return domain.CooldownActive(op, days)
		}

		if _, err := q.DeleteTeamSlot(ctx, current.ID); err != nil {
			return err
		}
		teamID = current.TeamID
		return nil
	})
	if err != nil {
		return s.slotError(err, op, ownerID, slotID, "failed to delete team slot")
	}

	metrics.TeamSlotsDeleted.Inc()
	s.logger.Info("Team slot deleted",
		"user_id", ownerID,
		"slot_id", slotID,
		"team_id", teamID,
	)
	publish(ctx, s.events, s.logger, events.TeamSlotDeleted, ownerID, map[string]any{
		"slot_id": slotID.String(),
		"team_id": teamID,
	})
	return nil
}

func (s *teamSlotService) DaysUntilEditable(slot *domain.TeamSlot) int {
	return slot.DaysUntilEditable(s.now())
}

// lockOwnedSlot loads a slot with a row lock and checks that ownerID owns it.
func (s *teamSlotService) lockOwnedSlot(ctx context.Context, q repository.Querier, op string, ownerID, slotID uuid.UUID) (repository.UserTeamSlot, error) {
	row, err := q.GetTeamSlotForUpdate(ctx, slotID)
	if err != nil {
		if repository.IsNotFound(err) {
			return row, domain.NotFound(op, "team slot", slotID.String())
		}
		return row, err
	}
	if row.UserID != ownerID {
		return row, domain.Forbidden(op, "This team slot belongs to another account.")
	}
	return row, nil
}

// slotError logs rule outcomes at info and translates everything else.
func (s *teamSlotService) slotError(err error, op string, ownerID, slotID uuid.UUID, message string) error {
	switch domain.ErrorCode(err) {
	case domain.ECOOLDOWN:
		metrics.SlotRejected("cooldown")
		s.logger.Info("Team slot still in cooldown",
			"user_id", ownerID,
			"slot_id", slotID,
			"days_remaining", domain.ErrorDetails(err)["days_remaining"],
		)
		return err
	case domain.ENOTFOUND, domain.EFORBIDDEN:
		s.logger.Info("Stale team slot reference",
			"user_id", ownerID,
			"slot_id", slotID,
			"code", domain.ErrorCode(err),
		)
		return err
	case domain.ECONFLICT:
		return err
	}
	return storeError(err, op, message)
}

// detailsParams merges a team reference into an existing slot. Empty
// fields keep the stored value.
func detailsParams(existing repository.UserTeamSlot, team domain.TeamRef) repository.UpdateTeamSlotDetailsParams {
	p := repository.UpdateTeamSlotDetailsParams{
		ID:       existing.ID,
		TeamName: existing.TeamName,
		Sport:    existing.Sport,
		ClubID:   existing.ClubID,
	}
	if team.TeamName != "" {
		p.TeamName = domain.ToNullString(team.TeamName)
	}
	if team.Sport != "" {
		p.Sport = domain.ToNullString(string(team.Sport))
	}
	if team.ClubID != "" {
		p.ClubID = domain.ToNullString(team.ClubID)
	}
	return p
}

func toTeamSlot(row repository.UserTeamSlot) domain.TeamSlot {
	return domain.TeamSlot{
		ID:            row.ID,
		OwnerID:       row.UserID,
		TeamID:        row.TeamID,
		TeamName:      domain.NullStringValue(row.TeamName),
		Sport:         domain.Sport(domain.NullStringValue(row.Sport)),
		ClubID:        domain.NullStringValue(row.ClubID),
		LastChangedAt: row.LastChangedAt,
		CreatedAt:     row.CreatedAt,
	}
}
