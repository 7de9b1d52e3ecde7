package service

import (
	"context"
	"log/slog"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/repository"
)

// ProfileService reads and writes per-user preferences.
type ProfileService interface {
	// GetProfile returns the caller's profile. A caller who never saved
	// anything gets the defaults, without a row being written.
	GetProfile(ctx context.Context, caller *domain.Identity) (*domain.Profile, error)

	// UpdatePreferences merges prefs into the stored profile and returns
	// the confirmed value. Concurrent writes are last-write-wins.
	UpdatePreferences(ctx context.Context, caller *domain.Identity, prefs domain.Preferences) (*domain.Profile, error)
}

type profileService struct {
	store  repository.Store
	logger *slog.Logger
}

// NewProfileService creates a new ProfileService.
func NewProfileService(store repository.Store, logger *slog.Logger) ProfileService {
	return &profileService{
		store:  store,
		logger: logger,
	}
}

func (s *profileService) GetProfile(ctx context.Context, caller *domain.Identity) (*domain.Profile, error) {
	const op = "ProfileService.GetProfile"

	row, err := s.store.GetProfile(ctx, caller.ID)
	if err != nil {
		if repository.IsNotFound(err) {
			return defaultProfile(caller), nil
		}
		return nil, storeError(err, op, "failed to load profile")
	}
	return toProfile(row), nil
}

func (s *profileService) UpdatePreferences(ctx context.Context, caller *domain.Identity, prefs domain.Preferences) (*domain.Profile, error) {
	const op = "ProfileService.UpdatePreferences"

	var saved repository.Profile
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		profile := defaultProfile(caller)
		row, err := q.GetProfile(ctx, caller.ID)
		switch {
		case err == nil:
			profile = toProfile(row)
		case repository.IsNotFound(err):
		default:
			return err
		}

		if err := prefs.Apply(op, profile); err != nil {
			return err
		}
		if profile.Email == "" {
			profile.Email = caller.Email
		}

		saved, err = q.UpsertProfile(ctx, repository.UpsertProfileParams{
			UserID:             caller.ID,
			Email:              profile.Email,
			DisplayName:        domain.ToNullString(profile.DisplayName),
			ClubName:           domain.ToNullString(profile.ClubName),
			Language:           string(profile.Language),
			Theme:              string(profile.Theme),
			EmailNotifications: profile.EmailNotifications,
		})
		return err
	})
	if err != nil {
		return nil, storeError(err, op, "failed to save preferences")
	}

	s.logger.Debug("Preferences updated",
		"user_id", caller.ID,
	)
	return toProfile(saved), nil
}

func defaultProfile(caller *domain.Identity) *domain.Profile {
	return &domain.Profile{
		UserID:   caller.ID,
		Email:    caller.Email,
		Language: domain.DefaultLanguage,
		Theme:    domain.ThemeSystem,
	}
}

func toProfile(row repository.Profile) *domain.Profile {
	return &domain.Profile{
		UserID:             row.UserID,
		Email:              row.Email,
		DisplayName:        domain.NullStringValue(row.DisplayName),
		ClubName:           domain.NullStringValue(row.ClubName),
		Language:           domain.MatchLanguage(row.Language),
		Theme:              domain.Theme(row.Theme),
		EmailNotifications: row.EmailNotifications,
		StripeCustomerID:   domain.NullStringValue(row.StripeCustomerID),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}
