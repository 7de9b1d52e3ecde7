package service

import (
	"context"
	"errors"
	"testing"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestProfileService_GetProfile_Defaults(t *testing.T) {
	f := newFixture()
	svc := NewProfileService(f.store, testLogger())
	caller := &domain.Identity{ID: uuid.New(), Email: "coach@club.ch"}

	profile, err := svc.GetProfile(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageGerman, profile.Language)
	assert.Equal(t, domain.ThemeSystem, profile.Theme)
	assert.Equal(t, "coach@club.ch", profile.Email)

	_, err = f.store.GetProfile(context.Background(), caller.ID)
	assert.Error(t, err, "reading defaults does not create a row")
}

func TestProfileService_UpdatePreferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := NewProfileService(f.store, testLogger())
	caller := &domain.Identity{ID: uuid.New(), Email: "coach@club.ch"}

	profile, err := svc.UpdatePreferences(ctx, caller, domain.Preferences{
		Language: strPtr("fr-CH"),
		Theme:    strPtr("Dark"),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageFrench, profile.Language)
	assert.Equal(t, domain.ThemeDark, profile.Theme)

	profile, err = svc.UpdatePreferences(ctx, caller, domain.Preferences{
		EmailNotifications: boolPtr(true),
		ClubName:           strPtr("  UHC Thun "),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageFrench, profile.Language, "unset fields keep their value")
	assert.True(t, profile.EmailNotifications)
	assert.Equal(t, "UHC Thun", profile.ClubName)

	stored, err := svc.GetProfile(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, profile.Language, stored.Language)
	assert.Equal(t, profile.ClubName, stored.ClubName)
}

func TestProfileService_UpdatePreferences_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := NewProfileService(f.store, testLogger())
	caller := &domain.Identity{ID: uuid.New()}

	for _, lang := range []string{"de", "it", "en"} {
		_, err := svc.UpdatePreferences(ctx, caller, domain.Preferences{Language: strPtr(lang)})
		require.NoError(t, err)
	}

	profile, err := svc.GetProfile(ctx, caller)
	require.NoError(t, err)
	assert.Equal(t, domain.LanguageEnglish, profile.Language)
}

func TestProfileService_UpdatePreferences_Invalid(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := NewProfileService(f.store, testLogger())
	caller := &domain.Identity{ID: uuid.New()}

	_, err := svc.UpdatePreferences(ctx, caller, domain.Preferences{Language: strPtr("ja")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "language")

	_, err = svc.UpdatePreferences(ctx, caller, domain.Preferences{Theme: strPtr("neon")})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "theme")

	f.store.FailOn("UpsertProfile", errors.New("boom"))
	_, err = svc.UpdatePreferences(ctx, caller, domain.Preferences{Theme: strPtr("light")})
	assert.Equal(t, domain.EINTERNAL, domain.ErrorCode(err))
}
