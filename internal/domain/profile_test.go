package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want Language
	}{
		{"de", LanguageGerman},
		{"de-CH", LanguageGerman},
		{"fr-CH", LanguageFrench},
		{"it", LanguageItalian},
		{"en-GB", LanguageEnglish},
		{"fr;q=0.9, en;q=0.8", LanguageFrench},
		{"", DefaultLanguage},
		{"not a tag!!", DefaultLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchLanguage(tt.in))
		})
	}
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestPreferences_Apply(t *testing.T) {
	profile := Profile{Language: LanguageGerman, Theme: ThemeSystem}

	err := Preferences{
		Language:           strPtr("fr-CH"),
		Theme:              strPtr("Dark"),
		EmailNotifications: boolPtr(true),
		ClubName:           strPtr("  UHC Thun "),
	}.Apply("test", &profile)
	require.NoError(t, err)

	assert.Equal(t, LanguageFrench, profile.Language)
	assert.Equal(t, ThemeDark, profile.Theme)
	assert.True(t, profile.EmailNotifications)
	assert.Equal(t, "UHC Thun", profile.ClubName)
}

func TestPreferences_ApplyLeavesProfileOnError(t *testing.T) {
	profile := Profile{Language: LanguageItalian, Theme: ThemeLight}

	err := Preferences{
		Language: strPtr("en"),
		Theme:    strPtr("neon"),
	}.Apply("test", &profile)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "theme")
	assert.Equal(t, LanguageItalian, profile.Language)
	assert.Equal(t, ThemeLight, profile.Theme)
}
