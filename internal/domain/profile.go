package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
)

// Language is a UI language offered to Swiss clubs.
type Language string

const (
	LanguageGerman  Language = "de"
	LanguageFrench  Language = "fr"
	LanguageItalian Language = "it"
	LanguageEnglish Language = "en"
)

// DefaultLanguage is used when nothing better matches.
const DefaultLanguage = LanguageGerman

var supportedLanguages = []language.Tag{
	language.German,
	language.French,
	language.Italian,
	language.English,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

// MatchLanguage maps a user-supplied tag or Accept-Language value
// ("de-CH", "fr;q=0.9, en") to a supported Language, falling back to
// DefaultLanguage.
func MatchLanguage(input string) Language {
	lang, ok := ParseLanguage(input)
	if !ok {
		return DefaultLanguage
	}
	return lang
}

// ParseLanguage is like MatchLanguage but reports whether input matched a
// supported language at all.
func ParseLanguage(input string) (Language, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	tags, _, err := language.ParseAcceptLanguage(input)
	if err != nil || len(tags) == 0 {
		return "", false
	}
	_, idx, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return "", false
	}
	base, _ := supportedLanguages[idx].Base()
	return Language(base.String()), true
}

// IsValid returns true if the language is offered.
func (l Language) IsValid() bool {
	switch l {
	case LanguageGerman, LanguageFrench, LanguageItalian, LanguageEnglish:
		return true
	}
	return false
}

// Theme is the UI colour scheme.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// IsValid returns true if the theme is known.
func (t Theme) IsValid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// Profile holds per-user settings. Created lazily on first write.
type Profile struct {
	UserID             uuid.UUID `json:"user_id"`
	Email              string    `json:"email"`
	DisplayName        string    `json:"display_name,omitempty"`
	ClubName           string    `json:"club_name,omitempty"`
	Language           Language  `json:"language"`
	Theme              Theme     `json:"theme"`
	EmailNotifications bool      `json:"email_notifications"`
	StripeCustomerID   string    `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Preferences is the client-editable subset of a profile. Nil fields are
// left unchanged; writes are last-write-wins.
type Preferences struct {
	Language           *string `json:"language,omitempty"`
	Theme              *string `json:"theme,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	DisplayName        *string `json:"display_name,omitempty"`
	ClubName           *string `json:"club_name,omitempty"`
}

// Apply validates p and merges it into profile. The profile is not modified
// when validation fails.
func (p Preferences) Apply(op string, profile *Profile) error {
	next := *profile
	if p.Language != nil {
		lang, ok := ParseLanguage(*p.Language)
		if !ok {
			return NewValidationError(op, "language", "Language must be de, fr, it or en")
		}
		next.Language = lang
	}
	if p.Theme != nil {
		theme := Theme(strings.ToLower(strings.TrimSpace(*p.Theme)))
		if !theme.IsValid() {
			return NewValidationError(op, "theme", "Theme must be light, dark or system")
		}
		next.Theme = theme
	}
	if p.EmailNotifications != nil {
		next.EmailNotifications = *p.EmailNotifications
	}
	if p.DisplayName != nil {
		name := strings.TrimSpace(*p.DisplayName)
		if len(name) > 100 {
			return NewValidationError(op, "display_name", "Display name must be 100 characters or fewer")
		}
		next.DisplayName = name
	}
	if p.ClubName != nil {
		club := strings.TrimSpace(*p.ClubName)
		if len(club) > 150 {
			return NewValidationError(op, "club_name", "Club name must be 150 characters or fewer")
		}
		next.ClubName = club
	}
	*profile = next
	return nil
}
