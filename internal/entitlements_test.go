package internal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEntitlements_Defaults(t *testing.T) {
	table, err := LoadEntitlements("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultEntitlements, table)

	// The defaults must not be shared with the returned table.
	table[domain.RoleFree] = domain.Entitlement{MaxTeams: 99}
	assert.Equal(t, 1, domain.DefaultEntitlements[domain.RoleFree].MaxTeams)
}

func TestLoadEntitlements_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entitlements.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
roles:
  paid_user:
    max_teams: 5
    monthly_credits: 80
`), 0o600))

	table, err := LoadEntitlements(path)
	require.NoError(t, err)

	assert.Equal(t, domain.Entitlement{MaxTeams: 5, MonthlyCredits: 80}, table.For(domain.RolePaid))
	assert.Equal(t, domain.DefaultEntitlements[domain.RoleFree], table.For(domain.RoleFree))
}

func TestLoadEntitlements_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero teams", "roles:\n  free_user:\n    max_teams: 0\n"},
		{"unknown role", "roles:\n  gold:\n    max_teams: 4\n"},
		{"unknown field", "roles:\n  free_user:\n    max_team: 4\n"},
		{"not yaml", "roles: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "entitlements.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.body), 0o600))

			_, err := LoadEntitlements(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadEntitlements_MissingFile(t *testing.T) {
	_, err := LoadEntitlements(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
