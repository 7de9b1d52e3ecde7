package internal

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fanpost/kanva/internal/domain"
	"gopkg.in/yaml.v3"
)

// entitlementsFile is the on-disk layout:
//
//	roles:
//	  free_user:  {max_teams: 1, monthly_credits: 3}
//	  paid_user:  {max_teams: 3, monthly_credits: 50}
//	  admin:      {max_teams: 10, monthly_credits: 1000}
type entitlementsFile struct {
	Roles map[string]domain.Entitlement `yaml:"roles"`
}

// LoadEntitlements reads the role table from path. An empty path returns the
// built-in defaults. Roles missing from the file keep their default values.
func LoadEntitlements(path string) (domain.Entitlements, error) {
	table := make(domain.Entitlements, len(domain.DefaultEntitlements))
	for role, ent := range domain.DefaultEntitlements {
		table[role] = ent
	}
	if path == "" {
		return table, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read entitlements file: %w", err)
	}
	return parseEntitlements(data, table)
}

func parseEntitlements(data []byte, table domain.Entitlements) (domain.Entitlements, error) {
	var file entitlementsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse entitlements file: %w", err)
	}

	for name, ent := range file.Roles {
		table[domain.Role(name)] = ent
	}
	if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("invalid entitlements: %w", err)
	}
	return table, nil
}
