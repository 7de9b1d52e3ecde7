package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the command tree without opening any dependencies; every
// case here must fail argument validation before app.open.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	cmd := newRootCmd(a)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	assert.Nil(t, a.services, "dependencies must not be opened")
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd(&app{})

	for _, path := range [][]string{
		{"migrate", "up"},
		{"migrate", "status"},
		{"migrate-templates"},
		{"sync-subscriptions"},
		{"roles", "get"},
		{"roles", "set"},
		{"credits", "show"},
		{"credits", "grant"},
		{"version"},
	} {
		found, _, err := cmd.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], found.Name())
	}
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad user id", []string{"roles", "set", "not-a-uuid", "admin"}, `invalid user id "not-a-uuid"`},
		{"bad id among several", []string{"roles", "get", "7c9e6679-7425-40de-944b-e07fc1f90ae7", "nope"}, `invalid user id "nope"`},
		{"bad role", []string{"roles", "set", "7c9e6679-7425-40de-944b-e07fc1f90ae7", "owner"}, `invalid role "owner"`},
		{"bad batch", []string{"migrate-templates", "--batch", "0"}, "--batch must be at least 1"},
		{"bad amount", []string{"credits", "grant", "7c9e6679-7425-40de-944b-e07fc1f90ae7", "0"}, "amount must be a positive integer"},
		{"amount overflows", []string{"credits", "grant", "7c9e6679-7425-40de-944b-e07fc1f90ae7", "4294967301", "--reference", "cs_1"}, "amount must be a positive integer"},
		{"missing reference", []string{"credits", "grant", "7c9e6679-7425-40de-944b-e07fc1f90ae7", "5"}, "--reference is required"},
		{"bad sync user", []string{"sync-subscriptions", "--user", "42"}, `invalid user id "42"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "kanvactl dev\n", out)
}
