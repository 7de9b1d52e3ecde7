// Package auth carries the verified caller through request contexts. It sits
// below both middleware and handler so neither imports the other for it.
package auth

import (
	"context"
	"net/http"

	"github.com/fanpost/kanva/internal/domain"
)

type identityKey struct{}

// SetIdentity attaches the caller whose bearer token the middleware verified.
func SetIdentity(ctx context.Context, id *domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// GetIdentity returns the caller, or nil on unauthenticated requests.
func GetIdentity(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(identityKey{}).(*domain.Identity)
	return id
}

func GetIdentityFromRequest(r *http.Request) *domain.Identity {
	return GetIdentity(r.Context())
}
