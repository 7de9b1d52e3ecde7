// Package middleware contains HTTP middleware for the KANVA API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fanpost/kanva/internal/auth"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/handler"
)

// TokenVerifier turns a bearer token into the caller's identity.
type TokenVerifier interface {
	Verify(raw string) (*domain.Identity, error)
}

// AuthMiddleware authenticates API requests with identity provider access
// tokens.
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(verifier TokenVerifier, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		logger:   logger,
	}
}

// WithIdentity verifies the bearer token, when present, and stores the
// caller in the request context. Requests without a valid token continue
// anonymously.
func (m *AuthMiddleware) WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		id, err := m.verifier.Verify(token)
		if err != nil {
			m.logger.Debug("rejected access token",
				"path", r.URL.Path,
				"error", err,
			)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetIdentity(r.Context(), id)))
	})
}

// RequireIdentity rejects requests without a verified caller with 401.
//
// IMPORTANT: This middleware must be used AFTER WithIdentity in the chain.
//
//	mux.Handle("GET /api/me", authMw.WithIdentity(authMw.RequireIdentity(meHandler)))
func (m *AuthMiddleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetIdentity(r.Context()) == nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="kanva"`)
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Authenticated is WithIdentity followed by RequireIdentity.
func (m *AuthMiddleware) Authenticated(next http.Handler) http.Handler {
	return m.WithIdentity(m.RequireIdentity(next))
}

// bearerToken extracts the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
//	stack := Stack(recoverMw, loggingMw.Handler, authMw.Authenticated)
//	mux.Handle("GET /api/me", stack(meHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithIdentity
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireIdentity
)
