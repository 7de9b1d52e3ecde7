package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/fanpost/kanva/internal/auth"
	"github.com/fanpost/kanva/internal/domain"
	"github.com/google/uuid"
)

// maxJSONBody bounds JSON request bodies. Template payloads are the largest.
const maxJSONBody = domain.MaxTemplateDataSize + 64*1024

// decodeJSON reads a JSON request body into v. Malformed bodies are
// reported as a validation error on the "body" field.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return domain.Errorf(domain.ETOOLARGE, op, "Request body is too large.")
	case errors.Is(err, io.EOF):
		return domain.NewValidationError(op, "body", "Request body is required")
	default:
		return domain.NewValidationError(op, "body", "Request body must be valid JSON")
	}
}

// pathUUID parses a UUID path value. An unparsable ID cannot exist, so it is
// reported as not found.
func pathUUID(r *http.Request, op, name, resource string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NotFound(op, resource, raw)
	}
	return id, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// caller returns the verified identity. Routes are wrapped in the auth
// middleware, so a missing identity is a wiring error surfaced as 401.
func caller(r *http.Request) (*domain.Identity, error) {
	id := auth.GetIdentityFromRequest(r)
	if id == nil {
		return nil, domain.Unauthorized("", "Authentication required")
	}
	return id, nil
}
