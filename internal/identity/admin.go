package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Admin removes identities from the provider.
type Admin interface {
	DeleteUser(ctx context.Context, userID uuid.UUID) error
}

// HTTPAdmin calls the provider's admin REST API with a service key.
type HTTPAdmin struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewHTTPAdmin creates an admin client. baseURL is the provider's auth
// endpoint, e.g. https://project.example.co/auth/v1.
func NewHTTPAdmin(baseURL, serviceKey string, client *http.Client) *HTTPAdmin {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPAdmin{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		serviceKey: serviceKey,
		client:     client,
	}
}

// DeleteUser deletes the identity. A missing identity counts as deleted.
func (a *HTTPAdmin) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/admin/users/%s", a.baseURL, userID), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.serviceKey)
	req.Header.Set("apikey", a.serviceKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return fmt.Errorf("delete identity: provider returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// NoopAdmin is used when no admin API is configured (development). It
// deletes nothing and reports success.
type NoopAdmin struct{}

// DeleteUser implements Admin.
func (NoopAdmin) DeleteUser(context.Context, uuid.UUID) error { return nil }
