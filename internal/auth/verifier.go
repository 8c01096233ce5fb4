package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/terra-clan/mentor-engine/internal/models"
)

// ErrUnauthorized is returned when a credential is missing, malformed,
// expired, or rejected by the identity provider.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier validates a bearer credential and yields the authenticated
// identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.UserIdentity, error)
}

// HTTPVerifier validates tokens against a Supabase-style identity
// provider: GET {url}/auth/v1/user with the token as the bearer
// credential and the project's anon key in the apikey header.
type HTTPVerifier struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// NewHTTPVerifier creates a verifier against the given provider URL
func NewHTTPVerifier(baseURL, anonKey string) *HTTPVerifier {
	return &HTTPVerifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify calls the identity provider and returns the authenticated user
func (v *HTTPVerifier) Verify(ctx context.Context, token string) (*models.UserIdentity, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build verify request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("apikey", v.anonKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	default:
		return nil, fmt.Errorf("identity provider returned status %d", resp.StatusCode)
	}

	var user models.UserIdentity
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode identity response: %w", err)
	}

	if user.ID == "" {
		return nil, ErrUnauthorized
	}

	return &user, nil
}

// Ping checks that the identity provider answers at all. Any HTTP
// response counts as healthy; only transport failures do not.
func (v *HTTPVerifier) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/health", nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", v.anonKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	resp.Body.Close()
	return nil
}
