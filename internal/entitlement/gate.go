// Package entitlement implements the admission-control gate that
// verifies the caller is authenticated and entitled to run automation.
package entitlement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hugo-lorenzo-mato/engage/internal/core"
	"github.com/hugo-lorenzo-mato/engage/internal/logging"
)

// User is the subset of the remote current-user payload the gate needs.
type User struct {
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}

// Gate checks entitlement against the remote backend. The check is a
// hard gate: it must run to completion before anything is staged or
// spawned.
type Gate struct {
	baseURL string
	tokens  TokenStore
	client  *http.Client
	logger  *logging.Logger
}

// GateOption configures the gate.
type GateOption func(*Gate)

// WithHTTPClient overrides the HTTP client (tests, custom transports).
func WithHTTPClient(c *http.Client) GateOption {
	return func(g *Gate) {
		g.client = c
	}
}

// NewGate creates a gate for the given API base URL.
func NewGate(baseURL string, tokens TokenStore, logger *logging.Logger, opts ...GateOption) *Gate {
	if logger == nil {
		logger = logging.NewNop()
	}
	g := &Gate{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Check verifies authentication and subscription. It returns nil when
// the caller may proceed, or a DomainError with one of UNAUTHORIZED,
// NO_SUBSCRIPTION, SERVICE_UNAVAILABLE.
func (g *Gate) Check(ctx context.Context) (*User, error) {
	token, err := g.tokens.AccessToken()
	if err != nil {
		g.logger.Warn("token store unreadable", "error", err)
		return nil, core.ErrUnauthorized("please log in to run automation").WithCause(err)
	}
	if token == "" {
		// No token means no network call: fail fast.
		return nil, core.ErrUnauthorized("please log in to run automation")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/users/me", nil)
	if err != nil {
		return nil, core.ErrServiceUnavailable().WithCause(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warn("entitlement check unreachable", "error", err)
		return nil, core.ErrServiceUnavailable().WithCause(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, core.ErrUnauthorized("your session has expired, please log in again")
	case resp.StatusCode != http.StatusOK:
		g.logger.Warn("entitlement check failed", "status", resp.StatusCode)
		return nil, core.ErrServiceUnavailable().
			WithCause(fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, core.ErrServiceUnavailable().WithCause(err)
	}

	if !user.IsActive {
		return nil, core.ErrNoSubscription()
	}
	return &user, nil
}
