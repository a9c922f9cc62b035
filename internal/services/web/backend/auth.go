package backend

import (
	"context"
	"net/http"

	"github.com/louisbranch/spabooking/internal/services/web/identity"
)

// Me returns the identity bound to the current backend session.
func (c *Client) Me(ctx context.Context) (identity.Identity, error) {
	var who identity.Identity
	err := c.do(ctx, call{method: http.MethodGet, route: "/auth/me", path: "/auth/me"}, &who)
	return who, err
}

// Login authenticates and returns the new identity.
func (c *Client) Login(ctx context.Context, req LoginRequest) (identity.Identity, error) {
	var who identity.Identity
	err := c.do(ctx, call{method: http.MethodPost, route: "/auth/login", path: "/auth/login", body: req}, &who)
	return who, err
}

// Register creates an account. It does not authenticate.
func (c *Client) Register(ctx context.Context, req RegistrationRequest) (identity.Identity, error) {
	var who identity.Identity
	err := c.do(ctx, call{method: http.MethodPost, route: "/auth/register", path: "/auth/register", body: req}, &who)
	return who, err
}

// Logout ends the backend session. The response body is plain text.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{method: http.MethodPost, route: "/auth/logout", path: "/auth/logout", body: struct{}{}}, nil)
}
