package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// PublicSpas lists approved spas. No session is required.
func (c *Client) PublicSpas(ctx context.Context) ([]Spa, error) {
	var out []Spa
	err := c.do(ctx, call{method: http.MethodGet, route: "/public/spas", path: "/public/spas"}, &out)
	return out, err
}

// SearchSpas lists approved spas whose name matches name.
func (c *Client) SearchSpas(ctx context.Context, name string) ([]Spa, error) {
	var out []Spa
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/public/spas/search",
		path:   "/public/spas/search",
		query:  url.Values{"name": {strings.TrimSpace(name)}},
	}, &out)
	return out, err
}

// Spa returns one spa with its services.
func (c *Client) Spa(ctx context.Context, spaID int64) (SpaDetail, error) {
	var out SpaDetail
	err := c.do(ctx, call{method: http.MethodGet, route: "/public/spas/{id}", path: "/public/spas/" + pathID(spaID)}, &out)
	return out, err
}
