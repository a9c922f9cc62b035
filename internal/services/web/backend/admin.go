package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/louisbranch/spabooking/internal/services/web/identity"
)

// AdminSpas lists every spa, optionally filtered by approval status.
func (c *Client) AdminSpas(ctx context.Context, status ApprovalStatus) ([]Spa, error) {
	var out []Spa
	err := c.do(ctx, call{method: http.MethodGet, route: "/admin/spas", path: "/admin/spas", query: statusQuery(status)}, &out)
	return out, err
}

// AdminServices lists every service, optionally filtered by approval status.
func (c *Client) AdminServices(ctx context.Context, status ApprovalStatus) ([]Service, error) {
	var out []Service
	err := c.do(ctx, call{method: http.MethodGet, route: "/admin/services", path: "/admin/services", query: statusQuery(status)}, &out)
	return out, err
}

// ApproveSpa records an approval decision for a spa.
func (c *Client) ApproveSpa(ctx context.Context, spaID int64, status ApprovalStatus) (Spa, error) {
	var out Spa
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/admin/spas/{id}/approve",
		path:   "/admin/spas/" + pathID(spaID) + "/approve",
		body:   statusRequest[ApprovalStatus]{Status: status},
	}, &out)
	return out, err
}

// ApproveService records an approval decision for a service.
func (c *Client) ApproveService(ctx context.Context, serviceID int64, status ApprovalStatus) (Service, error) {
	var out Service
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/admin/services/{id}/approve",
		path:   "/admin/services/" + pathID(serviceID) + "/approve",
		body:   statusRequest[ApprovalStatus]{Status: status},
	}, &out)
	return out, err
}

// Clients lists every CLIENT account.
func (c *Client) Clients(ctx context.Context) ([]identity.Identity, error) {
	var out []identity.Identity
	err := c.do(ctx, call{method: http.MethodGet, route: "/admin/clients", path: "/admin/clients"}, &out)
	return out, err
}

// AdminMemberships lists every membership plan.
func (c *Client) AdminMemberships(ctx context.Context) ([]Membership, error) {
	var out []Membership
	err := c.do(ctx, call{method: http.MethodGet, route: "/admin/memberships", path: "/admin/memberships"}, &out)
	return out, err
}

// CreateMembership defines a new plan.
func (c *Client) CreateMembership(ctx context.Context, req MembershipCreateRequest) (Membership, error) {
	var out Membership
	err := c.do(ctx, call{method: http.MethodPost, route: "/admin/memberships", path: "/admin/memberships", body: req}, &out)
	return out, err
}

// DeleteMembership removes a plan.
func (c *Client) DeleteMembership(ctx context.Context, membershipID int64) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/admin/memberships/{id}",
		path:   "/admin/memberships/" + pathID(membershipID),
	}, nil)
}

// UsersByStatus lists users whose membership is in status.
func (c *Client) UsersByStatus(ctx context.Context, status identity.MembershipStatus) ([]identity.Identity, error) {
	var out []identity.Identity
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/admin/users/filter/status",
		path:   "/admin/users/filter/status",
		query:  url.Values{"status": {string(status)}},
	}, &out)
	return out, err
}

// UsersByMembership lists users subscribed to a plan.
func (c *Client) UsersByMembership(ctx context.Context, membershipID int64) ([]identity.Identity, error) {
	var out []identity.Identity
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/admin/users/filter/membership",
		path:   "/admin/users/filter/membership",
		query:  url.Values{"membershipId": {pathID(membershipID)}},
	}, &out)
	return out, err
}

func statusQuery(status ApprovalStatus) url.Values {
	if status == "" {
		return nil
	}
	return url.Values{"status": {string(status)}}
}
