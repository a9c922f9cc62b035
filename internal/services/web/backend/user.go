package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/louisbranch/spabooking/internal/services/web/identity"
)

func pathID(v int64) string {
	return strconv.FormatInt(v, 10)
}

// UpdateProfile edits the caller's profile. Available to every role.
func (c *Client) UpdateProfile(ctx context.Context, req ProfileUpdateRequest) (identity.Identity, error) {
	var who identity.Identity
	err := c.do(ctx, call{method: http.MethodPut, route: "/profile", path: "/profile", body: req}, &who)
	return who, err
}

// MyBookings lists the caller's bookings.
func (c *Client) MyBookings(ctx context.Context) ([]Booking, error) {
	var out []Booking
	err := c.do(ctx, call{method: http.MethodGet, route: "/user/bookings", path: "/user/bookings"}, &out)
	return out, err
}

// CreateBooking reserves a slot.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (Booking, error) {
	var out Booking
	err := c.do(ctx, call{method: http.MethodPost, route: "/user/bookings", path: "/user/bookings", body: req}, &out)
	return out, err
}

// CancelBooking cancels one of the caller's bookings.
func (c *Client) CancelBooking(ctx context.Context, bookingID int64) (Booking, error) {
	var out Booking
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/user/bookings/{id}/cancel",
		path:   "/user/bookings/" + pathID(bookingID) + "/cancel",
		body:   struct{}{},
	}, &out)
	return out, err
}

// ConfirmPayment marks a booking as paid.
func (c *Client) ConfirmPayment(ctx context.Context, bookingID int64) (Booking, error) {
	var out Booking
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/user/bookings/{id}/confirm-payment",
		path:   "/user/bookings/" + pathID(bookingID) + "/confirm-payment",
		body:   struct{}{},
	}, &out)
	return out, err
}

// Availability lists open slots for a service on date (YYYY-MM-DD).
func (c *Client) Availability(ctx context.Context, serviceID int64, date string) (Availability, error) {
	var out Availability
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/user/services/{id}/availability",
		path:   "/user/services/" + pathID(serviceID) + "/availability",
		body:   availabilityRequest{Date: date},
	}, &out)
	return out, err
}

// Wishlist lists the caller's saved services.
func (c *Client) Wishlist(ctx context.Context) ([]Service, error) {
	var out []Service
	err := c.do(ctx, call{method: http.MethodGet, route: "/user/wishlist", path: "/user/wishlist"}, &out)
	return out, err
}

// AddToWishlist saves a service.
func (c *Client) AddToWishlist(ctx context.Context, serviceID int64) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/user/wishlist/service/{id}",
		path:   "/user/wishlist/service/" + pathID(serviceID),
		body:   struct{}{},
	}, nil)
}

// RemoveFromWishlist drops a saved service.
func (c *Client) RemoveFromWishlist(ctx context.Context, serviceID int64) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		route:  "/user/wishlist/service/{id}",
		path:   "/user/wishlist/service/" + pathID(serviceID),
	}, nil)
}

// SubscribeMembership subscribes the caller to a plan and returns the
// updated identity.
func (c *Client) SubscribeMembership(ctx context.Context, membershipID int64) (identity.Identity, error) {
	var who identity.Identity
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/user/membership/subscribe",
		path:   "/user/membership/subscribe",
		body:   subscribeRequest{MembershipID: membershipID},
	}, &who)
	return who, err
}

// CancelMembership cancels the caller's membership and returns the updated
// identity.
func (c *Client) CancelMembership(ctx context.Context) (identity.Identity, error) {
	var who identity.Identity
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/user/membership/cancel",
		path:   "/user/membership/cancel",
		body:   struct{}{},
	}, &who)
	return who, err
}

// Memberships lists the plans any signed-in user can subscribe to.
func (c *Client) Memberships(ctx context.Context) ([]Membership, error) {
	var out []Membership
	err := c.do(ctx, call{method: http.MethodGet, route: "/common/memberships", path: "/common/memberships"}, &out)
	return out, err
}
