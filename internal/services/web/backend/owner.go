package backend

import (
	"context"
	"net/http"
	"net/url"
)

// MySpas lists the calling client's spas.
func (c *Client) MySpas(ctx context.Context) ([]Spa, error) {
	var out []Spa
	err := c.do(ctx, call{method: http.MethodGet, route: "/client/spas", path: "/client/spas"}, &out)
	return out, err
}

// CreateSpa registers a spa for admin approval.
func (c *Client) CreateSpa(ctx context.Context, req SpaCreateRequest) (Spa, error) {
	var out Spa
	err := c.do(ctx, call{method: http.MethodPost, route: "/client/spas", path: "/client/spas", body: req}, &out)
	return out, err
}

// SpaServices lists the services of one of the client's spas.
func (c *Client) SpaServices(ctx context.Context, spaID int64) ([]Service, error) {
	var out []Service
	err := c.do(ctx, call{
		method: http.MethodGet,
		route:  "/client/spas/{id}/services",
		path:   "/client/spas/" + pathID(spaID) + "/services",
	}, &out)
	return out, err
}

// CreateService adds a service to a spa.
func (c *Client) CreateService(ctx context.Context, spaID int64, req ServiceCreateRequest) (Service, error) {
	var out Service
	err := c.do(ctx, call{
		method: http.MethodPost,
		route:  "/client/spas/{id}/services",
		path:   "/client/spas/" + pathID(spaID) + "/services",
		body:   req,
	}, &out)
	return out, err
}

// UpdateServiceStatus toggles whether a service accepts bookings.
func (c *Client) UpdateServiceStatus(ctx context.Context, serviceID int64, status ServiceStatus) (Service, error) {
	var out Service
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/client/services/{id}/status",
		path:   "/client/services/" + pathID(serviceID) + "/status",
		body:   statusRequest[ServiceStatus]{Status: status},
	}, &out)
	return out, err
}

// UpdateBookingStatus confirms or declines a booking.
func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID int64, status BookingStatus) (Booking, error) {
	var out Booking
	err := c.do(ctx, call{
		method: http.MethodPut,
		route:  "/client/bookings/{id}/status",
		path:   "/client/bookings/" + pathID(bookingID) + "/status",
		body:   statusRequest[BookingStatus]{Status: status},
	}, &out)
	return out, err
}

// SpaBookings lists bookings for one spa, optionally filtered by status.
func (c *Client) SpaBookings(ctx context.Context, spaID int64, status BookingStatus) ([]Booking, error) {
	req := call{
		method: http.MethodGet,
		route:  "/client/spas/{id}/bookings",
		path:   "/client/spas/" + pathID(spaID) + "/bookings",
	}
	if status != "" {
		req.route += "/filter"
		req.path += "/filter"
		req.query = url.Values{"status": {string(status)}}
	}
	var out []Booking
	err := c.do(ctx, req, &out)
	return out, err
}
