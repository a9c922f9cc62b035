// Package routepath stores canonical HTTP paths for web pages.
package routepath

import (
	"net/url"
	"strconv"
	"strings"
)

const (
	Root     = "/"
	Login    = "/login"
	Register = "/register"
	Logout   = "/logout"
	Health   = "/up"
	Metrics  = "/metrics"

	SpaPrefix  = "/spa/"
	SpaPattern = SpaPrefix + "{id}"

	LiveSession  = "/live/session"
	StaticPrefix = "/static/"

	UserPrefix                = "/user/"
	UserProfile               = "/user/profile"
	UserBookings              = "/user/my-bookings"
	UserWishlist              = "/user/wishlist"
	UserMembership            = "/user/membership"
	UserBookPattern           = UserPrefix + "book/{serviceId}"
	UserBookingPaymentPattern = UserPrefix + "bookings/{bookingId}/payment"

	ClientPrefix             = "/client/"
	ClientDashboard          = "/client/dashboard"
	ClientProfile            = "/client/profile"
	ClientSpaManagePattern   = ClientPrefix + "spa/{id}/manage"
	ClientSpaBookingsPattern = ClientPrefix + "spa/{id}/bookings"

	AdminPrefix           = "/admin/"
	AdminDashboard        = "/admin/dashboard"
	AdminSpaApprovals     = "/admin/spa-approvals"
	AdminServiceApprovals = "/admin/service-approvals"
	AdminClients          = "/admin/clients"
	AdminMemberships      = "/admin/memberships"
	AdminUsers            = "/admin/users"

	// NextQueryKey carries the page a live channel is watching.
	NextQueryKey = "path"
)

// Spa returns the public spa detail route.
func Spa(spaID int64) string {
	return SpaPrefix + formatID(spaID)
}

// UserBook returns the booking route for a service.
func UserBook(serviceID int64) string {
	return UserPrefix + "book/" + formatID(serviceID)
}

// UserBookingPayment returns the payment route for a booking.
func UserBookingPayment(bookingID int64) string {
	return UserPrefix + "bookings/" + formatID(bookingID) + "/payment"
}

// ClientSpaManage returns the client's spa management route.
func ClientSpaManage(spaID int64) string {
	return ClientPrefix + "spa/" + formatID(spaID) + "/manage"
}

// ClientSpaBookings returns the client's spa bookings route.
func ClientSpaBookings(spaID int64) string {
	return ClientPrefix + "spa/" + formatID(spaID) + "/bookings"
}

// LiveSessionFor returns the live channel URL watching path.
func LiveSessionFor(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return LiveSession
	}
	return LiveSession + "?" + NextQueryKey + "=" + url.QueryEscape(path)
}

// WithQuery appends a single query parameter to path.
func WithQuery(path, key, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return path
	}
	return path + "?" + url.QueryEscape(key) + "=" + url.QueryEscape(value)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
