package backend

import "github.com/louisbranch/spabooking/internal/services/web/identity"

// ApprovalStatus is the admin review state of a spa or service.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// ServiceStatus is whether a service accepts bookings.
type ServiceStatus string

const (
	ServiceAvailable   ServiceStatus = "AVAILABLE"
	ServiceUnavailable ServiceStatus = "UNAVAILABLE"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending          BookingStatus = "PENDING"
	BookingConfirmed        BookingStatus = "CONFIRMED"
	BookingCancelledByUser  BookingStatus = "CANCELLED_BY_USER"
	BookingDeclinedByClient BookingStatus = "DECLINED_BY_CLIENT"
)

// PaymentStatus is the payment state of a booking.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Spa is a listed spa.
type Spa struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Address        string         `json:"address"`
	Description    string         `json:"description"`
	ApprovalStatus ApprovalStatus `json:"approvalStatus"`
	OwnerID        int64          `json:"ownerId"`
}

// SpaDetail is a spa with its services.
type SpaDetail struct {
	Spa
	Services []Service `json:"services"`
}

// Service is one bookable treatment offered by a spa.
type Service struct {
	ID                int64          `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Price             float64        `json:"price"`
	DurationInMinutes int            `json:"durationInMinutes"`
	ApprovalStatus    ApprovalStatus `json:"approvalStatus"`
	ServiceStatus     ServiceStatus  `json:"serviceStatus"`
	SpaID             int64          `json:"spaId"`
}

// Booking is a reserved service slot.
type Booking struct {
	ID            int64         `json:"id"`
	BookingTime   string        `json:"bookingTime"`
	Status        BookingStatus `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CustomerID    int64         `json:"customerId"`
	CustomerName  string        `json:"customerName"`
	SpaID         int64         `json:"spaId"`
	SpaName       string        `json:"spaName"`
	ServiceID     int64         `json:"serviceId"`
	ServiceName   string        `json:"serviceName"`
	OriginalPrice float64       `json:"originalPrice"`
	FinalPrice    float64       `json:"finalPrice"`
}

// Membership is a subscription plan.
type Membership struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	PricePerMonth      float64 `json:"pricePerMonth"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

// Availability lists free "HH:mm" slots for one day.
type Availability struct {
	AvailableSlots []string `json:"availableSlots"`
}

// LoginRequest carries credentials for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegistrationRequest creates a USER or CLIENT account.
type RegistrationRequest struct {
	Email     string        `json:"email"`
	Password  string        `json:"password"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Phone     string        `json:"phone"`
	Role      identity.Role `json:"role"`
}

// ProfileUpdateRequest edits the caller's own profile.
type ProfileUpdateRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// BookingRequest reserves a service at an ISO-8601 local time.
type BookingRequest struct {
	ServiceID   int64  `json:"serviceId"`
	BookingTime string `json:"bookingTime"`
}

// SpaCreateRequest registers a new spa for the calling client.
type SpaCreateRequest struct {
	Name        string `json:"name"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// ServiceCreateRequest adds a service to a spa.
type ServiceCreateRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	DurationInMinutes int     `json:"durationInMinutes"`
}

// MembershipCreateRequest defines a new membership plan.
type MembershipCreateRequest struct {
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	PricePerMonth      float64 `json:"pricePerMonth"`
	DiscountPercentage float64 `json:"discountPercentage"`
}

type statusRequest[T ~string] struct {
	Status T `json:"status"`
}

type availabilityRequest struct {
	Date string `json:"date"`
}

type subscribeRequest struct {
	MembershipID int64 `json:"membershipId"`
}
