// Package identity defines the authenticated-principal snapshot shared by the
// session store, the navigation guard, and the backend client.
package identity

import (
	"fmt"
	"strings"
)

// Role is the access class that decides which routes a principal may reach.
type Role string

const (
	RoleUser   Role = "USER"
	RoleClient Role = "CLIENT"
	RoleAdmin  Role = "ADMIN"
)

// ParseRole parses a role name case-insensitively.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleClient, RoleAdmin:
		return true
	default:
		return false
	}
}

// MembershipStatus is the lifecycle state of a user's membership.
type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "ACTIVE"
	MembershipPending  MembershipStatus = "PENDING"
	MembershipRejected MembershipStatus = "REJECTED"
	MembershipInactive MembershipStatus = "INACTIVE"
)

// Identity is the authenticated user's profile, role and membership.
//
// MembershipName and MembershipStatus are nil together or set together; use
// Normalize before publishing a value.
type Identity struct {
	ID               int64             `json:"id"`
	Email            string            `json:"email"`
	FirstName        string            `json:"firstName"`
	LastName         string            `json:"lastName"`
	Phone            string            `json:"phone"`
	Role             Role              `json:"role"`
	MembershipName   *string           `json:"membershipName"`
	MembershipStatus *MembershipStatus `json:"membershipStatus"`
}

// DisplayName joins first and last name, falling back to the email.
func (i Identity) DisplayName() string {
	name := strings.TrimSpace(i.FirstName + " " + i.LastName)
	if name == "" {
		return i.Email
	}
	return name
}

// HasActiveMembership reports whether the identity holds an ACTIVE membership.
func (i Identity) HasActiveMembership() bool {
	return i.MembershipName != nil && i.MembershipStatus != nil && *i.MembershipStatus == MembershipActive
}

// Clone returns a deep copy so the result shares no pointers with i.
func (i Identity) Clone() Identity {
	out := i
	if i.MembershipName != nil {
		name := *i.MembershipName
		out.MembershipName = &name
	}
	if i.MembershipStatus != nil {
		status := *i.MembershipStatus
		out.MembershipStatus = &status
	}
	return out
}

// Normalize returns a copy that satisfies the membership pairing invariant.
//
// A blank or missing name clears the status; a name without a status is
// INACTIVE.
func (i Identity) Normalize() Identity {
	out := i.Clone()
	if out.MembershipName != nil && strings.TrimSpace(*out.MembershipName) == "" {
		out.MembershipName = nil
	}
	switch {
	case out.MembershipName == nil:
		out.MembershipStatus = nil
	case out.MembershipStatus == nil:
		out.MembershipStatus = StatusPtr(MembershipInactive)
	}
	return out
}

// WithMembershipStatus returns a normalized copy whose status is forced to
// status. A missing name is taken from fallbackName when provided.
func (i Identity) WithMembershipStatus(status MembershipStatus, fallbackName *string) Identity {
	out := i.Clone()
	if out.MembershipName == nil && fallbackName != nil {
		name := *fallbackName
		out.MembershipName = &name
	}
	if out.MembershipName != nil {
		out.MembershipStatus = StatusPtr(status)
	}
	return out.Normalize()
}

// PairingHolds reports whether name and status are both set or both nil.
func (i Identity) PairingHolds() bool {
	return (i.MembershipName == nil) == (i.MembershipStatus == nil)
}

// StatusPtr returns a pointer to status.
func StatusPtr(status MembershipStatus) *MembershipStatus {
	return &status
}

// StringPtr returns a pointer to value.
func StringPtr(value string) *string {
	return &value
}
