package identity

import "github.com/louisbranch/spabooking/internal/services/web/routepath"

// HomePath returns the landing route for role. Unknown roles land on login.
func HomePath(role Role) string {
	switch role {
	case RoleUser:
		return routepath.UserProfile
	case RoleClient:
		return routepath.ClientDashboard
	case RoleAdmin:
		return routepath.AdminDashboard
	default:
		return routepath.Login
	}
}

// LandingPath returns where a completed sign-in goes. Unknown roles land on
// the public home page, since HomePath would send them back to login.
func LandingPath(role Role) string {
	if !role.Valid() {
		return routepath.Root
	}
	return HomePath(role)
}
