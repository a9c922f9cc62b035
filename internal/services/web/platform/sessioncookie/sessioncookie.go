// Package sessioncookie centralizes the cookies that bind a browser to its
// server-side session.
package sessioncookie

import (
	"net/http"
	"strings"

	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
)

// Name is the web session cookie. It keys the in-memory session registry.
const Name = "spabooking_session"

// Read returns the trimmed value of cookie name when present.
func Read(r *http.Request, name string) (string, bool) {
	if r == nil {
		return "", false
	}
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(cookie.Value)
	if value == "" {
		return "", false
	}
	return value, true
}

// Write sets an HTTP-only, lax cookie scoped to the whole site.
func Write(w http.ResponseWriter, r *http.Request, name, value string, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    strings.TrimSpace(value),
		Path:     "/",
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPS(r, policy),
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear expires cookie name.
func Clear(w http.ResponseWriter, r *http.Request, name string, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   requestmeta.IsHTTPS(r, policy),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
