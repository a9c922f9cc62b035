package templates

import (
	"net/http"

	"github.com/a-h/templ"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
)

// NormalizeErrorStatus folds every status into the three error pages.
func NormalizeErrorStatus(statusCode int) int {
	switch statusCode {
	case http.StatusNotFound, http.StatusForbidden:
		return statusCode
	default:
		return http.StatusInternalServerError
	}
}

// ErrorPageTitle returns the browser page title for an error page.
func ErrorPageTitle(statusCode int, loc webi18n.Localizer) string {
	return loc.T(errorKey(statusCode, "title"))
}

// ErrorState renders the body of an error page.
func ErrorState(statusCode int, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.raw(`<section id="app-error-state" class="error-state">`)
		h.tag("h1", "", loc.T(errorKey(statusCode, "heading")))
		h.tag("p", "", loc.T(errorKey(statusCode, "message")))
		h.link(routepath.Root, loc.T("error.action_home"), "button")
		h.raw("</section>")
	})
}

func errorKey(statusCode int, part string) string {
	switch NormalizeErrorStatus(statusCode) {
	case http.StatusNotFound:
		return "error.not_found." + part
	case http.StatusForbidden:
		return "error.forbidden." + part
	default:
		return "error.server." + part
	}
}
