package templates

import (
	"github.com/a-h/templ"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
)

// HomeView is the landing page: spa search and listing.
type HomeView struct {
	Query string
	Spas  []backend.Spa
	Error string
}

// Home renders the public spa listing.
func Home(view HomeView, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="hero">`)
		h.tag("h1", "", loc.T("home.heading"))
		h.tag("p", "", loc.T("home.tagline"))
		h.formOpen(routepath.Root, "get")
		h.field("search", "q", loc.T("home.search_label"), view.Query, false)
		h.submit(loc.T("home.search"), "")
		h.raw("</form></section>")

		h.formError(view.Error)
		if len(view.Spas) == 0 && view.Error == "" {
			h.empty(loc.T("home.empty"))
			return
		}
		h.raw(`<ul class="cards" id="spa-list">`)
		for _, spa := range view.Spas {
			h.raw(`<li class="card">`)
			h.tag("h2", "", spa.Name)
			h.tag("p", "muted", spa.Address)
			h.tag("p", "", spa.Description)
			h.link(routepath.Spa(spa.ID), loc.T("home.view_spa"), "button")
			h.raw("</li>")
		}
		h.raw("</ul>")
	})
}

// SpaDetailView is one spa with its bookable services.
type SpaDetailView struct {
	Spa      backend.SpaDetail
	Viewer   Viewer
	Wishlist map[int64]bool
	ReturnTo string
}

// SpaDetail renders a spa and its services.
func SpaDetail(view SpaDetailView, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		spa := view.Spa
		h.tag("h1", "", spa.Name)
		h.tag("p", "muted", spa.Address)
		h.tag("p", "", spa.Description)
		h.tag("h2", "", loc.T("spa.services"))

		if len(spa.Services) == 0 {
			h.empty(loc.T("spa.no_services"))
			return
		}
		h.raw(`<ul class="cards" id="service-list">`)
		for _, svc := range spa.Services {
			h.raw(`<li class="card">`)
			h.tag("h3", "", svc.Name)
			h.tag("p", "", svc.Description)
			h.tag("p", "price", loc.T("spa.price_duration", money(svc.Price), svc.DurationInMinutes))
			if view.Viewer.Role == identity.RoleUser {
				if svc.ServiceStatus == backend.ServiceAvailable {
					h.link(routepath.UserBook(svc.ID), loc.T("spa.book"), "button")
				}
				if view.Wishlist[svc.ID] {
					h.action(routepath.UserWishlist, loc.T("wishlist.remove"), "link-button",
						"action", "remove", "service_id", id(svc.ID), "return_to", view.ReturnTo)
				} else {
					h.action(routepath.UserWishlist, loc.T("wishlist.add"), "link-button",
						"action", "add", "service_id", id(svc.ID), "return_to", view.ReturnTo)
				}
			} else if !view.Viewer.Authenticated {
				h.link(routepath.Login, loc.T("spa.login_to_book"), "")
			}
			h.raw("</li>")
		}
		h.raw("</ul>")
	})
}

// Login renders the sign-in form.
func Login(form Form, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="auth-card">`)
		h.tag("h1", "", loc.T("login.heading"))
		h.formError(form.Error)
		h.formOpen(routepath.Login, "post")
		h.field("email", "email", loc.T("field.email"), form.Value("email"), true)
		h.field("password", "password", loc.T("field.password"), "", true)
		h.submit(loc.T("login.submit"), "")
		h.raw("</form><p>")
		h.text(loc.T("login.no_account") + " ")
		h.link(routepath.Register, loc.T("nav.register"), "")
		h.raw("</p></section>")
	})
}

// Register renders the sign-up form.
func Register(form Form, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.raw(`<section class="auth-card">`)
		h.tag("h1", "", loc.T("register.heading"))
		h.formError(form.Error)
		h.formOpen(routepath.Register, "post")
		h.field("text", "first_name", loc.T("field.first_name"), form.Value("first_name"), true)
		h.field("text", "last_name", loc.T("field.last_name"), form.Value("last_name"), true)
		h.field("email", "email", loc.T("field.email"), form.Value("email"), true)
		h.field("tel", "phone", loc.T("field.phone"), form.Value("phone"), false)
		h.field("password", "password", loc.T("field.password"), "", true)
		role := form.Value("role")
		if role == "" {
			role = string(identity.RoleUser)
		}
		h.selectField("role", loc.T("register.role"), role, []option{
			{Value: string(identity.RoleUser), Label: loc.T("role.USER")},
			{Value: string(identity.RoleClient), Label: loc.T("role.CLIENT")},
		})
		h.submit(loc.T("register.submit"), "")
		h.raw("</form><p>")
		h.text(loc.T("register.have_account") + " ")
		h.link(routepath.Login, loc.T("nav.login"), "")
		h.raw("</p></section>")
	})
}
