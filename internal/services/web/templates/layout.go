package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
)

// Viewer is the signed-in person as the page chrome shows them.
type Viewer struct {
	Authenticated    bool
	Name             string
	Role             identity.Role
	MembershipName   string
	MembershipStatus identity.MembershipStatus
}

// ViewerFor builds the chrome view of who. A nil identity is anonymous.
func ViewerFor(who *identity.Identity) Viewer {
	if who == nil {
		return Viewer{}
	}
	v := Viewer{Authenticated: true, Name: who.DisplayName(), Role: who.Role}
	if who.MembershipName != nil {
		v.MembershipName = *who.MembershipName
	}
	if who.MembershipStatus != nil {
		v.MembershipStatus = *who.MembershipStatus
	}
	return v
}

// Notice is a one-shot message rendered above the page body.
type Notice struct {
	Kind    string
	Message string
}

// LayoutOptions describes the shell around a page body.
type LayoutOptions struct {
	Title       string
	CurrentPath string
	Viewer      Viewer
	Notice      *Notice
	Loc         webi18n.Localizer
}

type navItem struct {
	path string
	key  string
}

var roleNav = map[identity.Role][]navItem{
	identity.RoleUser: {
		{routepath.UserProfile, "nav.profile"},
		{routepath.UserBookings, "nav.bookings"},
		{routepath.UserWishlist, "nav.wishlist"},
		{routepath.UserMembership, "nav.membership"},
	},
	identity.RoleClient: {
		{routepath.ClientDashboard, "nav.dashboard"},
		{routepath.ClientProfile, "nav.profile"},
	},
	identity.RoleAdmin: {
		{routepath.AdminDashboard, "nav.dashboard"},
		{routepath.AdminSpaApprovals, "nav.spa_approvals"},
		{routepath.AdminServiceApprovals, "nav.service_approvals"},
		{routepath.AdminClients, "nav.clients"},
		{routepath.AdminMemberships, "nav.memberships"},
		{routepath.AdminUsers, "nav.users"},
	},
}

// Layout wraps the children of ctx in the application shell.
func Layout(opts LayoutOptions) templ.Component {
	loc := opts.Loc
	return component(func(h *html) {
		h.raw("<!doctype html>")
		h.open("html", kv("lang", loc.Tag().String()))
		h.raw(`<head><meta charset="utf-8">`)
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(opts.Title + " | " + loc.T("app.name"))
		h.raw("</title>")
		h.open("link", kv("rel", "stylesheet"), kv("href", templ.URL(routepath.StaticPrefix+"app.css")))
		h.open("script", kv("src", templ.URL(routepath.StaticPrefix+"live.js")), kv("defer", true))
		h.raw("</script></head>")
		h.open("body", kv("data-live", templ.URL(routepath.LiveSessionFor(opts.CurrentPath))))
		h.render(header(opts))
		h.raw(`<main id="main">`)
		if opts.Notice != nil && opts.Notice.Message != "" {
			h.open("div", class("notice notice-"+opts.Notice.Kind), kv("role", "status"))
			h.text(opts.Notice.Message)
			h.raw("</div>")
		}
		h.render(templ.GetChildren(h.ctx))
		h.raw("</main></body></html>")
	})
}

func header(opts LayoutOptions) templ.Component {
	loc, viewer := opts.Loc, opts.Viewer
	return component(func(h *html) {
		h.raw(`<header class="site-header">`)
		h.open("nav", kv("id", "site-nav"), kv("data-role", string(viewer.Role)))
		h.link(routepath.Root, loc.T("app.name"), "brand")
		for _, item := range roleNav[viewer.Role] {
			cls := ""
			if item.path == opts.CurrentPath {
				cls = "active"
			}
			h.link(item.path, loc.T(item.key), cls)
		}
		if viewer.Authenticated {
			h.raw(`<span class="viewer" id="viewer-name">`)
			h.text(viewer.Name)
			h.raw("</span>")
			if viewer.MembershipName != "" {
				h.raw(`<span class="badge" id="viewer-membership">`)
				h.text(viewer.MembershipName + " · " + loc.T("membership.status."+string(viewer.MembershipStatus)))
				h.raw("</span>")
			}
			h.action(routepath.Logout, loc.T("nav.logout"), "link-button")
		} else {
			h.link(routepath.Login, loc.T("nav.login"), "")
			h.link(routepath.Register, loc.T("nav.register"), "")
		}
		h.raw("</nav></header>")
	})
}
