package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
)

// AdminDashboardView summarizes pending work.
type AdminDashboardView struct {
	Clients         int
	PendingSpas     int
	PendingServices int
	Plans           int
}

// AdminDashboard renders the admin overview.
func AdminDashboard(view AdminDashboardView, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("admin.dashboard.heading"))
		h.raw(`<ul class="stats" id="admin-stats">`)
		stat := func(key string, count int, path string) {
			h.raw("<li>")
			h.tag("strong", "", id(int64(count)))
			h.link(path, loc.T(key), "")
			h.raw("</li>")
		}
		stat("nav.clients", view.Clients, routepath.AdminClients)
		stat("admin.pending_spas", view.PendingSpas, routepath.AdminSpaApprovals)
		stat("admin.pending_services", view.PendingServices, routepath.AdminServiceApprovals)
		stat("nav.memberships", view.Plans, routepath.AdminMemberships)
		h.raw("</ul>")
	})
}

// SpaApprovals renders pending spas with approve and reject actions.
func SpaApprovals(spas []backend.Spa, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("nav.spa_approvals"))
		if len(spas) == 0 {
			h.empty(loc.T("admin.nothing_pending"))
			return
		}
		h.raw(`<ul class="cards" id="pending-spas">`)
		for _, spa := range spas {
			h.raw(`<li class="card">`)
			h.tag("h3", "", spa.Name)
			h.tag("p", "muted", spa.Address)
			h.tag("p", "", spa.Description)
			approvalActions(h, loc, routepath.AdminSpaApprovals, "spa_id", spa.ID)
			h.raw("</li>")
		}
		h.raw("</ul>")
	})
}

// ServiceApprovals renders pending services with approve and reject actions.
func ServiceApprovals(services []backend.Service, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("nav.service_approvals"))
		if len(services) == 0 {
			h.empty(loc.T("admin.nothing_pending"))
			return
		}
		h.raw(`<ul class="cards" id="pending-services">`)
		for _, svc := range services {
			h.raw(`<li class="card">`)
			h.tag("h3", "", svc.Name)
			h.tag("p", "", svc.Description)
			h.tag("p", "price", loc.T("spa.price_duration", money(svc.Price), svc.DurationInMinutes))
			approvalActions(h, loc, routepath.AdminServiceApprovals, "service_id", svc.ID)
			h.raw("</li>")
		}
		h.raw("</ul>")
	})
}

func approvalActions(h *html, loc webi18n.Localizer, path, field string, target int64) {
	h.action(path, loc.T("admin.approve"), "button",
		field, id(target), "status", string(backend.ApprovalApproved))
	h.action(path, loc.T("admin.reject"), "link-button",
		field, id(target), "status", string(backend.ApprovalRejected))
}

// Clients renders registered spa owners.
func Clients(clients []identity.Identity, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("nav.clients"))
		peopleTable(h, loc, "client-list", clients)
	})
}

func peopleTable(h *html, loc webi18n.Localizer, tableID string, people []identity.Identity) {
	if len(people) == 0 {
		h.empty(loc.T("admin.no_people"))
		return
	}
	h.open("table", kv("id", tableID))
	h.raw("<thead><tr>")
	for _, key := range []string{"field.name", "field.email", "field.phone", "nav.membership"} {
		h.tag("th", "", loc.T(key))
	}
	h.raw("</tr></thead><tbody>")
	for _, p := range people {
		h.raw("<tr>")
		h.tag("td", "", p.DisplayName())
		h.tag("td", "", p.Email)
		h.tag("td", "", p.Phone)
		membership := ""
		if p.MembershipName != nil && p.MembershipStatus != nil {
			membership = *p.MembershipName + " · " + loc.T("membership.status."+string(*p.MembershipStatus))
		}
		h.tag("td", "", membership)
		h.raw("</tr>")
	}
	h.raw("</tbody></table>")
}

// AdminMembershipsView lists plans and the new plan form.
type AdminMembershipsView struct {
	Plans []backend.Membership
	Form  Form
}

// AdminMemberships renders plan management.
func AdminMemberships(view AdminMembershipsView, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("nav.memberships"))
		if len(view.Plans) == 0 {
			h.empty(loc.T("membership.no_plans"))
		} else {
			h.raw(`<ul class="cards" id="admin-plans">`)
			for _, plan := range view.Plans {
				h.raw(`<li class="card">`)
				h.tag("h3", "", plan.Name)
				h.tag("p", "", plan.Description)
				h.tag("p", "price", loc.T("membership.price", money(plan.PricePerMonth), money(plan.DiscountPercentage)))
				h.link(routepath.WithQuery(routepath.AdminUsers, "membership_id", id(plan.ID)), loc.T("admin.plan_members"), "")
				h.action(routepath.AdminMemberships, loc.T("admin.delete"), "link-button",
					"action", "delete", "membership_id", id(plan.ID))
				h.raw("</li>")
			}
			h.raw("</ul>")
		}

		h.tag("h2", "", loc.T("admin.plan.new"))
		h.formError(view.Form.Error)
		h.formOpen(routepath.AdminMemberships, "post")
		h.hidden("action", "create")
		h.field("text", "name", loc.T("field.name"), view.Form.Value("name"), true)
		h.textarea("description", loc.T("field.description"), view.Form.Value("description"))
		h.field("number", "price", loc.T("field.price_per_month"), view.Form.Value("price"), true)
		h.field("number", "discount", loc.T("field.discount"), view.Form.Value("discount"), true)
		h.submit(loc.T("admin.plan.create"), "")
		h.raw("</form>")
	})
}

// AdminUsersView is the user filter page.
type AdminUsersView struct {
	Status       identity.MembershipStatus
	MembershipID int64
	Plans        []backend.Membership
	Users        []identity.Identity
	Filtered     bool
}

var membershipStatuses = []identity.MembershipStatus{
	identity.MembershipActive,
	identity.MembershipPending,
	identity.MembershipRejected,
	identity.MembershipInactive,
}

// AdminUsers renders user filters by membership status or plan.
func AdminUsers(view AdminUsersView, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("nav.users"))

		statuses := []option{{Value: "", Label: loc.T("filter.choose")}}
		for _, status := range membershipStatuses {
			statuses = append(statuses, option{Value: string(status), Label: loc.T("membership.status." + string(status))})
		}
		h.formOpen(routepath.AdminUsers, "get")
		h.selectField("status", loc.T("admin.filter_status"), string(view.Status), statuses)
		h.submit(loc.T("filter.apply"), "")
		h.raw("</form>")

		plans := []option{{Value: "", Label: loc.T("filter.choose")}}
		for _, plan := range view.Plans {
			plans = append(plans, option{Value: id(plan.ID), Label: plan.Name})
		}
		selected := ""
		if view.MembershipID > 0 {
			selected = id(view.MembershipID)
		}
		h.formOpen(routepath.AdminUsers, "get")
		h.selectField("membership_id", loc.T("admin.filter_membership"), selected, plans)
		h.submit(loc.T("filter.apply"), "")
		h.raw("</form>")

		if view.Filtered {
			peopleTable(h, loc, "user-list", view.Users)
		}
	})
}
