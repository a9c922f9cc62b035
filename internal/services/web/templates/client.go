package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
)

// ClientDashboardView lists a client's spas.
type ClientDashboardView struct {
	Spas []backend.Spa
	Form Form
}

// ClientDashboard renders owned spas and the new spa form.
func ClientDashboard(view ClientDashboardView, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("client.dashboard.heading"))
		if len(view.Spas) == 0 {
			h.empty(loc.T("client.dashboard.empty"))
		} else {
			h.raw(`<table id="client-spas"><thead><tr>`)
			for _, key := range []string{"field.name", "field.address", "field.approval", "field.actions"} {
				h.tag("th", "", loc.T(key))
			}
			h.raw("</tr></thead><tbody>")
			for _, spa := range view.Spas {
				h.raw("<tr>")
				h.tag("td", "", spa.Name)
				h.tag("td", "", spa.Address)
				h.tag("td", "status", loc.T("approval.status."+string(spa.ApprovalStatus)))
				h.raw("<td>")
				h.link(routepath.ClientSpaManage(spa.ID), loc.T("client.manage"), "")
				h.raw(" ")
				h.link(routepath.ClientSpaBookings(spa.ID), loc.T("client.bookings"), "")
				h.raw("</td></tr>")
			}
			h.raw("</tbody></table>")
		}

		h.tag("h2", "", loc.T("client.spa.new"))
		h.formError(view.Form.Error)
		h.formOpen(routepath.ClientDashboard, "post")
		h.field("text", "name", loc.T("field.name"), view.Form.Value("name"), true)
		h.field("text", "address", loc.T("field.address"), view.Form.Value("address"), true)
		h.textarea("description", loc.T("field.description"), view.Form.Value("description"))
		h.submit(loc.T("client.spa.create"), "")
		h.raw("</form>")
	})
}

// SpaManageView is one owned spa with its services.
type SpaManageView struct {
	Spa      backend.Spa
	Services []backend.Service
	Form     Form
}

// SpaManage renders service management for one spa.
func SpaManage(view SpaManageView, loc webi18n.Localizer) templ.Component {
	path := routepath.ClientSpaManage(view.Spa.ID)
	return component(func(h *html) {
		h.tag("h1", "", view.Spa.Name)
		h.tag("p", "muted", loc.T("approval.status."+string(view.Spa.ApprovalStatus)))
		h.tag("h2", "", loc.T("spa.services"))
		if len(view.Services) == 0 {
			h.empty(loc.T("spa.no_services"))
		} else {
			h.raw(`<table id="spa-services"><thead><tr>`)
			for _, key := range []string{"field.name", "field.price", "field.duration", "field.approval", "field.status", "field.actions"} {
				h.tag("th", "", loc.T(key))
			}
			h.raw("</tr></thead><tbody>")
			for _, svc := range view.Services {
				h.raw("<tr>")
				h.tag("td", "", svc.Name)
				h.tag("td", "", money(svc.Price))
				h.tag("td", "", id(int64(svc.DurationInMinutes)))
				h.tag("td", "", loc.T("approval.status."+string(svc.ApprovalStatus)))
				h.tag("td", "status", loc.T("service.status."+string(svc.ServiceStatus)))
				h.raw("<td>")
				next := backend.ServiceUnavailable
				if svc.ServiceStatus == backend.ServiceUnavailable {
					next = backend.ServiceAvailable
				}
				h.action(path, loc.T("service.set."+string(next)), "link-button",
					"action", "status", "service_id", id(svc.ID), "status", string(next))
				h.raw("</td></tr>")
			}
			h.raw("</tbody></table>")
		}

		h.tag("h2", "", loc.T("client.service.new"))
		h.formError(view.Form.Error)
		h.formOpen(path, "post")
		h.hidden("action", "create")
		h.field("text", "name", loc.T("field.name"), view.Form.Value("name"), true)
		h.textarea("description", loc.T("field.description"), view.Form.Value("description"))
		h.field("number", "price", loc.T("field.price"), view.Form.Value("price"), true)
		h.field("number", "duration", loc.T("field.duration"), view.Form.Value("duration"), true)
		h.submit(loc.T("client.service.create"), "")
		h.raw("</form>")
	})
}

// SpaBookingsView is the booking list of one owned spa.
type SpaBookingsView struct {
	SpaID    int64
	Status   backend.BookingStatus
	Bookings []backend.Booking
}

var bookingStatuses = []backend.BookingStatus{
	backend.BookingPending,
	backend.BookingConfirmed,
	backend.BookingCancelledByUser,
	backend.BookingDeclinedByClient,
}

// SpaBookings renders a spa's bookings with status filter and decisions.
func SpaBookings(view SpaBookingsView, loc webi18n.Localizer) templ.Component {
	path := routepath.ClientSpaBookings(view.SpaID)
	return component(func(h *html) {
		h.tag("h1", "", loc.T("client.bookings.heading"))
		options := []option{{Value: "", Label: loc.T("filter.all")}}
		for _, status := range bookingStatuses {
			options = append(options, option{Value: string(status), Label: loc.T("booking.status." + string(status))})
		}
		h.formOpen(path, "get")
		h.selectField("status", loc.T("field.status"), string(view.Status), options)
		h.submit(loc.T("filter.apply"), "")
		h.raw("</form>")

		if len(view.Bookings) == 0 {
			h.empty(loc.T("bookings.empty"))
			return
		}
		h.raw(`<table id="spa-bookings"><thead><tr>`)
		for _, key := range []string{"field.customer", "field.service", "field.time", "field.status", "field.payment", "field.actions"} {
			h.tag("th", "", loc.T(key))
		}
		h.raw("</tr></thead><tbody>")
		for _, b := range view.Bookings {
			h.raw("<tr>")
			h.tag("td", "", b.CustomerName)
			h.tag("td", "", b.ServiceName)
			h.tag("td", "", b.BookingTime)
			h.tag("td", "status", loc.T("booking.status."+string(b.Status)))
			h.tag("td", "", loc.T("payment.status."+string(b.PaymentStatus)))
			h.raw("<td>")
			if b.Status == backend.BookingPending {
				h.action(path, loc.T("client.bookings.confirm"), "button",
					"action", "status", "booking_id", id(b.ID), "status", string(backend.BookingConfirmed), "filter", string(view.Status))
				h.action(path, loc.T("client.bookings.decline"), "link-button",
					"action", "status", "booking_id", id(b.ID), "status", string(backend.BookingDeclinedByClient), "filter", string(view.Status))
			}
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
	})
}
