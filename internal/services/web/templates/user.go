package templates

import (
	"github.com/a-h/templ"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
)

// ProfileView is the profile page for users and clients.
type ProfileView struct {
	Identity      identity.Identity
	Action        string
	Form          Form
	ShowCounts    bool
	BookingCount  int
	WishlistCount int
}

// Profile renders identity details and the edit form.
func Profile(view ProfileView, loc webi18n.Localizer) templ.Component {
	who := view.Identity
	return component(func(h *html) {
		h.tag("h1", "", loc.T("profile.heading"))
		h.raw(`<dl class="details" id="profile-details">`)
		h.tag("dt", "", loc.T("field.email"))
		h.tag("dd", "", who.Email)
		h.tag("dt", "", loc.T("field.role"))
		h.tag("dd", "", loc.T("role."+string(who.Role)))
		if who.MembershipName != nil && who.MembershipStatus != nil {
			h.tag("dt", "", loc.T("nav.membership"))
			h.tag("dd", "", *who.MembershipName+" · "+loc.T("membership.status."+string(*who.MembershipStatus)))
		}
		if view.ShowCounts {
			h.tag("dt", "", loc.T("nav.bookings"))
			h.tag("dd", "", id(int64(view.BookingCount)))
			h.tag("dt", "", loc.T("nav.wishlist"))
			h.tag("dd", "", id(int64(view.WishlistCount)))
		}
		h.raw("</dl>")

		first, last, phone := who.FirstName, who.LastName, who.Phone
		if view.Form.Values != nil {
			first, last, phone = view.Form.Value("first_name"), view.Form.Value("last_name"), view.Form.Value("phone")
		}
		h.tag("h2", "", loc.T("profile.edit"))
		h.formError(view.Form.Error)
		h.formOpen(view.Action, "post")
		h.field("text", "first_name", loc.T("field.first_name"), first, true)
		h.field("text", "last_name", loc.T("field.last_name"), last, true)
		h.field("tel", "phone", loc.T("field.phone"), phone, false)
		h.submit(loc.T("profile.save"), "")
		h.raw("</form>")
	})
}

// Bookings renders the user's bookings with cancel and pay actions.
func Bookings(bookings []backend.Booking, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("bookings.heading"))
		if len(bookings) == 0 {
			h.empty(loc.T("bookings.empty"))
			return
		}
		h.raw(`<table id="booking-list"><thead><tr>`)
		for _, key := range []string{"field.spa", "field.service", "field.time", "field.status", "field.payment", "field.price", "field.actions"} {
			h.tag("th", "", loc.T(key))
		}
		h.raw("</tr></thead><tbody>")
		for _, b := range bookings {
			h.raw("<tr>")
			h.tag("td", "", b.SpaName)
			h.tag("td", "", b.ServiceName)
			h.tag("td", "", b.BookingTime)
			h.tag("td", "status", loc.T("booking.status."+string(b.Status)))
			h.tag("td", "", loc.T("payment.status."+string(b.PaymentStatus)))
			h.tag("td", "", money(b.FinalPrice))
			h.raw("<td>")
			if Cancellable(b) {
				h.action(routepath.UserBookings, loc.T("bookings.cancel"), "link-button",
					"action", "cancel", "booking_id", id(b.ID))
			}
			if Payable(b) {
				h.link(routepath.UserBookingPayment(b.ID), loc.T("bookings.pay"), "button")
			}
			h.raw("</td></tr>")
		}
		h.raw("</tbody></table>")
	})
}

// Cancellable reports whether the user may still cancel b.
func Cancellable(b backend.Booking) bool {
	return b.Status == backend.BookingPending || b.Status == backend.BookingConfirmed
}

// Payable reports whether b is waiting for payment.
func Payable(b backend.Booking) bool {
	return Cancellable(b) && b.PaymentStatus != backend.PaymentCompleted
}

// Wishlist renders saved services.
func Wishlist(services []backend.Service, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("wishlist.heading"))
		if len(services) == 0 {
			h.empty(loc.T("wishlist.empty"))
			return
		}
		h.raw(`<ul class="cards" id="wishlist">`)
		for _, svc := range services {
			h.raw(`<li class="card">`)
			h.tag("h3", "", svc.Name)
			h.tag("p", "price", loc.T("spa.price_duration", money(svc.Price), svc.DurationInMinutes))
			h.link(routepath.UserBook(svc.ID), loc.T("spa.book"), "button")
			h.action(routepath.UserWishlist, loc.T("wishlist.remove"), "link-button",
				"action", "remove", "service_id", id(svc.ID), "return_to", routepath.UserWishlist)
			h.raw("</li>")
		}
		h.raw("</ul>")
	})
}

// MembershipView is the membership page: current plan and available plans.
type MembershipView struct {
	Identity identity.Identity
	Plans    []backend.Membership
	Error    string
}

// Membership renders plan selection and cancellation.
func Membership(view MembershipView, loc webi18n.Localizer) templ.Component {
	who := view.Identity
	return component(func(h *html) {
		h.tag("h1", "", loc.T("membership.heading"))
		h.formError(view.Error)
		h.raw(`<section id="current-membership">`)
		if who.MembershipName != nil && who.MembershipStatus != nil {
			h.tag("p", "", loc.T("membership.current", *who.MembershipName, loc.T("membership.status."+string(*who.MembershipStatus))))
			if who.HasActiveMembership() {
				h.action(routepath.UserMembership, loc.T("membership.cancel"), "link-button", "action", "cancel")
			}
		} else {
			h.tag("p", "", loc.T("membership.none"))
		}
		h.raw("</section>")

		if len(view.Plans) == 0 {
			h.empty(loc.T("membership.no_plans"))
			return
		}
		h.raw(`<ul class="cards" id="membership-plans">`)
		for _, plan := range view.Plans {
			h.raw(`<li class="card">`)
			h.tag("h3", "", plan.Name)
			h.tag("p", "", plan.Description)
			h.tag("p", "price", loc.T("membership.price", money(plan.PricePerMonth), money(plan.DiscountPercentage)))
			current := who.MembershipName != nil && *who.MembershipName == plan.Name && who.HasActiveMembership()
			if !current {
				h.action(routepath.UserMembership, loc.T("membership.subscribe"), "button",
					"action", "subscribe", "membership_id", id(plan.ID))
			}
			h.raw("</li>")
		}
		h.raw("</ul>")
	})
}

// BookView is the slot picker for one service.
type BookView struct {
	ServiceID int64
	Date      string
	Slots     []string
	Checked   bool
	Error     string
}

// Book renders the availability lookup and slot selection.
func Book(view BookView, loc webi18n.Localizer) templ.Component {
	path := routepath.UserBook(view.ServiceID)
	return component(func(h *html) {
		h.tag("h1", "", loc.T("book.heading"))
		h.formError(view.Error)
		h.formOpen(path, "get")
		h.field("date", "date", loc.T("field.date"), view.Date, true)
		h.submit(loc.T("book.check"), "")
		h.raw("</form>")

		if !view.Checked {
			return
		}
		if len(view.Slots) == 0 {
			h.empty(loc.T("book.no_slots"))
			return
		}
		h.raw(`<ul class="slots" id="slot-list">`)
		for _, slot := range view.Slots {
			h.raw("<li>")
			h.action(path, slot, "slot", "date", view.Date, "slot", slot)
			h.raw("</li>")
		}
		h.raw("</ul>")
	})
}

// Payment renders the confirmation step for a booking.
func Payment(booking backend.Booking, loc webi18n.Localizer) templ.Component {
	return component(func(h *html) {
		h.tag("h1", "", loc.T("payment.heading"))
		h.raw(`<dl class="details" id="payment-summary">`)
		h.tag("dt", "", loc.T("field.spa"))
		h.tag("dd", "", booking.SpaName)
		h.tag("dt", "", loc.T("field.service"))
		h.tag("dd", "", booking.ServiceName)
		h.tag("dt", "", loc.T("field.time"))
		h.tag("dd", "", booking.BookingTime)
		h.tag("dt", "", loc.T("field.price"))
		h.tag("dd", "", money(booking.FinalPrice))
		if booking.OriginalPrice > booking.FinalPrice {
			h.tag("dt", "", loc.T("payment.original_price"))
			h.tag("dd", "strike", money(booking.OriginalPrice))
		}
		h.raw("</dl>")
		if Payable(booking) {
			h.action(routepath.UserBookingPayment(booking.ID), loc.T("payment.confirm"), "button")
		} else {
			h.tag("p", "", loc.T("payment.status."+string(booking.PaymentStatus)))
		}
	})
}
