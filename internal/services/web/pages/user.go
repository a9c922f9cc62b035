package pages

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/weberror"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/sessions"
	"github.com/louisbranch/spabooking/internal/services/web/templates"
)

const dateLayout = "2006-01-02"

func (h *Handler) profilePage(w http.ResponseWriter, r *http.Request) {
	app, who, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	view := templates.ProfileView{Identity: who, Action: r.URL.Path}
	if who.Role == identity.RoleUser {
		ctx := r.Context()
		bookings, bookingsErr := app.Backend.MyBookings(ctx)
		saved, wishlistErr := app.Backend.Wishlist(ctx)
		if bookingsErr == nil && wishlistErr == nil {
			view.ShowCounts = true
			view.BookingCount = len(bookings)
			view.WishlistCount = len(saved)
		} else {
			h.logger.Debug("profile counts unavailable", zap.NamedError("bookings", bookingsErr), zap.NamedError("wishlist", wishlistErr))
		}
	}
	h.renderProfile(w, r, http.StatusOK, view)
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, status int, view templates.ProfileView) {
	loc := webi18n.FromContext(r.Context())
	h.render(w, r, status, loc.T("profile.heading"), templates.Profile(view, loc))
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, who, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	values, err := parseForm(r)
	if err == nil {
		err = required(values, "first_name", "last_name")
	}
	if err == nil {
		_, err = app.Sync.UpdateProfile(ctx, backend.ProfileUpdateRequest{
			FirstName: strings.TrimSpace(values.Get("first_name")),
			LastName:  strings.TrimSpace(values.Get("last_name")),
			Phone:     strings.TrimSpace(values.Get("phone")),
		})
	}
	if err != nil {
		if !formFailed(err) {
			h.errors.Write(w, r, err)
			return
		}
		loc := webi18n.FromContext(ctx)
		h.renderProfile(w, r, formStatus(err), templates.ProfileView{
			Identity: who,
			Action:   r.URL.Path,
			Form:     templates.Form{Values: values, Error: weberror.FormMessage(loc, err)},
		})
		return
	}
	h.done(w, r, "flash.profile_saved", r.URL.Path)
}

func (h *Handler) bookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	bookings, err := app.Backend.MyBookings(ctx)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	h.render(w, r, http.StatusOK, loc.T("bookings.heading"), templates.Bookings(bookings, loc))
}

func (h *Handler) bookingAction(w http.ResponseWriter, r *http.Request) {
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	values, err := parseForm(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	if values.Get("action") != "cancel" {
		h.errors.Write(w, r, apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "unknown booking action"))
		return
	}
	bookingID, err := formID(values, "booking_id")
	if err == nil {
		_, err = app.Backend.CancelBooking(r.Context(), bookingID)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	h.done(w, r, "flash.booking_cancelled", routepath.UserBookings)
}

func (h *Handler) wishlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	saved, err := app.Backend.Wishlist(ctx)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	h.render(w, r, http.StatusOK, loc.T("wishlist.heading"), templates.Wishlist(saved, loc))
}

func (h *Handler) wishlistAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	values, err := parseForm(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	serviceID, err := formID(values, "service_id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var key string
	switch values.Get("action") {
	case "add":
		key = "flash.wishlist_added"
		err = app.Backend.AddToWishlist(ctx, serviceID)
	case "remove":
		key = "flash.wishlist_removed"
		err = app.Backend.RemoveFromWishlist(ctx, serviceID)
	default:
		err = apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "unknown wishlist action")
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	h.done(w, r, key, localPath(values.Get("return_to"), routepath.UserWishlist))
}

// membershipPage reloads the identity first: an administrator may have
// decided a pending request since the session last looked.
func (h *Handler) membershipPage(w http.ResponseWriter, r *http.Request) {
	if app, ok := sessions.FromContext(r.Context()); ok {
		if _, err := app.Sync.Refresh(r.Context()); err != nil {
			h.logger.Debug("refresh identity", zap.Error(err))
		}
	}
	h.renderMembership(w, r, http.StatusOK, "")
}

func (h *Handler) renderMembership(w http.ResponseWriter, r *http.Request, status int, message string) {
	ctx := r.Context()
	app, who, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	plans, err := app.Backend.Memberships(ctx)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	view := templates.MembershipView{Identity: who, Plans: plans, Error: message}
	h.render(w, r, status, loc.T("membership.heading"), templates.Membership(view, loc))
}

// membershipAction subscribes or cancels through the synchronizer so the
// header badge changes before the backend answers.
func (h *Handler) membershipAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	values, err := parseForm(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	var key string
	switch values.Get("action") {
	case "subscribe":
		var membershipID int64
		membershipID, err = formID(values, "membership_id")
		if err == nil {
			_, err = app.Sync.SubscribeMembership(ctx, membershipID)
		}
		key = "flash.membership_requested"
	case "cancel":
		_, err = app.Sync.CancelMembership(ctx)
		key = "flash.membership_cancelled"
	default:
		err = apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "unknown membership action")
	}
	if err != nil {
		if formFailed(err) {
			h.renderMembership(w, r, formStatus(err), weberror.FormMessage(webi18n.FromContext(ctx), err))
			return
		}
		h.errors.Write(w, r, err)
		return
	}
	h.done(w, r, key, routepath.UserMembership)
}

func (h *Handler) bookPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	serviceID, err := pathID(r, "serviceId")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	view := templates.BookView{ServiceID: serviceID, Date: strings.TrimSpace(r.URL.Query().Get("date"))}
	status := http.StatusOK
	if view.Date != "" {
		var availability backend.Availability
		err := validDate(view.Date)
		if err == nil {
			availability, err = app.Backend.Availability(ctx, serviceID, view.Date)
		}
		switch {
		case err == nil:
			view.Checked = true
			view.Slots = availability.AvailableSlots
		case formFailed(err):
			status = formStatus(err)
			view.Error = weberror.FormMessage(webi18n.FromContext(ctx), err)
		default:
			h.errors.Write(w, r, err)
			return
		}
	}
	h.renderBook(w, r, status, view)
}

func (h *Handler) renderBook(w http.ResponseWriter, r *http.Request, status int, view templates.BookView) {
	loc := webi18n.FromContext(r.Context())
	h.render(w, r, status, loc.T("book.heading"), templates.Book(view, loc))
}

func (h *Handler) book(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	serviceID, err := pathID(r, "serviceId")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	values, err := parseForm(r)
	var bookingTime string
	if err == nil {
		bookingTime, err = slotTime(values.Get("date"), values.Get("slot"))
	}
	if err == nil {
		_, err = app.Backend.CreateBooking(ctx, backend.BookingRequest{ServiceID: serviceID, BookingTime: bookingTime})
	}
	if err != nil {
		if !formFailed(err) {
			h.errors.Write(w, r, err)
			return
		}
		h.renderBook(w, r, formStatus(err), templates.BookView{
			ServiceID: serviceID,
			Date:      values.Get("date"),
			Error:     weberror.FormMessage(webi18n.FromContext(ctx), err),
		})
		return
	}
	h.done(w, r, "flash.booking_created", routepath.UserBookings)
}

func validDate(raw string) error {
	if _, err := time.Parse(dateLayout, strings.TrimSpace(raw)); err != nil {
		return apperrors.EK(apperrors.KindInvalidInput, "form.invalid_date", "date must be YYYY-MM-DD")
	}
	return nil
}

// slotTime joins a date and an "HH:mm" or "HH:mm:ss" slot into the local
// ISO-8601 time the backend books.
func slotTime(date, slot string) (string, error) {
	date, slot = strings.TrimSpace(date), strings.TrimSpace(slot)
	if err := validDate(date); err != nil {
		return "", err
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, slot); err == nil {
			return date + "T" + t.Format("15:04:05"), nil
		}
	}
	return "", apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "slot must be HH:mm")
}

// findBooking looks a booking up in the caller's own list, so other users'
// bookings read as not found.
func findBooking(bookings []backend.Booking, bookingID int64) (backend.Booking, error) {
	for _, b := range bookings {
		if b.ID == bookingID {
			return b, nil
		}
	}
	return backend.Booking{}, apperrors.E(apperrors.KindNotFound, "booking not found")
}

func (h *Handler) paymentPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	bookingID, err := pathID(r, "bookingId")
	var booking backend.Booking
	if err == nil {
		var bookings []backend.Booking
		bookings, err = app.Backend.MyBookings(ctx)
		if err == nil {
			booking, err = findBooking(bookings, bookingID)
		}
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	h.render(w, r, http.StatusOK, loc.T("payment.heading"), templates.Payment(booking, loc))
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	bookingID, err := pathID(r, "bookingId")
	if err == nil {
		_, err = app.Backend.ConfirmPayment(r.Context(), bookingID)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	h.done(w, r, "flash.payment_confirmed", routepath.UserBookings)
}
