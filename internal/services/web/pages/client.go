package pages

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/weberror"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/templates"
)

func (h *Handler) clientDashboard(w http.ResponseWriter, r *http.Request) {
	h.renderClientDashboard(w, r, http.StatusOK, templates.Form{})
}

func (h *Handler) renderClientDashboard(w http.ResponseWriter, r *http.Request, status int, form templates.Form) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	spas, err := app.Backend.MySpas(ctx)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	view := templates.ClientDashboardView{Spas: spas, Form: form}
	h.render(w, r, status, loc.T("client.dashboard.heading"), templates.ClientDashboard(view, loc))
}

func (h *Handler) createSpa(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	values, err := parseForm(r)
	if err == nil {
		err = required(values, "name", "address")
	}
	if err == nil {
		_, err = app.Backend.CreateSpa(ctx, backend.SpaCreateRequest{
			Name:        strings.TrimSpace(values.Get("name")),
			Address:     strings.TrimSpace(values.Get("address")),
			Description: strings.TrimSpace(values.Get("description")),
		})
	}
	if err != nil {
		if !formFailed(err) {
			h.errors.Write(w, r, err)
			return
		}
		form := templates.Form{Values: values, Error: weberror.FormMessage(webi18n.FromContext(ctx), err)}
		h.renderClientDashboard(w, r, formStatus(err), form)
		return
	}
	h.done(w, r, "flash.spa_created", routepath.ClientDashboard)
}

// ownedSpa finds spaID among the caller's spas. Spas of other owners read
// as not found.
func ownedSpa(ctx context.Context, api *backend.Client, spaID int64) (backend.Spa, error) {
	spas, err := api.MySpas(ctx)
	if err != nil {
		return backend.Spa{}, err
	}
	for _, spa := range spas {
		if spa.ID == spaID {
			return spa, nil
		}
	}
	return backend.Spa{}, apperrors.E(apperrors.KindNotFound, "spa not found")
}

func (h *Handler) spaManage(w http.ResponseWriter, r *http.Request) {
	h.renderSpaManage(w, r, http.StatusOK, templates.Form{})
}

func (h *Handler) renderSpaManage(w http.ResponseWriter, r *http.Request, status int, form templates.Form) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	spaID, err := pathID(r, "id")
	var (
		spa      backend.Spa
		services []backend.Service
	)
	if err == nil {
		spa, err = ownedSpa(ctx, app.Backend, spaID)
	}
	if err == nil {
		services, err = app.Backend.SpaServices(ctx, spaID)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	view := templates.SpaManageView{Spa: spa, Services: services, Form: form}
	h.render(w, r, status, spa.Name, templates.SpaManage(view, loc))
}

func (h *Handler) spaManageAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	spaID, err := pathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	values, err := parseForm(r)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	switch values.Get("action") {
	case "create":
		req, err := serviceRequest(values)
		if err == nil {
			_, err = app.Backend.CreateService(ctx, spaID, req)
		}
		if err != nil {
			if !formFailed(err) {
				h.errors.Write(w, r, err)
				return
			}
			form := templates.Form{Values: values, Error: weberror.FormMessage(webi18n.FromContext(ctx), err)}
			h.renderSpaManage(w, r, formStatus(err), form)
			return
		}
		h.done(w, r, "flash.service_created", routepath.ClientSpaManage(spaID))
	case "status":
		serviceID, err := formID(values, "service_id")
		var status backend.ServiceStatus
		if err == nil {
			status, err = serviceStatus(values.Get("status"))
		}
		if err == nil {
			_, err = app.Backend.UpdateServiceStatus(ctx, serviceID, status)
		}
		if err != nil {
			h.errors.Write(w, r, err)
			return
		}
		// Availability shows on the public spa pages.
		h.catalog.Invalidate(ctx)
		h.done(w, r, "flash.service_updated", routepath.ClientSpaManage(spaID))
	default:
		h.errors.Write(w, r, apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "unknown service action"))
	}
}

func serviceRequest(form url.Values) (backend.ServiceCreateRequest, error) {
	if err := required(form, "name", "price", "duration"); err != nil {
		return backend.ServiceCreateRequest{}, err
	}
	price, err := formFloat(form, "price")
	if err != nil {
		return backend.ServiceCreateRequest{}, err
	}
	duration, err := formInt(form, "duration")
	if err != nil {
		return backend.ServiceCreateRequest{}, err
	}
	return backend.ServiceCreateRequest{
		Name:              strings.TrimSpace(form.Get("name")),
		Description:       strings.TrimSpace(form.Get("description")),
		Price:             price,
		DurationInMinutes: duration,
	}, nil
}

func serviceStatus(raw string) (backend.ServiceStatus, error) {
	switch status := backend.ServiceStatus(strings.TrimSpace(raw)); status {
	case backend.ServiceAvailable, backend.ServiceUnavailable:
		return status, nil
	default:
		return "", apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "unknown service status")
	}
}

// bookingFilter reads the status filter. Unknown values show every booking.
func bookingFilter(raw string) backend.BookingStatus {
	switch status := backend.BookingStatus(strings.TrimSpace(raw)); status {
	case backend.BookingPending, backend.BookingConfirmed, backend.BookingCancelledByUser, backend.BookingDeclinedByClient:
		return status
	default:
		return ""
	}
}

func (h *Handler) spaBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	spaID, err := pathID(r, "id")
	if err == nil {
		_, err = ownedSpa(ctx, app.Backend, spaID)
	}
	filter := bookingFilter(r.URL.Query().Get("status"))
	var bookings []backend.Booking
	if err == nil {
		bookings, err = app.Backend.SpaBookings(ctx, spaID, filter)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	view := templates.SpaBookingsView{SpaID: spaID, Status: filter, Bookings: bookings}
	h.render(w, r, http.StatusOK, loc.T("client.bookings.heading"), templates.SpaBookings(view, loc))
}

func (h *Handler) spaBookingAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	spaID, err := pathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	values, err := parseForm(r)
	var bookingID int64
	if err == nil && values.Get("action") != "status" {
		err = apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "unknown booking action")
	}
	if err == nil {
		bookingID, err = formID(values, "booking_id")
	}
	var status backend.BookingStatus
	if err == nil {
		switch status = backend.BookingStatus(values.Get("status")); status {
		case backend.BookingConfirmed, backend.BookingDeclinedByClient:
		default:
			err = apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "owners may only confirm or decline")
		}
	}
	if err == nil {
		_, err = app.Backend.UpdateBookingStatus(ctx, bookingID, status)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	back := routepath.WithQuery(routepath.ClientSpaBookings(spaID), "status", string(bookingFilter(values.Get("filter"))))
	h.done(w, r, "flash.booking_updated", back)
}
