package pages

import (
	"net/http"
	"strings"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	"github.com/louisbranch/spabooking/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/weberror"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/templates"
)

func (h *Handler) adminDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	clients, err := app.Backend.Clients(ctx)
	var (
		spas     []backend.Spa
		services []backend.Service
		plans    []backend.Membership
	)
	if err == nil {
		spas, err = app.Backend.AdminSpas(ctx, backend.ApprovalPending)
	}
	if err == nil {
		services, err = app.Backend.AdminServices(ctx, backend.ApprovalPending)
	}
	if err == nil {
		plans, err = app.Backend.AdminMemberships(ctx)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	view := templates.AdminDashboardView{
		Clients:         len(clients),
		PendingSpas:     len(spas),
		PendingServices: len(services),
		Plans:           len(plans),
	}
	h.render(w, r, http.StatusOK, loc.T("admin.dashboard.heading"), templates.AdminDashboard(view, loc))
}

func (h *Handler) spaApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	spas, err := app.Backend.AdminSpas(ctx, backend.ApprovalPending)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	h.render(w, r, http.StatusOK, loc.T("nav.spa_approvals"), templates.SpaApprovals(spas, loc))
}

func (h *Handler) serviceApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	services, err := app.Backend.AdminServices(ctx, backend.ApprovalPending)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	h.render(w, r, http.StatusOK, loc.T("nav.service_approvals"), templates.ServiceApprovals(services, loc))
}

// approvalDecision reads the target id and the APPROVED or REJECTED verdict.
func approvalDecision(r *http.Request, field string) (int64, backend.ApprovalStatus, error) {
	values, err := parseForm(r)
	if err != nil {
		return 0, "", err
	}
	target, err := formID(values, field)
	if err != nil {
		return 0, "", err
	}
	switch status := backend.ApprovalStatus(values.Get("status")); status {
	case backend.ApprovalApproved, backend.ApprovalRejected:
		return target, status, nil
	default:
		return 0, "", apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "status must be APPROVED or REJECTED")
	}
}

func (h *Handler) approveSpa(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	spaID, status, err := approvalDecision(r, "spa_id")
	if err == nil {
		_, err = app.Backend.ApproveSpa(ctx, spaID, status)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	h.catalog.Invalidate(ctx)
	h.done(w, r, "flash.approval_saved", routepath.AdminSpaApprovals)
}

func (h *Handler) approveService(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	serviceID, status, err := approvalDecision(r, "service_id")
	if err == nil {
		_, err = app.Backend.ApproveService(ctx, serviceID, status)
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	h.catalog.Invalidate(ctx)
	h.done(w, r, "flash.approval_saved", routepath.AdminServiceApprovals)
}

func (h *Handler) clients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	clients, err := app.Backend.Clients(ctx)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	h.render(w, r, http.StatusOK, loc.T("nav.clients"), templates.Clients(clients, loc))
}

func (h *Handler) adminMemberships(w http.ResponseWriter, r *http.Request) {
	h.renderAdminMemberships(w, r, http.StatusOK, templates.Form{})
}

func (h *Handler) renderAdminMemberships(w http.ResponseWriter, r *http.Request, status int, form templates.Form) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	plans, err := app.Backend.AdminMemberships(ctx)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	view := templates.AdminMembershipsView{Plans: plans, Form: form}
	h.render(w, r, status, loc.T("nav.memberships"), templates.AdminMemberships(view, loc))
}

func (h *Handler) adminMembershipAction(w http.ResponseWriter, r *http.Request) {
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

	switch values.Get("action") {
	case "create":
		err := required(values, "name", "price", "discount")
		var price, discount float64
		if err == nil {
			price, err = formFloat(values, "price")
		}
		if err == nil {
			discount, err = formFloat(values, "discount")
		}
		if err == nil && discount > 100 {
			err = apperrors.EK(apperrors.KindInvalidInput, "form.invalid_number", "discount must be at most 100")
		}
		if err == nil {
			_, err = app.Backend.CreateMembership(ctx, backend.MembershipCreateRequest{
				Name:               strings.TrimSpace(values.Get("name")),
				Description:        strings.TrimSpace(values.Get("description")),
				PricePerMonth:      price,
				DiscountPercentage: discount,
			})
		}
		if err != nil {
			if !formFailed(err) {
				h.errors.Write(w, r, err)
				return
			}
			form := templates.Form{Values: values, Error: weberror.FormMessage(webi18n.FromContext(ctx), err)}
			h.renderAdminMemberships(w, r, formStatus(err), form)
			return
		}
		h.done(w, r, "flash.plan_created", routepath.AdminMemberships)
	case "delete":
		membershipID, err := formID(values, "membership_id")
		if err == nil {
			err = app.Backend.DeleteMembership(ctx, membershipID)
		}
		if err != nil {
			h.errors.Write(w, r, err)
			return
		}
		h.done(w, r, "flash.plan_deleted", routepath.AdminMemberships)
	default:
		h.errors.Write(w, r, apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "unknown plan action"))
	}
}

// adminUsers filters by membership status, or by plan when no status is
// chosen. Without a filter no users are listed.
func (h *Handler) adminUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	app, _, ok := h.signedIn(w, r)
	if !ok {
		return
	}
	plans, err := app.Backend.AdminMemberships(ctx)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	query := r.URL.Query()
	view := templates.AdminUsersView{Plans: plans}
	switch status := identity.MembershipStatus(strings.TrimSpace(query.Get("status"))); status {
	case identity.MembershipActive, identity.MembershipPending, identity.MembershipRejected, identity.MembershipInactive:
		view.Status = status
		view.Filtered = true
		view.Users, err = app.Backend.UsersByStatus(ctx, status)
	default:
		if membershipID, ok := httpx.ParseID(query.Get("membership_id")); ok {
			view.MembershipID = membershipID
			view.Filtered = true
			view.Users, err = app.Backend.UsersByMembership(ctx, membershipID)
		}
	}
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	loc := webi18n.FromContext(ctx)
	h.render(w, r, http.StatusOK, loc.T("nav.users"), templates.AdminUsers(view, loc))
}
