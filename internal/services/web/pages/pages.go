// Package pages serves the browser pages named in the route table.
//
// Handlers run behind the session and guard middleware, so a protected page
// only executes once the session has bootstrapped and the visitor holds the
// route's role. Handlers still read the identity at the moment they run:
// the session may have changed since the guard decided.
package pages

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	"github.com/louisbranch/spabooking/internal/services/web/catalog"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	"github.com/louisbranch/spabooking/internal/services/web/platform/flash"
	"github.com/louisbranch/spabooking/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/spabooking/internal/services/web/platform/weberror"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/sessions"
	"github.com/louisbranch/spabooking/internal/services/web/templates"
)

// Config wires page handlers to their collaborators.
type Config struct {
	Catalog  *catalog.Service
	Registry *sessions.Registry
	Policy   requestmeta.SchemePolicy
	Logger   *zap.Logger
}

// Handler serves every page.
type Handler struct {
	catalog  *catalog.Service
	registry *sessions.Registry
	policy   requestmeta.SchemePolicy
	flash    flash.Writer
	errors   weberror.Writer
	logger   *zap.Logger
}

// New builds the page handlers.
func New(cfg Config) *Handler {
	logger := logging.OrNop(cfg.Logger).Named("pages")
	h := &Handler{
		catalog:  cfg.Catalog,
		registry: cfg.Registry,
		policy:   cfg.Policy,
		flash:    flash.Writer{Policy: cfg.Policy},
		logger:   logger,
	}
	h.errors = weberror.Writer{Viewer: h.viewer, Logger: logger}
	return h
}

// Pages returns the handler for each page name of the route table.
func (h *Handler) Pages() map[string]http.Handler {
	return map[string]http.Handler{
		"home":       page{get: h.home},
		"spa-detail": page{get: h.spaDetail},
		"login":      h.guardForms(page{get: h.loginPage, post: h.login}),
		"register":   h.guardForms(page{get: h.registerPage, post: h.register}),

		"user-profile":    h.guardForms(page{get: h.profilePage, post: h.saveProfile}),
		"user-bookings":   h.guardForms(page{get: h.bookings, post: h.bookingAction}),
		"user-wishlist":   h.guardForms(page{get: h.wishlist, post: h.wishlistAction}),
		"user-membership": h.guardForms(page{get: h.membershipPage, post: h.membershipAction}),
		"user-book":       h.guardForms(page{get: h.bookPage, post: h.book}),
		"user-payment":    h.guardForms(page{get: h.paymentPage, post: h.confirmPayment}),

		"client-dashboard":    h.guardForms(page{get: h.clientDashboard, post: h.createSpa}),
		"client-profile":      h.guardForms(page{get: h.profilePage, post: h.saveProfile}),
		"client-spa-manage":   h.guardForms(page{get: h.spaManage, post: h.spaManageAction}),
		"client-spa-bookings": h.guardForms(page{get: h.spaBookings, post: h.spaBookingAction}),

		"admin-dashboard":         page{get: h.adminDashboard},
		"admin-spa-approvals":     h.guardForms(page{get: h.spaApprovals, post: h.approveSpa}),
		"admin-service-approvals": h.guardForms(page{get: h.serviceApprovals, post: h.approveService}),
		"admin-clients":           page{get: h.clients},
		"admin-memberships":       h.guardForms(page{get: h.adminMemberships, post: h.adminMembershipAction}),
		"admin-users":             page{get: h.adminUsers},
	}
}

// Logout ends the session. It only accepts same-origin posts.
func (h *Handler) Logout() http.Handler {
	return h.guardForms(page{post: h.logout})
}

// NotFound renders the not-found page for paths outside the route table.
func (h *Handler) NotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.errors.WritePage(w, r, http.StatusNotFound)
	})
}

// page dispatches on method. HEAD is served by get.
type page struct {
	get  http.HandlerFunc
	post http.HandlerFunc
}

func (p page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case (r.Method == http.MethodGet || r.Method == http.MethodHead) && p.get != nil:
		p.get(w, r)
	case r.Method == http.MethodPost && p.post != nil:
		p.post(w, r)
	default:
		w.Header().Set("Allow", p.allow())
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (p page) allow() string {
	var methods []string
	if p.get != nil {
		methods = append(methods, http.MethodGet, http.MethodHead)
	}
	if p.post != nil {
		methods = append(methods, http.MethodPost)
	}
	return strings.Join(methods, ", ")
}

// guardForms rejects state-changing requests that did not come from one of
// our own pages.
func (h *Handler) guardForms(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && !requestmeta.SameOrigin(r, h.policy) {
			h.logger.Warn("cross-origin form rejected",
				zap.String("path", r.URL.Path),
				zap.String("origin", r.Header.Get("Origin")),
			)
			loc := webi18n.FromContext(r.Context())
			http.Error(w, loc.T("form.forbidden_origin"), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// app returns the browser session bound by the session middleware.
func (h *Handler) app(w http.ResponseWriter, r *http.Request) (*sessions.App, bool) {
	app, ok := sessions.FromContext(r.Context())
	if !ok {
		h.logger.Error("no browser session bound to request", zap.String("path", r.URL.Path))
		h.errors.WritePage(w, r, http.StatusInternalServerError)
		return nil, false
	}
	return app, true
}

// signedIn returns the session and its identity, redirecting to login when
// the identity went away after the guard let the request through.
func (h *Handler) signedIn(w http.ResponseWriter, r *http.Request) (*sessions.App, identity.Identity, bool) {
	app, ok := h.app(w, r)
	if !ok {
		return nil, identity.Identity{}, false
	}
	who := app.Store.Current().Identity
	if who == nil {
		httpx.WriteRedirect(w, r, routepath.Login)
		return nil, identity.Identity{}, false
	}
	return app, who.Clone(), true
}

func (h *Handler) viewer(r *http.Request) templates.Viewer {
	app, ok := sessions.FromContext(r.Context())
	if !ok {
		return templates.Viewer{}
	}
	return templates.ViewerFor(app.Store.Current().Identity)
}

// render writes body inside the layout, or alone for HTMX requests.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, title string, body templ.Component) {
	ctx := r.Context()
	loc := webi18n.FromContext(ctx)

	opts := templates.LayoutOptions{
		Title:       title,
		CurrentPath: r.URL.Path,
		Viewer:      h.viewer(r),
		Loc:         loc,
	}
	if notice, ok := h.flash.ReadAndClear(w, r); ok {
		opts.Notice = &templates.Notice{Kind: string(notice.Kind), Message: loc.T(notice.Key)}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	var err error
	if httpx.IsHTMXRequest(r) {
		err = body.Render(ctx, w)
	} else {
		err = templates.Layout(opts).Render(templ.WithChildren(ctx, body), w)
	}
	if err != nil {
		h.logger.Warn("render page", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// done stores a success notice and sends the browser to location.
func (h *Handler) done(w http.ResponseWriter, r *http.Request, key, location string) {
	h.flash.Write(w, r, flash.Success(key))
	httpx.WriteRedirect(w, r, location)
}

// formFailed reports whether err belongs next to the form rather than on
// an error page.
func formFailed(err error) bool {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput, apperrors.KindConflict:
		return true
	default:
		return false
	}
}

// formStatus is the status of a page re-rendered with a form error.
func formStatus(err error) int {
	if apperrors.KindOf(err) == apperrors.KindConflict {
		return http.StatusConflict
	}
	return http.StatusBadRequest
}

func parseForm(r *http.Request) (url.Values, error) {
	if err := r.ParseForm(); err != nil {
		return nil, apperrors.EK(apperrors.KindInvalidInput, "form.required", "malformed form: "+err.Error())
	}
	return r.PostForm, nil
}

func required(values url.Values, names ...string) error {
	for _, name := range names {
		if strings.TrimSpace(values.Get(name)) == "" {
			return apperrors.EK(apperrors.KindInvalidInput, "form.required", name+" is required")
		}
	}
	return nil
}

func formID(values url.Values, name string) (int64, error) {
	id, ok := httpx.ParseID(values.Get(name))
	if !ok {
		return 0, apperrors.EK(apperrors.KindInvalidInput, "form.invalid_number", name+" must be a positive id")
	}
	return id, nil
}

func formFloat(values url.Values, name string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(values.Get(name)), 64)
	if err != nil || value < 0 {
		return 0, apperrors.EK(apperrors.KindInvalidInput, "form.invalid_number", name+" must be a non-negative number")
	}
	return value, nil
}

func formInt(values url.Values, name string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(values.Get(name)))
	if err != nil || value <= 0 {
		return 0, apperrors.EK(apperrors.KindInvalidInput, "form.invalid_number", name+" must be a positive whole number")
	}
	return value, nil
}

// pathID parses a route parameter. Malformed ids are not-found.
func pathID(r *http.Request, name string) (int64, error) {
	id, ok := httpx.PathInt64(r, name)
	if !ok {
		return 0, apperrors.E(apperrors.KindNotFound, name+" is not a valid id")
	}
	return id, nil
}

// localPath accepts same-site absolute paths only.
func localPath(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return fallback
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme != "" || parsed.Host != "" {
		return fallback
	}
	return parsed.RequestURI()
}
