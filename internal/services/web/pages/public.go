package pages

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	"github.com/louisbranch/spabooking/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/weberror"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/templates"
)

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := webi18n.FromContext(ctx)
	view := templates.HomeView{Query: strings.TrimSpace(r.URL.Query().Get("q"))}

	spas, err := h.catalog.Search(ctx, view.Query)
	if err != nil {
		h.logger.Warn("list spas", zap.Error(err))
		view.Error = weberror.PublicMessage(loc, err)
	}
	view.Spas = spas
	h.render(w, r, http.StatusOK, loc.T("app.name"), templates.Home(view, loc))
}

func (h *Handler) spaDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := webi18n.FromContext(ctx)
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	spaID, err := pathID(r, "id")
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}
	spa, err := h.catalog.Spa(ctx, spaID)
	if err != nil {
		h.errors.Write(w, r, err)
		return
	}

	viewer := templates.ViewerFor(app.Store.Current().Identity)
	view := templates.SpaDetailView{Spa: spa, Viewer: viewer, ReturnTo: r.URL.Path}
	if viewer.Role == identity.RoleUser {
		// The page still works without hearts when the wishlist is down.
		saved, err := app.Backend.Wishlist(ctx)
		if err != nil {
			h.logger.Debug("load wishlist for spa page", zap.Error(err))
		}
		view.Wishlist = make(map[int64]bool, len(saved))
		for _, svc := range saved {
			view.Wishlist[svc.ID] = true
		}
	}
	h.render(w, r, http.StatusOK, spa.Name, templates.SpaDetail(view, loc))
}

func (h *Handler) loginPage(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	if state, err := app.Store.WaitInitialized(r.Context()); err == nil && state.Authenticated() && state.Role().Valid() {
		httpx.WriteRedirect(w, r, identity.HomePath(state.Role()))
		return
	}
	h.renderLogin(w, r, http.StatusOK, templates.Form{})
}

func (h *Handler) renderLogin(w http.ResponseWriter, r *http.Request, status int, form templates.Form) {
	loc := webi18n.FromContext(r.Context())
	h.render(w, r, status, loc.T("login.heading"), templates.Login(form, loc))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := webi18n.FromContext(ctx)
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	values, err := parseForm(r)
	if err == nil {
		err = required(values, "email", "password")
	}
	if err != nil {
		h.renderLogin(w, r, http.StatusBadRequest, templates.Form{Values: values, Error: weberror.FormMessage(loc, err)})
		return
	}
	if !app.AllowLogin() {
		h.renderLogin(w, r, http.StatusTooManyRequests, templates.Form{Values: values, Error: loc.T("login.rate_limited")})
		return
	}

	who, err := app.Sync.Login(ctx, backend.LoginRequest{
		Email:    strings.TrimSpace(values.Get("email")),
		Password: values.Get("password"),
	})
	if err != nil {
		switch apperrors.KindOf(err) {
		case apperrors.KindUnauthorized, apperrors.KindInvalidInput, apperrors.KindForbidden:
			h.renderLogin(w, r, http.StatusUnauthorized, templates.Form{Values: values, Error: loc.T("login.invalid")})
		default:
			h.renderLogin(w, r, http.StatusServiceUnavailable, templates.Form{Values: values, Error: weberror.PublicMessage(loc, err)})
		}
		return
	}
	h.registry.RelayBackendCookie(w, r, app)
	httpx.WriteRedirect(w, r, identity.LandingPath(who.Role))
}

func (h *Handler) registerPage(w http.ResponseWriter, r *http.Request) {
	h.renderRegister(w, r, http.StatusOK, templates.Form{})
}

func (h *Handler) renderRegister(w http.ResponseWriter, r *http.Request, status int, form templates.Form) {
	loc := webi18n.FromContext(r.Context())
	h.render(w, r, status, loc.T("register.heading"), templates.Register(form, loc))
}

// register creates the account without signing in; the visitor signs in
// next.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	loc := webi18n.FromContext(ctx)
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	values, err := parseForm(r)
	if err == nil {
		err = required(values, "email", "password", "first_name", "last_name")
	}
	var role identity.Role
	if err == nil {
		role, err = registrationRole(values.Get("role"))
	}
	if err == nil {
		_, err = app.Backend.Register(ctx, backend.RegistrationRequest{
			Email:     strings.TrimSpace(values.Get("email")),
			Password:  values.Get("password"),
			FirstName: strings.TrimSpace(values.Get("first_name")),
			LastName:  strings.TrimSpace(values.Get("last_name")),
			Phone:     strings.TrimSpace(values.Get("phone")),
			Role:      role,
		})
	}
	if err != nil {
		status := formStatus(err)
		if !formFailed(err) {
			status = http.StatusServiceUnavailable
		}
		h.renderRegister(w, r, status, templates.Form{Values: values, Error: weberror.FormMessage(loc, err)})
		return
	}
	h.done(w, r, "flash.registered", routepath.Login)
}

// registrationRole accepts the self-service roles. Administrators are never
// created from the public form.
func registrationRole(raw string) (identity.Role, error) {
	if strings.TrimSpace(raw) == "" {
		return identity.RoleUser, nil
	}
	role, err := identity.ParseRole(raw)
	if err != nil || role == identity.RoleAdmin {
		return "", apperrors.EK(apperrors.KindInvalidInput, "form.invalid_choice", "role must be USER or CLIENT")
	}
	return role, nil
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	app, ok := h.app(w, r)
	if !ok {
		return
	}
	app.Sync.Logout(r.Context())
	h.registry.RelayBackendCookie(w, r, app)
	h.done(w, r, "flash.logged_out", routepath.Root)
}
