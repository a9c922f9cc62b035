// Package weberror writes every page-level failure through one path.
package weberror

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	"github.com/louisbranch/spabooking/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/session"
	"github.com/louisbranch/spabooking/internal/services/web/templates"
)

// ShouldRenderAppError reports whether status should use the error page.
func ShouldRenderAppError(statusCode int) bool {
	return statusCode == http.StatusNotFound ||
		statusCode == http.StatusForbidden ||
		statusCode >= http.StatusInternalServerError
}

// PublicMessage resolves a user-safe localized error message.
func PublicMessage(loc webi18n.Localizer, err error) string {
	if err == nil {
		return ""
	}
	if key := apperrors.LocalizationKey(err); key != "" {
		if localized := strings.TrimSpace(loc.T(key)); localized != "" && localized != key {
			return localized
		}
	}
	statusCode := apperrors.HTTPStatus(err)
	if statusCode < http.StatusBadRequest {
		statusCode = http.StatusInternalServerError
	}
	return http.StatusText(statusCode)
}

// FormMessage is the message shown next to a form that failed. Localized
// keys win; otherwise backend validation text is user-facing and kept, and
// anything else is generic.
func FormMessage(loc webi18n.Localizer, err error) string {
	switch apperrors.KindOf(err) {
	case apperrors.KindInvalidInput, apperrors.KindConflict:
		var appErr apperrors.Error
		if errors.As(err, &appErr) && appErr.Key == "" && strings.TrimSpace(appErr.Message) != "" {
			return appErr.Message
		}
	}
	return PublicMessage(loc, err)
}

// Writer renders errors inside the application shell.
type Writer struct {
	// Viewer resolves the chrome for the request. Nil renders anonymous.
	Viewer func(*http.Request) templates.Viewer
	Logger *zap.Logger
}

// Write maps err to a response. Unauthenticated requests go to login, a
// superseded session reloads the page, and a cancelled request writes
// nothing.
func (ew Writer) Write(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}
	ctx := httpx.RequestContext(r)
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	if errors.Is(err, session.ErrSuperseded) {
		httpx.WriteRedirect(w, r, r.URL.RequestURI())
		return
	}

	statusCode := apperrors.HTTPStatus(err)
	if statusCode == http.StatusUnauthorized {
		httpx.WriteRedirect(w, r, routepath.Login)
		return
	}
	if ShouldRenderAppError(statusCode) {
		if statusCode >= http.StatusInternalServerError {
			ew.logger().Error("page failed",
				zap.String("path", r.URL.Path),
				zap.String("request_id", httpx.RequestIDOf(r)),
				zap.Error(err),
			)
		}
		ew.WritePage(w, r, statusCode)
		return
	}
	http.Error(w, PublicMessage(webi18n.FromContext(ctx), err), statusCode)
}

// WritePage renders the error page for statusCode, as a fragment for HTMX
// requests and as a full page otherwise.
func (ew Writer) WritePage(w http.ResponseWriter, r *http.Request, statusCode int) {
	if !ShouldRenderAppError(statusCode) {
		statusCode = http.StatusInternalServerError
	}
	ctx := httpx.RequestContext(r)
	loc := webi18n.FromContext(ctx)
	fragment := templates.ErrorState(statusCode, loc)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)
	if httpx.IsHTMXRequest(r) {
		if err := fragment.Render(ctx, w); err != nil {
			ew.logger().Warn("render error fragment", zap.Error(err))
		}
		return
	}

	viewer := templates.Viewer{}
	if ew.Viewer != nil {
		viewer = ew.Viewer(r)
	}
	layout := templates.Layout(templates.LayoutOptions{
		Title:       templates.ErrorPageTitle(statusCode, loc),
		CurrentPath: r.URL.Path,
		Viewer:      viewer,
		Loc:         loc,
	})
	if err := layout.Render(templ.WithChildren(ctx, fragment), w); err != nil {
		ew.logger().Warn("render error page", zap.Error(err))
	}
}

func (ew Writer) logger() *zap.Logger {
	if ew.Logger == nil {
		return zap.NewNop()
	}
	return ew.Logger
}
