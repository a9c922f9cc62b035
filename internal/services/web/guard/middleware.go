package guard

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/services/web/platform/httpx"
	"github.com/louisbranch/spabooking/internal/services/web/session"
)

// StoreResolver returns the session store bound to a request.
type StoreResolver func(*http.Request) (*session.Store, bool)

// Middleware guards a page handler with route.
//
// Allowed requests reach next. Denied ones get a redirect. When the request
// is cancelled while waiting for bootstrap nothing is written: the browser
// has already navigated away.
func (g *Guard) Middleware(route Route) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var store *session.Store
			if route.Protected() {
				if g.stores != nil {
					store, _ = g.stores(r)
				}
				if store == nil {
					g.logger.Error("no session store bound to request", zap.String("path", r.URL.Path))
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
			}

			decision, err := g.Check(r.Context(), store, route)
			if err != nil {
				g.logger.Debug("navigation abandoned", zap.String("path", r.URL.Path), zap.Error(err))
				return
			}
			if !decision.Allowed() {
				httpx.WriteRedirect(w, r, decision.Location)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
