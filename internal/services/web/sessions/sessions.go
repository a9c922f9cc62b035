// Package sessions maps browser sessions to application instances.
//
// Each browser session owns one identity store, one synchronizer and one
// backend cookie jar. The instance is created on the first request without
// a valid session cookie and bootstrapped in the background; it lives until
// it has been idle for the configured TTL. Sessions that are not signed in
// expire sooner, and a browser without a backend session cookie is known to
// be anonymous without asking the backend.
package sessions

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	"github.com/louisbranch/spabooking/internal/platform/timeouts"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	"github.com/louisbranch/spabooking/internal/services/web/platform/httpx"
	"github.com/louisbranch/spabooking/internal/services/web/platform/metrics"
	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/spabooking/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/spabooking/internal/services/web/session"
)

const (
	// DefaultIdleTTL drops browser sessions nobody has used for this long.
	DefaultIdleTTL = 2 * time.Hour
	// DefaultAnonymousTTL drops sessions that are not signed in sooner.
	DefaultAnonymousTTL = 15 * time.Minute
	// DefaultLoginRate is the sustained login attempt rate per browser.
	DefaultLoginRate = rate.Limit(1.0 / 3)
	// DefaultLoginBurst is the number of login attempts allowed back to back.
	DefaultLoginBurst = 5
)

// App is one browser session's application instance.
type App struct {
	ID      string
	Store   *session.Store
	Sync    *session.Synchronizer
	Backend *backend.Client

	jar      http.CookieJar
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// AllowLogin reports whether another login attempt is allowed now.
func (a *App) AllowLogin() bool {
	return a.limiter.Allow()
}

func (a *App) touch(now time.Time) {
	a.lastSeen.Store(now.UnixNano())
}

func (a *App) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, a.lastSeen.Load()))
}

// Config tunes the registry.
type Config struct {
	IdleTTL      time.Duration
	AnonymousTTL time.Duration
	LoginRate    rate.Limit
	LoginBurst   int
	Policy       requestmeta.SchemePolicy
}

// Registry owns every live App.
type Registry struct {
	factory *backend.Factory
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	apps   map[string]*App
	wg     sync.WaitGroup
	closed bool
}

// NewRegistry builds an empty registry.
func NewRegistry(factory *backend.Factory, cfg Config, logger *zap.Logger) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.AnonymousTTL <= 0 {
		cfg.AnonymousTTL = DefaultAnonymousTTL
	}
	cfg.AnonymousTTL = min(cfg.AnonymousTTL, cfg.IdleTTL)
	if cfg.LoginRate <= 0 {
		cfg.LoginRate = DefaultLoginRate
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = DefaultLoginBurst
	}
	return &Registry{
		factory: factory,
		cfg:     cfg,
		logger:  logging.OrNop(logger).Named("sessions"),
		now:     time.Now,
		apps:    map[string]*App{},
	}
}

// Resolve returns the App for the request's session cookie, creating one
// and setting the cookie when there is none.
func (r *Registry) Resolve(w http.ResponseWriter, req *http.Request) (*App, error) {
	now := r.now()
	if raw, ok := sessioncookie.Read(req, sessioncookie.Name); ok {
		if _, err := uuid.Parse(raw); err == nil {
			if app, ok := r.Get(raw); ok {
				app.touch(now)
				return app, nil
			}
		}
	}

	app, err := r.open(req)
	if err != nil {
		return nil, err
	}
	app.touch(now)
	sessioncookie.Write(w, req, sessioncookie.Name, app.ID, r.cfg.Policy)
	return app, nil
}

// open creates and registers an App, seeding its jar from the backend cookie
// the browser already holds, then bootstraps it in the background.
func (r *Registry) open(req *http.Request) (*App, error) {
	jar, err := r.factory.NewJar()
	if err != nil {
		return nil, err
	}
	if raw, ok := sessioncookie.Read(req, r.factory.CookieName()); ok {
		r.factory.SeedSessionCookie(jar, raw)
	}

	app := &App{
		ID:      uuid.NewString(),
		Store:   session.NewStore(),
		jar:     jar,
		limiter: rate.NewLimiter(r.cfg.LoginRate, r.cfg.LoginBurst),
	}
	logger := r.logger.With(zap.String("session", app.ID[:8]))
	app.Backend = r.factory.NewClient(jar, func(ctx context.Context) {
		if app.Store.Current().Authenticated() {
			metrics.RecordSessionExpired()
		}
		app.Sync.Expire(ctx)
	})
	app.Sync = session.NewSynchronizer(app.Store, sessionBackend{Client: app.Backend, factory: r.factory, jar: jar}, logger)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, http.ErrServerClosed
	}
	r.apps[app.ID] = app
	r.wg.Add(1)
	r.mu.Unlock()
	metrics.SessionOpened()

	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Bootstrap)
		defer cancel()
		app.Sync.Bootstrap(ctx)
	}()
	return app, nil
}

// sessionBackend answers "who am I" locally while the jar holds no backend
// session cookie: without one the backend can only say 401.
type sessionBackend struct {
	*backend.Client
	factory *backend.Factory
	jar     http.CookieJar
}

func (b sessionBackend) Me(ctx context.Context) (identity.Identity, error) {
	if _, ok := b.factory.SessionCookie(b.jar); !ok {
		return identity.Identity{}, apperrors.E(apperrors.KindUnauthorized, "no backend session")
	}
	return b.Client.Me(ctx)
}

// Get returns a registered App by id.
func (r *Registry) Get(id string) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	return app, ok
}

// Len reports how many browser sessions are registered.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// Sweep drops Apps idle longer than their TTL and reports how many went.
// Apps that are not signed in use the shorter anonymous TTL.
func (r *Registry) Sweep() int {
	now := r.now()
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, app := range r.apps {
		ttl := r.cfg.IdleTTL
		if !app.Store.Current().Authenticated() {
			ttl = r.cfg.AnonymousTTL
		}
		if app.idleSince(now) > ttl {
			delete(r.apps, id)
			metrics.SessionClosed()
			dropped++
		}
	}
	if dropped > 0 {
		r.logger.Debug("swept idle sessions", zap.Int("dropped", dropped), zap.Int("remaining", len(r.apps)))
	}
	return dropped
}

// Run sweeps on every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.cfg.AnonymousTTL / 4
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close stops accepting new sessions and waits for running bootstraps.
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	for id := range r.apps {
		delete(r.apps, id)
		metrics.SessionClosed()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// RelayBackendCookie copies the backend session cookie held in the App's
// jar onto the browser, or clears it when the backend dropped it.
func (r *Registry) RelayBackendCookie(w http.ResponseWriter, req *http.Request, app *App) {
	name := r.factory.CookieName()
	if value, ok := r.factory.SessionCookie(app.jar); ok {
		sessioncookie.Write(w, req, name, value, r.cfg.Policy)
		return
	}
	sessioncookie.Clear(w, req, name, r.cfg.Policy)
}

type contextKey struct{}

// WithApp stores app on ctx.
func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, contextKey{}, app)
}

// FromContext returns the request's App.
func FromContext(ctx context.Context) (*App, bool) {
	if ctx == nil {
		return nil, false
	}
	app, ok := ctx.Value(contextKey{}).(*App)
	return app, ok && app != nil
}

// StoreOf resolves the identity store for a request, for the guard.
func StoreOf(req *http.Request) (*session.Store, bool) {
	app, ok := FromContext(httpx.RequestContext(req))
	if !ok {
		return nil, false
	}
	return app.Store, true
}

// Middleware resolves the App for every request and stores it on the
// request context.
func (r *Registry) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			app, err := r.Resolve(w, req)
			if err != nil {
				r.logger.Error("resolve browser session", zap.Error(err))
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, req.WithContext(WithApp(req.Context(), app)))
		})
	}
}
