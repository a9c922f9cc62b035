package sessions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	"github.com/louisbranch/spabooking/internal/services/web/platform/sessioncookie"
)

var ana = map[string]any{
	"id":        7,
	"email":     "ana@example.com",
	"firstName": "Ana",
	"lastName":  "Lima",
	"role":      "USER",
}

// meCalls counts every /auth/me request the fake backend has answered.
var meCalls atomic.Int64

// fakeAPI answers /auth/me for the "live" backend session and 401 for the
// user endpoints, which is what an expired backend session looks like.
func fakeAPI(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		if c, err := r.Cookie(backend.DefaultCookieName); err != nil || c.Value != "live" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ana)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: backend.DefaultCookieName, Value: "live", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ana)
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: backend.DefaultCookieName, Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/user/bookings", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	return mux
}

func newRegistry(t *testing.T, cfg Config) *Registry {
	t.Helper()
	srv := httptest.NewServer(fakeAPI(t))
	t.Cleanup(srv.Close)
	factory, err := backend.NewFactory(backend.Config{BaseURL: srv.URL + "/api"}, zap.NewNop())
	require.NoError(t, err)
	reg := NewRegistry(factory, cfg, zap.NewNop())
	t.Cleanup(reg.Close)
	return reg
}

func resolve(t *testing.T, reg *Registry, cookies ...*http.Cookie) (*App, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	app, err := reg.Resolve(rec, req)
	require.NoError(t, err)
	return app, rec
}

func waitReady(t *testing.T, app *App) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := app.Store.WaitInitialized(ctx)
	require.NoError(t, err)
}

func sessionCookieOf(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessioncookie.Name {
			return c
		}
	}
	return nil
}

func TestResolveCreatesAndReusesApp(t *testing.T) {
	reg := newRegistry(t, Config{})

	first, rec := resolve(t, reg)
	cookie := sessionCookieOf(rec)
	require.NotNil(t, cookie)
	assert.Equal(t, first.ID, cookie.Value)
	assert.True(t, cookie.HttpOnly)

	second, rec := resolve(t, reg, &http.Cookie{Name: sessioncookie.Name, Value: first.ID})
	assert.Same(t, first, second)
	assert.Nil(t, sessionCookieOf(rec), "existing session must not be re-issued")
	assert.Equal(t, 1, reg.Len())

	waitReady(t, first)
	assert.False(t, first.Store.Current().Authenticated())
}

func TestResolveReplacesUnknownOrMalformedCookie(t *testing.T) {
	reg := newRegistry(t, Config{})

	for _, value := range []string{"not-a-uuid", "6f1c2f4e-6f7b-4a53-9d0a-1f7b6f4d9e10"} {
		app, rec := resolve(t, reg, &http.Cookie{Name: sessioncookie.Name, Value: value})
		assert.NotEqual(t, value, app.ID)
		require.NotNil(t, sessionCookieOf(rec))
		waitReady(t, app)
	}
}

func TestBootstrapUsesBrowserBackendCookie(t *testing.T) {
	reg := newRegistry(t, Config{})

	app, _ := resolve(t, reg, &http.Cookie{Name: backend.DefaultCookieName, Value: "live"})
	waitReady(t, app)

	state := app.Store.Current()
	require.True(t, state.Authenticated())
	assert.Equal(t, int64(7), state.Identity.ID)
	assert.Equal(t, identity.RoleUser, state.Role())
}

func TestRelayBackendCookieAfterLoginAndLogout(t *testing.T) {
	reg := newRegistry(t, Config{})
	app, _ := resolve(t, reg)
	waitReady(t, app)

	_, err := app.Sync.Login(context.Background(), backend.LoginRequest{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	reg.RelayBackendCookie(rec, httptest.NewRequest(http.MethodPost, "/login", nil), app)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, backend.DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "live", cookies[0].Value)

	app.Sync.Logout(context.Background())
	rec = httptest.NewRecorder()
	reg.RelayBackendCookie(rec, httptest.NewRequest(http.MethodPost, "/logout", nil), app)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestBackend401ExpiresIdentity(t *testing.T) {
	reg := newRegistry(t, Config{})
	app, _ := resolve(t, reg, &http.Cookie{Name: backend.DefaultCookieName, Value: "live"})
	waitReady(t, app)
	require.True(t, app.Store.Current().Authenticated())

	_, err := app.Backend.MyBookings(context.Background())
	require.Error(t, err)
	assert.False(t, app.Store.Current().Authenticated())
}

func TestSweepDropsIdleApps(t *testing.T) {
	reg := newRegistry(t, Config{IdleTTL: time.Minute})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	stale, _ := resolve(t, reg)
	now = now.Add(50 * time.Second)
	fresh, _ := resolve(t, reg)
	waitReady(t, stale)
	waitReady(t, fresh)

	now = now.Add(20 * time.Second)
	assert.Equal(t, 1, reg.Sweep())
	_, ok := reg.Get(stale.ID)
	assert.False(t, ok)
	_, ok = reg.Get(fresh.ID)
	assert.True(t, ok)
}

func TestSweepDropsSignedOutAppsSooner(t *testing.T) {
	reg := newRegistry(t, Config{IdleTTL: time.Hour, AnonymousTTL: time.Minute})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	anonymous, _ := resolve(t, reg)
	signedIn, _ := resolve(t, reg, &http.Cookie{Name: backend.DefaultCookieName, Value: "live"})
	waitReady(t, anonymous)
	waitReady(t, signedIn)
	require.True(t, signedIn.Store.Current().Authenticated())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, reg.Sweep())
	_, ok := reg.Get(anonymous.ID)
	assert.False(t, ok)
	_, ok = reg.Get(signedIn.ID)
	assert.True(t, ok)
}

func TestAnonymousTTLNeverExceedsIdleTTL(t *testing.T) {
	reg := newRegistry(t, Config{IdleTTL: time.Minute, AnonymousTTL: time.Hour})
	assert.Equal(t, time.Minute, reg.cfg.AnonymousTTL)
}

func TestBootstrapWithoutBackendCookieSkipsBackend(t *testing.T) {
	reg := newRegistry(t, Config{})
	before := meCalls.Load()

	app, _ := resolve(t, reg)
	waitReady(t, app)

	assert.False(t, app.Store.Current().Authenticated())
	assert.Equal(t, before, meCalls.Load(), "cookie-less browser must not reach /auth/me")

	_, err := app.Sync.Login(context.Background(), backend.LoginRequest{Email: "ana@example.com", Password: "pw"})
	require.NoError(t, err)
	who, err := app.Sync.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), who.ID)
	assert.Greater(t, meCalls.Load(), before)
}

func TestLoginLimiter(t *testing.T) {
	reg := newRegistry(t, Config{LoginRate: 0.001, LoginBurst: 2})
	app, _ := resolve(t, reg)
	waitReady(t, app)

	assert.True(t, app.AllowLogin())
	assert.True(t, app.AllowLogin())
	assert.False(t, app.AllowLogin())
}

func TestMiddlewareStoresApp(t *testing.T) {
	reg := newRegistry(t, Config{})

	var seen *App
	handler := reg.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		app, ok := FromContext(r.Context())
		require.True(t, ok)
		store, ok := StoreOf(r)
		require.True(t, ok)
		assert.Same(t, app.Store, store)
		seen = app
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotNil(t, seen)
	waitReady(t, seen)
}

func TestResolveAfterCloseFails(t *testing.T) {
	reg := newRegistry(t, Config{})
	reg.Close()

	_, err := reg.Resolve(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, err, http.ErrServerClosed)
}
