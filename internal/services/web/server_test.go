package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"maps"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/catalog"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	"github.com/louisbranch/spabooking/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/session"
	"github.com/louisbranch/spabooking/internal/services/web/sessions"
	webstorage "github.com/louisbranch/spabooking/internal/services/web/storage"
	websqlite "github.com/louisbranch/spabooking/internal/services/web/storage/sqlite"
)

// accounts maps a sign-in email to the identity the backend returns.
var accounts = map[string]map[string]any{
	"bia@example.com":  {"id": 3, "email": "bia@example.com", "firstName": "Bia", "lastName": "Souza", "role": "USER"},
	"root@example.com": {"id": 1, "email": "root@example.com", "firstName": "Root", "role": "ADMIN"},
	"odd@example.com":  {"id": 9, "email": "odd@example.com", "firstName": "Odd", "role": "SUPERVISOR"},
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// fakeAPI is a backend where every account in accounts signs in with
// password "secret". The backend session cookie holds the account email.
type fakeAPI struct {
	mux *http.ServeMux

	mu          sync.Mutex
	users       map[string]map[string]any
	publicCalls int
	approvals   []string
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{mux: http.NewServeMux(), users: map[string]map[string]any{}}
	for email, who := range accounts {
		api.users[email] = maps.Clone(who)
	}
	mux := api.mux
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		who, ok := api.caller(r)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, who)
	})
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		who, ok := api.user(body.Email)
		if !ok || body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"message": "Bad credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: backend.DefaultCookieName, Value: body.Email, Path: "/"})
		writeJSON(w, who)
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: backend.DefaultCookieName, Value: "", Path: "/", MaxAge: -1})
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /api/public/spas", func(w http.ResponseWriter, r *http.Request) {
		api.mu.Lock()
		api.publicCalls++
		api.mu.Unlock()
		writeJSON(w, []map[string]any{{"id": 1, "name": "Serenity Springs", "address": "Rua A, 10", "approvalStatus": "APPROVED"}})
	})
	mux.HandleFunc("GET /api/user/bookings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []any{})
	})
	mux.HandleFunc("GET /api/user/wishlist", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []any{})
	})
	mux.HandleFunc("GET /api/common/memberships", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": 2, "name": "Gold", "pricePerMonth": 30, "discountPercentage": 10}})
	})
	mux.HandleFunc("POST /api/user/membership/subscribe", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MembershipID int64 `json:"membershipId"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.MembershipID != 2 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		api.updateCaller(w, r, func(who map[string]any) {
			who["membershipName"] = "Gold"
			who["membershipStatus"] = "PENDING"
		})
	})
	mux.HandleFunc("POST /api/user/membership/cancel", func(w http.ResponseWriter, r *http.Request) {
		api.updateCaller(w, r, func(who map[string]any) {
			who["membershipStatus"] = "INACTIVE"
		})
	})
	mux.HandleFunc("PUT /api/profile", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			FirstName string `json:"firstName"`
			LastName  string `json:"lastName"`
			Phone     string `json:"phone"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		api.updateCaller(w, r, func(who map[string]any) {
			who["firstName"] = body.FirstName
			who["lastName"] = body.LastName
			who["phone"] = body.Phone
		})
	})
	mux.HandleFunc("PUT /api/admin/spas/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		api.mu.Lock()
		api.approvals = append(api.approvals, r.PathValue("id")+"="+body.Status)
		api.mu.Unlock()
		writeJSON(w, map[string]any{"id": 5, "name": "Lotus", "approvalStatus": body.Status})
	})
	return api
}

func (api *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.mux.ServeHTTP(w, r)
}

func (api *fakeAPI) user(email string) (map[string]any, bool) {
	api.mu.Lock()
	defer api.mu.Unlock()
	who, ok := api.users[email]
	return maps.Clone(who), ok
}

func (api *fakeAPI) caller(r *http.Request) (map[string]any, bool) {
	c, err := r.Cookie(backend.DefaultCookieName)
	if err != nil {
		return nil, false
	}
	return api.user(c.Value)
}

func (api *fakeAPI) updateCaller(w http.ResponseWriter, r *http.Request, update func(map[string]any)) {
	c, err := r.Cookie(backend.DefaultCookieName)
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	api.mu.Lock()
	who, ok := api.users[c.Value]
	if ok {
		update(who)
		who = maps.Clone(who)
	}
	api.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, who)
}

func (api *fakeAPI) counts() (publicCalls int, approvals []string) {
	api.mu.Lock()
	defer api.mu.Unlock()
	return api.publicCalls, append([]string(nil), api.approvals...)
}

type testSite struct {
	URL      string
	api      *fakeAPI
	registry *sessions.Registry
	client   *http.Client
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	return newTestSiteWithCache(t, nil)
}

// newTestSiteWithCache serves the catalog through store when it is set.
func newTestSiteWithCache(t *testing.T, store webstorage.CacheStore) *testSite {
	t.Helper()
	api := newFakeAPI()
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	factory, err := backend.NewFactory(backend.Config{BaseURL: apiServer.URL + "/api"}, zap.NewNop())
	require.NoError(t, err)
	registry := sessions.NewRegistry(factory, sessions.Config{}, zap.NewNop())
	t.Cleanup(registry.Close)

	handler, err := NewHandler(Dependencies{
		Registry: registry,
		Catalog:  catalog.New(factory.NewClient(nil, nil), store, time.Minute, zap.NewNop()),
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	site := httptest.NewServer(handler)
	t.Cleanup(site.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testSite{
		URL:      site.URL,
		api:      api,
		registry: registry,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// app returns the browser session the test client is bound to.
func (s *testSite) app(t *testing.T) *sessions.App {
	t.Helper()
	u, err := url.Parse(s.URL)
	require.NoError(t, err)
	for _, c := range s.client.Jar.Cookies(u) {
		if c.Name == sessioncookie.Name {
			app, ok := s.registry.Get(c.Value)
			require.True(t, ok, "browser session %q not registered", c.Value)
			return app
		}
	}
	t.Fatal("no browser session cookie")
	return nil
}

func (s *testSite) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	return s.do(t, req)
}

func (s *testSite) post(t *testing.T, path string, form url.Values, origin string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, s.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return s.do(t, req)
}

func (s *testSite) do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()
	resp, err := s.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func (s *testSite) login(t *testing.T) {
	t.Helper()
	s.loginAs(t, "bia@example.com", routepath.UserProfile)
}

func (s *testSite) loginAs(t *testing.T, email, home string) {
	t.Helper()
	resp, _ := s.post(t, routepath.Login, url.Values{"email": {email}, "password": {"secret"}}, s.URL)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, home, resp.Header.Get("Location"))
}

func TestRouteTableParses(t *testing.T) {
	table, err := RouteTable()
	require.NoError(t, err)

	route, ok := table.Match("/user/book/12")
	require.True(t, ok)
	assert.Equal(t, "user-book", route.Page)
	_, ok = table.Lookup("admin-users")
	assert.True(t, ok)
}

func TestNewHandlerRequiresDependencies(t *testing.T) {
	_, err := NewHandler(Dependencies{})
	assert.Error(t, err)
}

func TestNewServerRequiresAddress(t *testing.T) {
	_, err := NewServer(context.Background(), Config{})
	assert.ErrorContains(t, err, "http address")
}

func TestNewServerRejectsBadBackendURL(t *testing.T) {
	_, err := NewServer(context.Background(), Config{HTTPAddr: ":0", Backend: backend.Config{BaseURL: "ftp://nowhere"}})
	assert.ErrorContains(t, err, "configure backend")
}

func TestOperationalEndpoints(t *testing.T) {
	site := newTestSite(t)

	resp, body := site.get(t, routepath.Health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = site.get(t, routepath.Metrics)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = site.get(t, routepath.StaticPrefix+"app.css")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)
}

func TestHomeListsApprovedSpas(t *testing.T) {
	site := newTestSite(t)

	resp, body := site.get(t, routepath.Root)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Serenity Springs")
}

func TestUnknownPathRendersNotFound(t *testing.T) {
	site := newTestSite(t)

	resp, _ := site.get(t, "/nowhere")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnonymousVisitorIsSentToLogin(t *testing.T) {
	site := newTestSite(t)

	for _, path := range []string{routepath.UserProfile, routepath.ClientDashboard, routepath.AdminUsers} {
		resp, _ := site.get(t, path)
		assert.Equal(t, http.StatusFound, resp.StatusCode, path)
		assert.Equal(t, routepath.Login, resp.Header.Get("Location"), path)
	}
}

func TestLoginOpensRoleHomeAndBlocksOtherRoles(t *testing.T) {
	site := newTestSite(t)
	site.login(t)

	resp, body := site.get(t, routepath.UserProfile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Bia")

	resp, _ = site.get(t, routepath.AdminDashboard)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.UserProfile, resp.Header.Get("Location"))

	resp, _ = site.get(t, routepath.Login)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.UserProfile, resp.Header.Get("Location"))
}

func TestLogoutReturnsToAnonymous(t *testing.T) {
	site := newTestSite(t)
	site.login(t)

	resp, _ := site.post(t, routepath.Logout, url.Values{}, site.URL)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.Root, resp.Header.Get("Location"))

	resp, _ = site.get(t, routepath.UserProfile)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.Login, resp.Header.Get("Location"))
}

func TestBadCredentialsStayOnLogin(t *testing.T) {
	site := newTestSite(t)

	resp, _ := site.post(t, routepath.Login, url.Values{"email": {"bia@example.com"}, "password": {"wrong"}}, site.URL)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestCrossOriginFormIsRejected(t *testing.T) {
	site := newTestSite(t)

	resp, _ := site.post(t, routepath.Login, url.Values{"email": {"bia@example.com"}, "password": {"secret"}}, "https://evil.example")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = site.post(t, routepath.Logout, url.Values{}, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUnknownRoleSettlesOnLoginForm(t *testing.T) {
	site := newTestSite(t)
	site.loginAs(t, "odd@example.com", routepath.Root)

	resp, _ := site.get(t, routepath.UserProfile)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.Login, resp.Header.Get("Location"))

	resp, body := site.get(t, routepath.Login)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `name="password"`)

	resp, _ = site.get(t, routepath.Root)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	follow := &http.Client{Jar: site.client.Jar}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, site.URL+routepath.AdminDashboard, nil)
	require.NoError(t, err)
	final, err := follow.Do(req)
	require.NoError(t, err)
	defer final.Body.Close()
	assert.Equal(t, http.StatusOK, final.StatusCode)
	assert.Equal(t, routepath.Login, final.Request.URL.Path)
}

// membershipOf renders the membership pair of state as "name/STATUS".
func membershipOf(state session.State) string {
	who := state.Identity
	if who == nil || who.MembershipName == nil || who.MembershipStatus == nil {
		return ""
	}
	return *who.MembershipName + "/" + string(*who.MembershipStatus)
}

// watch records the membership of every state app publishes until the
// returned func is called.
func watch(t *testing.T, app *sessions.App) func() []string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	done := make(chan []string, 1)
	go func() {
		var seen []string
		for state := range app.Store.Observe(ctx) {
			seen = append(seen, membershipOf(state))
			if len(seen) == 1 {
				close(ready)
			}
		}
		done <- seen
	}()
	<-ready
	stop := func() []string {
		cancel()
		return <-done
	}
	t.Cleanup(cancel)
	return stop
}

func TestMembershipSubscribeThenCancel(t *testing.T) {
	site := newTestSite(t)
	site.login(t)

	resp, body := site.get(t, routepath.UserMembership)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "You have no membership.")
	assert.Contains(t, body, "Gold")

	stop := watch(t, site.app(t))

	resp, _ = site.post(t, routepath.UserMembership, url.Values{"action": {"subscribe"}, "membership_id": {"2"}}, site.URL)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.UserMembership, resp.Header.Get("Location"))

	resp, body = site.get(t, routepath.UserMembership)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Membership requested. An administrator will review it.")
	assert.Contains(t, body, "Current plan: Gold (Pending approval)")

	resp, _ = site.post(t, routepath.UserMembership, url.Values{"action": {"cancel"}}, site.URL)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.UserMembership, resp.Header.Get("Location"))

	resp, body = site.get(t, routepath.UserMembership)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Membership cancelled.")
	assert.Contains(t, body, "Current plan: Gold (Inactive)")

	// Each mutation publishes its optimistic value, then the backend's read.
	// Every membership page load refreshes once more.
	active := "Gold/" + string(identity.MembershipActive)
	pending := "Gold/" + string(identity.MembershipPending)
	inactive := "Gold/" + string(identity.MembershipInactive)
	assert.Equal(t, []string{"", active, pending, pending, inactive, inactive, inactive}, stop())
}

func TestMembershipRejectsUnknownAction(t *testing.T) {
	site := newTestSite(t)
	site.login(t)

	resp, body := site.post(t, routepath.UserMembership, url.Values{"action": {"upgrade"}}, site.URL)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "You have no membership.")
	assert.Nil(t, site.app(t).Store.Current().Identity.MembershipName)
}

func TestProfileUpdatePublishesIdentity(t *testing.T) {
	site := newTestSite(t)
	site.login(t)

	resp, _ := site.post(t, routepath.UserProfile, url.Values{
		"first_name": {"Beatriz"},
		"last_name":  {"Souza"},
		"phone":      {"+55 11 5555-0100"},
	}, site.URL)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.UserProfile, resp.Header.Get("Location"))

	who := site.app(t).Store.Current().Identity
	require.NotNil(t, who)
	assert.Equal(t, "Beatriz", who.FirstName)
	assert.Equal(t, "+55 11 5555-0100", who.Phone)

	resp, body := site.get(t, routepath.UserProfile)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Profile saved.")
	assert.Contains(t, body, "Beatriz")
}

func TestSpaApprovalInvalidatesCatalog(t *testing.T) {
	store, err := websqlite.Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	site := newTestSiteWithCache(t, store)

	site.get(t, routepath.Root)
	site.get(t, routepath.Root)
	calls, _ := site.api.counts()
	require.Equal(t, 1, calls, "second home page load should be served from cache")

	site.loginAs(t, "root@example.com", routepath.AdminDashboard)
	resp, _ := site.post(t, routepath.AdminSpaApprovals, url.Values{"spa_id": {"5"}, "status": {"APPROVED"}}, site.URL)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, routepath.AdminSpaApprovals, resp.Header.Get("Location"))

	resp, body := site.get(t, routepath.Root)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Serenity Springs")
	calls, approvals := site.api.counts()
	assert.Equal(t, []string{"5=APPROVED"}, approvals)
	assert.Equal(t, 2, calls)
}

func TestSpaApprovalRejectsUnknownVerdict(t *testing.T) {
	site := newTestSite(t)
	site.loginAs(t, "root@example.com", routepath.AdminDashboard)

	resp, _ := site.post(t, routepath.AdminSpaApprovals, url.Values{"spa_id": {"5"}, "status": {"MAYBE"}}, site.URL)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_, approvals := site.api.counts()
	assert.Empty(t, approvals)
}
