package live

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"
	"go.uber.org/goleak"
	"golang.org/x/text/language"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/guard"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	webi18n "github.com/louisbranch/spabooking/internal/services/web/platform/i18n"
	"github.com/louisbranch/spabooking/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/spabooking/internal/services/web/session"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var errNoSession = errors.New("no session")

type stubBackend struct {
	who identity.Identity
}

func (b *stubBackend) Me(context.Context) (identity.Identity, error) {
	return identity.Identity{}, errNoSession
}

func (b *stubBackend) Login(context.Context, backend.LoginRequest) (identity.Identity, error) {
	return b.who, nil
}

func (b *stubBackend) Logout(context.Context) error { return nil }

func (b *stubBackend) UpdateProfile(context.Context, backend.ProfileUpdateRequest) (identity.Identity, error) {
	return b.who, nil
}

func (b *stubBackend) SubscribeMembership(context.Context, int64) (identity.Identity, error) {
	return b.who, nil
}

func (b *stubBackend) CancelMembership(context.Context) (identity.Identity, error) {
	return b.who, nil
}

const testTable = `
routes:
  - {path: "/", page: home, public: true}
  - {path: "/user/profile", page: user-profile, role: USER}
`

func startLive(t *testing.T) (*session.Synchronizer, string) {
	t.Helper()
	table, err := guard.ParseTable([]byte(testTable))
	if err != nil {
		t.Fatalf("parse table: %v", err)
	}
	store := session.NewStore()
	syncer := session.NewSynchronizer(store, &stubBackend{who: identity.Identity{
		ID: 3, FirstName: "Ana", LastName: "Lima", Role: identity.RoleUser,
	}}, nil)
	syncer.Bootstrap(context.Background())

	handler := NewHandler(table, func(*http.Request) (*session.Store, bool) {
		return store, true
	}, requestmeta.SchemePolicy{}, nil)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return syncer, srv.URL
}

func dial(t *testing.T, base, path string, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	target := "ws" + strings.TrimPrefix(base, "http") + "/live/session?path=" + path
	return websocket.DefaultDialer.Dial(target, header)
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("set deadline: %v", err)
	}
	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg
}

func TestStreamFollowsLoginAndLogout(t *testing.T) {
	syncer, base := startLive(t)

	conn, _, err := dial(t, base, "/user/profile", base)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if diff := cmp.Diff(Message{Redirect: "/login"}, readMessage(t, conn)); diff != "" {
		t.Fatalf("initial message mismatch (-want +got):\n%s", diff)
	}

	if _, err := syncer.Login(context.Background(), backend.LoginRequest{}); err != nil {
		t.Fatalf("login: %v", err)
	}
	want := Message{Authenticated: true, Role: "USER", Name: "Ana Lima"}
	if diff := cmp.Diff(want, readMessage(t, conn)); diff != "" {
		t.Fatalf("login message mismatch (-want +got):\n%s", diff)
	}

	syncer.Logout(context.Background())
	if diff := cmp.Diff(Message{Redirect: "/login"}, readMessage(t, conn)); diff != "" {
		t.Fatalf("logout message mismatch (-want +got):\n%s", diff)
	}
}

func TestCrossOriginRefused(t *testing.T) {
	_, base := startLive(t)

	conn, resp, err := dial(t, base, "/", "https://evil.example")
	if err == nil {
		conn.Close()
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Fatalf("response = %v, want 403", resp)
	}
}

func TestBuild(t *testing.T) {
	loc := webi18n.New(language.AmericanEnglish)
	profile := guard.Route{Path: "/user/profile", Role: identity.RoleUser}
	dashboard := guard.Route{Path: "/admin/dashboard", Role: identity.RoleAdmin}
	user := &identity.Identity{
		FirstName:        "Ana",
		Role:             identity.RoleUser,
		MembershipName:   identity.StringPtr("Gold"),
		MembershipStatus: identity.StatusPtr(identity.MembershipActive),
	}

	tests := []struct {
		name  string
		state session.State
		route *guard.Route
		want  Message
	}{
		{
			name:  "outside table never redirects",
			state: session.State{Initialized: true},
			want:  Message{},
		},
		{
			name:  "allowed page",
			state: session.State{Identity: user, Initialized: true},
			route: &profile,
			want:  Message{Authenticated: true, Role: "USER", Name: "Ana", Membership: "Gold · Active"},
		},
		{
			name:  "role mismatch goes home",
			state: session.State{Identity: user, Initialized: true},
			route: &dashboard,
			want:  Message{Authenticated: true, Role: "USER", Name: "Ana", Membership: "Gold · Active", Redirect: "/user/profile"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, Build(tc.state, tc.route, loc)); diff != "" {
				t.Fatalf("Build mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
