package session

import (
	"context"
	"errors"
	"sync"

	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
)

var errBackendDown = apperrors.E(apperrors.KindUnavailable, "backend unavailable")

type fakeBackend struct {
	mu          sync.Mutex
	meCalls     int
	logoutCalls int

	me        func(context.Context) (identity.Identity, error)
	login     func(context.Context, backend.LoginRequest) (identity.Identity, error)
	logout    func(context.Context) error
	profile   func(context.Context, backend.ProfileUpdateRequest) (identity.Identity, error)
	subscribe func(context.Context, int64) (identity.Identity, error)
	cancel    func(context.Context) (identity.Identity, error)
}

func (f *fakeBackend) Me(ctx context.Context) (identity.Identity, error) {
	f.mu.Lock()
	f.meCalls++
	fn := f.me
	f.mu.Unlock()
	if fn == nil {
		return identity.Identity{}, apperrors.E(apperrors.KindUnauthorized, "no session")
	}
	return fn(ctx)
}

func (f *fakeBackend) Login(ctx context.Context, req backend.LoginRequest) (identity.Identity, error) {
	if f.login == nil {
		return identity.Identity{}, errors.New("login not stubbed")
	}
	return f.login(ctx, req)
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	f.mu.Unlock()
	if f.logout == nil {
		return nil
	}
	return f.logout(ctx)
}

func (f *fakeBackend) UpdateProfile(ctx context.Context, req backend.ProfileUpdateRequest) (identity.Identity, error) {
	return f.profile(ctx, req)
}

func (f *fakeBackend) SubscribeMembership(ctx context.Context, membershipID int64) (identity.Identity, error) {
	return f.subscribe(ctx, membershipID)
}

func (f *fakeBackend) CancelMembership(ctx context.Context) (identity.Identity, error) {
	return f.cancel(ctx)
}

func (f *fakeBackend) setMe(fn func(context.Context) (identity.Identity, error)) {
	f.mu.Lock()
	f.me = fn
	f.mu.Unlock()
}

func (f *fakeBackend) counts() (me, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls, f.logoutCalls
}

func returns(who identity.Identity) func(context.Context) (identity.Identity, error) {
	return func(context.Context) (identity.Identity, error) { return who, nil }
}

func fails(err error) func(context.Context) (identity.Identity, error) {
	return func(context.Context) (identity.Identity, error) { return identity.Identity{}, err }
}

// gated blocks until release is closed, then returns who.
func gated(release <-chan struct{}, who identity.Identity) func(context.Context) (identity.Identity, error) {
	return func(ctx context.Context) (identity.Identity, error) {
		select {
		case <-release:
			return who, nil
		case <-ctx.Done():
			return identity.Identity{}, ctx.Err()
		}
	}
}

func user(id int64) identity.Identity {
	return identity.Identity{ID: id, Email: "user@example.com", FirstName: "Ana", Role: identity.RoleUser}
}

func member(id int64, name string, status identity.MembershipStatus) identity.Identity {
	who := user(id)
	who.MembershipName = identity.StringPtr(name)
	who.MembershipStatus = identity.StatusPtr(status)
	return who
}
