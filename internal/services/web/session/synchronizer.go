package session

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	platformotel "github.com/louisbranch/spabooking/internal/platform/otel"
	"github.com/louisbranch/spabooking/internal/services/web/backend"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
)

const tracerName = "github.com/louisbranch/spabooking/internal/services/web/session"

// ErrSuperseded reports that a login or logout happened while the operation
// was in flight, so its result was not applied.
var ErrSuperseded = errors.New("session changed while the request was in flight")

// Backend is the subset of the REST API the synchronizer reconciles with.
type Backend interface {
	Me(ctx context.Context) (identity.Identity, error)
	Login(ctx context.Context, req backend.LoginRequest) (identity.Identity, error)
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, req backend.ProfileUpdateRequest) (identity.Identity, error)
	SubscribeMembership(ctx context.Context, membershipID int64) (identity.Identity, error)
	CancelMembership(ctx context.Context) (identity.Identity, error)
}

// Synchronizer is the only writer of a Store.
//
// Login and Logout open a new epoch. Refreshes and optimistic updates that
// started in an older epoch are dropped, so a slow response can never
// resurrect an identity the user already logged out of.
type Synchronizer struct {
	store   *Store
	backend Backend
	logger  *zap.Logger
	tracer  trace.Tracer

	bootstrap sync.Once

	mu    sync.Mutex
	epoch uint64
}

// NewSynchronizer binds store to backend.
func NewSynchronizer(store *Store, api Backend, logger *zap.Logger) *Synchronizer {
	return &Synchronizer{
		store:   store,
		backend: api,
		logger:  logging.OrNop(logger),
		tracer:  platformotel.Tracer(tracerName),
	}
}

// Bootstrap asks the backend who is logged in and marks the store
// initialized. It runs once per Synchronizer; later calls return
// immediately. Failures mean "not logged in" and are never returned.
func (s *Synchronizer) Bootstrap(ctx context.Context) {
	s.bootstrap.Do(func() {
		ctx, span := s.tracer.Start(ctx, "session.Bootstrap")
		defer span.End()

		started := s.currentEpoch()
		var next *identity.Identity
		who, err := s.backend.Me(ctx)
		if err != nil {
			s.logger.Debug("bootstrap found no backend session", zap.Error(err))
		} else {
			next = &who
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.epoch != started {
			// A login or logout already decided the identity.
			s.store.markInitialized()
			return
		}
		s.store.initialize(next)
	})
}

// Login authenticates and publishes the identity. On failure the store is
// unchanged and the backend error is returned as is.
func (s *Synchronizer) Login(ctx context.Context, req backend.LoginRequest) (identity.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "session.Login")
	defer span.End()

	who, err := s.backend.Login(ctx, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return identity.Identity{}, err
	}

	s.mu.Lock()
	s.epoch++
	state := s.store.set(&who)
	s.mu.Unlock()

	s.logger.Info("login", zap.Int64("user_id", who.ID), zap.String("role", string(who.Role)))
	return state.Identity.Clone(), nil
}

// Logout ends the backend session and always clears the identity. A backend
// failure is logged, never returned.
func (s *Synchronizer) Logout(ctx context.Context) {
	ctx, span := s.tracer.Start(ctx, "session.Logout")
	defer span.End()

	if err := s.backend.Logout(ctx); err != nil {
		span.RecordError(err)
		s.logger.Warn("backend logout failed; clearing local identity anyway", zap.Error(err))
	}

	s.mu.Lock()
	s.epoch++
	s.store.set(nil)
	s.mu.Unlock()
}

// Expire handles a backend 401 on a non-auth call: the backend session is
// gone, so the local identity is cleared through the logout path.
func (s *Synchronizer) Expire(ctx context.Context) {
	if !s.store.Current().Authenticated() {
		return
	}
	s.logger.Info("backend rejected session; clearing identity")
	s.Logout(context.WithoutCancel(ctx))
}

// Refresh re-reads the identity from the backend and publishes it. On
// failure the store is unchanged.
func (s *Synchronizer) Refresh(ctx context.Context) (identity.Identity, error) {
	ctx, span := s.tracer.Start(ctx, "session.Refresh")
	defer span.End()
	return s.refreshSince(ctx, s.currentEpoch())
}

// UpdateProfile saves profile fields and refreshes the identity.
func (s *Synchronizer) UpdateProfile(ctx context.Context, req backend.ProfileUpdateRequest) (identity.Identity, error) {
	return s.mutate(ctx, "session.UpdateProfile",
		func(ctx context.Context) (identity.Identity, error) {
			return s.backend.UpdateProfile(ctx, req)
		},
		func(resp identity.Identity) identity.Identity {
			return resp
		},
	)
}

// SubscribeMembership subscribes to a plan. The identity is published as
// ACTIVE right away, then replaced by the backend's view.
func (s *Synchronizer) SubscribeMembership(ctx context.Context, membershipID int64) (identity.Identity, error) {
	return s.mutate(ctx, "session.SubscribeMembership",
		func(ctx context.Context) (identity.Identity, error) {
			return s.backend.SubscribeMembership(ctx, membershipID)
		},
		func(resp identity.Identity) identity.Identity {
			return resp.WithMembershipStatus(identity.MembershipActive, nil)
		},
	)
}

// CancelMembership cancels the membership. The identity is published as
// INACTIVE right away, then replaced by the backend's view.
func (s *Synchronizer) CancelMembership(ctx context.Context) (identity.Identity, error) {
	var current *string
	if who := s.store.Current().Identity; who != nil && who.MembershipName != nil {
		name := *who.MembershipName
		current = &name
	}
	return s.mutate(ctx, "session.CancelMembership",
		func(ctx context.Context) (identity.Identity, error) {
			return s.backend.CancelMembership(ctx)
		},
		func(resp identity.Identity) identity.Identity {
			return resp.WithMembershipStatus(identity.MembershipInactive, current)
		},
	)
}

// mutate runs the optimistic update pattern: apply the mutation response
// with the expected outcome, then overwrite it with a fresh read. A failed
// read keeps the optimistic value.
func (s *Synchronizer) mutate(
	ctx context.Context,
	name string,
	call func(context.Context) (identity.Identity, error),
	optimistic func(identity.Identity) identity.Identity,
) (identity.Identity, error) {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	started := s.currentEpoch()
	resp, err := call(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return identity.Identity{}, err
	}

	local := optimistic(resp).Normalize()
	if !s.applyIfCurrent(started, &local) {
		return identity.Identity{}, ErrSuperseded
	}

	authoritative, err := s.refreshSince(ctx, started)
	switch {
	case errors.Is(err, ErrSuperseded):
		return identity.Identity{}, err
	case err != nil:
		s.logger.Warn("refresh after update failed; keeping optimistic identity",
			zap.String("operation", name),
			zap.Error(err),
		)
		return local, nil
	}
	return authoritative, nil
}

func (s *Synchronizer) refreshSince(ctx context.Context, started uint64) (identity.Identity, error) {
	who, err := s.backend.Me(ctx)
	if err != nil {
		return identity.Identity{}, err
	}
	if !s.applyIfCurrent(started, &who) {
		return identity.Identity{}, ErrSuperseded
	}
	return who.Normalize(), nil
}

func (s *Synchronizer) applyIfCurrent(started uint64, who *identity.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != started {
		return false
	}
	s.store.set(who)
	return true
}

func (s *Synchronizer) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}
