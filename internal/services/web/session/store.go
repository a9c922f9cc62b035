package session

import (
	"context"
	"iter"
	"sync"

	"github.com/louisbranch/spabooking/internal/services/web/identity"
)

// State is one snapshot of the session.
//
// A nil Identity means "not authenticated". Initialized stays false until the
// bootstrap check completes; decisions taken before that are invalid.
// Identity values are shared between observers and must be treated as
// read-only.
type State struct {
	Identity    *identity.Identity
	Initialized bool
}

// Authenticated reports whether the state carries an identity.
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// Role returns the identity role, or "" when unauthenticated.
func (s State) Role() identity.Role {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Role
}

// Store holds the session state and multicasts every change.
type Store struct {
	mu        sync.Mutex
	state     State
	observers []*observer
}

// NewStore returns an uninitialized, unauthenticated store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the latest snapshot without blocking on observers.
func (s *Store) Current() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Observe returns a sequence that yields the current state, then every later
// change in the order it was applied.
//
// Each range over the sequence is an independent subscription, so the
// sequence can be restarted. Iteration ends when the loop body stops or ctx
// is done.
func (s *Store) Observe(ctx context.Context) iter.Seq[State] {
	return func(yield func(State) bool) {
		done := ctx
		if done == nil {
			done = context.Background()
		}
		o := s.subscribe()
		defer s.unsubscribe(o)
		for {
			state, ok := o.next(done)
			if !ok || !yield(state) {
				return
			}
		}
	}
}

// WaitInitialized blocks until the bootstrap check has completed and returns
// the first initialized state, or ctx's error.
func (s *Store) WaitInitialized(ctx context.Context) (State, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	for state := range s.Observe(ctx) {
		if state.Initialized {
			return state, nil
		}
	}
	return State{}, ctx.Err()
}

// set replaces the identity and notifies every observer before returning.
func (s *Store) set(who *identity.Identity) State {
	return s.apply(func(state *State) {
		state.Identity = snapshot(who)
	})
}

// initialize replaces the identity and marks bootstrap complete in a single
// transition.
func (s *Store) initialize(who *identity.Identity) State {
	return s.apply(func(state *State) {
		state.Identity = snapshot(who)
		state.Initialized = true
	})
}

// markInitialized completes bootstrap without touching the identity. It is a
// no-op when the store is already initialized.
func (s *Store) markInitialized() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Initialized {
		s.state.Initialized = true
		s.notifyLocked()
	}
	return s.state
}

func (s *Store) apply(mutate func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	mutate(&s.state)
	s.notifyLocked()
	return s.state
}

func (s *Store) notifyLocked() {
	for _, o := range s.observers {
		o.push(s.state)
	}
}

func (s *Store) subscribe() *observer {
	o := newObserver()
	s.mu.Lock()
	defer s.mu.Unlock()
	o.push(s.state)
	s.observers = append(s.observers, o)
	return o
}

func (s *Store) unsubscribe(target *observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.observers {
		if o == target {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Store) observerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func snapshot(who *identity.Identity) *identity.Identity {
	if who == nil {
		return nil
	}
	normalized := who.Normalize()
	return &normalized
}

// observer is an unbounded FIFO mailbox. push never blocks the writer; the
// reader drains at its own pace and sees every state exactly once.
type observer struct {
	mu      sync.Mutex
	pending []State
	signal  chan struct{}
}

func newObserver() *observer {
	return &observer{signal: make(chan struct{}, 1)}
}

func (o *observer) push(state State) {
	o.mu.Lock()
	o.pending = append(o.pending, state)
	o.mu.Unlock()
	select {
	case o.signal <- struct{}{}:
	default:
	}
}

func (o *observer) next(ctx context.Context) (State, bool) {
	for {
		o.mu.Lock()
		if len(o.pending) > 0 {
			state := o.pending[0]
			o.pending[0] = State{}
			o.pending = o.pending[1:]
			o.mu.Unlock()
			return state, true
		}
		o.mu.Unlock()

		select {
		case <-o.signal:
		case <-ctx.Done():
			return State{}, false
		}
	}
}
