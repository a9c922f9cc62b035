// Package guard decides whether the current session may open a page.
//
// Decisions wait for the session's bootstrap check, so a signed-in user
// arriving on a protected page is never bounced to the login screen while
// the backend is still being asked who they are.
package guard

import (
	"context"

	"go.uber.org/zap"

	"github.com/louisbranch/spabooking/internal/platform/logging"
	"github.com/louisbranch/spabooking/internal/services/web/identity"
	"github.com/louisbranch/spabooking/internal/services/web/platform/metrics"
	"github.com/louisbranch/spabooking/internal/services/web/routepath"
	"github.com/louisbranch/spabooking/internal/services/web/session"
)

// Outcome is the result of a navigation check.
type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomeRedirect Outcome = "redirect"
)

// Decision is a navigation outcome. Location is set for redirects.
type Decision struct {
	Outcome  Outcome
	Location string
	Reason   string
}

// Allowed reports whether navigation may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

const (
	reasonPublic          = "public"
	reasonUnauthenticated = "unauthenticated"
	reasonRoleMismatch    = "role_mismatch"
	reasonRoleMatch       = "role_match"
)

// Evaluate applies the decision table to an initialized state.
func Evaluate(state session.State, route Route) Decision {
	if route.Public {
		return Decision{Outcome: OutcomeAllow, Reason: reasonPublic}
	}
	if state.Identity == nil {
		return Decision{Outcome: OutcomeRedirect, Location: routepath.Login, Reason: reasonUnauthenticated}
	}
	if state.Identity.Role != route.Role {
		return Decision{
			Outcome:  OutcomeRedirect,
			Location: identity.HomePath(state.Identity.Role),
			Reason:   reasonRoleMismatch,
		}
	}
	return Decision{Outcome: OutcomeAllow, Reason: reasonRoleMatch}
}

// Guard runs navigation checks and records them.
type Guard struct {
	logger *zap.Logger
	stores StoreResolver
}

// New returns a Guard. stores finds the session store of an incoming
// request for Middleware.
func New(logger *zap.Logger, stores StoreResolver) *Guard {
	return &Guard{logger: logging.OrNop(logger), stores: stores}
}

// Check waits until store is initialized, then evaluates route. Public
// routes are allowed without waiting. The only error is ctx's.
func (g *Guard) Check(ctx context.Context, store *session.Store, route Route) (Decision, error) {
	if route.Public {
		return g.record(route, session.State{}, Evaluate(session.State{}, route)), nil
	}
	state, err := store.WaitInitialized(ctx)
	if err != nil {
		return Decision{}, err
	}
	return g.record(route, state, Evaluate(state, route)), nil
}

func (g *Guard) record(route Route, state session.State, decision Decision) Decision {
	role := string(state.Role())
	metrics.RecordGuardDecision(string(decision.Outcome), role)
	g.logger.Debug("navigation decision",
		zap.String("route", route.Path),
		zap.String("required_role", string(route.Role)),
		zap.String("role", role),
		zap.String("outcome", string(decision.Outcome)),
		zap.String("reason", decision.Reason),
		zap.String("location", decision.Location),
	)
	return decision
}
