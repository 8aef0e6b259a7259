// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package guard

import (
	"context"
	"sync"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/token"
)

// =============================================================================
// PATHS
// =============================================================================

// View paths mirror the routes of the original web front end. The TUI
// uses them as view identities; "redirect" means a view switch.
const (
	PathRoot      = "/"
	PathLogin     = "/login"
	PathSignup    = "/signup"
	PathDashboard = "/dashboard"
	PathTelemetry = "/device-data-stream"
	PathAccount   = "/myaccount"
	PathShipments = "/myshipment"
)

// publicPaths are reachable without a credential.
var publicPaths = map[string]bool{
	PathRoot:   true,
	PathLogin:  true,
	PathSignup: true,
}

// IsPublic reports whether path is reachable without a credential.
func IsPublic(path string) bool {
	return publicPaths[path]
}

// =============================================================================
// DECISIONS
// =============================================================================

// Decision is the outcome of an Enforce call.
type Decision int

const (
	// DecisionAllow lets the requested view load.
	DecisionAllow Decision = iota

	// DecisionRedirectLogin sends the user to the login view.
	DecisionRedirectLogin

	// DecisionRedirectDashboard sends an already-authenticated user away
	// from the login/signup views to the landing view.
	DecisionRedirectDashboard
)

// =============================================================================
// GUARD
// =============================================================================

// Verifier is the slice of the backend client the guard depends on.
type Verifier interface {
	VerifyCredential(ctx context.Context, credential string) error
}

// Guard evaluates credential presence and backend-observed validity for
// every protected view load and privileged request.
type Guard struct {
	store    *token.Store
	verifier Verifier

	mu         sync.Mutex
	cancelPoll func()
}

// New creates a Guard over the given store and verifier.
func New(store *token.Store, verifier Verifier) *Guard {
	return &Guard{store: store, verifier: verifier}
}

// SetCancelHook registers the function invoked to tear down an active
// polling cycle when the backend rejects the credential. The polling
// engine registers its Stop here.
func (g *Guard) SetCancelHook(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelPoll = fn
}

func (g *Guard) cancelActivePoll() {
	g.mu.Lock()
	fn := g.cancelPoll
	g.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// =============================================================================
// VIEW ENFORCEMENT
// =============================================================================

// Enforce decides whether the view at path may load.
//
// With no credential held, protected paths redirect to login and public
// paths load. In neither case is the network touched. With a credential
// held, one verification round-trip decides: a valid credential on a
// public non-root path bounces to the dashboard (a logged-in user should
// not re-see the login form); a rejected or unverifiable credential
// clears the store and, on protected paths, redirects to login.
func (g *Guard) Enforce(ctx context.Context, path string) Decision {
	cred, held := g.store.Get()

	if !held {
		if IsPublic(path) {
			return DecisionAllow
		}
		return DecisionRedirectLogin
	}

	if err := g.verifier.VerifyCredential(ctx, cred); err != nil {
		// Rejection and transport failure are treated alike: the credential
		// cannot be shown valid, so the session ends. Not retried.
		g.teardown()
		if IsPublic(path) {
			return DecisionAllow
		}
		return DecisionRedirectLogin
	}

	if IsPublic(path) && path != PathRoot {
		return DecisionRedirectDashboard
	}
	return DecisionAllow
}

// =============================================================================
// GUARDED PRIVILEGED CALLS
// =============================================================================

// ErrNoCredential is returned by Do when the store holds no credential.
var ErrNoCredential = &api.ClientError{Type: api.ErrTypeAuthRejected, Message: "no credential held"}

// Do wraps a privileged call: it supplies the bearer credential and
// applies the single failure-handling policy. On a 401/403 outcome the
// token store is cleared, any active polling cycle is canceled, and
// api.ErrAuthRejected is returned for the caller to surface as a
// redirect. All other results pass through unchanged.
//
// Every privileged caller, the polling engine included, must route
// through Do rather than hitting the network directly.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context, credential string) error) error {
	cred, held := g.store.Get()
	if !held {
		return ErrNoCredential
	}

	err := fn(ctx, cred)
	if api.IsAuthRejected(err) {
		g.teardown()
		return api.ErrAuthRejected
	}
	return err
}

// teardown clears session state after a backend rejection. The store is
// cleared wholesale and the polling cancel hook fires.
func (g *Guard) teardown() {
	g.store.Clear()
	g.cancelActivePoll()
}

// Logout explicitly ends the session: same teardown as a rejection, but
// user-driven.
func (g *Guard) Logout() {
	g.teardown()
}
