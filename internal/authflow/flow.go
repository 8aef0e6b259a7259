// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authflow

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/token"
)

// =============================================================================
// STATES AND OUTCOMES
// =============================================================================

// State is the login flow's current step.
type State int

const (
	// StateCredentials is the initial step: email and password.
	StateCredentials State = iota

	// StateStepUp is the second-factor step for a pinned principal.
	StateStepUp

	// StateAuthenticated is terminal: a credential has been persisted.
	StateAuthenticated
)

// String returns the state name for status display.
func (s State) String() string {
	switch s {
	case StateCredentials:
		return "credentials"
	case StateStepUp:
		return "step-up"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Outcome classifies the result of a submission.
type Outcome int

const (
	// OutcomeFailed means the submission did not advance the flow; the
	// Message says why. The state is unchanged.
	OutcomeFailed Outcome = iota

	// OutcomeStepUp means the backend wants a second factor.
	OutcomeStepUp

	// OutcomeAuthenticated means a credential was persisted.
	OutcomeAuthenticated

	// OutcomeBusy means another submission is already in flight; this one
	// was dropped, not queued.
	OutcomeBusy
)

// Result is what a submission produced.
type Result struct {
	Outcome Outcome

	// Message is the text to surface inline for OutcomeFailed, or the
	// backend's challenge message for OutcomeStepUp.
	Message string
}

// =============================================================================
// FLOW
// =============================================================================

// Authenticator is the slice of the backend client the flow depends on.
type Authenticator interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.LoginResult, error)
	VerifyStepUp(ctx context.Context, req api.StepUpRequest) (*api.LoginResult, error)
}

// Flow is the login state machine's working memory. Create one when the
// login view is entered and drop it on success or navigation away.
type Flow struct {
	mu               sync.Mutex
	state            State
	pendingPrincipal string
	inFlight         bool

	// requireProof demands a human-challenge proof with the primary
	// credentials when the deployment enables one.
	requireProof bool

	auth  Authenticator
	store *token.Store
}

// New creates a Flow in StateCredentials.
func New(auth Authenticator, store *token.Store) *Flow {
	return &Flow{auth: auth, store: store}
}

// RequireHumanChallenge makes the credentials step demand a proof value.
func (f *Flow) RequireHumanChallenge(required bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requireProof = required
}

// State returns the flow's current step.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// PendingPrincipal returns the email pinned for step-up, empty outside
// StateStepUp.
func (f *Flow) PendingPrincipal() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pendingPrincipal
}

// Reset returns the flow to StateCredentials and forgets the pinned
// principal. Used when the login view is re-entered.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateCredentials
	f.pendingPrincipal = ""
	f.inFlight = false
}

// =============================================================================
// SUBMISSIONS
// =============================================================================

// SubmitCredentials runs the primary credentials step. Validation failures
// never reach the network. The call blocks on the backend round-trip, so
// run it inside a command goroutine.
func (f *Flow) SubmitCredentials(ctx context.Context, email, password, proof string) Result {
	email = strings.TrimSpace(email)

	f.mu.Lock()
	if f.state != StateCredentials {
		f.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Message: "not at the credentials step"}
	}
	if f.inFlight {
		f.mu.Unlock()
		return Result{Outcome: OutcomeBusy}
	}

	// Client validation before anything touches the network.
	if !ValidEmail(email) {
		f.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Message: "Invalid email!"}
	}
	if !ValidPassword(password) {
		f.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Message: "Weak password! Must contain: min 6 chars, upper, lower, digit, special char."}
	}
	if f.requireProof && proof == "" {
		f.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Message: "Please complete the verification challenge."}
	}

	f.inFlight = true
	f.mu.Unlock()

	result, err := f.auth.Login(ctx, api.LoginRequest{
		Email:               email,
		Password:            password,
		HumanChallengeProof: proof,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		return Result{Outcome: OutcomeFailed, Message: failureMessage(err)}
	}

	if result.StepUpRequired {
		// Pin the principal the backend validated, not whatever is in the
		// email field by now.
		principal := result.PinnedPrincipal
		if principal == "" {
			principal = email
		}
		f.pendingPrincipal = principal
		f.state = StateStepUp
		return Result{Outcome: OutcomeStepUp, Message: result.Message}
	}

	return f.finishLocked(result)
}

// SubmitCode runs the step-up verification step with the pinned principal.
func (f *Flow) SubmitCode(ctx context.Context, code string) Result {
	code = strings.TrimSpace(code)

	f.mu.Lock()
	if f.state != StateStepUp {
		f.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Message: "not at the step-up step"}
	}
	if f.inFlight {
		f.mu.Unlock()
		return Result{Outcome: OutcomeBusy}
	}
	if !ValidStepUpCode(code) {
		f.mu.Unlock()
		return Result{Outcome: OutcomeFailed, Message: "Verification code must be exactly 6 characters."}
	}

	principal := f.pendingPrincipal
	f.inFlight = true
	f.mu.Unlock()

	result, err := f.auth.VerifyStepUp(ctx, api.StepUpRequest{
		PinnedPrincipal: principal,
		Code:            code,
	})

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight = false

	if err != nil {
		return Result{Outcome: OutcomeFailed, Message: failureMessage(err)}
	}

	outcome := f.finishLocked(result)
	if outcome.Outcome == OutcomeAuthenticated {
		f.pendingPrincipal = ""
	}
	return outcome
}

// finishLocked persists the credential and moves to the terminal state.
// Caller holds f.mu.
func (f *Flow) finishLocked(result *api.LoginResult) Result {
	if result.AccessToken == "" {
		return Result{Outcome: OutcomeFailed, Message: "Login failed: token missing."}
	}

	profile := token.Profile{Name: result.UserData.Name, Email: result.UserData.Email}
	f.store.Set(result.AccessToken, profile)
	f.state = StateAuthenticated
	return Result{Outcome: OutcomeAuthenticated}
}

// failureMessage renders a backend or transport error as inline status
// text.
func failureMessage(err error) string {
	if api.IsTimeout(err) {
		return "Server timed out. Try again."
	}
	var clientErr *api.ClientError
	if errors.As(err, &clientErr) && clientErr.Type == api.ErrTypeConnection {
		return "Server error! Check that the backend is running."
	}
	return err.Error()
}
