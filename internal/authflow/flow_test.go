// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authflow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/token"
)

// fakeAuth scripts backend responses and records what was sent.
type fakeAuth struct {
	mu sync.Mutex

	loginResult *api.LoginResult
	loginErr    error
	loginCalls  int

	verifyResult *api.LoginResult
	verifyErr    error
	verifyReqs   []api.StepUpRequest

	// block, when non-nil, holds Login open until closed. Used to test
	// in-flight rejection.
	block chan struct{}
}

func (f *fakeAuth) Login(ctx context.Context, req api.LoginRequest) (*api.LoginResult, error) {
	f.mu.Lock()
	f.loginCalls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return f.loginResult, f.loginErr
}

func (f *fakeAuth) VerifyStepUp(ctx context.Context, req api.StepUpRequest) (*api.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyReqs = append(f.verifyReqs, req)
	return f.verifyResult, f.verifyErr
}

func authenticated(email string) *api.LoginResult {
	return &api.LoginResult{
		AccessToken: "tok-abc",
		TokenType:   "bearer",
		UserData:    api.Profile{Name: "Pat", Email: email},
	}
}

func TestSubmitCredentialsSuccess(t *testing.T) {
	auth := &fakeAuth{loginResult: authenticated("pat@example.com")}
	store := token.NewStore()
	flow := New(auth, store)

	res := flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")
	if res.Outcome != OutcomeAuthenticated {
		t.Fatalf("outcome = %v, want authenticated (%q)", res.Outcome, res.Message)
	}
	if flow.State() != StateAuthenticated {
		t.Errorf("state = %v, want authenticated", flow.State())
	}

	cred, ok := store.Get()
	if !ok || cred != "tok-abc" {
		t.Errorf("store credential = %q, %v", cred, ok)
	}
	if p := store.Profile(); p.Email != "pat@example.com" {
		t.Errorf("profile email = %q", p.Email)
	}
}

func TestSubmitCredentialsValidationSkipsNetwork(t *testing.T) {
	auth := &fakeAuth{loginResult: authenticated("x@example.com")}
	flow := New(auth, token.NewStore())

	cases := []struct {
		name, email, password string
	}{
		{"bad email", "not-an-email", "Abcd1@"},
		{"short password", "x@example.com", "A1@b"},
		{"no special char", "x@example.com", "Abcdef12"},
	}
	for _, tc := range cases {
		res := flow.SubmitCredentials(context.Background(), tc.email, tc.password, "")
		if res.Outcome != OutcomeFailed {
			t.Errorf("%s: outcome = %v, want failed", tc.name, res.Outcome)
		}
		if res.Message == "" {
			t.Errorf("%s: empty failure message", tc.name)
		}
	}
	if auth.loginCalls != 0 {
		t.Errorf("login called %d times for invalid input", auth.loginCalls)
	}
}

func TestSubmitCredentialsBusyKeepsSingleFlight(t *testing.T) {
	auth := &fakeAuth{
		loginResult: authenticated("pat@example.com"),
		block:       make(chan struct{}),
	}
	flow := New(auth, token.NewStore())

	done := make(chan Result, 1)
	go func() {
		done <- flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")
	}()

	// Wait until the first submission is on the wire.
	for {
		auth.mu.Lock()
		started := auth.loginCalls == 1
		auth.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	second := flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")
	if second.Outcome != OutcomeBusy {
		t.Fatalf("second submission outcome = %v, want busy", second.Outcome)
	}

	close(auth.block)
	first := <-done
	if first.Outcome != OutcomeAuthenticated {
		t.Fatalf("first submission outcome = %v", first.Outcome)
	}
	if auth.loginCalls != 1 {
		t.Errorf("login called %d times, want 1", auth.loginCalls)
	}
}

func TestSubmitCredentialsFailureStaysPut(t *testing.T) {
	auth := &fakeAuth{loginErr: &api.ClientError{
		Type:    api.ErrTypeBackend,
		Message: "Invalid credentials",
	}}
	flow := New(auth, token.NewStore())

	res := flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	if flow.State() != StateCredentials {
		t.Errorf("state after failure = %v, want credentials", flow.State())
	}

	// The flow is reusable after a failure.
	auth.loginErr = nil
	auth.loginResult = authenticated("pat@example.com")
	res = flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")
	if res.Outcome != OutcomeAuthenticated {
		t.Fatalf("retry outcome = %v (%q)", res.Outcome, res.Message)
	}
}

func TestStepUpPinsPrincipal(t *testing.T) {
	auth := &fakeAuth{loginResult: &api.LoginResult{
		StepUpRequired:  true,
		PinnedPrincipal: "pat@example.com",
		Message:         "enter the code from your authenticator",
	}}
	flow := New(auth, token.NewStore())

	res := flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")
	if res.Outcome != OutcomeStepUp {
		t.Fatalf("outcome = %v, want step-up", res.Outcome)
	}
	if flow.State() != StateStepUp {
		t.Fatalf("state = %v, want step-up", flow.State())
	}
	if got := flow.PendingPrincipal(); got != "pat@example.com" {
		t.Fatalf("pinned principal = %q", got)
	}

	// Even if the user went back and typed a different email, the code is
	// verified against the principal pinned at step one.
	auth.verifyResult = authenticated("pat@example.com")
	res = flow.SubmitCode(context.Background(), "123456")
	if res.Outcome != OutcomeAuthenticated {
		t.Fatalf("code outcome = %v (%q)", res.Outcome, res.Message)
	}
	if len(auth.verifyReqs) != 1 || auth.verifyReqs[0].PinnedPrincipal != "pat@example.com" {
		t.Errorf("verify requests = %+v", auth.verifyReqs)
	}
	if got := flow.PendingPrincipal(); got != "" {
		t.Errorf("principal still pinned after success: %q", got)
	}
}

func TestSubmitCodeLengthCheckedLocally(t *testing.T) {
	auth := &fakeAuth{loginResult: &api.LoginResult{
		StepUpRequired:  true,
		PinnedPrincipal: "pat@example.com",
	}}
	flow := New(auth, token.NewStore())
	flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")

	for _, code := range []string{"", "12345", "1234567"} {
		res := flow.SubmitCode(context.Background(), code)
		if res.Outcome != OutcomeFailed {
			t.Errorf("code %q: outcome = %v, want failed", code, res.Outcome)
		}
	}
	if len(auth.verifyReqs) != 0 {
		t.Errorf("verify reached the network for invalid codes: %+v", auth.verifyReqs)
	}
}

func TestSubmitCodeFailureStaysInStepUp(t *testing.T) {
	auth := &fakeAuth{
		loginResult: &api.LoginResult{
			StepUpRequired:  true,
			PinnedPrincipal: "pat@example.com",
		},
		verifyErr: &api.ClientError{Type: api.ErrTypeBackend, Message: "wrong code"},
	}
	flow := New(auth, token.NewStore())
	flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")

	res := flow.SubmitCode(context.Background(), "000000")
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	if flow.State() != StateStepUp {
		t.Errorf("state = %v, want step-up retained", flow.State())
	}
	if got := flow.PendingPrincipal(); got != "pat@example.com" {
		t.Errorf("principal lost after failed code: %q", got)
	}
}

func TestSubmitCodeTokenlessSuccessKeepsPin(t *testing.T) {
	auth := &fakeAuth{
		loginResult: &api.LoginResult{
			StepUpRequired:  true,
			PinnedPrincipal: "pat@example.com",
		},
		// A 200 without a token must not advance the flow.
		verifyResult: &api.LoginResult{TokenType: "bearer"},
	}
	flow := New(auth, token.NewStore())
	flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")

	res := flow.SubmitCode(context.Background(), "123456")
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
	if flow.State() != StateStepUp {
		t.Errorf("state = %v, want step-up retained", flow.State())
	}
	if got := flow.PendingPrincipal(); got != "pat@example.com" {
		t.Fatalf("principal lost after token-less response: %q", got)
	}

	// The retry still verifies against the pinned principal.
	auth.mu.Lock()
	auth.verifyResult = authenticated("pat@example.com")
	auth.mu.Unlock()
	res = flow.SubmitCode(context.Background(), "123456")
	if res.Outcome != OutcomeAuthenticated {
		t.Fatalf("retry outcome = %v (%q)", res.Outcome, res.Message)
	}
	if len(auth.verifyReqs) != 2 || auth.verifyReqs[1].PinnedPrincipal != "pat@example.com" {
		t.Errorf("verify requests = %+v", auth.verifyReqs)
	}
}

func TestSubmitCodeOutsideStepUpRejected(t *testing.T) {
	flow := New(&fakeAuth{}, token.NewStore())
	res := flow.SubmitCode(context.Background(), "123456")
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed", res.Outcome)
	}
}

func TestResetReturnsToCredentials(t *testing.T) {
	auth := &fakeAuth{loginResult: &api.LoginResult{
		StepUpRequired:  true,
		PinnedPrincipal: "pat@example.com",
	}}
	flow := New(auth, token.NewStore())
	flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")

	flow.Reset()
	if flow.State() != StateCredentials {
		t.Errorf("state after reset = %v", flow.State())
	}
	if got := flow.PendingPrincipal(); got != "" {
		t.Errorf("principal survives reset: %q", got)
	}
}

func TestHumanChallengeRequired(t *testing.T) {
	auth := &fakeAuth{loginResult: authenticated("pat@example.com")}
	flow := New(auth, token.NewStore())
	flow.RequireHumanChallenge(true)

	res := flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "")
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %v, want failed without proof", res.Outcome)
	}
	if auth.loginCalls != 0 {
		t.Errorf("login reached the network without proof")
	}

	res = flow.SubmitCredentials(context.Background(), "pat@example.com", "Abcd1@", "proof-token")
	if res.Outcome != OutcomeAuthenticated {
		t.Fatalf("with proof: outcome = %v (%q)", res.Outcome, res.Message)
	}
}
