// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package token

import "sync"

// =============================================================================
// PROFILE
// =============================================================================

// Profile is the display name and email cached alongside the credential.
// It is not authoritative; the account view refreshes it from the backend.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// =============================================================================
// STORE
// =============================================================================

// Store is the single credential slot for the running client.
//
// At most one credential is held at a time. Set overwrites wholesale and
// Clear removes credential and profile together; the slot is never
// partially cleared. The mutex exists because Bubble Tea commands run in
// goroutines; ownership of writes is a matter of API surface, not locking.
type Store struct {
	mu         sync.RWMutex
	credential string
	profile    Profile
}

// NewStore creates an empty credential store.
func NewStore() *Store {
	return &Store{}
}

// Set stores a credential and its profile, overwriting any existing value.
// There are no merge semantics.
func (s *Store) Set(credential string, profile Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	s.profile = profile
}

// Get returns the held credential, if any. The second return value is
// false when the slot is empty.
func (s *Store) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.credential == "" {
		return "", false
	}
	return s.credential, true
}

// Profile returns the cached profile. Zero-valued when the slot is empty.
func (s *Store) Profile() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Clear removes the credential and profile together. Idempotent.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	s.profile = Profile{}
}
