// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package authflow drives the login form through its steps.
//
// The flow is a small state machine: Credentials, then an optional
// StepUp challenge when the backend asks for a second factor, then
// Authenticated. Failure is not a state; a failed submission surfaces
// its message and leaves the machine where it was.
//
// The principal used for step-up verification is pinned from the
// backend's challenge response, never re-read from the email field.
// Editing the field between the two submissions therefore cannot
// desynchronize the step-up call from the originally validated
// credentials.
//
// A submission in flight blocks further submissions: the second submit is
// rejected silently rather than queued.
package authflow
