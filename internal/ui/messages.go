// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/authflow"
	"github.com/morganforge/scmlite-tui/internal/guard"
)

// =============================================================================
// NAVIGATION MESSAGES
// =============================================================================

// enforceMsg carries the session guard's decision for a requested path.
type enforceMsg struct {
	path     string
	decision guard.Decision
}

// =============================================================================
// AUTH MESSAGES
// =============================================================================

// loginResultMsg carries the outcome of a credentials submission.
type loginResultMsg struct {
	result authflow.Result
}

// stepUpResultMsg carries the outcome of a step-up code submission.
type stepUpResultMsg struct {
	result authflow.Result
}

// signupResultMsg carries the outcome of a signup request.
type signupResultMsg struct {
	err error
}

// resetResultMsg carries the outcome of a password reset request or
// confirmation.
type resetResultMsg struct {
	confirmed bool
	err       error
}

// =============================================================================
// TELEMETRY MESSAGES
// =============================================================================

// telemetryMsg delivers prepared rows from the polling engine. Sent from
// the engine goroutine via program.Send.
type telemetryMsg struct {
	records   []api.DeviceRecord
	selection string
}

// telemetryClearMsg resets the telemetry table to its placeholder.
type telemetryClearMsg struct{}

// =============================================================================
// DATA MESSAGES
// =============================================================================

// accountMsg carries a fetched profile or the fetch error.
type accountMsg struct {
	profile *api.Profile
	err     error
}

// shipmentsMsg carries the user's shipments or the fetch error.
type shipmentsMsg struct {
	shipments []api.Shipment
	err       error
}

// shipmentCreatedMsg reports the result of a shipment submission.
type shipmentCreatedMsg struct {
	err error
}

// sessionLostMsg is emitted when a privileged call came back with an
// auth rejection; the guard has already drained the session.
type sessionLostMsg struct{}
