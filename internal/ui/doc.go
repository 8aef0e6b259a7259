// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the Bubble Tea front end: the root model, the
// per-screen subviews and the sink that feeds telemetry batches from the
// polling engine into the event loop.
//
// View switching always goes through the session guard. A subview never
// loads without the guard ruling on its route first, and an auth
// rejection anywhere bounces the whole application back to the sign-in
// screen with the session drained.
package ui
