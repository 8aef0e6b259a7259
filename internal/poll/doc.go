// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package poll runs the recurring telemetry fetch-render cycle.
//
// An Engine owns at most one active cycle. Starting a cycle cancels any
// previous one, fetches immediately, then refetches on a fixed interval.
// A generation counter stamped on each cycle makes late responses from a
// superseded cycle detectable so they are dropped instead of rendered.
package poll
