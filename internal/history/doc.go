// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history records rendered telemetry locally for offline review.
//
// The store is a small SQLite database under the app directory. Each
// rendered sample is appended; retention is bounded, with the oldest
// rows pruned once the configured cap is exceeded.
package history
