// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the scmlite TUI.
//
// The helpers here are deliberately dependency-light: rune- and
// width-aware string handling for table layout, and formatting for
// telemetry readings. Anything with domain knowledge lives in its own
// package; util stays generic.
package util
