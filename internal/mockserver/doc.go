// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package mockserver is a development stand-in for the SCM Lite backend.
//
// It speaks the same HTTP contract the client does: login with optional
// step-up, bearer-token verification, device telemetry, shipments and
// account lookup. State is in memory and dies with the process; the
// telemetry feed is synthesized the way the production pipeline's
// device simulator generates it.
//
// Not a production server. No persistence, no TLS, no real email.
package mockserver
