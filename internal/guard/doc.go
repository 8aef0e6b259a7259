// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package guard gates access to protected views and keeps the token store
// consistent with what the backend actually accepts.
//
// The guard is the single place where a backend rejection turns into a
// session teardown: it clears the token store, cancels any active polling
// cycle through a registered hook, and signals a redirect to the login
// view. No other component is allowed to clear the credential on its own.
//
// Verification failures are never retried automatically; one
// authoritative check per view load or privileged call, which avoids
// redirect loops and silent retry storms.
package guard
