// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package token holds the client's single credential slot.
//
// The Store is a process-wide holder for the bearer credential issued by
// the backend, together with the minimal profile cached for immediate
// display. It is intentionally dumb: it performs no network I/O and makes
// no decisions about when the slot should be cleared. That policy belongs
// to the session guard (on rejection), the auth flow (on success), and the
// explicit logout action: nothing else may write here.
//
// Presence is binary: the slot either holds a credential or it does not.
// Validity is only ever learned from a round-trip to the backend.
package token
