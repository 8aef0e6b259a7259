// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the SCM Lite backend.
//
// The backend owns authentication, the shipment store and the device
// telemetry store; this package only speaks its HTTP contract. Privileged
// endpoints carry the credential as an Authorization bearer header. The
// client never interprets the credential itself: validity is whatever the
// backend says it is.
//
// Errors are categorized with ErrorType so callers can tell an auth
// rejection (which tears the session down) apart from a transient network
// failure (which a polling cycle survives):
//
//	records, err := client.DeviceData(ctx, cred)
//	if api.IsAuthRejected(err) {
//	    // session guard territory
//	}
package api
