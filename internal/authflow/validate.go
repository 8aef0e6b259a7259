// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package authflow

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// =============================================================================
// CLIENT-SIDE VALIDATION
// =============================================================================

// StepUpCodeLength is the exact length a step-up code must have.
const StepUpCodeLength = 6

// emailPattern matches the address shapes the backend accepts.
var emailPattern = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// passwordSpecials are the special characters counted toward password
// strength.
const passwordSpecials = "@$!%*?&#"

// ValidEmail reports whether email looks like an address worth sending to
// the backend.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidPassword enforces the strength rule: at least 6 characters with at
// least one lowercase letter, one uppercase letter, one digit and one
// special character.
func ValidPassword(password string) bool {
	if utf8.RuneCountInString(password) < 6 {
		return false
	}
	var lower, upper, digit, special bool
	for _, r := range password {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSpecials, r):
			special = true
		}
	}
	return lower && upper && digit && special
}

// ValidStepUpCode reports whether code has the exact required length.
func ValidStepUpCode(code string) bool {
	return len(code) == StepUpCodeLength
}
