// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strconv"

	"github.com/mattn/go-runewidth"
)

// UNICODE: Rune-aware truncation preserves multi-byte characters.
// Telemetry routes contain city names that are not guaranteed to be ASCII,
// so all table layout goes through these width-aware helpers.

// TruncateRunes truncates a string to a maximum number of runes.
// If the string is truncated, "..." is appended.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// TruncateWidth truncates a string to a maximum display width, accounting
// for double-width (CJK) characters.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

// PadWidth pads a string with spaces on the right to an exact display
// width, truncating first if it is too wide. Used for fixed-width table
// columns.
func PadWidth(s string, width int) string {
	return runewidth.FillRight(TruncateWidth(s, width), width)
}

// IntToString converts an int to its decimal string form.
func IntToString(n int) string {
	return strconv.Itoa(n)
}

// FormatVoltage renders a battery reading like "3.72 V".
func FormatVoltage(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + " V"
}

// FormatTemperature renders a sensor reading like "23.5 °C".
func FormatTemperature(t float64) string {
	return strconv.FormatFloat(t, 'f', 1, 64) + " °C"
}
