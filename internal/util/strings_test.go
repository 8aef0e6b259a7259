// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the scmlite TUI.
package util

import "testing"

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxRunes int
		want     string
	}{
		{"shorter than max", "Chennai", 10, "Chennai"},
		{"exactly max", "London", 6, "London"},
		{"truncated with ellipsis", "Bengaluru, India", 10, "Bengalu..."},
		{"zero max", "Chennai", 0, ""},
		{"tiny max", "Chennai", 2, "Ch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.input, tt.maxRunes); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.maxRunes, got, tt.want)
			}
		})
	}
}

func TestPadWidth(t *testing.T) {
	got := PadWidth("1150", 8)
	if len(got) != 8 {
		t.Errorf("PadWidth should produce width 8, got %q (len %d)", got, len(got))
	}
	if got[:4] != "1150" {
		t.Errorf("PadWidth should preserve content, got %q", got)
	}

	// Too-wide input gets truncated to the column width.
	wide := PadWidth("Newyork,USA and beyond", 10)
	if w := len([]rune(wide)); w != 10 {
		t.Errorf("PadWidth of wide input should clamp to 10 runes, got %d (%q)", w, wide)
	}
}

func TestFormatVoltage(t *testing.T) {
	if got := FormatVoltage(3.7); got != "3.70 V" {
		t.Errorf("FormatVoltage(3.7) = %q, want \"3.70 V\"", got)
	}
}

func TestFormatTemperature(t *testing.T) {
	if got := FormatTemperature(23.45); got != "23.5 °C" {
		t.Errorf("FormatTemperature(23.45) = %q, want \"23.5 °C\"", got)
	}
}
