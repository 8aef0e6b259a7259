// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// joinColumns places two rendered blocks side by side with a fixed gap.
func joinColumns(left, right string, gap int) string {
	spacer := strings.Repeat(" ", gap)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, spacer, right)
}
