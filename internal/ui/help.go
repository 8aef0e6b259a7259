// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	_ "embed"

	"github.com/charmbracelet/glamour"

	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

//go:embed help.md
var helpMarkdown string

// helpModel renders the static help page.
type helpModel struct {
	theme    *styles.Theme
	rendered string
}

func newHelpModel(theme *styles.Theme) helpModel {
	style := "dark"
	if !theme.IsDark {
		style = "light"
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(84),
	)
	rendered := helpMarkdown
	if err == nil {
		if out, rerr := renderer.Render(helpMarkdown); rerr == nil {
			rendered = out
		}
	}
	return helpModel{theme: theme, rendered: rendered}
}

func (m helpModel) View() string {
	return m.rendered + "\n" + m.theme.FormHint.Render("esc: back")
}
