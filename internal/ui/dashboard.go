// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/scmlite-tui/internal/token"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

// menuChosenMsg is emitted when the user picks a dashboard entry.
type menuChosenMsg struct {
	target view
}

type menuEntry struct {
	label  string
	target view
}

// dashboardModel is the landing view after sign-in.
type dashboardModel struct {
	theme *styles.Theme
	keys  keyMap
	store *token.Store

	entries []menuEntry
	cursor  int
}

func newDashboardModel(theme *styles.Theme, keys keyMap, store *token.Store) dashboardModel {
	return dashboardModel{
		theme: theme,
		keys:  keys,
		store: store,
		entries: []menuEntry{
			{"Device telemetry", viewTelemetry},
			{"New shipment", viewShipmentForm},
			{"My shipments", viewShipments},
			{"Telemetry history", viewHistory},
			{"My account", viewAccount},
			{"Help", viewHelp},
		},
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Enter):
			target := m.entries[m.cursor].target
			return m, func() tea.Msg { return menuChosenMsg{target: target} }
		}
	}
	return m, nil
}

func (m dashboardModel) View() string {
	th := m.theme
	var b strings.Builder

	profile := m.store.Profile()
	title := "Dashboard"
	if profile.Name != "" {
		title = "Welcome, " + profile.Name
	}
	b.WriteString(th.FormTitle.Render(title))
	b.WriteString("\n\n")

	for i, entry := range m.entries {
		if i == m.cursor {
			b.WriteString(th.DeviceSelected.Render(" " + entry.label + " "))
		} else {
			b.WriteString(th.DeviceUnselected.Render(" " + entry.label + " "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(th.FormHint.Render("↑/↓: move • enter: open • ctrl+o: logout • ctrl+c: quit"))
	return th.Container.Render(b.String())
}
