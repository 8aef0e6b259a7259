// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/history"
	"github.com/morganforge/scmlite-tui/internal/poll"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
	"github.com/morganforge/scmlite-tui/internal/util"
)

// historyMsg delivers archived rows from the local history store.
type historyMsg struct {
	records []api.DeviceRecord
	total   int
	err     error
}

// historyModel browses the locally archived telemetry. Nil store means
// archiving is disabled in the configuration.
type historyModel struct {
	theme *styles.Theme
	keys  keyMap
	store *history.Store

	choices []string
	cursor  int

	rows    []api.DeviceRecord
	total   int
	loading bool
	status  string
}

func newHistoryModel(theme *styles.Theme, keys keyMap, store *history.Store) historyModel {
	return historyModel{
		theme:   theme,
		keys:    keys,
		store:   store,
		choices: deviceChoices(),
	}
}

func (m historyModel) load() (historyModel, tea.Cmd) {
	if m.store == nil {
		m.status = "history is disabled in the configuration"
		return m, nil
	}
	store := m.store
	selection := m.choices[m.cursor]
	m.loading = true
	m.status = ""
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		records, err := store.Recent(ctx, selection, poll.MaxRows)
		if err != nil {
			return historyMsg{err: err}
		}
		total, err := store.Count(ctx)
		return historyMsg{records: records, total: total, err: err}
	}
}

func (m historyModel) Update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.cursor = (m.cursor + len(m.choices) - 1) % len(m.choices)
			return m.load()
		case key.Matches(msg, m.keys.Right):
			m.cursor = (m.cursor + 1) % len(m.choices)
			return m.load()
		case key.Matches(msg, m.keys.Enter):
			return m.load()
		}

	case historyMsg:
		m.loading = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.rows = msg.records
		m.total = msg.total
		return m, nil
	}
	return m, nil
}

func (m historyModel) View() string {
	th := m.theme
	var b strings.Builder

	b.WriteString(th.FormTitle.Render("Telemetry History"))
	b.WriteString("\n\n")

	parts := make([]string, 0, len(m.choices))
	for i, choice := range m.choices {
		label := " " + choice + " "
		if i == m.cursor {
			parts = append(parts, th.DeviceSelected.Render(label))
		} else {
			parts = append(parts, th.DeviceUnselected.Render(label))
		}
	}
	b.WriteString(strings.Join(parts, " "))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(th.InfoStyle.Render("loading history..."))
	case m.status != "":
		b.WriteString(th.ErrorStyle.Render(m.status))
	case len(m.rows) == 0:
		b.WriteString(th.TablePlaceholder.Render("no archived records"))
	default:
		b.WriteString(m.tableView())
		b.WriteString("\n")
		b.WriteString(th.FormHint.Render(util.IntToString(m.total) + " records archived in total"))
	}

	b.WriteString("\n\n")
	b.WriteString(th.FormHint.Render("←/→: device • enter: reload • esc: dashboard"))
	return th.Container.Render(b.String())
}

func (m historyModel) tableView() string {
	th := m.theme

	header := util.PadWidth("Device", colDevice) +
		util.PadWidth("Battery", colBattery) +
		util.PadWidth("Temp", colTemp) +
		util.PadWidth("From", colFrom) +
		util.PadWidth("To", colTo) +
		util.PadWidth("Recorded", colTime)

	var b strings.Builder
	b.WriteString(th.TableHeader.Render(header))
	b.WriteString("\n")
	for i, rec := range m.rows {
		line := util.PadWidth(util.IntToString(rec.DeviceID), colDevice) +
			util.PadWidth(util.FormatVoltage(rec.BatteryLevel), colBattery) +
			util.PadWidth(util.FormatTemperature(rec.SensorTemperature), colTemp) +
			util.PadWidth(util.TruncateWidth(rec.RouteFrom, colFrom-1), colFrom) +
			util.PadWidth(util.TruncateWidth(rec.RouteTo, colTo-1), colTo) +
			util.PadWidth(formatRecordTime(rec.Timestamp), colTime)
		if i%2 == 0 {
			b.WriteString(th.TableRow.Render(line))
		} else {
			b.WriteString(th.TableRowAlt.Render(line))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
