// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/poll"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
	"github.com/morganforge/scmlite-tui/internal/util"
)

// Known device roster. The backend simulates this fixed fleet.
const (
	deviceIDMin = 1150
	deviceIDMax = 1158
)

// Column widths for the telemetry table.
const (
	colDevice  = 8
	colBattery = 10
	colTemp    = 10
	colFrom    = 18
	colTo      = 18
	colTime    = 20
)

// deviceChoices returns the selector roster: "all" plus every device ID.
func deviceChoices() []string {
	choices := make([]string, 0, deviceIDMax-deviceIDMin+2)
	choices = append(choices, poll.SelectionAll)
	for id := deviceIDMin; id <= deviceIDMax; id++ {
		choices = append(choices, util.IntToString(id))
	}
	return choices
}

// =============================================================================
// TELEMETRY MODEL
// =============================================================================

// telemetryModel shows the live device table fed by the polling engine.
// The table is a pure function of the last delivered batch; every render
// overwrites it wholesale.
type telemetryModel struct {
	theme  *styles.Theme
	keys   keyMap
	engine *poll.Engine

	choices []string
	cursor  int

	rows      []api.DeviceRecord
	selection string
	hasData   bool
	status    string
}

func newTelemetryModel(theme *styles.Theme, keys keyMap, engine *poll.Engine) telemetryModel {
	return telemetryModel{
		theme:   theme,
		keys:    keys,
		engine:  engine,
		choices: deviceChoices(),
	}
}

func (m telemetryModel) Update(msg tea.Msg) (telemetryModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Left):
			m.moveCursor(-1)
			return m, nil
		case key.Matches(msg, m.keys.Right):
			m.moveCursor(1)
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			if err := m.engine.Start(m.choices[m.cursor]); err != nil {
				m.status = err.Error()
			} else {
				m.status = ""
			}
			return m, nil
		}

	case telemetryMsg:
		m.rows = msg.records
		m.selection = msg.selection
		m.hasData = true
		return m, nil

	case telemetryClearMsg:
		m.rows = nil
		m.hasData = false
		return m, nil
	}

	return m, nil
}

// moveCursor shifts the device selector. Changing the selection tears
// down any live cycle and blanks the table, even when no cycle is
// running: rows fetched for the old device must never sit under the new
// highlight. The next enter starts a fresh cycle.
func (m *telemetryModel) moveCursor(delta int) {
	next := (m.cursor + delta + len(m.choices)) % len(m.choices)
	if next == m.cursor {
		return
	}
	m.cursor = next
	m.engine.OnSelectionChanged(m.choices[next])
}

// stop halts the polling cycle; called when the view is left.
func (m *telemetryModel) stop() {
	m.engine.Stop()
}

// =============================================================================
// VIEW
// =============================================================================

func (m telemetryModel) View() string {
	th := m.theme
	var b strings.Builder

	b.WriteString(th.FormTitle.Render("Device Telemetry"))
	b.WriteString("\n\n")

	b.WriteString(m.selectorView())
	b.WriteString("\n\n")

	b.WriteString(m.tableView())
	b.WriteString("\n")

	hint := "←/→: device • enter: start stream • esc: dashboard"
	b.WriteString(th.FormHint.Render(hint))

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(th.ErrorStyle.Render(m.status))
	}

	return th.Container.Render(b.String())
}

func (m telemetryModel) selectorView() string {
	th := m.theme
	parts := make([]string, 0, len(m.choices))
	for i, choice := range m.choices {
		label := " " + choice + " "
		if i == m.cursor {
			parts = append(parts, th.DeviceSelected.Render(label))
		} else {
			parts = append(parts, th.DeviceUnselected.Render(label))
		}
	}
	return strings.Join(parts, " ")
}

func (m telemetryModel) tableView() string {
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

	if !m.hasData || len(m.rows) == 0 {
		placeholder := "no data yet"
		if m.engine.Active() {
			placeholder = "waiting for telemetry..."
		}
		b.WriteString(th.TablePlaceholder.Render(placeholder))
		return b.String()
	}

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

func formatRecordTime(ts int64) string {
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04:05")
}
