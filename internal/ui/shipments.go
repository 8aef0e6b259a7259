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
	"github.com/morganforge/scmlite-tui/internal/guard"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
	"github.com/morganforge/scmlite-tui/internal/util"
)

// shipmentsModel lists the shipments created by the signed-in user.
type shipmentsModel struct {
	theme  *styles.Theme
	keys   keyMap
	guard  *guard.Guard
	client *api.Client

	shipments []api.Shipment
	cursor    int
	loading   bool
	loaded    bool
	status    string
}

func newShipmentsModel(theme *styles.Theme, keys keyMap, g *guard.Guard, client *api.Client) shipmentsModel {
	return shipmentsModel{theme: theme, keys: keys, guard: g, client: client}
}

// load fetches the shipment list through the session guard.
func (m shipmentsModel) load() (shipmentsModel, tea.Cmd) {
	g := m.guard
	client := m.client
	m.loading = true
	m.status = ""
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		var shipments []api.Shipment
		err := g.Do(ctx, func(ctx context.Context, credential string) error {
			var inner error
			shipments, inner = client.MyShipments(ctx, credential)
			return inner
		})
		if api.IsAuthRejected(err) {
			return sessionLostMsg{}
		}
		return shipmentsMsg{shipments: shipments, err: err}
	}
}

func (m shipmentsModel) Update(msg tea.Msg) (shipmentsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.shipments)-1 {
				m.cursor++
			}
			return m, nil
		}

	case shipmentsMsg:
		m.loading = false
		m.loaded = true
		if msg.err != nil {
			m.status = signupFailureMessage(msg.err)
			return m, nil
		}
		m.shipments = msg.shipments
		if m.cursor >= len(m.shipments) {
			m.cursor = 0
		}
		return m, nil
	}
	return m, nil
}

func (m shipmentsModel) View() string {
	th := m.theme
	var b strings.Builder

	b.WriteString(th.FormTitle.Render("My Shipments"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(th.InfoStyle.Render("loading shipments..."))
	case m.status != "":
		b.WriteString(th.ErrorStyle.Render(m.status))
	case len(m.shipments) == 0:
		b.WriteString(th.TablePlaceholder.Render("no shipments yet"))
	default:
		b.WriteString(m.listView())
	}

	b.WriteString("\n\n")
	b.WriteString(th.FormHint.Render("↑/↓: browse • esc: dashboard"))
	return th.Container.Render(b.String())
}

func (m shipmentsModel) listView() string {
	th := m.theme

	header := util.PadWidth("Number", 14) +
		util.PadWidth("Route", 22) +
		util.PadWidth("Device", 10) +
		util.PadWidth("Status", 14) +
		util.PadWidth("Delivery", 12) +
		util.PadWidth("Created", 20)

	var b strings.Builder
	b.WriteString(th.TableHeader.Render(header))
	b.WriteString("\n")

	for i, s := range m.shipments {
		line := util.PadWidth(util.TruncateWidth(s.ShipmentNumber, 13), 14) +
			util.PadWidth(util.TruncateWidth(s.Route, 21), 22) +
			util.PadWidth(util.TruncateWidth(s.Device, 9), 10) +
			util.PadWidth(util.TruncateWidth(s.Status, 13), 14) +
			util.PadWidth(util.TruncateWidth(s.DeliveryDate, 11), 12) +
			util.PadWidth(formatCreated(s.Timestamp), 20)
		style := th.TableRow
		if i%2 == 1 {
			style = th.TableRowAlt
		}
		if i == m.cursor {
			style = th.DeviceSelected
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	// Detail pane for the highlighted shipment.
	if m.cursor < len(m.shipments) {
		s := m.shipments[m.cursor]
		b.WriteString("\n")
		detail := "PO " + s.PONumber +
			" • container " + s.ContainerNo +
			" • goods " + s.GoodsType +
			" • NDC " + s.NDCNumber +
			" • serial " + s.SerialNumber +
			" • delivery " + s.DeliveryNumber +
			" • batch " + s.BatchID
		b.WriteString(th.FormHint.Render(util.TruncateWidth(detail, 100)))
		if s.Description != "" {
			b.WriteString("\n")
			b.WriteString(th.FormHint.Render(util.TruncateWidth(s.Description, 100)))
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

func formatCreated(ts int64) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts, 0).Local().Format("2006-01-02 15:04")
}
