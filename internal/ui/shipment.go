// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/guard"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

// Field order of the shipment form.
const (
	fieldShipmentNumber = iota
	fieldRoute
	fieldDevice
	fieldPONumber
	fieldContainerNo
	fieldGoodsType
	fieldDeliveryDate
	fieldStatus
	fieldNDCNumber
	fieldSerialNumber
	fieldDeliveryNumber
	fieldBatchID
	fieldDescription
	shipmentFieldCount
)

var shipmentLabels = [shipmentFieldCount]string{
	"Shipment number",
	"Route details",
	"Device",
	"PO number",
	"Container number",
	"Goods type",
	"Expected delivery date",
	"Delivery status",
	"NDC number",
	"Serial number of goods",
	"Delivery number",
	"Batch ID",
	"Shipment description",
}

// shipmentModel drives the new-shipment form. Every field is required;
// the form refuses to submit until all of them carry a value.
type shipmentModel struct {
	theme  *styles.Theme
	keys   keyMap
	guard  *guard.Guard
	client *api.Client

	inputs [shipmentFieldCount]textinput.Model
	focus  int

	busy    bool
	status  string
	isError bool
}

func newShipmentModel(theme *styles.Theme, keys keyMap, g *guard.Guard, client *api.Client) shipmentModel {
	m := shipmentModel{theme: theme, keys: keys, guard: g, client: client}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = shipmentLabels[i]
		in.CharLimit = 128
		in.Width = 32
		m.inputs[i] = in
	}
	m.inputs[fieldDeliveryDate].Placeholder = "YYYY-MM-DD"
	m.inputs[fieldStatus].Placeholder = "e.g. In transit"
	m.inputs[0].Focus()
	return m
}

// clear wipes every field and returns focus to the first one.
func (m *shipmentModel) clear() {
	for i := range m.inputs {
		m.inputs[i].SetValue("")
	}
	m.setFocus(0)
	m.status = ""
	m.isError = false
}

func (m shipmentModel) Update(msg tea.Msg) (shipmentModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Down):
			m.setFocus((m.focus + 1) % shipmentFieldCount)
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.setFocus((m.focus + shipmentFieldCount - 1) % shipmentFieldCount)
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			m.clear()
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			return m.submit()
		}

	case shipmentCreatedMsg:
		m.busy = false
		if msg.err != nil {
			m.status = signupFailureMessage(msg.err)
			m.isError = true
		} else {
			m.status = "Shipment created."
			m.isError = false
			for i := range m.inputs {
				m.inputs[i].SetValue("")
			}
			m.setFocus(0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *shipmentModel) setFocus(index int) {
	m.focus = index
	for i := range m.inputs {
		if i == index {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
}

func (m shipmentModel) submit() (shipmentModel, tea.Cmd) {
	for i := range m.inputs {
		if strings.TrimSpace(m.inputs[i].Value()) == "" {
			m.status = "All fields are required: " + shipmentLabels[i] + " is empty."
			m.isError = true
			m.setFocus(i)
			return m, nil
		}
	}

	shipment := api.Shipment{
		ShipmentNumber: strings.TrimSpace(m.inputs[fieldShipmentNumber].Value()),
		Route:          strings.TrimSpace(m.inputs[fieldRoute].Value()),
		Device:         strings.TrimSpace(m.inputs[fieldDevice].Value()),
		PONumber:       strings.TrimSpace(m.inputs[fieldPONumber].Value()),
		ContainerNo:    strings.TrimSpace(m.inputs[fieldContainerNo].Value()),
		GoodsType:      strings.TrimSpace(m.inputs[fieldGoodsType].Value()),
		DeliveryDate:   strings.TrimSpace(m.inputs[fieldDeliveryDate].Value()),
		Status:         strings.TrimSpace(m.inputs[fieldStatus].Value()),
		NDCNumber:      strings.TrimSpace(m.inputs[fieldNDCNumber].Value()),
		SerialNumber:   strings.TrimSpace(m.inputs[fieldSerialNumber].Value()),
		DeliveryNumber: strings.TrimSpace(m.inputs[fieldDeliveryNumber].Value()),
		BatchID:        strings.TrimSpace(m.inputs[fieldBatchID].Value()),
		Description:    strings.TrimSpace(m.inputs[fieldDescription].Value()),
	}

	g := m.guard
	client := m.client
	m.busy = true
	m.status = ""
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		err := g.Do(ctx, func(ctx context.Context, credential string) error {
			return client.CreateShipment(ctx, credential, shipment)
		})
		if api.IsAuthRejected(err) {
			return sessionLostMsg{}
		}
		return shipmentCreatedMsg{err: err}
	}
}

func (m shipmentModel) View() string {
	th := m.theme
	var b strings.Builder

	b.WriteString(th.FormTitle.Render("New Shipment"))
	b.WriteString("\n\n")

	// Two-column layout keeps thirteen fields on screen.
	var left, right strings.Builder
	half := (shipmentFieldCount + 1) / 2
	for i := 0; i < shipmentFieldCount; i++ {
		target := &left
		if i >= half {
			target = &right
		}
		target.WriteString(th.FormLabel.Render(shipmentLabels[i]))
		target.WriteString("\n")
		if i == m.focus {
			target.WriteString(th.FieldActive.Render(m.inputs[i].View()))
		} else {
			target.WriteString(th.FieldBlurred.Render(m.inputs[i].View()))
		}
		target.WriteString("\n")
	}
	b.WriteString(joinColumns(left.String(), right.String(), 4))
	b.WriteString("\n")

	b.WriteString(th.FormHint.Render("tab: next field • enter: submit • ctrl+l: clear • esc: dashboard"))

	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(th.InfoStyle.Render("submitting..."))
	} else if m.status != "" {
		b.WriteString("\n\n")
		if m.isError {
			b.WriteString(th.ErrorStyle.Render(m.status))
		} else {
			b.WriteString(th.SuccessStyle.Render(m.status))
		}
	}

	return th.Container.Render(b.String())
}
