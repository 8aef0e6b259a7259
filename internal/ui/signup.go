// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/authflow"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

// signupModel drives the account registration form.
type signupModel struct {
	theme  *styles.Theme
	keys   keyMap
	client *api.Client

	name     textinput.Model
	email    textinput.Model
	password textinput.Model

	focus   int
	busy    bool
	status  string
	isError bool
}

func newSignupModel(theme *styles.Theme, keys keyMap, client *api.Client) signupModel {
	name := textinput.New()
	name.Placeholder = "Full name"
	name.CharLimit = 128
	name.Width = 36
	name.Focus()

	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 128
	email.Width = 36

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 36

	return signupModel{
		theme:    theme,
		keys:     keys,
		client:   client,
		name:     name,
		email:    email,
		password: password,
	}
}

func (m *signupModel) reset() {
	m.name.SetValue("")
	m.email.SetValue("")
	m.password.SetValue("")
	m.busy = false
	m.status = ""
	m.isError = false
	m.focus = 0
	m.name.Focus()
	m.email.Blur()
	m.password.Blur()
}

func (m signupModel) Update(msg tea.Msg) (signupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Down):
			m.setFocus((m.focus + 1) % 3)
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.setFocus((m.focus + 2) % 3)
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			return m.submit()
		}

	case signupResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = signupFailureMessage(msg.err)
			m.isError = true
		} else {
			m.status = "Signup successful! Sign in with your new account."
			m.isError = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.focus {
	case 0:
		m.name, cmd = m.name.Update(msg)
	case 1:
		m.email, cmd = m.email.Update(msg)
	default:
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *signupModel) setFocus(index int) {
	m.focus = index
	inputs := []*textinput.Model{&m.name, &m.email, &m.password}
	for i, in := range inputs {
		if i == index {
			in.Focus()
		} else {
			in.Blur()
		}
	}
}

func (m signupModel) submit() (signupModel, tea.Cmd) {
	name := strings.TrimSpace(m.name.Value())
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()

	if name == "" {
		m.status = "Name is required."
		m.isError = true
		return m, nil
	}
	if !authflow.ValidEmail(email) {
		m.status = "Invalid email!"
		m.isError = true
		return m, nil
	}
	if !authflow.ValidPassword(password) {
		m.status = "Weak password! Must contain: min 6 chars, upper, lower, digit, special char."
		m.isError = true
		return m, nil
	}

	client := m.client
	m.busy = true
	m.status = ""
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		err := client.Signup(ctx, api.SignupRequest{
			Name:     name,
			Email:    email,
			Password: password,
		})
		return signupResultMsg{err: err}
	}
}

func signupFailureMessage(err error) string {
	if api.IsTimeout(err) {
		return "Server timed out. Try again."
	}
	if api.IsTransient(err) {
		return "Server error! Check that the backend is running."
	}
	return err.Error()
}

func (m signupModel) View() string {
	th := m.theme
	var b strings.Builder

	b.WriteString(th.FormTitle.Render("SCM Lite: Sign Up"))
	b.WriteString("\n\n")

	labels := []string{"Name", "Email", "Password"}
	views := []string{m.name.View(), m.email.View(), m.password.View()}
	for i := range labels {
		b.WriteString(th.FormLabel.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(m.fieldStyle(i).Render(views[i]))
		b.WriteString("\n")
	}

	b.WriteString(th.FormHint.Render("enter: create account • esc: back to sign in"))

	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(th.InfoStyle.Render("contacting server..."))
	} else if m.status != "" {
		b.WriteString("\n\n")
		if m.isError {
			b.WriteString(th.ErrorStyle.Render(m.status))
		} else {
			b.WriteString(th.SuccessStyle.Render(m.status))
		}
	}

	return th.FormBox.Render(b.String())
}

func (m signupModel) fieldStyle(index int) lipgloss.Style {
	if m.focus == index {
		return m.theme.FieldActive
	}
	return m.theme.FieldBlurred
}
