// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/scmlite-tui/internal/authflow"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

const submitTimeout = 15 * time.Second

// =============================================================================
// LOGIN MODEL
// =============================================================================

// loginModel drives the sign-in form, including the step-up code prompt
// when the backend escalates.
type loginModel struct {
	theme *styles.Theme
	keys  keyMap
	flow  *authflow.Flow

	email    textinput.Model
	password textinput.Model
	code     textinput.Model
	spinner  spinner.Model

	focus   int
	busy    bool
	status  string
	isError bool
}

func newLoginModel(theme *styles.Theme, keys keyMap, flow *authflow.Flow) loginModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 128
	email.Width = 36
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 36

	code := textinput.New()
	code.Placeholder = "000000"
	code.CharLimit = authflow.StepUpCodeLength
	code.Width = 12

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	return loginModel{
		theme:    theme,
		keys:     keys,
		flow:     flow,
		email:    email,
		password: password,
		code:     code,
		spinner:  sp,
	}
}

// reset returns the form to the credentials step and wipes transient state.
func (m *loginModel) reset() {
	m.flow.Reset()
	m.email.SetValue("")
	m.password.SetValue("")
	m.code.SetValue("")
	m.busy = false
	m.status = ""
	m.isError = false
	m.focus = 0
	m.email.Focus()
	m.password.Blur()
	m.code.Blur()
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			if m.flow.State() == authflow.StateCredentials {
				m.cycleFocus()
			}
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			return m.submit()
		case key.Matches(msg, m.keys.Back):
			if m.flow.State() == authflow.StateStepUp {
				m.reset()
				return m, nil
			}
		}

	case loginResultMsg:
		return m.applyResult(msg.result, false)

	case stepUpResultMsg:
		return m.applyResult(msg.result, true)

	case spinner.TickMsg:
		if m.busy {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case m.flow.State() == authflow.StateStepUp:
		m.code, cmd = m.code.Update(msg)
	case m.focus == 0:
		m.email, cmd = m.email.Update(msg)
	default:
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *loginModel) cycleFocus() {
	m.focus = (m.focus + 1) % 2
	if m.focus == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.email.Blur()
		m.password.Focus()
	}
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	flow := m.flow
	if flow.State() == authflow.StateStepUp {
		code := strings.TrimSpace(m.code.Value())
		m.busy = true
		m.status = ""
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			return stepUpResultMsg{result: flow.SubmitCode(ctx, code)}
		})
	}

	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	m.busy = true
	m.status = ""
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		return loginResultMsg{result: flow.SubmitCredentials(ctx, email, password, "")}
	})
}

func (m loginModel) applyResult(result authflow.Result, fromStepUp bool) (loginModel, tea.Cmd) {
	m.busy = false
	switch result.Outcome {
	case authflow.OutcomeAuthenticated:
		// The root model observes the flow state and routes onward.
		m.status = ""
		m.isError = false
	case authflow.OutcomeStepUp:
		m.status = result.Message
		m.isError = false
		m.code.SetValue("")
		m.code.Focus()
		m.email.Blur()
		m.password.Blur()
	case authflow.OutcomeFailed:
		m.status = result.Message
		m.isError = true
		if fromStepUp {
			m.code.SetValue("")
			m.code.Focus()
		}
	case authflow.OutcomeBusy:
		// Dropped submission; the in-flight one will report.
	}
	return m, nil
}

// =============================================================================
// VIEW
// =============================================================================

func (m loginModel) View() string {
	th := m.theme
	var b strings.Builder

	if m.flow.State() == authflow.StateStepUp {
		b.WriteString(th.FormTitle.Render("Verification Required"))
		b.WriteString("\n\n")
		b.WriteString(th.FormLabel.Render("Account: " + m.flow.PendingPrincipal()))
		b.WriteString("\n\n")
		b.WriteString(th.FormLabel.Render("Code"))
		b.WriteString("\n")
		b.WriteString(th.FieldActive.Render(m.code.View()))
		b.WriteString("\n")
		b.WriteString(th.FormHint.Render("enter: verify • esc: start over"))
	} else {
		b.WriteString(th.FormTitle.Render("SCM Lite: Sign In"))
		b.WriteString("\n\n")
		b.WriteString(th.FormLabel.Render("Email"))
		b.WriteString("\n")
		b.WriteString(m.fieldStyle(0).Render(m.email.View()))
		b.WriteString("\n")
		b.WriteString(th.FormLabel.Render("Password"))
		b.WriteString("\n")
		b.WriteString(m.fieldStyle(1).Render(m.password.View()))
		b.WriteString("\n")
		b.WriteString(th.FormHint.Render("enter: sign in • ctrl+s: sign up • ctrl+r: reset password"))
	}

	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(m.spinner.View())
		b.WriteString(th.InfoStyle.Render(" contacting server..."))
	} else if m.status != "" {
		b.WriteString("\n\n")
		if m.isError {
			b.WriteString(th.ErrorStyle.Render(m.status))
		} else {
			b.WriteString(th.InfoStyle.Render(m.status))
		}
	}

	return th.FormBox.Render(b.String())
}

func (m loginModel) fieldStyle(index int) lipgloss.Style {
	if m.focus == index {
		return m.theme.FieldActive
	}
	return m.theme.FieldBlurred
}
