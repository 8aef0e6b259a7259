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
	"github.com/morganforge/scmlite-tui/internal/authflow"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

// resetStage tracks which half of the password reset the form is on.
type resetStage int

const (
	resetStageRequest resetStage = iota // Asking the backend to issue a token
	resetStageConfirm                   // Exchanging the token for a new password
)

// resetModel drives the two-step password reset form.
type resetModel struct {
	theme  *styles.Theme
	keys   keyMap
	client *api.Client

	stage resetStage

	email       textinput.Model
	resetToken  textinput.Model
	newPassword textinput.Model

	focus   int
	busy    bool
	status  string
	isError bool
}

func newResetModel(theme *styles.Theme, keys keyMap, client *api.Client) resetModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 128
	email.Width = 36
	email.Focus()

	token := textinput.New()
	token.Placeholder = "reset token"
	token.CharLimit = 128
	token.Width = 36

	password := textinput.New()
	password.Placeholder = "new password"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	password.CharLimit = 128
	password.Width = 36

	return resetModel{
		theme:       theme,
		keys:        keys,
		client:      client,
		email:       email,
		resetToken:  token,
		newPassword: password,
	}
}

func (m *resetModel) reset() {
	m.stage = resetStageRequest
	m.email.SetValue("")
	m.resetToken.SetValue("")
	m.newPassword.SetValue("")
	m.busy = false
	m.status = ""
	m.isError = false
	m.focus = 0
	m.email.Focus()
	m.resetToken.Blur()
	m.newPassword.Blur()
}

func (m resetModel) Update(msg tea.Msg) (resetModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch {
		case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
			if m.stage == resetStageConfirm {
				m.cycleConfirmFocus()
			}
			return m, nil
		case key.Matches(msg, m.keys.Enter):
			return m.submit()
		}

	case resetResultMsg:
		m.busy = false
		if msg.err != nil {
			m.status = signupFailureMessage(msg.err)
			m.isError = true
			return m, nil
		}
		m.isError = false
		if msg.confirmed {
			m.status = "Password updated. Sign in with your new password."
		} else {
			m.status = "If that account exists, a reset token has been issued. Enter it below."
			m.stage = resetStageConfirm
			m.focus = 0
			m.email.Blur()
			m.resetToken.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch {
	case m.stage == resetStageRequest:
		m.email, cmd = m.email.Update(msg)
	case m.focus == 0:
		m.resetToken, cmd = m.resetToken.Update(msg)
	default:
		m.newPassword, cmd = m.newPassword.Update(msg)
	}
	return m, cmd
}

func (m *resetModel) cycleConfirmFocus() {
	m.focus = (m.focus + 1) % 2
	if m.focus == 0 {
		m.resetToken.Focus()
		m.newPassword.Blur()
	} else {
		m.resetToken.Blur()
		m.newPassword.Focus()
	}
}

func (m resetModel) submit() (resetModel, tea.Cmd) {
	client := m.client

	if m.stage == resetStageRequest {
		email := strings.TrimSpace(m.email.Value())
		if !authflow.ValidEmail(email) {
			m.status = "Invalid email!"
			m.isError = true
			return m, nil
		}
		m.busy = true
		m.status = ""
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
			defer cancel()
			err := client.RequestPasswordReset(ctx, api.ResetRequest{Email: email})
			return resetResultMsg{confirmed: false, err: err}
		}
	}

	resetToken := strings.TrimSpace(m.resetToken.Value())
	password := m.newPassword.Value()
	if resetToken == "" {
		m.status = "Reset token is required."
		m.isError = true
		return m, nil
	}
	if !authflow.ValidPassword(password) {
		m.status = "Weak password! Must contain: min 6 chars, upper, lower, digit, special char."
		m.isError = true
		return m, nil
	}
	m.busy = true
	m.status = ""
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		err := client.ConfirmPasswordReset(ctx, api.ResetConfirm{
			ResetToken:  resetToken,
			NewPassword: password,
		})
		return resetResultMsg{confirmed: true, err: err}
	}
}

func (m resetModel) View() string {
	th := m.theme
	var b strings.Builder

	b.WriteString(th.FormTitle.Render("Reset Password"))
	b.WriteString("\n\n")

	if m.stage == resetStageRequest {
		b.WriteString(th.FormLabel.Render("Email"))
		b.WriteString("\n")
		b.WriteString(th.FieldActive.Render(m.email.View()))
		b.WriteString("\n")
		b.WriteString(th.FormHint.Render("enter: request token • esc: back to sign in"))
	} else {
		b.WriteString(th.FormLabel.Render("Reset token"))
		b.WriteString("\n")
		if m.focus == 0 {
			b.WriteString(th.FieldActive.Render(m.resetToken.View()))
		} else {
			b.WriteString(th.FieldBlurred.Render(m.resetToken.View()))
		}
		b.WriteString("\n")
		b.WriteString(th.FormLabel.Render("New password"))
		b.WriteString("\n")
		if m.focus == 1 {
			b.WriteString(th.FieldActive.Render(m.newPassword.View()))
		} else {
			b.WriteString(th.FieldBlurred.Render(m.newPassword.View()))
		}
		b.WriteString("\n")
		b.WriteString(th.FormHint.Render("enter: set password • esc: back to sign in"))
	}

	if m.busy {
		b.WriteString("\n\n")
		b.WriteString(th.InfoStyle.Render("contacting server..."))
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
