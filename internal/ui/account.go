// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/guard"
	"github.com/morganforge/scmlite-tui/internal/token"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

// accountModel shows the signed-in user's profile, refreshed from the
// backend on entry.
type accountModel struct {
	theme  *styles.Theme
	guard  *guard.Guard
	client *api.Client
	store  *token.Store

	profile *api.Profile
	loading bool
	status  string
}

func newAccountModel(theme *styles.Theme, g *guard.Guard, client *api.Client, store *token.Store) accountModel {
	return accountModel{theme: theme, guard: g, client: client, store: store}
}

// load refreshes the profile. The backend only serves the caller's own
// account; the email of record comes from the cached profile.
func (m accountModel) load() (accountModel, tea.Cmd) {
	if _, ok := m.store.Get(); !ok {
		return m, func() tea.Msg { return sessionLostMsg{} }
	}
	g := m.guard
	client := m.client
	email := m.store.Profile().Email
	m.loading = true
	m.status = ""
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		var fetched *api.Profile
		err := g.Do(ctx, func(ctx context.Context, credential string) error {
			var inner error
			fetched, inner = client.Account(ctx, credential, email)
			return inner
		})
		if api.IsAuthRejected(err) {
			return sessionLostMsg{}
		}
		return accountMsg{profile: fetched, err: err}
	}
}

func (m accountModel) Update(msg tea.Msg) (accountModel, tea.Cmd) {
	if msg, ok := msg.(accountMsg); ok {
		m.loading = false
		if msg.err != nil {
			m.status = signupFailureMessage(msg.err)
			return m, nil
		}
		m.profile = msg.profile
	}
	return m, nil
}

func (m accountModel) View() string {
	th := m.theme
	var b strings.Builder

	b.WriteString(th.FormTitle.Render("My Account"))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(th.InfoStyle.Render("loading profile..."))
	case m.status != "":
		b.WriteString(th.ErrorStyle.Render(m.status))
	case m.profile != nil:
		b.WriteString(th.FormLabel.Render("Name"))
		b.WriteString("\n")
		b.WriteString(th.TableRow.Render(m.profile.Name))
		b.WriteString("\n\n")
		b.WriteString(th.FormLabel.Render("Email"))
		b.WriteString("\n")
		b.WriteString(th.TableRow.Render(m.profile.Email))
	default:
		b.WriteString(th.TablePlaceholder.Render("no profile loaded"))
	}

	b.WriteString("\n\n")
	b.WriteString(th.FormHint.Render("esc: dashboard • ctrl+o: logout"))
	return th.FormBox.Render(b.String())
}
