// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/scmlite-tui/internal/api"
	"github.com/morganforge/scmlite-tui/internal/authflow"
	"github.com/morganforge/scmlite-tui/internal/config"
	"github.com/morganforge/scmlite-tui/internal/guard"
	"github.com/morganforge/scmlite-tui/internal/history"
	"github.com/morganforge/scmlite-tui/internal/poll"
	"github.com/morganforge/scmlite-tui/internal/token"
	"github.com/morganforge/scmlite-tui/internal/ui/styles"
)

// =============================================================================
// VIEWS
// =============================================================================

// view identifies which screen the application is showing.
type view int

const (
	viewLogin view = iota
	viewSignup
	viewReset
	viewDashboard
	viewTelemetry
	viewShipmentForm
	viewShipments
	viewAccount
	viewHistory
	viewHelp
)

// viewPath maps a view to the route identity the session guard enforces.
func viewPath(v view) string {
	switch v {
	case viewLogin:
		return guard.PathLogin
	case viewSignup, viewReset:
		return guard.PathSignup
	case viewTelemetry:
		return guard.PathTelemetry
	case viewShipmentForm, viewShipments:
		return guard.PathShipments
	case viewAccount:
		return guard.PathAccount
	default:
		return guard.PathDashboard
	}
}

// ConfigReloadedMsg is sent from the config watcher when the file on disk
// changes and parses cleanly.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// ROOT MODEL
// =============================================================================

// Deps carries everything the root model needs. All fields except History
// are required.
type Deps struct {
	Theme   *styles.Theme
	Config  *config.Config
	Client  *api.Client
	Store   *token.Store
	Guard   *guard.Guard
	Flow    *authflow.Flow
	Engine  *poll.Engine
	History *history.Store
}

// Model is the root Bubble Tea model. It owns view switching and routes
// every message to the active subview.
type Model struct {
	theme *styles.Theme
	keys  keyMap
	cfg   *config.Config

	guard  *guard.Guard
	flow   *authflow.Flow
	engine *poll.Engine
	store  *token.Store

	current  view
	previous view

	// pendingTarget remembers where a navigation is heading while the
	// guard decision is in flight.
	pendingTarget view

	login     loginModel
	signup    signupModel
	reset     resetModel
	dashboard dashboardModel
	telemetry telemetryModel
	shipment  shipmentModel
	shipments shipmentsModel
	account   accountModel
	histView  historyModel
	help      helpModel

	width  int
	height int

	notice string
}

// New assembles the root model with the login view active.
func New(deps Deps) Model {
	keys := defaultKeyMap()
	return Model{
		theme:     deps.Theme,
		keys:      keys,
		cfg:       deps.Config,
		guard:     deps.Guard,
		flow:      deps.Flow,
		engine:    deps.Engine,
		store:     deps.Store,
		current:   viewLogin,
		login:     newLoginModel(deps.Theme, keys, deps.Flow),
		signup:    newSignupModel(deps.Theme, keys, deps.Client),
		reset:     newResetModel(deps.Theme, keys, deps.Client),
		dashboard: newDashboardModel(deps.Theme, keys, deps.Store),
		telemetry: newTelemetryModel(deps.Theme, keys, deps.Engine),
		shipment:  newShipmentModel(deps.Theme, keys, deps.Guard, deps.Client),
		shipments: newShipmentsModel(deps.Theme, keys, deps.Guard, deps.Client),
		account:   newAccountModel(deps.Theme, deps.Guard, deps.Client, deps.Store),
		histView:  newHistoryModel(deps.Theme, keys, deps.History),
		help:      newHelpModel(deps.Theme),
	}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// navigate asks the session guard whether the target view may load, then
// switches on its decision.
func (m Model) navigate(target view) tea.Cmd {
	g := m.guard
	path := viewPath(target)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return enforceMsg{path: path, decision: g.Enforce(ctx, path)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if model, cmd, handled := m.handleGlobalKey(msg); handled {
			return model, cmd
		}

	case enforceMsg:
		return m.applyDecision(msg)

	case menuChosenMsg:
		m.pendingTarget = msg.target
		return m, m.navigate(msg.target)

	case sessionLostMsg:
		return m.toLogin("Session expired. Sign in again.")

	case ConfigReloadedMsg:
		m.cfg = msg.Config
		m.notice = "configuration reloaded"
		return m, nil

	case loginResultMsg:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		if msg.result.Outcome == authflow.OutcomeAuthenticated {
			m.pendingTarget = viewDashboard
			return m, tea.Batch(cmd, m.navigate(viewDashboard))
		}
		return m, cmd

	case stepUpResultMsg:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		if msg.result.Outcome == authflow.OutcomeAuthenticated {
			m.pendingTarget = viewDashboard
			return m, tea.Batch(cmd, m.navigate(viewDashboard))
		}
		return m, cmd

	case telemetryMsg, telemetryClearMsg:
		var cmd tea.Cmd
		m.telemetry, cmd = m.telemetry.Update(msg)
		return m, cmd
	}

	return m.updateActive(msg)
}

func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.engine.Stop()
		return m, tea.Quit, true

	case key.Matches(msg, m.keys.Logout):
		if _, ok := m.store.Get(); ok {
			m.guard.Logout()
			m.flow.Reset()
			model, cmd := m.toLogin("Signed out.")
			return model, cmd, true
		}
		return m, nil, false

	case key.Matches(msg, m.keys.Back):
		switch m.current {
		case viewLogin, viewDashboard:
			return m, nil, false
		case viewSignup, viewReset:
			m.current = viewLogin
			m.notice = ""
			return m, nil, true
		case viewHelp:
			m.current = m.previous
			return m, nil, true
		default:
			if m.current == viewTelemetry {
				m.telemetry.stop()
			}
			m.pendingTarget = viewDashboard
			return m, m.navigate(viewDashboard), true
		}

	case key.Matches(msg, m.keys.Help):
		// Only on views without free text entry, so "?" still types.
		switch m.current {
		case viewDashboard, viewTelemetry, viewShipments, viewAccount, viewHistory:
			m.previous = m.current
			m.current = viewHelp
			return m, nil, true
		}
		return m, nil, false

	case msg.String() == "ctrl+s":
		if m.current == viewLogin {
			m.signup.reset()
			m.current = viewSignup
			return m, nil, true
		}
		return m, nil, false

	case msg.String() == "ctrl+r":
		if m.current == viewLogin {
			m.reset.reset()
			m.current = viewReset
			return m, nil, true
		}
		return m, nil, false
	}
	return m, nil, false
}

// applyDecision finishes a navigation once the guard has ruled.
func (m Model) applyDecision(msg enforceMsg) (tea.Model, tea.Cmd) {
	switch msg.decision {
	case guard.DecisionRedirectLogin:
		return m.toLogin("Please sign in.")
	case guard.DecisionRedirectDashboard:
		return m.enter(viewDashboard)
	default:
		return m.enter(m.pendingTarget)
	}
}

// enter switches to a view and runs its entry hook.
func (m Model) enter(target view) (tea.Model, tea.Cmd) {
	if m.current == viewTelemetry && target != viewTelemetry {
		m.telemetry.stop()
	}
	m.previous = m.current
	m.current = target
	m.notice = ""

	var cmd tea.Cmd
	switch target {
	case viewShipments:
		m.shipments, cmd = m.shipments.load()
	case viewAccount:
		m.account, cmd = m.account.load()
	case viewHistory:
		m.histView, cmd = m.histView.load()
	case viewShipmentForm:
		m.shipment.clear()
	}
	return m, cmd
}

// toLogin drops to the sign-in view with a notice. Any live polling cycle
// is stopped first.
func (m Model) toLogin(notice string) (tea.Model, tea.Cmd) {
	m.engine.Stop()
	m.login.reset()
	m.previous = m.current
	m.current = viewLogin
	m.notice = notice
	return m, nil
}

// updateActive routes a message to the subview that owns the screen.
func (m Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.current {
	case viewLogin:
		m.login, cmd = m.login.Update(msg)
	case viewSignup:
		m.signup, cmd = m.signup.Update(msg)
	case viewReset:
		m.reset, cmd = m.reset.Update(msg)
	case viewDashboard:
		m.dashboard, cmd = m.dashboard.Update(msg)
	case viewTelemetry:
		m.telemetry, cmd = m.telemetry.Update(msg)
	case viewShipmentForm:
		m.shipment, cmd = m.shipment.Update(msg)
	case viewShipments:
		m.shipments, cmd = m.shipments.Update(msg)
	case viewAccount:
		m.account, cmd = m.account.Update(msg)
	case viewHistory:
		m.histView, cmd = m.histView.Update(msg)
	case viewHelp:
		// Static page.
	}
	return m, cmd
}

// =============================================================================
// VIEW
// =============================================================================

func (m Model) View() string {
	var content string
	switch m.current {
	case viewLogin:
		content = m.login.View()
	case viewSignup:
		content = m.signup.View()
	case viewReset:
		content = m.reset.View()
	case viewDashboard:
		content = m.dashboard.View()
	case viewTelemetry:
		content = m.telemetry.View()
	case viewShipmentForm:
		content = m.shipment.View()
	case viewShipments:
		content = m.shipments.View()
	case viewAccount:
		content = m.account.View()
	case viewHistory:
		content = m.histView.View()
	case viewHelp:
		content = m.help.View()
	}

	header := m.headerView()
	status := m.statusView()
	body := lipgloss.JoinVertical(lipgloss.Left, header, content, status)
	return m.theme.App.Render(body)
}

func (m Model) headerView() string {
	th := m.theme
	title := th.HeaderTitle.Render("SCM Lite")
	session := "not signed in"
	if _, ok := m.store.Get(); ok {
		session = m.store.Profile().Email
	}
	right := th.ShortcutDesc.Render(session)
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	return th.Header.Render(title + lipgloss.NewStyle().Width(gap).Render("") + right)
}

func (m Model) statusView() string {
	th := m.theme
	if m.notice != "" {
		return th.StatusBar.Render(th.InfoStyle.Render(m.notice))
	}
	streaming := ""
	if m.engine.Active() {
		streaming = "streaming " + m.engine.Selection() + "  •  "
	}
	return th.StatusBar.Render(th.ShortcutDesc.Render(streaming + "backend " + m.cfg.Backend.BaseURL))
}
