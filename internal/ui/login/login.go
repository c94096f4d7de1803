// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the sign-in screen. The OAuth flow happens in a
// browser; this screen shows the address to open and polls the server
// until the session cookie is accepted.
package login

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/uniroad/uniroad-tui/internal/auth"
	"github.com/uniroad/uniroad-tui/internal/config"
	"github.com/uniroad/uniroad-tui/internal/ui"
	"github.com/uniroad/uniroad-tui/internal/ui/components"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
	"github.com/uniroad/uniroad-tui/internal/util"
)

// CheckResolvedMsg delivers the outcome of a session check.
type CheckResolvedMsg struct {
	State auth.State
	Err   error
}

// KeyMap defines the keyboard shortcuts for the sign-in screen.
type KeyMap struct {
	Retry key.Binding
	Open  key.Binding
	Quit  key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Retry: key.NewBinding(key.WithKeys("r", "enter"), key.WithHelp("r", "check again")),
		Open:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open browser")),
		Quit:  key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

// Model is the Bubble Tea model for the sign-in screen.
type Model struct {
	theme   *styles.Theme
	manager *auth.Manager
	logger  *slog.Logger

	width    int
	height   int
	spinner  components.Spinner
	keyMap   KeyMap
	checking bool
	lastErr  error
}

// New creates the sign-in screen.
func New(manager *auth.Manager, theme *styles.Theme, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Model{
		theme:   theme,
		manager: manager,
		logger:  logger.With("module", "login"),
		spinner: components.NewSpinner("Checking session"),
		keyMap:  DefaultKeyMap(),
	}
}

// SetSize adjusts the layout to the content area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Init starts the first session check and tries to open the sign-in page.
// The URL stays on screen either way, so a failed open costs nothing.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.check(), m.openBrowserCmd())
}

func (m *Model) openBrowserCmd() tea.Cmd {
	url := m.manager.LoginURL()
	logger := m.logger
	return func() tea.Msg {
		if err := util.OpenBrowser(url); err != nil {
			logger.Debug("could not open browser", "error", err)
		}
		return nil
	}
}

func (m *Model) check() tea.Cmd {
	m.checking = true
	manager := m.manager
	return tea.Batch(m.spinner.Start(), func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		state, err := manager.Check(ctx)
		return CheckResolvedMsg{State: state, Err: err}
	})
}

// Update handles one message for the sign-in screen.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keyMap.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keyMap.Retry):
			if m.checking {
				return m, nil
			}
			return m, m.check()
		case key.Matches(msg, m.keyMap.Open):
			return m, m.openBrowserCmd()
		}
		return m, nil

	case CheckResolvedMsg:
		m.checking = false
		m.spinner.Stop()
		m.lastErr = msg.Err
		if msg.State.Authenticated {
			return m, func() tea.Msg { return ui.NavigateHomeMsg{} }
		}
		return m, nil

	default:
		return m, m.spinner.Update(msg)
	}
}

// View renders the sign-in screen body.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.LoginTitle.Render("Sign in to UniRoad"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.LoginHint.Render("Open this address in your browser and sign in with Google:"))
	b.WriteString("\n\n")
	b.WriteString(m.theme.LoginURL.Render(m.manager.LoginURL()))
	b.WriteString("\n\n")

	if m.checking {
		b.WriteString(m.spinner.View(m.theme))
	} else if m.lastErr != nil {
		b.WriteString(m.theme.ErrorMessage.Render("Could not reach the server."))
		b.WriteString("\n")
		b.WriteString(m.theme.LoginHint.Render("Press r to try again."))
	} else {
		b.WriteString(m.theme.LoginHint.Render("Press o to open the browser, r once you have signed in."))
	}

	return m.theme.LoginBox.Render(b.String())
}
