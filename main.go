// uniroad TUI - a terminal client for the UniRoad study-abroad Q&A service.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/auth"
	"github.com/uniroad/uniroad-tui/internal/cli"
	"github.com/uniroad/uniroad-tui/internal/config"
	"github.com/uniroad/uniroad-tui/internal/ui"
	"github.com/uniroad/uniroad-tui/internal/ui/chat"
	"github.com/uniroad/uniroad-tui/internal/ui/components"
	"github.com/uniroad/uniroad-tui/internal/ui/history"
	"github.com/uniroad/uniroad-tui/internal/ui/home"
	"github.com/uniroad/uniroad-tui/internal/ui/login"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if args.ServerURL != "" {
		cfg.Server.BaseURL = args.ServerURL
	}
	if args.Debug {
		cfg.Log.Debug = true
	}
	config.SetGlobal(cfg)

	switch cmd {
	case cli.CmdTUI:
		runTUI()
	case cli.CmdChat:
		cli.HandleChat(args)
	case cli.CmdStatus:
		cli.HandleStatus(args)
	case cli.CmdConfig:
		cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion()
	case cli.CmdHelp:
		cli.HandleHelp()
	}
}

// newLogger opens the log file. The TUI owns the terminal, so logs never
// go to stdout or stderr.
func newLogger() *slog.Logger {
	cfg := config.Global()
	path, err := cfg.LogPath()
	if err != nil {
		return slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return slog.New(slog.DiscardHandler)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return slog.New(slog.DiscardHandler)
	}

	level := slog.LevelInfo
	if cfg.Log.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level}))
}

func runTUI() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Not a terminal. Use 'uniroad chat' for plain stdio.")
		os.Exit(1)
	}

	cfg := config.Global()
	logger := newLogger()

	client, err := api.New(cfg.Server.BaseURL, cfg.RequestTimeout(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	m := newAppModel(client, logger)

	// Reload configuration when the file changes on disk.
	if path, err := config.Path(); err == nil {
		stop, werr := config.Watch(path, logger, nil)
		if werr == nil {
			defer stop()
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running uniroad: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// screen identifies the active view.
type screen int

const (
	screenAuthPending screen = iota // session check in flight, render nothing routed
	screenLogin
	screenHome
	screenChat
	screenHistory
	screenNotFound
)

// authResolvedMsg delivers the startup session check.
type authResolvedMsg struct {
	state auth.State
	err   error
}

// logoutDoneMsg signals the session has ended.
type logoutDoneMsg struct{}

// appModel is the root Bubble Tea model. It owns authentication and
// routing; each screen is its own model.
type appModel struct {
	theme   *styles.Theme
	client  *api.Client
	manager *auth.Manager
	logger  *slog.Logger

	width  int
	height int

	screen    screen
	loginView *login.Model
	homeView  *home.Model
	chatView  *chat.Model
	histView  *history.Model

	header  components.Header
	status  components.StatusBar
	toasts  *components.ToastManager
	spinner components.Spinner
}

func newAppModel(client *api.Client, logger *slog.Logger) *appModel {
	manager := auth.NewManager(client, logger)
	manager.SetOnChange(func(s auth.State) {
		logger.Info("auth state changed", "authenticated", s.Authenticated)
	})
	return &appModel{
		theme:   styles.NewTheme(),
		client:  client,
		manager: manager,
		logger:  logger.With("module", "app"),
		screen:  screenAuthPending,
		header:  components.NewHeader(),
		status:  components.NewStatusBar(),
		toasts:  components.NewToastManager(),
		spinner: components.NewSpinner("Checking session"),
	}
}

// Init starts the session check. No protected screen is constructed until
// it resolves.
func (m *appModel) Init() tea.Cmd {
	return tea.Batch(m.checkAuthCmd(), m.spinner.Start(), components.ToastTickCmd())
}

func (m *appModel) checkAuthCmd() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		state, err := manager.Check(ctx)
		return authResolvedMsg{state: state, err: err}
	}
}

func (m *appModel) logoutCmd() tea.Cmd {
	manager := m.manager
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		manager.Logout(ctx)
		return logoutDoneMsg{}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.theme.SetSize(msg.Width, msg.Height)
		m.resizeViews()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			if m.chatView != nil {
				m.chatView.Session().CloseStream()
			}
			return m, tea.Quit
		}
		return m.route(msg)

	case authResolvedMsg:
		return m.handleAuthResolved(msg)

	case logoutDoneMsg:
		// Local state is cleared regardless of the remote outcome.
		m.header.SetUser(nil)
		m.chatView = nil
		m.homeView = nil
		m.histView = nil
		m.toasts.Clear()
		return m.showLogin()

	case components.ToastTickMsg:
		m.toasts.Tick()
		return m, components.ToastTickCmd()

	case ui.NavigateToChatMsg:
		view := chat.New(m.client, m.theme, m.logger, msg.ConversationID, msg.Title, msg.FirstMessage)
		view.SetSize(m.width, m.contentHeight())
		m.chatView = view
		m.screen = screenChat
		return m, view.Init()

	case ui.NavigateHomeMsg:
		return m.showHome()

	case ui.NavigateHistoryMsg:
		view := history.New(m.client, m.theme, m.logger, m.toasts)
		view.SetSize(m.width, m.contentHeight())
		m.histView = view
		m.screen = screenHistory
		return m, view.Init()

	case ui.NavigateLoginMsg:
		return m.showLogin()

	case ui.NavigateNotFoundMsg:
		m.screen = screenNotFound
		return m, nil

	case ui.LogoutRequestedMsg:
		return m, m.logoutCmd()

	default:
		if m.screen == screenAuthPending {
			return m, m.spinner.Update(msg)
		}
		return m.route(msg)
	}
}

func (m *appModel) handleAuthResolved(msg authResolvedMsg) (tea.Model, tea.Cmd) {
	m.spinner.Stop()
	if msg.err != nil {
		m.logger.Warn("startup session check failed", "error", msg.err)
	}
	if !msg.state.Authenticated {
		return m.showLogin()
	}
	m.header.SetUser(msg.state.User)
	return m.showHome()
}

func (m *appModel) showLogin() (tea.Model, tea.Cmd) {
	view := login.New(m.manager, m.theme, m.logger)
	view.SetSize(m.width, m.contentHeight())
	m.loginView = view
	m.screen = screenLogin
	return m, view.Init()
}

func (m *appModel) showHome() (tea.Model, tea.Cmd) {
	// The session may have resolved since login; keep the header current.
	if state := m.manager.State(); state.Authenticated {
		m.header.SetUser(state.User)
	}
	view := home.New(m.client, m.theme, m.logger, m.toasts)
	view.SetSize(m.width, m.contentHeight())
	m.homeView = view
	m.screen = screenHome
	return m, view.Init()
}

// route forwards a message to the active screen's model.
func (m *appModel) route(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		if m.loginView != nil {
			m.loginView, cmd = m.loginView.Update(msg)
		}
	case screenHome:
		if m.homeView != nil {
			m.homeView, cmd = m.homeView.Update(msg)
		}
	case screenChat:
		if m.chatView != nil {
			m.chatView, cmd = m.chatView.Update(msg)
			m.status.SetStreaming(m.chatView.Streaming())
		}
	case screenHistory:
		if m.histView != nil {
			m.histView, cmd = m.histView.Update(msg)
		}
	case screenNotFound:
		if key, ok := msg.(tea.KeyMsg); ok && key.Type == tea.KeyEsc {
			return m.showHome()
		}
	}
	return m, cmd
}

func (m *appModel) resizeViews() {
	h := m.contentHeight()
	if m.loginView != nil {
		m.loginView.SetSize(m.width, h)
	}
	if m.homeView != nil {
		m.homeView.SetSize(m.width, h)
	}
	if m.chatView != nil {
		m.chatView.SetSize(m.width, h)
	}
	if m.histView != nil {
		m.histView.SetSize(m.width, h)
	}
}

// contentHeight is the area left between the header and the status bar.
func (m *appModel) contentHeight() int {
	h := m.height - 3
	if h < 5 {
		h = 5
	}
	return h
}

// =============================================================================
// VIEW
// =============================================================================

func (m *appModel) View() string {
	if m.width == 0 {
		return ""
	}

	subtitle := ""
	body := ""
	switch m.screen {
	case screenAuthPending:
		// Route guard: neither the signed-in nor the signed-out
		// experience may flash while the session is unresolved.
		body = m.spinner.View(m.theme)
	case screenLogin:
		if m.loginView != nil {
			body = m.loginView.View()
		}
	case screenHome:
		if m.homeView != nil {
			body = m.homeView.View()
		}
	case screenChat:
		if m.chatView != nil {
			subtitle = m.chatView.Title()
			body = m.chatView.View()
		}
	case screenHistory:
		if m.histView != nil {
			body = m.histView.View()
		}
	case screenNotFound:
		body = m.theme.ListEmpty.Render("This conversation no longer exists. Press esc to go home.")
	}

	out := m.header.Render(m.theme, m.width, subtitle) + "\n"
	out += m.theme.Container.Render(body) + "\n"

	for _, t := range m.toasts.Toasts() {
		out += components.RenderToast(m.theme, t, m.width) + "\n"
	}

	out += m.status.Render(m.theme, m.width, m.shortcuts())
	return out
}

func (m *appModel) shortcuts() []components.Shortcut {
	switch m.screen {
	case screenHome:
		return []components.Shortcut{
			{Key: "enter", Desc: "ask"},
			{Key: "tab", Desc: "focus"},
			{Key: "ctrl+h", Desc: "history"},
			{Key: "ctrl+o", Desc: "sign out"},
			{Key: "ctrl+c", Desc: "quit"},
		}
	case screenChat:
		return []components.Shortcut{
			{Key: "enter", Desc: "send"},
			{Key: "esc", Desc: "home"},
			{Key: "pgup/pgdn", Desc: "scroll"},
			{Key: "ctrl+c", Desc: "quit"},
		}
	case screenHistory:
		return []components.Shortcut{
			{Key: "enter", Desc: "open"},
			{Key: "d", Desc: "delete"},
			{Key: "r", Desc: "refresh"},
			{Key: "esc", Desc: "home"},
		}
	default:
		return []components.Shortcut{
			{Key: "ctrl+c", Desc: "quit"},
		}
	}
}
