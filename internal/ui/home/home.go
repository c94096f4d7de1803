// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package home provides the landing screen: the question input, starter
// questions, and the most recent conversations.
package home

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/config"
	"github.com/uniroad/uniroad-tui/internal/model"
	"github.com/uniroad/uniroad-tui/internal/ui"
	"github.com/uniroad/uniroad-tui/internal/ui/components"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ConversationsLoadedMsg delivers the recent conversations.
type ConversationsLoadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

// ConversationCreatedMsg delivers the identifier of a newly created
// conversation, together with the question that created it.
type ConversationCreatedMsg struct {
	ConversationID string
	Question       string
	Err            error
}

// =============================================================================
// MODEL
// =============================================================================

// focusArea tracks which part of the screen receives keys.
type focusArea int

const (
	focusInput focusArea = iota
	focusSamples
	focusRecent
)

// KeyMap defines the keyboard shortcuts for the home screen.
type KeyMap struct {
	Submit  key.Binding
	Cycle   key.Binding
	Up      key.Binding
	Down    key.Binding
	History key.Binding
	Logout  key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		Cycle:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch focus")),
		Up:     key.NewBinding(key.WithKeys("up"), key.WithHelp("up", "previous")),
		Down:   key.NewBinding(key.WithKeys("down"), key.WithHelp("down", "next")),
		History: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "history"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "sign out"),
		),
		Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// Model is the Bubble Tea model for the home screen.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	logger *slog.Logger

	width  int
	height int

	input   components.InputBox
	samples components.SampleQuestions
	recent  components.ConversationList
	toasts  *components.ToastManager
	keyMap  KeyMap

	focus    focusArea
	creating bool

	// Toast from the last failed create, dismissed once a create succeeds.
	failToastID int
}

// New creates the home screen.
func New(client *api.Client, theme *styles.Theme, logger *slog.Logger, toasts *components.ToastManager) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Model{
		theme:   theme,
		client:  client,
		logger:  logger.With("module", "home"),
		input:   components.NewInputBox("Ask about studying abroad..."),
		samples: components.NewSampleQuestions(config.Global().UI.SampleQuestions),
		recent:  components.NewConversationList(),
		toasts:  toasts,
		keyMap:  DefaultKeyMap(),
	}
}

// SetSize adjusts the layout to the content area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width)
}

// Init starts the recent conversation fetch.
func (m *Model) Init() tea.Cmd {
	return m.loadConversationsCmd()
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *Model) loadConversationsCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		conversations, err := client.ListConversations(ctx)
		return ConversationsLoadedMsg{Conversations: conversations, Err: err}
	}
}

func (m *Model) createConversationCmd(question string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		id, err := client.CreateConversation(ctx, question)
		return ConversationCreatedMsg{ConversationID: id, Question: question, Err: err}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles one message for the home screen.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationsLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("conversation list failed", "error", msg.Err)
			m.recent.SetError(msg.Err)
			return m, nil
		}
		m.recent.SetConversations(msg.Conversations)
		return m, nil

	case ConversationCreatedMsg:
		m.creating = false
		if msg.Err != nil {
			m.logger.Warn("conversation create failed", "error", msg.Err)
			m.failToastID = m.toasts.AddError("Could not start the conversation. Please try again.")
			m.input.Enable()
			return m, nil
		}
		// A stale failure toast is misleading once a create goes through.
		if m.failToastID != 0 {
			m.toasts.Dismiss(m.failToastID)
			m.failToastID = 0
		}
		// Hand off to the conversation view, which streams the question.
		return m, func() tea.Msg {
			return ui.NavigateToChatMsg{
				ConversationID: msg.ConversationID,
				FirstMessage:   msg.Question,
			}
		}

	default:
		return m, m.input.Update(msg)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.History):
		return m, func() tea.Msg { return ui.NavigateHistoryMsg{} }

	case key.Matches(msg, m.keyMap.Logout):
		return m, func() tea.Msg { return ui.LogoutRequestedMsg{} }

	case key.Matches(msg, m.keyMap.Cycle):
		m.cycleFocus()
		return m, nil

	case key.Matches(msg, m.keyMap.Up):
		return m.handleMove(-1, msg)

	case key.Matches(msg, m.keyMap.Down):
		return m.handleMove(1, msg)

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	default:
		if m.focus == focusInput {
			return m, m.input.Update(msg)
		}
		return m, nil
	}
}

func (m *Model) cycleFocus() {
	switch m.focus {
	case focusInput:
		m.input.Blur()
		if m.samples.Len() > 0 {
			m.focus = focusSamples
			m.samples.Focus()
		} else if m.recent.Len() > 0 {
			m.focus = focusRecent
		}
	case focusSamples:
		m.samples.Blur()
		if m.recent.Len() > 0 {
			m.focus = focusRecent
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
	default:
		m.focus = focusInput
		m.input.Focus()
	}
}

func (m *Model) handleMove(delta int, msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch m.focus {
	case focusSamples:
		if delta < 0 {
			m.samples.MoveUp()
		} else {
			m.samples.MoveDown()
		}
		return m, nil
	case focusRecent:
		if delta < 0 {
			m.recent.MoveUp()
		} else {
			m.recent.MoveDown()
		}
		return m, nil
	default:
		return m, m.input.Update(msg)
	}
}

func (m *Model) handleSubmit() (*Model, tea.Cmd) {
	if m.creating {
		return m, nil
	}

	switch m.focus {
	case focusSamples:
		if question, ok := m.samples.Selected(); ok {
			return m.submitQuestion(question)
		}
		return m, nil

	case focusRecent:
		if c, ok := m.recent.Selected(); ok {
			return m, func() tea.Msg {
				return ui.NavigateToChatMsg{ConversationID: c.ConversationID, Title: c.Title}
			}
		}
		return m, nil

	default:
		question := strings.TrimSpace(m.input.Value())
		if question == "" {
			return m, nil
		}
		return m.submitQuestion(question)
	}
}

func (m *Model) submitQuestion(question string) (*Model, tea.Cmd) {
	m.creating = true
	m.input.Disable()
	return m, m.createConversationCmd(question)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the home screen body.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.HeaderSubtitle.Render("Your study-abroad questions, answered."))
	b.WriteString("\n\n")
	b.WriteString(m.input.View(m.theme))
	b.WriteString("\n\n")
	b.WriteString(m.samples.Render(m.theme, m.width))
	b.WriteString("\n\n")

	b.WriteString(m.theme.RoleLabel.Render("Recent conversations"))
	b.WriteString("\n")
	b.WriteString(m.recent.Render(m.theme, m.width, config.Global().UI.RecentLimit))
	if m.recent.Len() > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.ListMeta.Render("ctrl+h to view all conversations"))
	}

	if m.creating {
		b.WriteString("\n\n")
		b.WriteString(m.theme.LoadingText.Render("Starting conversation..."))
	}
	return b.String()
}
