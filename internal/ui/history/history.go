// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides the full conversation list screen, with open
// and delete operations.
package history

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

// ConversationsLoadedMsg delivers the stored conversations.
type ConversationsLoadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

// ConversationDeletedMsg reports the outcome of a delete.
type ConversationDeletedMsg struct {
	ConversationID string
	Err            error
}

// =============================================================================
// MODEL
// =============================================================================

// KeyMap defines the keyboard shortcuts for the history screen.
type KeyMap struct {
	Open    key.Binding
	Delete  key.Binding
	Up      key.Binding
	Down    key.Binding
	Refresh key.Binding
	Back    key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
		Delete:  key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("up", "previous")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("down", "next")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "home")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

// Model is the Bubble Tea model for the history screen.
type Model struct {
	theme  *styles.Theme
	client *api.Client
	logger *slog.Logger

	width  int
	height int

	list   components.ConversationList
	toasts *components.ToastManager
	keyMap KeyMap
}

// New creates the history screen.
func New(client *api.Client, theme *styles.Theme, logger *slog.Logger, toasts *components.ToastManager) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Model{
		theme:  theme,
		client: client,
		logger: logger.With("module", "history"),
		list:   components.NewConversationList(),
		toasts: toasts,
		keyMap: DefaultKeyMap(),
	}
}

// SetSize adjusts the layout to the content area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Init starts the conversation fetch.
func (m *Model) Init() tea.Cmd {
	return m.loadCmd()
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m *Model) loadCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		conversations, err := client.ListConversations(ctx)
		return ConversationsLoadedMsg{Conversations: conversations, Err: err}
	}
}

func (m *Model) deleteCmd(conversationID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		err := client.DeleteConversation(ctx, conversationID)
		return ConversationDeletedMsg{ConversationID: conversationID, Err: err}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles one message for the history screen.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConversationsLoadedMsg:
		if msg.Err != nil {
			m.logger.Warn("conversation list failed", "error", msg.Err)
			m.list.SetError(msg.Err)
			return m, nil
		}
		m.list.SetConversations(msg.Conversations)
		return m, nil

	case ConversationDeletedMsg:
		if msg.Err != nil {
			// A 404 is still a rejected delete; the user asked and the
			// server said no.
			m.logger.Warn("delete failed", "conversation_id", msg.ConversationID, "error", msg.Err)
			m.toasts.AddError("Could not delete the conversation.")
		} else {
			m.toasts.AddSuccess("Conversation deleted.")
		}
		// Refetch either way so the list matches the server.
		return m, m.loadCmd()

	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Back):
		return m, func() tea.Msg { return ui.NavigateHomeMsg{} }

	case key.Matches(msg, m.keyMap.Up):
		m.list.MoveUp()
		return m, nil

	case key.Matches(msg, m.keyMap.Down):
		m.list.MoveDown()
		return m, nil

	case key.Matches(msg, m.keyMap.Refresh):
		m.list.SetLoading()
		m.toasts.AddStatus("Refreshing conversations.")
		return m, m.loadCmd()

	case key.Matches(msg, m.keyMap.Open):
		if c, ok := m.list.Selected(); ok {
			return m, func() tea.Msg {
				return ui.NavigateToChatMsg{ConversationID: c.ConversationID, Title: c.Title}
			}
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Delete):
		c, ok := m.list.Selected()
		if !ok {
			return m, nil
		}
		// Drop the row immediately; the refetch after the server call
		// settles the authoritative list.
		m.list.Remove(c.ConversationID)
		return m, m.deleteCmd(c.ConversationID)

	default:
		return m, nil
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the history screen body.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.theme.RoleLabel.Render("Conversation history"))
	b.WriteString("\n\n")
	b.WriteString(m.list.Render(m.theme, m.width, 0))
	return b.String()
}
