// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/config"
)

// loadHistoryCmd fetches the stored transcript.
func (m *Model) loadHistoryCmd() tea.Cmd {
	client := m.client
	conversationID := m.sess.ConversationID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		history, err := client.History(ctx, conversationID)
		return HistoryLoadedMsg{History: history, Err: err}
	}
}

// loadConversationCmd fetches the conversation metadata for its title.
func (m *Model) loadConversationCmd() tea.Cmd {
	client := m.client
	conversationID := m.sess.ConversationID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		conv, err := client.GetConversation(ctx, conversationID)
		return ConversationLoadedMsg{Conversation: conv, Err: err}
	}
}

// startStreamCmd delays briefly before opening the stream, so the viewport
// paints the submitted question first.
func startStreamCmd(content string) tea.Cmd {
	return tea.Tick(config.Global().StreamStartDelay(), func(time.Time) tea.Msg {
		return StartStreamMsg{Content: content}
	})
}

// waitForEvent pumps the next stream event into the update loop. The
// update handler re-issues it until the stream ends.
func waitForEvent(events <-chan api.StreamEvent) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamClosedMsg{}
		}
		return StreamEventMsg{Event: ev}
	}
}

// generateTitleCmd delays briefly, then asks the server for a title. The
// delay gives the server time to commit the completed exchange.
func generateTitleCmd() tea.Cmd {
	return tea.Tick(config.Global().TitleDelay(), func(time.Time) tea.Msg {
		return GenerateTitleMsg{}
	})
}

// requestTitleCmd performs the title generation call.
func (m *Model) requestTitleCmd() tea.Cmd {
	client := m.client
	conversationID := m.sess.ConversationID()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), config.Global().RequestTimeout())
		defer cancel()
		conv, err := client.GenerateTitle(ctx, conversationID)
		return TitleGeneratedMsg{Conversation: conv, Err: err}
	}
}
