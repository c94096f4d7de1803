// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/ui"
)

// Init loads the transcript and, when the title is unknown, the
// conversation metadata.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadHistoryCmd(), m.spinner.Start()}
	if m.sess.Title() == "" && m.firstMessage == "" {
		cmds = append(cmds, m.loadConversationCmd())
	}
	return tea.Batch(cmds...)
}

// Update handles one message for the conversation view.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case ConversationLoadedMsg:
		if msg.Err == nil {
			m.sess.SetTitle(msg.Conversation.Title)
		}
		return m, nil

	case StartStreamMsg:
		return m.handleStartStream(msg)

	case StreamEventMsg:
		return m.handleStreamEvent(msg)

	case StreamClosedMsg:
		// Channel closed without a terminal sentinel: treat it like a
		// dropped connection.
		out := m.sess.Apply(api.StreamEvent{Err: errors.New("stream closed unexpectedly")})
		if out.Done {
			m.endStreaming()
		}
		return m, nil

	case GenerateTitleMsg:
		return m, m.requestTitleCmd()

	case TitleGeneratedMsg:
		if msg.Err != nil {
			// The conversation works fine without a title. Log and move on.
			m.logger.Warn("title generation failed", "error", msg.Err)
			return m, nil
		}
		m.sess.SetTitle(msg.Conversation.Title)
		return m, nil

	default:
		var cmds []tea.Cmd
		if cmd := m.spinner.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		if cmd := m.input.Update(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (*Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.sess.CloseStream()
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.Back):
		m.sess.CloseStream()
		return m, func() tea.Msg { return ui.NavigateHomeMsg{} }

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.ScrollUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keyMap.ScrollDn):
		m.viewport.HalfViewDown()
		return m, nil

	default:
		return m, m.input.Update(msg)
	}
}

func (m *Model) handleSubmit() (*Model, tea.Cmd) {
	content, ok := m.sess.Submit(m.input.Value())
	if !ok {
		return m, nil
	}

	m.input.Reset()
	m.input.Disable()
	m.refreshViewport(true)
	return m, tea.Batch(startStreamCmd(content), m.spinner.Start())
}

func (m *Model) handleHistoryLoaded(msg HistoryLoadedMsg) (*Model, tea.Cmd) {
	m.spinner.Stop()

	if msg.Err != nil {
		if errors.Is(msg.Err, api.ErrNotFound) {
			m.notFound = true
			return m, func() tea.Msg { return ui.NavigateNotFoundMsg{} }
		}
		if errors.Is(msg.Err, api.ErrUnauthorized) {
			return m, func() tea.Msg { return ui.NavigateLoginMsg{} }
		}
		// Any other failure degrades to an empty transcript; the
		// conversation stays usable.
		m.logger.Warn("history load failed", "error", msg.Err)
		msg.History = nil
	}

	pending := m.sess.Initialize(msg.History, m.firstMessage)
	m.firstMessage = ""
	m.refreshViewport(true)

	if pending != "" {
		m.input.Disable()
		return m, tea.Batch(startStreamCmd(pending), m.spinner.Start())
	}
	return m, nil
}

func (m *Model) handleStartStream(msg StartStreamMsg) (*Model, tea.Cmd) {
	if err := m.sess.StartStream(msg.Content); err != nil {
		m.logger.Warn("stream start failed", "error", err)
		m.endStreaming()
		m.refreshViewport(true)
		return m, nil
	}
	return m, waitForEvent(m.sess.Events())
}

func (m *Model) handleStreamEvent(msg StreamEventMsg) (*Model, tea.Cmd) {
	out := m.sess.Apply(msg.Event)
	m.refreshViewport(true)

	if !out.Done {
		return m, waitForEvent(m.sess.Events())
	}

	m.endStreaming()
	if out.GenerateTitle {
		return m, generateTitleCmd()
	}
	return m, nil
}

// endStreaming restores the input once a stream terminates.
func (m *Model) endStreaming() {
	m.spinner.Stop()
	m.input.Enable()
}
