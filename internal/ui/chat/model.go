// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"log/slog"

	"github.com/charmbracelet/bubbles/viewport"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/config"
	"github.com/uniroad/uniroad-tui/internal/markdown"
	"github.com/uniroad/uniroad-tui/internal/session"
	"github.com/uniroad/uniroad-tui/internal/ui/components"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// Model is the Bubble Tea model for the conversation view.
type Model struct {
	// Styling
	theme *styles.Theme

	// Dimensions
	width  int
	height int

	// Backend
	client *api.Client
	sess   *session.Session
	logger *slog.Logger

	// Pending first question, streamed once history confirms the
	// conversation is new.
	firstMessage string

	// UI components
	viewport viewport.Model
	input    components.InputBox
	spinner  components.Spinner
	renderer *markdown.Renderer
	keyMap   KeyMap

	// State
	notFound bool
	ready    bool
}

// New creates the view for one conversation. firstMessage is non-empty only
// when the conversation was just created and its opening question has not
// been streamed yet.
func New(client *api.Client, theme *styles.Theme, logger *slog.Logger, conversationID, title, firstMessage string) *Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("module", "chat", "conversation_id", conversationID)

	cfg := config.Global()
	sess := session.New(client, conversationID, title, logger)
	sess.SetIdleTimeout(cfg.StreamIdleTimeout())

	renderer := markdown.NewRenderer(72)
	renderer.SetEnabled(cfg.UI.Markdown)

	return &Model{
		theme:        theme,
		client:       client,
		sess:         sess,
		logger:       logger,
		firstMessage: firstMessage,
		input:        components.NewInputBox("Ask about studying abroad..."),
		spinner:      components.NewWaitingSpinner(),
		renderer:     renderer,
		keyMap:       DefaultKeyMap(),
	}
}

// Session exposes the underlying session for the root model's status bar.
func (m *Model) Session() *session.Session {
	return m.sess
}

// Title returns the conversation title, or empty until one is generated.
func (m *Model) Title() string {
	return m.sess.Title()
}

// Streaming reports whether an answer is currently being received.
func (m *Model) Streaming() bool {
	return m.sess.State() == session.StateStreaming
}

// SetSize adjusts the layout to the content area.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height

	inputHeight := 3
	vpHeight := height - inputHeight - 1
	if vpHeight < 3 {
		vpHeight = 3
	}

	if !m.ready {
		m.viewport = viewport.New(width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = vpHeight
	}
	m.input.SetWidth(width)
	m.renderer.SetWidth(min(width-8, 100))
	m.refreshViewport(false)
}
