// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/uniroad/uniroad-tui/internal/model"
)

// streamingCursor marks the insertion point while an answer is arriving.
const streamingCursor = "▍"

// View renders the transcript above the input row.
func (m *Model) View() string {
	if !m.ready {
		return ""
	}
	if m.notFound {
		return m.theme.ListEmpty.Render("This conversation no longer exists.")
	}

	var b strings.Builder
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.spinner.Active() {
		b.WriteString(m.spinner.View(m.theme))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View(m.theme))
	return b.String()
}

// refreshViewport rebuilds the transcript. When follow is set the view
// sticks to the bottom, tracking the incoming answer.
func (m *Model) refreshViewport(follow bool) {
	if !m.ready {
		return
	}

	var b strings.Builder
	for i, msg := range m.sess.Messages() {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.renderMessage(msg))
	}
	m.viewport.SetContent(b.String())
	if follow {
		m.viewport.GotoBottom()
	}
}

// renderMessage draws one transcript entry. Assistant answers go through
// the markdown pipeline; user questions stay plain so their text is shown
// exactly as typed.
func (m *Model) renderMessage(msg *model.Message) string {
	label := m.theme.RoleLabel.Render(msg.Role.DisplayName())

	switch msg.Role {
	case model.RoleUser:
		return label + "\n" + m.theme.UserBubble.Render(msg.DisplayContent())
	default:
		content := msg.DisplayContent()
		if msg.IsStreaming {
			if msg.IsEmpty() {
				return label + "\n" + m.theme.AssistantBubble.Render(
					m.theme.StreamingCursor.Render(streamingCursor))
			}
			// Partial markdown renders badly mid-stream, so show the raw
			// text with a cursor until the answer completes.
			return label + "\n" + m.theme.AssistantBubble.Render(
				content + m.theme.StreamingCursor.Render(streamingCursor))
		}
		return label + "\n" + m.theme.AssistantBubble.Render(m.renderer.Render(content))
	}
}
