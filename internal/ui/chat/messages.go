// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation view: the message transcript, the
// question input, and the streaming lifecycle around them.
//
// This file defines the Bubble Tea message types used by the view:
//   - History: initial load of the stored transcript
//   - Streaming: deferred stream start, event delivery, channel closure
//   - Title: deferred title generation after the first exchange
package chat

import (
	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/model"
)

// =============================================================================
// HISTORY MESSAGES
// =============================================================================

// HistoryLoadedMsg delivers the stored transcript, or the error that
// prevented loading it.
type HistoryLoadedMsg struct {
	History []model.HistoryMessage
	Err     error
}

// ConversationLoadedMsg delivers the conversation metadata, used to show
// the title when one exists.
type ConversationLoadedMsg struct {
	Conversation model.Conversation
	Err          error
}

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// StartStreamMsg asks the view to open the completion stream for a
// submitted question. It arrives after a short delay so the transcript
// renders the question before the connection work begins.
type StartStreamMsg struct {
	Content string
}

// StreamEventMsg delivers one event from the live stream.
type StreamEventMsg struct {
	Event api.StreamEvent
}

// StreamClosedMsg signals that the stream channel closed without a
// terminal sentinel.
type StreamClosedMsg struct{}

// =============================================================================
// TITLE MESSAGES
// =============================================================================

// GenerateTitleMsg asks the view to request a server-generated title. It
// arrives after a short delay so the completed exchange is committed
// server-side first.
type GenerateTitleMsg struct{}

// TitleGeneratedMsg delivers the generated title.
type TitleGeneratedMsg struct {
	Conversation model.Conversation
	Err          error
}
