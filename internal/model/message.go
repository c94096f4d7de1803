// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message, matching the server's wire values.
type Role string

const (
	RoleUser      Role = "USER"
	RoleAssistant Role = "ASSISTANT"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single turn in a conversation.
//
// New messages get a client-generated ID; messages loaded from history keep
// the server-provided one. An assistant message starts as an empty streaming
// placeholder and accumulates content fragment by fragment until the stream
// terminates, after which it is immutable.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// IsStreaming is true only while fragments are still arriving.
	IsStreaming bool `json:"-"`

	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming.
	streamContent strings.Builder
}

// NewUserMessage creates a fully formed user message with a generated ID.
func NewUserMessage(content string) *Message {
	return &Message{
		ID:      GenerateID(),
		Role:    RoleUser,
		Content: content,
	}
}

// NewAssistantPlaceholder creates an empty assistant message marked streaming.
func NewAssistantPlaceholder() *Message {
	return &Message{
		ID:          GenerateID(),
		Role:        RoleAssistant,
		IsStreaming: true,
	}
}

// NewHistoryMessage creates a message from a server-provided history entry.
func NewHistoryMessage(id string, role Role, content string) *Message {
	return &Message{
		ID:      id,
		Role:    role,
		Content: content,
	}
}

// AppendFragment appends a content fragment verbatim to a streaming message.
// Fragments are never trimmed or deduplicated; they may arrive in any size.
func (m *Message) AppendFragment(fragment string) {
	if m.IsStreaming {
		m.streamContent.WriteString(fragment)
	}
}

// Finalize ends streaming and merges accumulated fragments into Content.
// If no content arrived and fallback is non-empty, the fallback becomes the
// message content. Calling Finalize on a non-streaming message is a no-op.
func (m *Message) Finalize(fallback string) {
	if !m.IsStreaming {
		return
	}
	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false

	if m.Content == "" && fallback != "" {
		m.Content = fallback
	}
}

// DisplayContent returns the content to display, streamed or final.
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// IsEmpty returns true if the message has no content at all.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// GenerateID returns a new client-side message identifier.
func GenerateID() string {
	return uuid.NewString()
}
