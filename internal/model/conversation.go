// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Conversation is a server-owned conversation summary. The client only
// reads, renders, and requests deletion; the title may be empty until the
// server's title-generation call completes.
type Conversation struct {
	ConversationID string `json:"conversationId"`
	Title          string `json:"title"`
}

// HistoryMessage is one entry of a conversation's stored message history as
// returned by the server.
type HistoryMessage struct {
	MessageID string `json:"messageId"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
}

// Message converts a history entry into a display message.
func (h HistoryMessage) Message() *Message {
	return NewHistoryMessage(h.MessageID, h.Role, h.Content)
}

// User is the authenticated account as reported by the members endpoint.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
