// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/uniroad/uniroad-tui/internal/model"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
	"github.com/uniroad/uniroad-tui/internal/util"
)

// UntitledConversation is shown for conversations whose title has not been
// generated yet.
const UntitledConversation = "New conversation"

// ConversationList renders the saved conversations with keyboard selection.
// Exactly one of the loading, error, empty, and list states is shown, in
// that order of precedence.
type ConversationList struct {
	conversations []model.Conversation
	loading       bool
	err           error
	selected      int
}

// NewConversationList starts in the loading state, since the fetch begins
// immediately.
func NewConversationList() ConversationList {
	return ConversationList{loading: true}
}

// SetConversations replaces the list contents and leaves the loading and
// error states.
func (l *ConversationList) SetConversations(conversations []model.Conversation) {
	l.conversations = conversations
	l.loading = false
	l.err = nil
	if l.selected >= len(conversations) {
		l.selected = len(conversations) - 1
	}
	if l.selected < 0 {
		l.selected = 0
	}
}

// SetLoading puts the list back into the loading state.
func (l *ConversationList) SetLoading() {
	l.loading = true
	l.err = nil
}

// SetError records a fetch failure.
func (l *ConversationList) SetError(err error) {
	l.loading = false
	l.err = err
}

// Loading reports whether a fetch is in flight.
func (l *ConversationList) Loading() bool { return l.loading }

// Err returns the recorded fetch failure, if any.
func (l *ConversationList) Err() error { return l.err }

// Len returns the number of conversations.
func (l *ConversationList) Len() int { return len(l.conversations) }

// Conversations returns the current contents.
func (l *ConversationList) Conversations() []model.Conversation {
	return l.conversations
}

// Selected returns the highlighted conversation, or false when the list is
// empty or not ready.
func (l *ConversationList) Selected() (model.Conversation, bool) {
	if l.loading || l.err != nil || len(l.conversations) == 0 {
		return model.Conversation{}, false
	}
	return l.conversations[l.selected], true
}

// MoveUp moves the selection toward the top, stopping there.
func (l *ConversationList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection toward the bottom, stopping there.
func (l *ConversationList) MoveDown() {
	if l.selected < len(l.conversations)-1 {
		l.selected++
	}
}

// Remove drops a conversation by ID without waiting for the server, so a
// delete feels immediate. The caller refetches afterwards for the
// authoritative list.
func (l *ConversationList) Remove(conversationID string) {
	for i, c := range l.conversations {
		if c.ConversationID == conversationID {
			l.conversations = append(l.conversations[:i], l.conversations[i+1:]...)
			break
		}
	}
	if l.selected >= len(l.conversations) && l.selected > 0 {
		l.selected = len(l.conversations) - 1
	}
}

// Render draws the list. The limit bounds how many rows are shown; zero
// means all.
func (l *ConversationList) Render(theme *styles.Theme, width, limit int) string {
	switch {
	case l.loading:
		return theme.ListEmpty.Render("Loading conversations...")
	case l.err != nil:
		return theme.ErrorBox.Render(
			theme.ErrorTitle.Render("Could not load conversations.") + "\n" +
				theme.ErrorHint.Render("Check your connection and try again."))
	case len(l.conversations) == 0:
		return theme.ListEmpty.Render("No conversations yet. Ask your first question!")
	}

	rows := l.conversations
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}

	var b strings.Builder
	for i, c := range rows {
		title := c.Title
		if title == "" {
			title = UntitledConversation
		}
		title = util.TruncateWidth(title, width-4)

		if i == l.selected {
			b.WriteString(theme.ListItemSelected.Render("> " + title))
		} else {
			b.WriteString(theme.ListItem.Render("  " + title))
		}
		if i < len(rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
