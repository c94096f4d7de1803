// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package home

import (
	"errors"
	"strings"
	"testing"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/model"
	"github.com/uniroad/uniroad-tui/internal/ui"
	"github.com/uniroad/uniroad-tui/internal/ui/components"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	client, err := api.New("http://127.0.0.1:0", 0, nil)
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}
	m := New(client, styles.NewTheme(), nil, components.NewToastManager())
	m.SetSize(80, 24)
	return m
}

func TestConversationsLoadedPopulatesRecent(t *testing.T) {
	m := newTestModel(t)

	m, _ = m.Update(ConversationsLoadedMsg{Conversations: []model.Conversation{
		{ConversationID: "c-1", Title: "Visa timeline"},
	}})

	if !strings.Contains(m.View(), "Visa timeline") {
		t.Error("recent conversation not rendered")
	}
}

func TestConversationsLoadErrorShown(t *testing.T) {
	m := newTestModel(t)

	m, _ = m.Update(ConversationsLoadedMsg{Err: errors.New("boom")})
	if !strings.Contains(m.View(), "Could not load") {
		t.Error("list error not rendered")
	}
}

func TestConversationCreatedNavigatesWithFirstMessage(t *testing.T) {
	m := newTestModel(t)

	m, cmd := m.Update(ConversationCreatedMsg{
		ConversationID: "c-new",
		Question:       "How do I open a bank account?",
	})
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}

	nav, ok := cmd().(ui.NavigateToChatMsg)
	if !ok {
		t.Fatalf("expected NavigateToChatMsg, got %T", cmd())
	}
	if nav.ConversationID != "c-new" {
		t.Errorf("conversation id = %q", nav.ConversationID)
	}
	if nav.FirstMessage != "How do I open a bank account?" {
		t.Errorf("first message = %q", nav.FirstMessage)
	}
}

func TestConversationCreateFailureStaysOnHome(t *testing.T) {
	m := newTestModel(t)
	m.creating = true

	m, cmd := m.Update(ConversationCreatedMsg{Err: errors.New("server down")})
	if cmd != nil {
		t.Error("failure must not navigate")
	}
	if m.creating {
		t.Error("creating flag not cleared")
	}
	if !m.toasts.HasToasts() {
		t.Error("no toast recorded for the failure")
	}
	if m.input.Disabled() {
		t.Error("input still disabled after failure")
	}
}

func TestSubmitIgnoredWhileCreating(t *testing.T) {
	m := newTestModel(t)
	m.creating = true

	m, cmd := m.handleSubmit()
	if cmd != nil {
		t.Error("submit accepted while a create was in flight")
	}
}

func TestCreateSuccessDismissesEarlierFailureToast(t *testing.T) {
	m := newTestModel(t)

	m, _ = m.Update(ConversationCreatedMsg{Err: errors.New("boom")})
	if !m.toasts.HasToasts() {
		t.Fatal("expected a toast for the failed create")
	}

	m, cmd := m.Update(ConversationCreatedMsg{ConversationID: "c-2", Question: "retry"})
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	if m.toasts.HasToasts() {
		t.Error("stale failure toast should be dismissed after a successful create")
	}
}
