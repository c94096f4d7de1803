// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/model"
	"github.com/uniroad/uniroad-tui/internal/session"
	"github.com/uniroad/uniroad-tui/internal/ui"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// newTestModel builds a view against a client that is never dialed: the
// tests feed messages directly and do not execute network commands.
func newTestModel(t *testing.T, conversationID, firstMessage string) *Model {
	t.Helper()
	client, err := api.New("http://127.0.0.1:0", 0, nil)
	if err != nil {
		t.Fatalf("api.New failed: %v", err)
	}
	m := New(client, styles.NewTheme(), nil, conversationID, "", firstMessage)
	m.SetSize(80, 24)
	return m
}

func TestHistoryLoadedInitializesTranscript(t *testing.T) {
	m := newTestModel(t, "c-1", "")

	history := []model.HistoryMessage{
		{MessageID: "m-1", Role: model.RoleUser, Content: "How cold is Ohio?"},
		{MessageID: "m-2", Role: model.RoleAssistant, Content: "Very, in January."},
	}
	m, _ = m.Update(HistoryLoadedMsg{History: history})

	if got := len(m.Session().Messages()); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
	if m.Session().State() != session.StateIdle {
		t.Errorf("expected idle session, got %v", m.Session().State())
	}
	if m.Streaming() {
		t.Error("view reports streaming after plain history load")
	}
}

func TestHistoryNotFoundNavigates(t *testing.T) {
	m := newTestModel(t, "gone", "")

	m, cmd := m.Update(HistoryLoadedMsg{Err: api.ErrNotFound})
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	if _, ok := cmd().(ui.NavigateNotFoundMsg); !ok {
		t.Errorf("expected NavigateNotFoundMsg, got %T", cmd())
	}
}

func TestHistoryUnauthorizedNavigatesToLogin(t *testing.T) {
	m := newTestModel(t, "c-1", "")

	m, cmd := m.Update(HistoryLoadedMsg{Err: api.ErrUnauthorized})
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	if _, ok := cmd().(ui.NavigateLoginMsg); !ok {
		t.Errorf("expected NavigateLoginMsg, got %T", cmd())
	}
}

func TestFirstMessageStartsStreamAfterEmptyHistory(t *testing.T) {
	m := newTestModel(t, "c-new", "Are the CSUSB dorms safe?")

	m, cmd := m.Update(HistoryLoadedMsg{})
	if cmd == nil {
		t.Fatal("expected the deferred stream command")
	}
	if m.Session().State() != session.StateStreaming {
		t.Errorf("expected streaming session, got %v", m.Session().State())
	}

	messages := m.Session().Messages()
	if len(messages) != 2 {
		t.Fatalf("expected synthesized exchange, got %d messages", len(messages))
	}
	if messages[0].Content != "Are the CSUSB dorms safe?" {
		t.Errorf("unexpected first question: %q", messages[0].Content)
	}
}

func TestStreamEventsBuildAnswerAndRequestTitle(t *testing.T) {
	m := newTestModel(t, "c-new", "first question")
	m, _ = m.Update(HistoryLoadedMsg{})

	for _, data := range []string{api.SentinelConnected, "The dorms ", "are safe."} {
		m, _ = m.Update(StreamEventMsg{Event: api.StreamEvent{Data: data}})
	}

	m, cmd := m.Update(StreamEventMsg{Event: api.StreamEvent{Data: api.SentinelDone}})
	if cmd == nil {
		t.Fatal("first completed exchange should schedule title generation")
	}

	answer := m.Session().Messages()[1]
	if answer.Content != "The dorms are safe." {
		t.Errorf("answer = %q", answer.Content)
	}
	if answer.IsStreaming {
		t.Error("answer still marked streaming")
	}
	if m.Streaming() {
		t.Error("view still reports streaming after done sentinel")
	}
}

func TestStreamErrorShowsFallbackInTranscript(t *testing.T) {
	m := newTestModel(t, "c-new", "first question")
	m, _ = m.Update(HistoryLoadedMsg{})

	m, _ = m.Update(StreamEventMsg{Event: api.StreamEvent{Data: api.SentinelError}})

	if got := m.Session().Messages()[1].Content; got != session.FallbackStreamError {
		t.Errorf("expected fallback text, got %q", got)
	}
	if !strings.Contains(m.View(), "Sorry") {
		t.Error("fallback not visible in rendered view")
	}
}

func TestTitleGeneratedUpdatesTitle(t *testing.T) {
	m := newTestModel(t, "c-1", "")
	m, _ = m.Update(HistoryLoadedMsg{})

	m, _ = m.Update(TitleGeneratedMsg{Conversation: model.Conversation{
		ConversationID: "c-1",
		Title:          "Dorm Safety at CSUSB",
	}})
	if got := m.Title(); got != "Dorm Safety at CSUSB" {
		t.Errorf("title = %q", got)
	}
}

func TestEscapeNavigatesHome(t *testing.T) {
	m := newTestModel(t, "c-1", "")
	m, _ = m.Update(HistoryLoadedMsg{})

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatal("expected a navigation command")
	}
	if _, ok := cmd().(ui.NavigateHomeMsg); !ok {
		t.Errorf("expected NavigateHomeMsg, got %T", cmd())
	}
}

func TestHistoryGenericFailureLeavesConversationUsable(t *testing.T) {
	m := newTestModel(t, "c-1", "")

	m, _ = m.Update(HistoryLoadedMsg{Err: errors.New("connection refused")})

	if m.Session().State() != session.StateIdle {
		t.Errorf("expected an idle session, got %v", m.Session().State())
	}
	if got := len(m.Session().Messages()); got != 0 {
		t.Errorf("expected an empty transcript, got %d messages", got)
	}

	if _, ok := m.Session().Submit("still works?"); !ok {
		t.Error("submit should be accepted after a failed history load")
	}
}
