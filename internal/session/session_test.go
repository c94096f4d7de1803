// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/model"
)

// fakeStreamer records stream requests and hands back a caller-controlled
// event channel.
type fakeStreamer struct {
	ch          chan api.StreamEvent
	err         error
	calls       int
	lastID      string
	lastContent string
	contexts    []context.Context
}

func (f *fakeStreamer) StreamCompletion(ctx context.Context, conversationID, content string) (<-chan api.StreamEvent, error) {
	f.calls++
	f.lastID = conversationID
	f.lastContent = content
	f.contexts = append(f.contexts, ctx)
	if f.err != nil {
		return nil, f.err
	}
	return f.ch, nil
}

func newTestSession(conversationID string) (*Session, *fakeStreamer) {
	streamer := &fakeStreamer{ch: make(chan api.StreamEvent, 16)}
	return New(streamer, conversationID, "", nil), streamer
}

func sampleHistory() []model.HistoryMessage {
	return []model.HistoryMessage{
		{MessageID: "m-1", Role: model.RoleUser, Content: "How much is rent near Kent State?"},
		{MessageID: "m-2", Role: model.RoleAssistant, Content: "Around $600 to $900 per month."},
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func TestInitializeLoadsHistory(t *testing.T) {
	s, _ := newTestSession("c-1")

	pending := s.Initialize(sampleHistory(), "")
	if pending != "" {
		t.Errorf("expected no pending content, got %q", pending)
	}
	if s.State() != StateIdle {
		t.Errorf("expected idle state, got %v", s.State())
	}
	if len(s.Messages()) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(s.Messages()))
	}
	if s.Messages()[0].ID != "m-1" || s.Messages()[1].Content != "Around $600 to $900 per month." {
		t.Errorf("history not preserved: %+v", s.Messages())
	}
}

func TestInitializeSynthesizesFirstExchange(t *testing.T) {
	s, _ := newTestSession("c-1")

	pending := s.Initialize(nil, "Are the CSUSB dorms safe?")
	if pending != "Are the CSUSB dorms safe?" {
		t.Fatalf("expected pending content, got %q", pending)
	}
	if s.State() != StateStreaming {
		t.Errorf("expected streaming state, got %v", s.State())
	}

	messages := s.Messages()
	if len(messages) != 2 {
		t.Fatalf("expected user message and placeholder, got %d messages", len(messages))
	}
	if messages[0].Role != model.RoleUser || messages[0].Content != "Are the CSUSB dorms safe?" {
		t.Errorf("unexpected user message: %+v", messages[0])
	}
	if messages[1].Role != model.RoleAssistant || !messages[1].IsStreaming {
		t.Errorf("expected streaming placeholder, got %+v", messages[1])
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	s, _ := newTestSession("c-1")

	s.Initialize(sampleHistory(), "")
	pending := s.Initialize(sampleHistory(), "again")
	if pending != "" {
		t.Errorf("second Initialize returned pending content %q", pending)
	}
	if len(s.Messages()) != 2 {
		t.Errorf("second Initialize duplicated history: %d messages", len(s.Messages()))
	}
}

func TestInitializeIgnoresFirstMessageWhenHistoryExists(t *testing.T) {
	s, _ := newTestSession("c-1")

	pending := s.Initialize(sampleHistory(), "stale navigation payload")
	if pending != "" {
		t.Errorf("expected no pending content, got %q", pending)
	}
	if len(s.Messages()) != 2 {
		t.Errorf("expected history only, got %d messages", len(s.Messages()))
	}
}

// =============================================================================
// SUBMISSION
// =============================================================================

func TestSubmitTrimsAndAppends(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")

	content, ok := s.Submit("  What about meal plans?  ")
	if !ok {
		t.Fatal("submission rejected")
	}
	if content != "What about meal plans?" {
		t.Errorf("content not trimmed: %q", content)
	}
	if s.State() != StateStreaming {
		t.Errorf("expected streaming state, got %v", s.State())
	}
	if len(s.Messages()) != 2 {
		t.Errorf("expected 2 messages, got %d", len(s.Messages()))
	}
}

func TestSubmitRejectsBlankInput(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")

	for _, input := range []string{"", "   ", "\t\n"} {
		if _, ok := s.Submit(input); ok {
			t.Errorf("blank input %q was accepted", input)
		}
	}
	if len(s.Messages()) != 0 {
		t.Errorf("blank submissions appended messages: %d", len(s.Messages()))
	}
}

func TestSubmitRejectsWhileStreaming(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "first question")

	if _, ok := s.Submit("second question"); ok {
		t.Error("submission accepted while an answer was streaming")
	}
	if len(s.Messages()) != 2 {
		t.Errorf("expected original 2 messages, got %d", len(s.Messages()))
	}
}

func TestSubmitRejectsBeforeInitialization(t *testing.T) {
	s, _ := newTestSession("c-1")

	if _, ok := s.Submit("too early"); ok {
		t.Error("submission accepted before history loaded")
	}
}

// =============================================================================
// STREAMING
// =============================================================================

func TestStartStreamOpensConnection(t *testing.T) {
	s, streamer := newTestSession("c-1")
	s.Initialize(nil, "")
	s.Submit("question")

	if err := s.StartStream("question"); err != nil {
		t.Fatalf("StartStream failed: %v", err)
	}
	if streamer.calls != 1 {
		t.Errorf("expected 1 stream call, got %d", streamer.calls)
	}
	if streamer.lastID != "c-1" || streamer.lastContent != "question" {
		t.Errorf("unexpected stream request: id=%q content=%q", streamer.lastID, streamer.lastContent)
	}
	if s.Events() == nil {
		t.Error("no event channel after StartStream")
	}
}

func TestStartStreamFailsWithoutConversationID(t *testing.T) {
	s, streamer := newTestSession("")
	s.Initialize(nil, "")
	s.Submit("question")

	err := s.StartStream("question")
	if !errors.Is(err, ErrNoConversation) {
		t.Fatalf("expected ErrNoConversation, got %v", err)
	}
	if streamer.calls != 0 {
		t.Errorf("stream was opened despite missing identifier")
	}
	if s.State() != StateIdle {
		t.Errorf("expected idle state after failure, got %v", s.State())
	}
	// The user must see something rather than a spinner forever.
	last := s.Messages()[1]
	if last.Content != FallbackConnectionLost {
		t.Errorf("expected connection fallback, got %q", last.Content)
	}
}

func TestStartStreamReportsOpenError(t *testing.T) {
	s, streamer := newTestSession("c-1")
	streamer.err = errors.New("dial tcp: connection refused")
	s.Initialize(nil, "")
	s.Submit("question")

	if err := s.StartStream("question"); err == nil {
		t.Fatal("expected error")
	}
	if s.State() != StateIdle {
		t.Errorf("expected idle state, got %v", s.State())
	}
	if got := s.Messages()[1].Content; got != FallbackConnectionLost {
		t.Errorf("expected connection fallback, got %q", got)
	}
}

func TestStartStreamClosesPriorConnection(t *testing.T) {
	s, streamer := newTestSession("c-1")
	s.Initialize(nil, "")
	s.Submit("question")

	if err := s.StartStream("question"); err != nil {
		t.Fatal(err)
	}
	if err := s.StartStream("question"); err != nil {
		t.Fatal(err)
	}

	if len(streamer.contexts) != 2 {
		t.Fatalf("expected 2 stream contexts, got %d", len(streamer.contexts))
	}
	select {
	case <-streamer.contexts[0].Done():
	case <-time.After(time.Second):
		t.Error("first stream context was not cancelled")
	}
	select {
	case <-streamer.contexts[1].Done():
		t.Error("second stream context was cancelled prematurely")
	default:
	}
}

func TestApplyConcatenatesFragments(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")
	s.Submit("question")
	s.StartStream("question")

	events := []string{api.SentinelConnected, "Kent ", "State ", "tuition"}
	for _, data := range events {
		if out := s.Apply(api.StreamEvent{Data: data}); out.Done {
			t.Fatalf("event %q ended the stream", data)
		}
	}

	out := s.Apply(api.StreamEvent{Data: api.SentinelDone})
	if !out.Done || out.Failed {
		t.Fatalf("unexpected outcome for done sentinel: %+v", out)
	}

	last := s.Messages()[1]
	if last.IsStreaming {
		t.Error("message still marked streaming after done")
	}
	if last.Content != "Kent State tuition" {
		t.Errorf("fragments misassembled: %q", last.Content)
	}
	if s.State() != StateIdle {
		t.Errorf("expected idle state, got %v", s.State())
	}
}

func TestApplyConnectedIsNoOp(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")
	s.Submit("question")
	s.StartStream("question")

	s.Apply(api.StreamEvent{Data: api.SentinelConnected})
	if got := s.Messages()[1].DisplayContent(); got != "" {
		t.Errorf("connect ack leaked into content: %q", got)
	}
	if s.State() != StateStreaming {
		t.Errorf("connect ack changed state to %v", s.State())
	}
}

func TestApplyErrorSentinelUsesFallbackOnlyWhenEmpty(t *testing.T) {
	t.Run("empty answer", func(t *testing.T) {
		s, _ := newTestSession("c-1")
		s.Initialize(nil, "")
		s.Submit("question")
		s.StartStream("question")

		out := s.Apply(api.StreamEvent{Data: api.SentinelError})
		if !out.Done || !out.Failed {
			t.Fatalf("unexpected outcome: %+v", out)
		}
		if got := s.Messages()[1].Content; got != FallbackStreamError {
			t.Errorf("expected stream fallback, got %q", got)
		}
	})

	t.Run("partial answer kept", func(t *testing.T) {
		s, _ := newTestSession("c-1")
		s.Initialize(nil, "")
		s.Submit("question")
		s.StartStream("question")

		s.Apply(api.StreamEvent{Data: "partial answer"})
		s.Apply(api.StreamEvent{Data: api.SentinelError})
		if got := s.Messages()[1].Content; got != "partial answer" {
			t.Errorf("partial content replaced by fallback: %q", got)
		}
	})
}

func TestApplyTransportError(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")
	s.Submit("question")
	s.StartStream("question")

	out := s.Apply(api.StreamEvent{Err: errors.New("unexpected EOF")})
	if !out.Done || !out.Failed {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if got := s.Messages()[1].Content; got != FallbackConnectionLost {
		t.Errorf("expected connection fallback, got %q", got)
	}
	if s.State() != StateIdle {
		t.Errorf("expected idle state, got %v", s.State())
	}
}

func TestApplyIgnoredWhenNotStreaming(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(sampleHistory(), "")

	out := s.Apply(api.StreamEvent{Data: "stray fragment"})
	if out.Done || out.Failed || out.GenerateTitle {
		t.Errorf("idle session produced outcome %+v", out)
	}
	if got := s.Messages()[1].Content; got != "Around $600 to $900 per month." {
		t.Errorf("idle session mutated content: %q", got)
	}
}

func TestCloseStreamIsIdempotent(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")
	s.Submit("question")
	s.StartStream("question")

	s.CloseStream()
	s.CloseStream()
	s.CloseStream()

	if s.State() != StateIdle {
		t.Errorf("expected idle state, got %v", s.State())
	}
	if s.Events() != nil {
		t.Error("event channel survived CloseStream")
	}
	if s.Messages()[1].IsStreaming {
		t.Error("placeholder still streaming after CloseStream")
	}
}

// =============================================================================
// TITLE GENERATION
// =============================================================================

func TestTitleGenerationFiresOnceAfterFirstExchange(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")

	// First exchange: exactly two messages once done.
	s.Submit("first question")
	s.StartStream("first question")
	s.Apply(api.StreamEvent{Data: "answer one"})
	out := s.Apply(api.StreamEvent{Data: api.SentinelDone})
	if !out.GenerateTitle {
		t.Error("title generation not requested after first exchange")
	}

	// Second exchange: four messages, no further request.
	s.Submit("second question")
	s.StartStream("second question")
	s.Apply(api.StreamEvent{Data: "answer two"})
	out = s.Apply(api.StreamEvent{Data: api.SentinelDone})
	if out.GenerateTitle {
		t.Error("title generation requested a second time")
	}
}

func TestTitleGenerationNotDueForLoadedHistory(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(sampleHistory(), "")

	s.Submit("follow-up")
	s.StartStream("follow-up")
	out := s.Apply(api.StreamEvent{Data: api.SentinelDone})
	if out.GenerateTitle {
		t.Error("title generation requested for an existing conversation")
	}
}

func TestTitleGenerationNotDueAfterFailedFirstExchange(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.Initialize(nil, "")

	s.Submit("first question")
	s.StartStream("first question")
	out := s.Apply(api.StreamEvent{Data: api.SentinelError})
	if out.GenerateTitle {
		t.Error("title generation requested after a failed exchange")
	}
}

func TestSetTitleIgnoresEmpty(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.SetTitle("Dorm Life at Wichita State")
	s.SetTitle("")
	if got := s.Title(); got != "Dorm Life at Wichita State" {
		t.Errorf("title = %q", got)
	}
}

// =============================================================================
// IDLE WATCHDOG
// =============================================================================

func TestWatchdogReportsStalledStream(t *testing.T) {
	s, _ := newTestSession("c-1")
	s.SetIdleTimeout(20 * time.Millisecond)
	s.Initialize(nil, "")
	s.Submit("question")
	if err := s.StartStream("question"); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-s.Events():
		if !errors.Is(ev.Err, ErrStalled) {
			t.Errorf("expected ErrStalled, got %v", ev.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("watchdog never fired")
	}
}

func TestWatchdogForwardsEvents(t *testing.T) {
	s, streamer := newTestSession("c-1")
	s.SetIdleTimeout(time.Second)
	s.Initialize(nil, "")
	s.Submit("question")
	if err := s.StartStream("question"); err != nil {
		t.Fatal(err)
	}

	streamer.ch <- api.StreamEvent{Data: "fragment"}
	select {
	case ev := <-s.Events():
		if ev.Err != nil || ev.Data != "fragment" {
			t.Errorf("unexpected event: %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("event not forwarded")
	}
}

func TestWatchdogClosesWhenSourceCloses(t *testing.T) {
	s, streamer := newTestSession("c-1")
	s.Initialize(nil, "")
	s.Submit("question")
	if err := s.StartStream("question"); err != nil {
		t.Fatal(err)
	}

	close(streamer.ch)
	select {
	case _, ok := <-s.Events():
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel never closed")
	}
}
