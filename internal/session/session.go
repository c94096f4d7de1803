// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/model"
)

// =============================================================================
// STATES
// =============================================================================

// State is the lifecycle phase of a chat session.
type State int

const (
	// StateUninitialized means history has not been loaded yet.
	StateUninitialized State = iota
	// StateIdle means the session is ready to accept a question.
	StateIdle
	// StateStreaming means an answer is being received.
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// =============================================================================
// ERRORS AND FALLBACKS
// =============================================================================

var (
	// ErrNoConversation is returned when a stream is requested before a
	// conversation identifier is known.
	ErrNoConversation = errors.New("session: no conversation identifier")

	// ErrStalled is delivered through the event channel when the server
	// stops sending events for longer than the idle timeout.
	ErrStalled = errors.New("session: stream stalled")
)

const (
	// FallbackStreamError replaces an empty answer when the server reports
	// a generation failure mid-stream.
	FallbackStreamError = "Sorry, an error occurred while generating the answer. Please try again."

	// FallbackConnectionLost replaces an empty answer when the connection
	// itself fails.
	FallbackConnectionLost = "The connection to the server was lost. Please try again."
)

// DefaultIdleTimeout bounds how long a stream may go silent before it is
// treated as dead.
const DefaultIdleTimeout = 90 * time.Second

// =============================================================================
// SESSION
// =============================================================================

// Streamer opens a completion stream for a conversation. *api.Client
// satisfies it.
type Streamer interface {
	StreamCompletion(ctx context.Context, conversationID, content string) (<-chan api.StreamEvent, error)
}

// Outcome describes what a stream event meant for the session.
type Outcome struct {
	// Done is set when the event ended the stream, successfully or not.
	Done bool
	// Failed is set when the stream ended because of an error.
	Failed bool
	// GenerateTitle is set exactly once, when the first exchange of a
	// conversation completes and the server should be asked for a title.
	GenerateTitle bool
}

// Session holds the message list and streaming state for one conversation.
// It is driven from the update loop and is not safe for concurrent use;
// the only goroutine it owns is the idle watchdog, which communicates
// solely through the event channel.
type Session struct {
	streamer Streamer
	logger   *slog.Logger

	conversationID string
	title          string
	messages       []*model.Message

	state          State
	initialized    bool
	titleRequested bool

	idleTimeout time.Duration
	events      <-chan api.StreamEvent
	cancel      context.CancelFunc
}

// New creates a session for the given conversation. The title may be empty
// when the server has not generated one yet.
func New(streamer Streamer, conversationID, title string, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{
		streamer:       streamer,
		logger:         logger.With("module", "session"),
		conversationID: conversationID,
		title:          title,
		state:          StateUninitialized,
		idleTimeout:    DefaultIdleTimeout,
	}
}

// SetIdleTimeout overrides the stall detection window. Zero or negative
// values keep the default.
func (s *Session) SetIdleTimeout(d time.Duration) {
	if d > 0 {
		s.idleTimeout = d
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// Initialize loads the server-side history into the session. When the
// history is empty and firstMessage is set, the opening exchange is
// synthesized locally and its content returned so the caller can start the
// stream. Calling Initialize again is a no-op.
func (s *Session) Initialize(history []model.HistoryMessage, firstMessage string) (pending string) {
	if s.initialized {
		return ""
	}
	s.initialized = true
	s.state = StateIdle

	for _, h := range history {
		s.messages = append(s.messages, h.Message())
	}

	if len(s.messages) == 0 && firstMessage != "" {
		pending, _ = s.Submit(firstMessage)
	}
	return pending
}

// Initialized reports whether history has been loaded.
func (s *Session) Initialized() bool {
	return s.initialized
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit records a user question and the assistant placeholder that will
// receive the streamed answer. It returns the trimmed content and whether
// the submission was accepted. Blank input and input while an answer is
// already streaming are rejected.
func (s *Session) Submit(content string) (string, bool) {
	content = strings.TrimSpace(content)
	if content == "" || s.state != StateIdle {
		return "", false
	}

	s.messages = append(s.messages,
		model.NewUserMessage(content),
		model.NewAssistantPlaceholder())
	s.state = StateStreaming
	return content, true
}

// =============================================================================
// STREAMING
// =============================================================================

// StartStream opens the completion stream for the given question. Any
// previous stream is torn down first so at most one connection is live.
// On failure the pending placeholder is finalized with the connection
// fallback and the session returns to idle.
func (s *Session) StartStream(content string) error {
	if s.conversationID == "" {
		s.fail(FallbackConnectionLost)
		return ErrNoConversation
	}

	s.closeStream()

	ctx, cancel := context.WithCancel(context.Background())
	raw, err := s.streamer.StreamCompletion(ctx, s.conversationID, content)
	if err != nil {
		cancel()
		s.logger.Error("stream open failed",
			"conversation_id", s.conversationID,
			"error", err)
		s.fail(FallbackConnectionLost)
		return err
	}

	s.cancel = cancel
	s.events = s.watch(ctx, raw)
	s.state = StateStreaming
	return nil
}

// Events returns the channel the current stream delivers on, or nil when
// no stream is live.
func (s *Session) Events() <-chan api.StreamEvent {
	return s.events
}

// Apply folds one stream event into the session and reports what it meant.
func (s *Session) Apply(ev api.StreamEvent) Outcome {
	if s.state != StateStreaming {
		return Outcome{}
	}

	if ev.Err != nil {
		s.logger.Warn("stream failed",
			"conversation_id", s.conversationID,
			"error", ev.Err)
		s.fail(FallbackConnectionLost)
		return Outcome{Done: true, Failed: true}
	}

	switch ev.Data {
	case api.SentinelConnected:
		// Connection acknowledgement. Nothing to record.
		return Outcome{}

	case api.SentinelError:
		s.fail(FallbackStreamError)
		return Outcome{Done: true, Failed: true}

	case api.SentinelDone:
		s.finish()
		due := s.TitleGenerationDue()
		if due {
			s.titleRequested = true
		}
		return Outcome{Done: true, GenerateTitle: due}

	default:
		if m := s.streamingMessage(); m != nil {
			m.AppendFragment(ev.Data)
		}
		return Outcome{}
	}
}

// CloseStream tears down the live stream, if any. It is safe to call at
// any time and any number of times.
func (s *Session) CloseStream() {
	s.closeStream()
	if s.state == StateStreaming {
		s.finish()
	}
}

// TitleGenerationDue reports whether the first exchange has just completed,
// which is the one moment a conversation title should be requested.
func (s *Session) TitleGenerationDue() bool {
	return len(s.messages) == 2 && !s.titleRequested
}

// =============================================================================
// ACCESSORS
// =============================================================================

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// ConversationID returns the server-side identifier.
func (s *Session) ConversationID() string { return s.conversationID }

// Title returns the conversation title, which may be empty.
func (s *Session) Title() string { return s.title }

// SetTitle records a server-generated title.
func (s *Session) SetTitle(title string) {
	if title != "" {
		s.title = title
	}
}

// Messages returns the message list for rendering. The slice is shared;
// callers must not mutate it.
func (s *Session) Messages() []*model.Message { return s.messages }

// =============================================================================
// INTERNAL
// =============================================================================

func (s *Session) closeStream() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.events = nil
}

// finish finalizes the streaming placeholder without a fallback and
// returns the session to idle.
func (s *Session) finish() {
	if m := s.streamingMessage(); m != nil {
		m.Finalize("")
	}
	s.closeStream()
	s.state = StateIdle
}

// fail finalizes the streaming placeholder, showing fallback only when no
// content arrived, and returns the session to idle.
func (s *Session) fail(fallback string) {
	if m := s.streamingMessage(); m != nil {
		m.Finalize(fallback)
	}
	s.closeStream()
	s.state = StateIdle
}

func (s *Session) streamingMessage() *model.Message {
	if len(s.messages) == 0 {
		return nil
	}
	last := s.messages[len(s.messages)-1]
	if !last.IsStreaming {
		return nil
	}
	return last
}

// watch forwards stream events while resetting a stall timer on each one.
// A silent stream past the idle timeout is reported as a failed event so
// the update loop can recover instead of spinning forever.
func (s *Session) watch(ctx context.Context, in <-chan api.StreamEvent) <-chan api.StreamEvent {
	out := make(chan api.StreamEvent, 1)
	timeout := s.idleTimeout

	go func() {
		defer close(out)
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		for {
			select {
			case ev, ok := <-in:
				if !ok {
					return
				}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(timeout)
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}

			case <-timer.C:
				select {
				case out <- api.StreamEvent{Err: ErrStalled}:
				case <-ctx.Done():
				}
				return

			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
