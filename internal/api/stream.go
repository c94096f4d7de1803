// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/tmaxmax/go-sse"
)

// STREAMING: SSE completion stream with the service's sentinel protocol.

// Sentinel payloads reserved by the completion stream. They carry control
// meaning instead of message content and are matched by exact string
// comparison only; any other payload is a verbatim content fragment.
const (
	SentinelConnected = "[CONNECTED]"
	SentinelError     = "[ERROR]"
	SentinelDone      = "[DONE]"
)

// StreamEvent is one event delivered by a completion stream. Exactly one of
// Data or Err is meaningful: a non-nil Err reports a transport-level failure
// and is always the final event of a stream.
type StreamEvent struct {
	Data string
	Err  error
}

// streamBuffer sizes the event channel. Events are applied strictly in
// arrival order regardless of buffering.
const streamBuffer = 64

// StreamCompletion opens the server-push completion stream for one exchange
// of a conversation. Events are delivered over the returned channel in
// arrival order; the channel is closed when the server ends the stream, the
// context is canceled, or a transport error occurred (reported as a final
// event with Err set).
//
// The caller owns the context and must cancel it to close the connection;
// cancellation is idempotent and safe mid-stream.
func (c *Client) StreamCompletion(ctx context.Context, conversationID, content string) (<-chan StreamEvent, error) {
	q := url.Values{}
	q.Set("conversationId", conversationID)
	q.Set("content", content)

	req, err := c.newRequest(ctx, http.MethodGet, "/chat/completion?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")

	// No client timeout here; the stream lives until a terminal sentinel
	// arrives or the context is canceled.
	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: open stream: %w", err)
	}

	if err := mapStatus(resp); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, err
	}

	c.logger.Debug("stream opened",
		slog.String("conversationId", conversationID))

	events := make(chan StreamEvent, streamBuffer)

	go func() {
		defer close(events)
		defer resp.Body.Close()

		for ev, err := range sse.Read(resp.Body, nil) {
			if err != nil {
				// Context cancellation is a deliberate close, not a failure
				// to report.
				if ctx.Err() != nil {
					return
				}
				select {
				case events <- StreamEvent{Err: fmt.Errorf("api: read stream: %w", err)}:
				case <-ctx.Done():
				}
				return
			}

			select {
			case events <- StreamEvent{Data: ev.Data}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// IsSentinel reports whether a payload is one of the reserved control
// values.
func IsSentinel(data string) bool {
	return data == SentinelConnected || data == SentinelError || data == SentinelDone
}
