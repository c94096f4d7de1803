// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the remote study-abroad chat
// service.
//
// The service owns all business logic and storage; this client only wraps
// its documented endpoints and translates non-success statuses into typed
// failures. Session continuity is cookie based: every request goes through
// a shared cookie jar and no other auth header scheme is used.
package api

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/uniroad/uniroad-tui/internal/model"
)

// Configuration constants for the chat API.
const (
	// DefaultTimeout is the default timeout for plain (non-streaming) requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize caps response bodies read into memory.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB

	// UnknownConversationID is used when conversation creation succeeds but
	// the response body carries no conversationId.
	UnknownConversationID = "unknown"
)

// Error variables for the failure taxonomy of the remote API.
var (
	// ErrNotFound indicates a 404 from the server; callers redirect to the
	// not-found view instead of showing an inline error.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a 401; callers reset authentication state.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError represents a generic non-success response from the server.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Body)
	}
	return fmt.Sprintf("server error (HTTP %d)", e.Status)
}

// Client is a cookie-carrying HTTP client for the chat service.
type Client struct {
	baseURL string

	// httpClient serves plain requests with a bounded timeout. streamClient
	// has no client timeout; streaming lifetime is context-controlled.
	httpClient   *http.Client
	streamClient *http.Client

	logger *slog.Logger
}

// New creates a client for the given base URL. The trailing slash, if any,
// is stripped so paths can be joined naively.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("api: base URL is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// One jar shared by both clients so the streaming connection carries
	// the same session cookies as plain calls.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("api: cookie jar: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Transport: transport,
			Jar:       jar,
			Timeout:   timeout,
		},
		streamClient: &http.Client{
			Transport: transport,
			Jar:       jar,
		},
		logger: logger.With(slog.String("module", "api")),
	}, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// LoginURL returns the full-page OAuth redirect target. The terminal client
// cannot follow a browser redirect flow itself, so this URL is handed to the
// user (and the browser) verbatim.
func (c *Client) LoginURL() string {
	return c.baseURL + "/oauth2/authorization/google"
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// ListConversations fetches all conversation summaries for the session.
func (c *Client) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chat", nil)
	if err != nil {
		return nil, err
	}
	// The list must never be served stale; deletes are reflected on refetch.
	req.Header.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	req.Header.Set("Pragma", "no-cache")

	var conversations []model.Conversation
	if err := c.do(req, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// GetConversation fetches one conversation summary. A 404 maps to
// ErrNotFound so callers can navigate away.
func (c *Client) GetConversation(ctx context.Context, conversationID string) (model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/"+url.PathEscape(conversationID), nil)
	if err != nil {
		return model.Conversation{}, err
	}

	var conv model.Conversation
	if err := c.do(req, &conv); err != nil {
		return model.Conversation{}, err
	}
	return conv, nil
}

// DeleteConversation deletes a conversation. The remote call is the source
// of truth; local list removal is optimistic display only.
func (c *Client) DeleteConversation(ctx context.Context, conversationID string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/chat/"+url.PathEscape(conversationID), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// GenerateTitle asks the server to produce a title for the conversation and
// returns the updated summary. Failures are non-fatal to callers.
func (c *Client) GenerateTitle(ctx context.Context, conversationID string) (model.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodPut, "/chat/"+url.PathEscape(conversationID)+"/generate-title", nil)
	if err != nil {
		return model.Conversation{}, err
	}

	var conv model.Conversation
	if err := c.do(req, &conv); err != nil {
		return model.Conversation{}, err
	}
	return conv, nil
}

// CreateConversation creates a conversation for the given first question and
// returns its identifier. A success response without a conversationId yields
// UnknownConversationID rather than an error, matching the server's loose
// contract.
func (c *Client) CreateConversation(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(map[string]string{"question": question})
	if err != nil {
		return "", fmt.Errorf("api: marshal question: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/chat", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var created struct {
		ConversationID string `json:"conversationId"`
	}
	if err := c.do(req, &created); err != nil {
		return "", err
	}

	if created.ConversationID == "" {
		c.logger.Warn("create conversation response carried no conversationId")
		return UnknownConversationID, nil
	}
	return created.ConversationID, nil
}

// History fetches the stored message history of a conversation. A 404 maps
// to ErrNotFound.
func (c *Client) History(ctx context.Context, conversationID string) ([]model.HistoryMessage, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/chat/"+url.PathEscape(conversationID)+"/history", nil)
	if err != nil {
		return nil, err
	}

	var history []model.HistoryMessage
	if err := c.do(req, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// =============================================================================
// AUTHENTICATION
// =============================================================================

// CurrentUser fetches the authenticated account. A 401 maps to
// ErrUnauthorized.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/members", nil)
	if err != nil {
		return model.User{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var user model.User
	if err := c.do(req, &user); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// Logout invalidates the remote session. Callers clear local state whether
// or not this succeeds.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, nil)
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("api: create request: %w", err)
	}
	return req, nil
}

// do executes a plain request, maps the failure taxonomy, and decodes a JSON
// body into out when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", req.Method),
			slog.String("path", req.URL.Path),
			slog.String("error", err.Error()))
		return fmt.Errorf("api: %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request",
		slog.String("method", req.Method),
		slog.String("path", req.URL.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)))

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseSize))
		return nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return fmt.Errorf("api: read response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("api: decode response: %w", err)
	}
	return nil
}

// mapStatus translates a non-2xx response into the typed failure taxonomy.
func mapStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &APIError{
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
}
