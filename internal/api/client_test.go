// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL, 5*time.Second, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client, server
}

func TestListConversations(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"conversationId":"c-1","title":"Dorms"},{"conversationId":"c-2","title":""}]`))
	}))

	conversations, err := client.ListConversations(context.Background())
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(conversations) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(conversations))
	}
	if conversations[0].ConversationID != "c-1" || conversations[0].Title != "Dorms" {
		t.Errorf("unexpected first conversation: %+v", conversations[0])
	}
	// An empty title is valid until title generation completes.
	if conversations[1].Title != "" {
		t.Errorf("expected empty title, got %q", conversations[1].Title)
	}
}

func TestListConversationsServerError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := client.ListConversations(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", apiErr.Status)
	}
}

func TestGetConversationNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.GetConversation(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteConversation(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.DeleteConversation(context.Background(), "c-9"); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if gotPath != "/chat/c-9" {
		t.Errorf("unexpected path: %s", gotPath)
	}
}

func TestDeleteConversationNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	err := client.DeleteConversation(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateTitle(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/chat/c-1/generate-title" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"conversationId":"c-1","title":"Housing at CSUSB"}`))
	}))

	conv, err := client.GenerateTitle(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("GenerateTitle failed: %v", err)
	}
	if conv.Title != "Housing at CSUSB" {
		t.Errorf("unexpected title: %q", conv.Title)
	}
}

func TestCreateConversation(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/chat" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		w.Write([]byte(`{"conversationId":"c-new"}`))
	}))

	id, err := client.CreateConversation(context.Background(), "How are the dorms?")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if id != "c-new" {
		t.Errorf("expected c-new, got %q", id)
	}
}

func TestCreateConversationMissingID(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	id, err := client.CreateConversation(context.Background(), "question")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if id != UnknownConversationID {
		t.Errorf("expected fallback identifier, got %q", id)
	}
}

func TestHistory(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/c-1/history" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"messageId":"m-1","role":"USER","content":"hi"},
			{"messageId":"m-2","role":"ASSISTANT","content":"hello"}
		]`))
	}))

	history, err := client.History(context.Background(), "c-1")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(history))
	}
	if history[1].Role != "ASSISTANT" || history[1].Content != "hello" {
		t.Errorf("unexpected entry: %+v", history[1])
	}
}

func TestHistoryNotFound(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.History(context.Background(), "gone")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/members" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":"u-1","email":"kim@example.com","name":"Kim"}`))
	}))

	user, err := client.CurrentUser(context.Background())
	if err != nil {
		t.Fatalf("CurrentUser failed: %v", err)
	}
	if user.Email != "kim@example.com" {
		t.Errorf("unexpected user: %+v", user)
	}
}

func TestCurrentUserUnauthorized(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.CurrentUser(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogout(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/logout" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
}

func TestCookiesPersistAcrossRequests(t *testing.T) {
	var sawCookie bool
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/members":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc123", Path: "/"})
			w.Write([]byte(`{"id":"u-1","email":"a@b.c","name":"A"}`))
		case "/chat":
			if c, err := r.Cookie("JSESSIONID"); err == nil && c.Value == "abc123" {
				sawCookie = true
			}
			w.Write([]byte(`[]`))
		}
	}))

	if _, err := client.CurrentUser(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := client.ListConversations(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !sawCookie {
		t.Error("session cookie was not carried to the second request")
	}
}

func TestLoginURL(t *testing.T) {
	client, server := newTestClient(t, http.NotFoundHandler())
	want := server.URL + "/oauth2/authorization/google"
	if got := client.LoginURL(); got != want {
		t.Errorf("LoginURL = %q, want %q", got, want)
	}
}

func TestNewRejectsEmptyBaseURL(t *testing.T) {
	if _, err := New("", 0, nil); err == nil {
		t.Error("expected error for empty base URL")
	}
}
