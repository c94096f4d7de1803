// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Plain stdio chat for terminals where the TUI is unwanted,
// such as pipes and minimal SSH sessions.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/uniroad/uniroad-tui/internal/api"
	"github.com/uniroad/uniroad-tui/internal/config"
	"github.com/uniroad/uniroad-tui/internal/markdown"
	"github.com/uniroad/uniroad-tui/internal/session"
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// chatInput provides input history and line editing for interactive chat.
type chatInput struct {
	line        *liner.State
	historyFile string
}

func newChatInput() *chatInput {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	c := &chatInput{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	c.loadHistory()
	return c
}

func (c *chatInput) loadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

func (c *chatInput) read(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

func (c *chatInput) close() {
	if dir, err := config.Dir(); err == nil {
		os.MkdirAll(dir, 0o700)
		if f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
			c.line.WriteHistory(f)
			f.Close()
		}
	}
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChat runs the interactive stdio chat loop.
func HandleChat(args Args) {
	cfg := config.Global()

	client, err := api.New(cfg.Server.BaseURL, cfg.RequestTimeout(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The stream needs a valid session cookie up front.
	if _, err := client.CurrentUser(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "You are not signed in.")
		fmt.Fprintf(os.Stderr, "Open this address in your browser, sign in, then retry:\n\n  %s\n", client.LoginURL())
		os.Exit(1)
	}

	input := newChatInput()
	defer input.close()

	fmt.Println("UniRoad chat. Ask about studying abroad; 'exit' or Ctrl-D to quit.")

	var conversationID string
	for {
		question, err := input.read("you> ")
		if err != nil {
			// Ctrl-C or EOF ends the session.
			fmt.Println()
			return
		}
		question = strings.TrimSpace(question)
		if question == "" {
			continue
		}
		if question == "exit" || question == "quit" {
			return
		}

		if conversationID == "" {
			conversationID, err = client.CreateConversation(context.Background(), question)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: could not start the conversation: %v\n", err)
				continue
			}
		}

		if err := streamAnswer(client, conversationID, question); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
}

// streamAnswer opens the completion stream and prints fragments as they
// arrive, then reprints the finished answer with citations converted.
func streamAnswer(client *api.Client, conversationID, question string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := client.StreamCompletion(ctx, conversationID, question)
	if err != nil {
		return err
	}

	sess := session.New(client, conversationID, "", nil)
	sess.Initialize(nil, question)

	fmt.Print("uniroad> ")
	var printed bool
	for ev := range events {
		out := sess.Apply(ev)
		if ev.Err == nil && !api.IsSentinel(ev.Data) {
			fmt.Print(ev.Data)
			printed = true
		}
		if out.Done {
			break
		}
	}
	fmt.Println()

	messages := sess.Messages()
	answer := messages[len(messages)-1]

	// A failed stream never printed the fallback; show it.
	if !printed && !answer.IsEmpty() {
		fmt.Println(answer.Content)
	}

	// Reprint when the raw stream held markup worth cleaning up: citation
	// tags become plain links and code fences get highlighted.
	if strings.Contains(answer.Content, "<citation>") || strings.Contains(answer.Content, "```") {
		fmt.Println()
		fmt.Println(markdown.HighlightFences(markdown.ConvertCitations(answer.Content)))
	}
	return nil
}
