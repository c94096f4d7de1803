// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// Shortcut is one key hint in the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar renders the bottom bar with key hints and the stream state.
type StatusBar struct {
	streaming bool
}

// NewStatusBar creates an idle status bar.
func NewStatusBar() StatusBar {
	return StatusBar{}
}

// SetStreaming flips the streaming indicator.
func (s *StatusBar) SetStreaming(streaming bool) {
	s.streaming = streaming
}

// Render draws the bar across the given width with the given shortcuts.
func (s *StatusBar) Render(theme *styles.Theme, width int, shortcuts []Shortcut) string {
	parts := make([]string, 0, len(shortcuts)+1)
	if s.streaming {
		parts = append(parts, theme.Streaming.Render("* streaming"))
	}
	for _, sc := range shortcuts {
		parts = append(parts,
			theme.ShortcutKey.Render(sc.Key)+" "+theme.ShortcutDesc.Render(sc.Desc))
	}
	return theme.StatusBar.Width(width).Render(strings.Join(parts, "  "))
}
