// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns markdown answers into styled terminal output. It wraps a
// glamour renderer and rebuilds it when the wrap width changes, since
// glamour fixes the width at construction time.
type Renderer struct {
	width    int
	enabled  bool
	renderer *glamour.TermRenderer
}

const minWrapWidth = 20

// NewRenderer creates a renderer wrapping at the given width.
func NewRenderer(width int) *Renderer {
	r := &Renderer{enabled: true}
	r.SetWidth(width)
	return r
}

// SetEnabled toggles glamour rendering. When disabled, answers keep their
// citation conversion and code-fence highlighting but skip styling.
func (r *Renderer) SetEnabled(enabled bool) {
	r.enabled = enabled
}

// SetWidth adjusts the wrap width, rebuilding the underlying renderer when
// it actually changed.
func (r *Renderer) SetWidth(width int) {
	if width < minWrapWidth {
		width = minWrapWidth
	}
	if width == r.width && r.renderer != nil {
		return
	}
	r.width = width

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		// Render falls back to plain text when no renderer is available.
		r.renderer = nil
		return
	}
	r.renderer = renderer
}

// Render produces styled output for the given markdown, converting
// citation tags first. On any rendering failure the converted text is
// returned as-is rather than losing the answer.
func (r *Renderer) Render(text string) string {
	converted := ConvertCitations(text)
	if !r.enabled || r.renderer == nil {
		return HighlightFences(converted)
	}
	out, err := r.renderer.Render(converted)
	if err != nil {
		return HighlightFences(converted)
	}
	return strings.TrimRight(out, "\n")
}
