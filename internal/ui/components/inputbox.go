// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// MaxQuestionLength bounds a single question. The server truncates longer
// input anyway, so the client stops it early.
const MaxQuestionLength = 2000

// InputBox is the single-line question prompt shown on the home and chat
// screens.
type InputBox struct {
	input    textinput.Model
	disabled bool
}

// NewInputBox creates a focused input with the given placeholder.
func NewInputBox(placeholder string) InputBox {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = MaxQuestionLength
	ti.Prompt = "> "
	ti.Focus()
	return InputBox{input: ti}
}

// SetWidth adjusts the visible width of the field.
func (b *InputBox) SetWidth(width int) {
	if width > 4 {
		b.input.Width = width - 4
	}
}

// Disable rejects input while an answer is streaming.
func (b *InputBox) Disable() {
	b.disabled = true
	b.input.Blur()
}

// Enable re-accepts input.
func (b *InputBox) Enable() {
	b.disabled = false
	b.input.Focus()
}

// Disabled reports whether input is currently rejected.
func (b *InputBox) Disabled() bool { return b.disabled }

// Focused reports whether the field has keyboard focus.
func (b *InputBox) Focused() bool { return b.input.Focused() }

// Focus gives the field keyboard focus unless disabled.
func (b *InputBox) Focus() tea.Cmd {
	if b.disabled {
		return nil
	}
	return b.input.Focus()
}

// Blur removes keyboard focus.
func (b *InputBox) Blur() { b.input.Blur() }

// Value returns the current text with surrounding whitespace removed.
func (b *InputBox) Value() string {
	return strings.TrimSpace(b.input.Value())
}

// Reset clears the field.
func (b *InputBox) Reset() { b.input.Reset() }

// Update forwards messages to the underlying field while enabled.
func (b *InputBox) Update(msg tea.Msg) tea.Cmd {
	if b.disabled {
		return nil
	}
	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	return cmd
}

// View renders the input row.
func (b *InputBox) View(theme *styles.Theme) string {
	if b.disabled {
		return theme.InputContainer.Render(theme.InputPlaceholder.Render("Waiting for the answer..."))
	}
	return theme.InputContainer.Render(b.input.View())
}
