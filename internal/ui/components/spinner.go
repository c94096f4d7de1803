// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// Spinner is a loading spinner with an optional message and elapsed timer.
type Spinner struct {
	spinner   spinner.Model
	message   string
	startTime time.Time
	isActive  bool
	showTimer bool
}

// NewSpinner creates a spinner with ASCII-safe frames.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	return Spinner{
		spinner: s,
		message: message,
	}
}

// NewWaitingSpinner creates a spinner for the answer-pending state, with an
// elapsed timer so long generations do not look frozen.
func NewWaitingSpinner() Spinner {
	s := NewSpinner("Answering")
	s.showTimer = true
	return s
}

// Start activates the spinner and returns the command driving its frames.
func (s *Spinner) Start() tea.Cmd {
	s.isActive = true
	s.startTime = time.Now()
	return s.spinner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.isActive = false
}

// Active reports whether the spinner is running.
func (s *Spinner) Active() bool {
	return s.isActive
}

// SetMessage changes the label next to the spinner.
func (s *Spinner) SetMessage(message string) {
	s.message = message
}

// Update advances the animation. Non-spinner messages are ignored.
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	if !s.isActive {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// View renders the spinner line, or nothing when inactive.
func (s *Spinner) View(theme *styles.Theme) string {
	if !s.isActive {
		return ""
	}
	out := theme.Spinner.Render(s.spinner.View()) + " " + theme.LoadingText.Render(s.message)
	if s.showTimer {
		elapsed := time.Since(s.startTime).Round(time.Second)
		if elapsed >= time.Second {
			out += " " + theme.LoadingText.Render(fmt.Sprintf("(%s)", elapsed))
		}
	}
	return out
}
