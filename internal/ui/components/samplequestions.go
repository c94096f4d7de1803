// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/uniroad/uniroad-tui/internal/ui/styles"
	"github.com/uniroad/uniroad-tui/internal/util"
)

// SampleQuestions shows starter questions on the home screen so a new user
// does not face an empty prompt.
type SampleQuestions struct {
	questions []string
	selected  int
	focused   bool
}

// NewSampleQuestions creates the component from the configured questions.
func NewSampleQuestions(questions []string) SampleQuestions {
	return SampleQuestions{questions: questions}
}

// Len returns the number of questions.
func (s *SampleQuestions) Len() int { return len(s.questions) }

// Focus gives the component keyboard selection.
func (s *SampleQuestions) Focus() { s.focused = true }

// Blur removes keyboard selection.
func (s *SampleQuestions) Blur() { s.focused = false }

// Focused reports whether the component has keyboard selection.
func (s *SampleQuestions) Focused() bool { return s.focused }

// MoveUp moves the highlight toward the first question.
func (s *SampleQuestions) MoveUp() {
	if s.selected > 0 {
		s.selected--
	}
}

// MoveDown moves the highlight toward the last question.
func (s *SampleQuestions) MoveDown() {
	if s.selected < len(s.questions)-1 {
		s.selected++
	}
}

// Selected returns the highlighted question, or false when there are none.
func (s *SampleQuestions) Selected() (string, bool) {
	if len(s.questions) == 0 {
		return "", false
	}
	return s.questions[s.selected], true
}

// Render draws the question box.
func (s *SampleQuestions) Render(theme *styles.Theme, width int) string {
	if len(s.questions) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.HeaderSubtitle.Render("Try asking:"))
	b.WriteString("\n")
	for i, q := range s.questions {
		q = util.TruncateWidth(q, width-6)
		if s.focused && i == s.selected {
			b.WriteString(theme.SampleSelected.Render("> " + q))
		} else {
			b.WriteString(theme.SampleQuestion.Render("  " + q))
		}
		if i < len(s.questions)-1 {
			b.WriteString("\n")
		}
	}
	return theme.SampleBox.Width(width - 2).Render(b.String())
}
