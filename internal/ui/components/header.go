// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/uniroad/uniroad-tui/internal/model"
	"github.com/uniroad/uniroad-tui/internal/ui/styles"
	"github.com/uniroad/uniroad-tui/internal/util"
)

// AppName is the product name shown in the header.
const AppName = "UniRoad"

// Header renders the top bar: brand on the left, signed-in account on the
// right.
type Header struct {
	user *model.User
}

// NewHeader creates an empty header.
func NewHeader() Header {
	return Header{}
}

// SetUser records the signed-in account, or nil when signed out.
func (h *Header) SetUser(user *model.User) {
	h.user = user
}

// Render draws the header across the given width.
func (h *Header) Render(theme *styles.Theme, width int, subtitle string) string {
	left := theme.HeaderTitle.Render(AppName)
	if subtitle != "" {
		left += " " + theme.HeaderSubtitle.Render(util.TruncateWidth(subtitle, width/2))
	}

	right := ""
	if h.user != nil {
		name := h.user.Name
		if name == "" {
			name = h.user.Email
		}
		right = theme.HeaderAccount.Render(util.TruncateWidth(name, width/3))
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return theme.Header.Width(width).Render(left + spacer + right)
}
