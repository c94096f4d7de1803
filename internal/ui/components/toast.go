// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components for the uniroad TUI.
//
// This file implements non-blocking toasts. Unlike modal error dialogs,
// toasts appear above the status bar and auto-dismiss, letting users keep
// interacting with the UI while a failure is displayed.
package components

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/uniroad/uniroad-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastKindStatus is an informational toast
	ToastKindStatus ToastKind = iota
	// ToastKindError is an error toast
	ToastKindError
	// ToastKindSuccess is a success toast
	ToastKindSuccess
)

// DefaultToastDuration is the auto-dismiss duration for status toasts.
const DefaultToastDuration = 4 * time.Second

// ErrorToastDuration is the auto-dismiss duration for error toasts (longer to read).
const ErrorToastDuration = 8 * time.Second

// Toast represents one notification.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// IsExpired returns true if the toast should be dismissed.
func (t *Toast) IsExpired() bool {
	return time.Since(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager manages active toast notifications, newest first.
type ToastManager struct {
	mu        sync.Mutex
	toasts    []Toast
	nextID    int
	maxToasts int
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{
		nextID:    1,
		maxToasts: 3,
	}
}

// AddError adds an error toast and returns its ID.
func (m *ToastManager) AddError(message string) int {
	return m.add(Toast{Message: message, Kind: ToastKindError, Duration: ErrorToastDuration})
}

// AddStatus adds an informational toast and returns its ID.
func (m *ToastManager) AddStatus(message string) int {
	return m.add(Toast{Message: message, Kind: ToastKindStatus, Duration: DefaultToastDuration})
}

// AddSuccess adds a success toast and returns its ID.
func (m *ToastManager) AddSuccess(message string) int {
	return m.add(Toast{Message: message, Kind: ToastKindSuccess, Duration: DefaultToastDuration})
}

func (m *ToastManager) add(t Toast) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	t.ID = m.nextID
	m.nextID++
	t.CreatedAt = time.Now()

	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > m.maxToasts {
		m.toasts = m.toasts[:m.maxToasts]
	}
	return t.ID
}

// Dismiss removes a toast by ID.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i], m.toasts[i+1:]...)
			return
		}
	}
}

// Tick drops expired toasts and returns the survivors.
func (m *ToastManager) Tick() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()

	active := m.toasts[:0]
	for _, t := range m.toasts {
		if !t.IsExpired() {
			active = append(active, t)
		}
	}
	m.toasts = active
	return append([]Toast(nil), m.toasts...)
}

// Toasts returns a copy of the current toasts.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Toast(nil), m.toasts...)
}

// HasToasts returns true if any toast is active.
func (m *ToastManager) HasToasts() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts) > 0
}

// Clear removes all toasts.
func (m *ToastManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = nil
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg is sent periodically to expire toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd returns a command that ticks toasts every 100ms.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast notification.
func RenderToast(theme *styles.Theme, toast Toast, width int) string {
	maxWidth := 60
	if width > 0 && width-8 < maxWidth {
		maxWidth = width - 8
	}
	if maxWidth < 30 {
		maxWidth = 30
	}

	var border lipgloss.AdaptiveColor
	var label string
	switch toast.Kind {
	case ToastKindError:
		border = styles.Rose
		label = "[!]"
	case ToastKindSuccess:
		border = styles.Emerald
		label = "[OK]"
	default:
		border = styles.Sky
		label = "[i]"
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		MaxWidth(maxWidth)

	labelStyle := lipgloss.NewStyle().Foreground(border).Bold(true)
	return box.Render(labelStyle.Render(label) + " " + theme.ErrorMessage.Render(toast.Message))
}
