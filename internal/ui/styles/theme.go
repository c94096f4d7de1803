// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderSubtitle lipgloss.Style
	HeaderAccount  lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	StreamingCursor lipgloss.Style
	RoleLabel       lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Connected    lipgloss.Style
	Streaming    lipgloss.Style

	// ==========================================================================
	// CONVERSATION LIST STYLES
	// ==========================================================================

	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListTitle        lipgloss.Style
	ListMeta         lipgloss.Style
	ListEmpty        lipgloss.Style

	// ==========================================================================
	// SAMPLE QUESTION STYLES
	// ==========================================================================

	SampleBox      lipgloss.Style
	SampleQuestion lipgloss.Style
	SampleSelected lipgloss.Style

	// ==========================================================================
	// TOAST AND ERROR STYLES
	// ==========================================================================

	ErrorBox     lipgloss.Style
	ErrorTitle   lipgloss.Style
	ErrorMessage lipgloss.Style
	ErrorHint    lipgloss.Style

	// ==========================================================================
	// LOGIN SCREEN STYLES
	// ==========================================================================

	LoginBox   lipgloss.Style
	LoginTitle lipgloss.Style
	LoginURL   lipgloss.Style
	LoginHint  lipgloss.Style

	// ==========================================================================
	// SPINNER AND LOADING STYLES
	// ==========================================================================

	Spinner     lipgloss.Style
	LoadingText lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	// Detect terminal capabilities
	colorProfile := termenv.ColorProfile()
	hasTrueColor := colorProfile == termenv.TrueColor
	isDark := termenv.HasDarkBackground()

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: hasTrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Indigo)

	t.HeaderSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.HeaderAccount = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(UserBubbleBorder).
		PaddingLeft(1).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1).
		MarginRight(4)

	t.StreamingCursor = lipgloss.NewStyle().
		Foreground(Indigo).
		Blink(true)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Connected = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.Streaming = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	// Conversation list
	t.ListItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.ListItemSelected = lipgloss.NewStyle().
		Background(SelectionBg).
		Foreground(TextPrimary).
		Bold(true).
		Padding(0, 1)

	t.ListTitle = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ListMeta = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ListEmpty = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Padding(1, 2)

	// Sample questions
	t.SampleBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.SampleQuestion = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Padding(0, 1)

	t.SampleSelected = lipgloss.NewStyle().
		Background(SelectionBg).
		Foreground(TextPrimary).
		Bold(true).
		Padding(0, 1)

	// Errors
	t.ErrorBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Rose).
		Padding(0, 2)

	t.ErrorTitle = lipgloss.NewStyle().
		Foreground(Rose).
		Bold(true)

	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.ErrorHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Login
	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(1, 3).
		Align(lipgloss.Center)

	t.LoginTitle = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.LoginURL = lipgloss.NewStyle().
		Foreground(LinkColor).
		Underline(true)

	t.LoginHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Loading
	t.Spinner = lipgloss.NewStyle().
		Foreground(Indigo)

	t.LoadingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
