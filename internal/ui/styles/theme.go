// Copyright (c) 2025 Xopsentia
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
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
	Header    lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	RoleLabel       lipgloss.Style
	Timestamp       lipgloss.Style
	FailedTurn      lipgloss.Style

	// ==========================================================================
	// MARKDOWN BLOCK STYLES
	// ==========================================================================

	Heading1 lipgloss.Style
	Heading2 lipgloss.Style
	Heading3 lipgloss.Style
	BoldText lipgloss.Style
	LinkText lipgloss.Style
	ListItem lipgloss.Style

	// ==========================================================================
	// MATCH CARD STYLES
	// ==========================================================================

	MatchCard       lipgloss.Style
	MatchName       lipgloss.Style
	MatchAccuracy   lipgloss.Style
	MatchAccuracyHi lipgloss.Style
	MatchURL        lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
	ImageChip        lipgloss.Style
	Listening        lipgloss.Style

	// ==========================================================================
	// STATUS AND ERROR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ErrorBanner  lipgloss.Style
	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style

	// ==========================================================================
	// SESSION SIDEBAR STYLES
	// ==========================================================================

	SessionList         lipgloss.Style
	SessionItem         lipgloss.Style
	SessionItemSelected lipgloss.Style
	SessionMeta         lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Background(SurfaceDim).
		Padding(0, 2)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(TextPrimary).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Teal).
		Padding(0, 2).
		MarginRight(4)

	t.RoleLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.FailedTurn = lipgloss.NewStyle().
		Foreground(Rose).
		Italic(true)

	// Markdown blocks
	t.Heading1 = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Underline(true)

	t.Heading2 = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.Heading3 = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextSecondary)

	t.BoldText = lipgloss.NewStyle().
		Bold(true)

	t.LinkText = lipgloss.NewStyle().
		Foreground(Teal).
		Underline(true)

	t.ListItem = lipgloss.NewStyle().
		PaddingLeft(2)

	// Match cards
	t.MatchCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Overlay).
		PaddingLeft(2)

	t.MatchName = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.MatchAccuracy = lipgloss.NewStyle().
		Foreground(Amber)

	t.MatchAccuracyHi = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.MatchURL = lipgloss.NewStyle().
		Foreground(TextMuted).
		Underline(true)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.ImageChip = lipgloss.NewStyle().
		Foreground(Emerald).
		Background(SurfaceDim).
		Padding(0, 1)

	t.Listening = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	// Status and errors
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ErrorBanner = lipgloss.NewStyle().
		Foreground(Rose).
		Background(SurfaceDim).
		Bold(true).
		Padding(0, 1)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Teal)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Session sidebar
	t.SessionList = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(1, 2)

	t.SessionItem = lipgloss.NewStyle().
		Foreground(TextPrimary).
		Padding(0, 1)

	t.SessionItemSelected = lipgloss.NewStyle().
		Background(Indigo).
		Foreground(TextInverse).
		Bold(true).
		Padding(0, 1)

	t.SessionMeta = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // > 100 columns
)

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}
