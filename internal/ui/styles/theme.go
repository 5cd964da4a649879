// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styled components for the application. It detects the
// terminal's color capability and adjusts accordingly.
type Theme struct {
	IsDark       bool
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Layout
	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style

	// Message bubbles
	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	UserLabel       lipgloss.Style
	AssistantLabel  lipgloss.Style
	Timestamp       lipgloss.Style

	// Input area
	InputContainer lipgloss.Style
	InputPrompt    lipgloss.Style

	// Status line
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// Pending indicator
	Spinner     lipgloss.Style
	PendingText lipgloss.Style

	// Feedback indicators
	FeedbackHint  lipgloss.Style
	FeedbackSent  lipgloss.Style
	FeedbackError lipgloss.Style

	// Auth form
	FormBox   lipgloss.Style
	FormLabel lipgloss.Style
	FormError lipgloss.Style
}

// NewTheme creates a theme sized for the given terminal dimensions.
func NewTheme(width, height int) *Theme {
	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
	}
	t.build()
	t.Resize(width, height)
	return t
}

// Resize updates width-dependent styles.
func (t *Theme) Resize(width, height int) {
	t.Width = width
	t.Height = height

	bubbleWidth := width * 3 / 4
	if bubbleWidth < 20 {
		bubbleWidth = 20
	}
	t.UserBubble = t.UserBubble.MaxWidth(bubbleWidth)
	t.AssistantBubble = t.AssistantBubble.MaxWidth(bubbleWidth)
	t.StatusBar = t.StatusBar.Width(width)
	t.Header = t.Header.Width(width)
}

func (t *Theme) build() {
	t.App = lipgloss.NewStyle().
		Foreground(Text)

	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(Text).
		Padding(0, 1)

	t.Title = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.UserBubble = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Teal).
		Padding(0, 1)

	t.AssistantBubble = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(0, 1)

	t.UserLabel = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.AssistantLabel = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(Border).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextMuted).
		Padding(0, 1)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Indigo).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Amber)

	t.PendingText = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.FeedbackHint = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.FeedbackSent = lipgloss.NewStyle().
		Foreground(Emerald)

	t.FeedbackError = lipgloss.NewStyle().
		Foreground(Rose)

	t.FormBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Indigo).
		Padding(1, 2)

	t.FormLabel = lipgloss.NewStyle().
		Foreground(Text).
		Bold(true)

	t.FormError = lipgloss.NewStyle().
		Foreground(Rose)
}
