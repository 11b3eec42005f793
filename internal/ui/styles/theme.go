// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// THEME
// =============================================================================

// Theme bundles the styles the chat view renders with. One Theme instance
// is shared across components so resizing and mode switches stay consistent.
type Theme struct {
	width  int
	height int

	Header    lipgloss.Style
	StatusBar lipgloss.Style
	Sidebar   lipgloss.Style
	Separator lipgloss.Style

	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorLabel     lipgloss.Style

	InputPrompt lipgloss.Style
	Hint        lipgloss.Style
	Selected    lipgloss.Style
	Banner      lipgloss.Style
}

// NewTheme creates the theme, forcing the background mode when the
// configured theme is "dark" or "light". "auto" trusts terminal detection.
func NewTheme(mode string) *Theme {
	switch mode {
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	case "light":
		lipgloss.SetHasDarkBackground(false)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}

	return &Theme{
		Header: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(TextSecondary).
			Background(SurfaceDim).
			Padding(0, 1),

		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(Overlay).
			Padding(0, 1),

		Separator: lipgloss.NewStyle().
			Foreground(Overlay),

		UserLabel: lipgloss.NewStyle().
			Foreground(UserAccent).
			Bold(true),

		AssistantLabel: lipgloss.NewStyle().
			Foreground(AssistantAccent).
			Bold(true),

		ErrorLabel: lipgloss.NewStyle().
			Foreground(Rose).
			Bold(true),

		InputPrompt: lipgloss.NewStyle().
			Foreground(Cyan).
			Bold(true),

		Hint: lipgloss.NewStyle().
			Foreground(TextMuted),

		Selected: lipgloss.NewStyle().
			Background(SelectionBg).
			Foreground(TextPrimary),

		Banner: lipgloss.NewStyle().
			Foreground(Purple).
			Bold(true),
	}
}

// SetSize records the terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.width = width
	t.height = height
}

// Width returns the current terminal width.
func (t *Theme) Width() int {
	return t.width
}

// Height returns the current terminal height.
func (t *Theme) Height() int {
	return t.height
}

// GlamourStyle maps the configured theme to a glamour style name.
func GlamourStyle(mode string) string {
	switch mode {
	case "dark":
		return "dark"
	case "light":
		return "light"
	default:
		return "auto"
	}
}
