// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tanchat/internal/ui/styles"
)

// =============================================================================
// WELCOME BANNER
// =============================================================================

const bannerArt = `
 _                   _           _
| |_ __ _ _ __   ___| |__   __ _| |_
| __/ _` + "`" + ` | '_ \ / __| '_ \ / _` + "`" + ` | __|
| || (_| | | | | (__| | | | (_| | |_
 \__\__,_|_| |_|\___|_| |_|\__,_|\__|`

// RenderBanner renders the startup banner centered in the given width.
// Shown until the first message is sent or the user dismisses it.
func RenderBanner(width int) string {
	art := lipgloss.NewStyle().
		Foreground(styles.Purple).
		Bold(true).
		Render(strings.TrimLeft(bannerArt, "\n"))

	hint := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render("Type a message to start. Ctrl+N new chat, Ctrl+B sidebar, Ctrl+C quit.")

	block := lipgloss.JoinVertical(lipgloss.Center, art, "", hint)
	if width <= 0 {
		return block
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, block)
}
