// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer renders markdown for terminal display. Renderers are
// cached per width since glamour renderer construction is expensive and the
// streaming view re-renders on every draft update.
type MarkdownRenderer struct {
	mu        sync.Mutex
	theme     string
	wordWrap  int
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdownRenderer creates a renderer for the given theme ("auto",
// "dark", "light"). wordWrap of 0 means use the width passed to Render.
func NewMarkdownRenderer(theme string, wordWrap int) *MarkdownRenderer {
	return &MarkdownRenderer{
		theme:     theme,
		wordWrap:  wordWrap,
		renderers: make(map[int]*glamour.TermRenderer),
	}
}

// Render renders markdown at the given width. On any renderer failure the
// raw markdown comes back unchanged; a chat client must never eat the
// response because formatting failed.
func (m *MarkdownRenderer) Render(markdown string, width int) string {
	if m.wordWrap > 0 && (width <= 0 || m.wordWrap < width) {
		width = m.wordWrap
	}
	if width <= 0 {
		width = 80
	}

	r, err := m.rendererFor(width)
	if err != nil {
		return markdown
	}

	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}

func (m *MarkdownRenderer) rendererFor(width int) (*glamour.TermRenderer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.renderers[width]; ok {
		return r, nil
	}

	opts := []glamour.TermRendererOption{
		glamour.WithWordWrap(width),
		glamour.WithEmoji(),
	}
	switch m.theme {
	case "dark":
		opts = append(opts, glamour.WithStandardStyle("dark"))
	case "light":
		opts = append(opts, glamour.WithStandardStyle("light"))
	default:
		opts = append(opts, glamour.WithAutoStyle())
	}

	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	m.renderers[width] = r
	return r, nil
}
