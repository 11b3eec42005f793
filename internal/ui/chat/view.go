// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/ui/components"
	"github.com/jeranaias/tanchat/internal/util"
)

const sidebarWidth = 28

// =============================================================================
// LAYOUT
// =============================================================================

// contentWidth is the viewport width after the sidebar takes its share.
func (m Model) contentWidth() int {
	w := m.width
	if m.showSidebar {
		w -= sidebarWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

func (m Model) render() string {
	header := m.renderHeader()
	body := m.viewport.View()
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.renderInput(),
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	title := "tanchat"
	if conv, ok := m.session.Store().CurrentConversation(); ok {
		title += " - " + util.TruncateRunes(conv.Title, 48)
	}
	return m.theme.Header.Render(title)
}

func (m Model) renderInput() string {
	sep := m.theme.Separator.Render(strings.Repeat("-", max(m.width, 1)))
	if m.focus == focusRename {
		return sep + "\n" + m.renameInput.View()
	}
	return sep + "\n" + m.input.View()
}

func (m Model) renderStatusBar() string {
	if m.statusMsg != "" {
		return m.theme.StatusBar.Render(m.statusMsg)
	}
	if m.state == StateStreaming {
		return m.theme.StatusBar.Render(m.spinner.View() + " Generating... (Esc to cancel)")
	}
	hint := "Enter send | Ctrl+B conversations | Ctrl+N new | Ctrl+C quit"
	if m.focus == focusSidebar {
		hint = "Enter open | r rename | d delete | Esc close"
	}
	return m.theme.StatusBar.Render(hint)
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	snap := m.session.Store().Snapshot()

	var b strings.Builder
	b.WriteString(m.theme.Hint.Render("Conversations"))
	b.WriteString("\n\n")

	if len(snap.Conversations) == 0 {
		b.WriteString(m.theme.Hint.Render("(none yet)"))
	}
	for i, c := range snap.Conversations {
		line := util.TruncateRunes(c.Title, sidebarWidth-6)
		if c.ID == snap.CurrentConversationID {
			line = "* " + line
		} else {
			line = "  " + line
		}
		if m.focus != focusInput && i == m.sidebarIndex {
			line = m.theme.Selected.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(sidebarWidth - 2).
		Height(m.viewport.Height).
		Render(b.String())
}

// =============================================================================
// MESSAGES
// =============================================================================

// refreshViewport re-renders the conversation into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderMessages())
}

func (m *Model) renderMessages() string {
	snap := m.session.Store().Snapshot()

	conv, ok := m.session.Store().CurrentConversation()
	if !ok || len(conv.Messages) == 0 {
		if snap.IsBannerVisible {
			return components.RenderBanner(m.contentWidth())
		}
		return m.theme.Hint.Render("No messages yet.")
	}

	width := m.contentWidth()
	var parts []string
	for _, msg := range conv.Messages {
		parts = append(parts, m.renderMessage(msg, width))
	}

	// The in-flight draft renders below committed history.
	if m.draft != "" && m.draftConvID == conv.ID {
		parts = append(parts,
			m.theme.AssistantLabel.Render(model.RoleAssistant.DisplayName())+"\n"+
				m.markdown.Render(m.draft, width))
	}

	return strings.Join(parts, "\n")
}

func (m *Model) renderMessage(msg model.Message, width int) string {
	label := m.theme.UserLabel.Render(msg.Role.DisplayName())
	body := msg.Content
	if msg.Role == model.RoleAssistant {
		label = m.theme.AssistantLabel.Render(msg.Role.DisplayName())
		body = m.markdown.Render(msg.Content, width)
	}
	return label + "\n" + strings.TrimRight(body, "\n") + "\n"
}
