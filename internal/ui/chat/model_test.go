// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tanchat/internal/client"
	"github.com/jeranaias/tanchat/internal/config"
	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/session"
	"github.com/jeranaias/tanchat/internal/store"
	"github.com/jeranaias/tanchat/internal/ui/styles"
)

func newTestModel() (Model, *store.Store) {
	st := store.New()
	mgr := session.NewManager(st, nil, client.New("http://localhost:0"))
	m := New(mgr, styles.NewTheme("dark"), config.Default())
	m.width = 100
	m.height = 30
	return m, st
}

func seedConversation(st *store.Store) *model.Conversation {
	conv := model.NewConversation("Test Chat")
	conv.AddMessage(model.NewUserMessage("hello"))
	conv.AddMessage(model.NewAssistantMessage("**hi there**"))
	st.AddConversation(conv)
	st.SetCurrentConversation(conv.ID)
	return conv
}

func TestRenderMessagesShowsHistory(t *testing.T) {
	m, st := newTestModel()
	seedConversation(st)

	out := m.renderMessages()
	if !strings.Contains(out, "hello") {
		t.Errorf("Expected user message in output, got %q", out)
	}
	if !strings.Contains(out, "You") {
		t.Error("Expected user display name in output")
	}
	if !strings.Contains(out, "Assistant") {
		t.Error("Expected assistant display name in output")
	}
}

func TestRenderMessagesEmptyShowsBanner(t *testing.T) {
	m, _ := newTestModel()

	out := m.renderMessages()
	if !strings.Contains(out, "Type a message") {
		t.Errorf("Expected banner hint for empty state, got %q", out)
	}
}

func TestDraftMsgRendersBelowHistory(t *testing.T) {
	m, st := newTestModel()
	conv := seedConversation(st)

	updated, _ := m.Update(DraftMsg{ConversationID: conv.ID, Content: "typing out a resp"})
	m = updated.(Model)

	if m.draft != "typing out a resp" {
		t.Errorf("Expected draft stored, got %q", m.draft)
	}
	out := m.renderMessages()
	if !strings.Contains(out, "typing out a resp") {
		t.Error("Expected draft content rendered")
	}
}

func TestDraftForOtherConversationNotRendered(t *testing.T) {
	m, st := newTestModel()
	seedConversation(st)

	updated, _ := m.Update(DraftMsg{ConversationID: "other", Content: "stray draft"})
	m = updated.(Model)

	if strings.Contains(m.renderMessages(), "stray draft") {
		t.Error("Draft for a different conversation must not render")
	}
}

func TestSubmitResultClearsDraft(t *testing.T) {
	m, st := newTestModel()
	conv := seedConversation(st)
	m.state = StateStreaming
	m.draft = "partial"
	m.draftConvID = conv.ID

	updated, _ := m.Update(SubmitResultMsg{})
	m = updated.(Model)

	if m.state != StateReady {
		t.Errorf("Expected ready state, got %d", m.state)
	}
	if m.draft != "" {
		t.Errorf("Expected draft cleared, got %q", m.draft)
	}
}

func TestSidebarNavigation(t *testing.T) {
	m, st := newTestModel()
	first := model.NewConversation("First")
	second := model.NewConversation("Second")
	st.AddConversation(first)
	st.AddConversation(second) // prepended, so index 0
	st.SetCurrentConversation(first.ID)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlB})
	m = updated.(Model)
	if !m.showSidebar || m.focus != focusSidebar {
		t.Fatal("Expected sidebar open and focused")
	}
	if m.sidebarIndex != 1 {
		t.Errorf("Expected selection to start at current conversation, got %d", m.sidebarIndex)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = updated.(Model)
	if m.sidebarIndex != 0 {
		t.Errorf("Expected index 0 after up, got %d", m.sidebarIndex)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	if m.showSidebar {
		t.Error("Expected sidebar closed after selection")
	}
	if cur, _ := st.CurrentConversation(); cur.ID != second.ID {
		t.Errorf("Expected second conversation selected, got %q", cur.Title)
	}
}

func TestResizeClampsViewport(t *testing.T) {
	m, _ := newTestModel()

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 5, Height: 3})
	m = updated.(Model)

	if m.viewport.Height < 1 {
		t.Errorf("Viewport height must stay positive, got %d", m.viewport.Height)
	}
	if m.viewport.Width < 20 {
		t.Errorf("Viewport width must stay usable, got %d", m.viewport.Width)
	}
}
