// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tanchat/internal/config"
	"github.com/jeranaias/tanchat/internal/session"
	"github.com/jeranaias/tanchat/internal/ui/components"
	"github.com/jeranaias/tanchat/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving streaming response
)

// focus identifies which pane receives key input.
type focus int

const (
	focusInput focus = iota
	focusSidebar
	focusRename
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme

	width  int
	height int

	session  *session.Manager
	markdown *components.MarkdownRenderer

	// Current paced draft for the streaming conversation.
	draftConvID string
	draft       string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	focus        focus
	showSidebar  bool
	sidebarIndex int
	renameInput  textinput.Model

	statusMsg string
}

// New creates the chat model.
func New(mgr *session.Manager, theme *styles.Theme, cfg *config.Config) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 4096
	ti.Focus()

	vp := viewport.New(80, 20)

	// ASCII spinner frames render everywhere, including Windows consoles.
	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	sp.Style = theme.Hint

	ri := textinput.New()
	ri.Prompt = "Rename: "
	ri.CharLimit = 120

	return Model{
		state:       StateReady,
		theme:       theme,
		session:     mgr,
		markdown:    components.NewMarkdownRenderer(cfg.UI.Theme, cfg.UI.WordWrap),
		viewport:    vp,
		input:       ti,
		spinner:     sp,
		renameInput: ri,
		focus:       focusInput,
	}
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case DraftMsg:
		return m.handleDraft(msg)

	case SubmitResultMsg:
		return m.handleSubmitResult(msg)

	case HydratedMsg:
		m.refreshViewport()
		return m, nil

	case spinner.TickMsg:
		if m.state == StateStreaming {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	var cmds []tea.Cmd
	if m.focus == focusInput && m.state == StateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	var vpCmd tea.Cmd
	m.viewport, vpCmd = m.viewport.Update(msg)
	cmds = append(cmds, vpCmd)
	return m, tea.Batch(cmds...)
}

// View renders the chat view.
func (m Model) View() string {
	return m.render()
}

// =============================================================================
// MESSAGE HANDLERS
// =============================================================================

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(msg.Width, msg.Height)

	// header + input area + status bar
	const reservedHeight = 5
	vpHeight := m.height - reservedHeight
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Height = vpHeight
	m.viewport.Width = m.contentWidth()

	inputWidth := m.width - 8
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.input.Width = inputWidth

	m.refreshViewport()
	return m, nil
}

func (m Model) handleDraft(msg DraftMsg) (tea.Model, tea.Cmd) {
	m.draftConvID = msg.ConversationID
	m.draft = msg.Content
	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, nil
}

func (m Model) handleSubmitResult(msg SubmitResultMsg) (tea.Model, tea.Cmd) {
	m.state = StateReady
	m.draft = ""
	m.draftConvID = ""

	if msg.Err != nil && !errors.Is(msg.Err, session.ErrBusy) {
		m.statusMsg = styles.RenderError(msg.Err.Error())
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	m.input.Focus()
	return m, textinput.Blink
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keyStr := msg.String()

	// Global keys work regardless of focus.
	switch keyStr {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit

	case "ctrl+b":
		m.showSidebar = !m.showSidebar
		if m.showSidebar {
			m.focus = focusSidebar
			m.sidebarIndex = m.currentSidebarIndex()
			m.input.Blur()
		} else {
			m.focus = focusInput
			m.input.Focus()
		}
		m.viewport.Width = m.contentWidth()
		m.refreshViewport()
		return m, textinput.Blink

	case "ctrl+n":
		if m.state == StateReady {
			m.session.StartNewConversation()
			m.statusMsg = ""
			m.refreshViewport()
		}
		return m, nil
	}

	switch m.focus {
	case focusSidebar:
		return m.handleSidebarKey(keyStr)
	case focusRename:
		return m.handleRenameKey(msg)
	}

	// Input focus.
	switch keyStr {
	case "enter":
		if m.state == StateReady && strings.TrimSpace(m.input.Value()) != "" {
			return m.submit()
		}
		return m, nil

	case "esc":
		if m.state == StateStreaming {
			m.session.Abort()
		}
		return m, nil

	case "pgup":
		m.viewport.HalfViewUp()
		return m, nil

	case "pgdown":
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.state == StateReady {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleSidebarKey(keyStr string) (tea.Model, tea.Cmd) {
	convs := m.session.Store().Snapshot().Conversations

	switch keyStr {
	case "esc":
		m.focus = focusInput
		m.showSidebar = false
		m.input.Focus()
		m.viewport.Width = m.contentWidth()
		m.refreshViewport()
		return m, textinput.Blink

	case "up", "k":
		if m.sidebarIndex > 0 {
			m.sidebarIndex--
		}
		return m, nil

	case "down", "j":
		if m.sidebarIndex < len(convs)-1 {
			m.sidebarIndex++
		}
		return m, nil

	case "enter":
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(convs) {
			m.session.SelectConversation(convs[m.sidebarIndex].ID)
			m.focus = focusInput
			m.showSidebar = false
			m.input.Focus()
			m.viewport.Width = m.contentWidth()
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		return m, textinput.Blink

	case "d":
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(convs) {
			m.session.DeleteConversation(convs[m.sidebarIndex].ID)
			if m.sidebarIndex > 0 {
				m.sidebarIndex--
			}
			m.refreshViewport()
		}
		return m, nil

	case "r":
		if m.sidebarIndex >= 0 && m.sidebarIndex < len(convs) {
			m.focus = focusRename
			m.renameInput.SetValue(convs[m.sidebarIndex].Title)
			m.renameInput.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.focus = focusSidebar
		m.renameInput.Blur()
		return m, nil

	case "enter":
		convs := m.session.Store().Snapshot().Conversations
		title := strings.TrimSpace(m.renameInput.Value())
		if title != "" && m.sidebarIndex >= 0 && m.sidebarIndex < len(convs) {
			m.session.RenameConversation(convs[m.sidebarIndex].ID, title)
		}
		m.focus = focusSidebar
		m.renameInput.Blur()
		m.refreshViewport()
		return m, nil
	}

	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	return m, cmd
}

// =============================================================================
// SUBMISSION
// =============================================================================

// submit kicks off a round trip. The Submit call blocks until the paced
// rendering drains, so it runs as a tea.Cmd; draft snapshots arrive
// separately as DraftMsg while it runs.
func (m Model) submit() (tea.Model, tea.Cmd) {
	input := m.input.Value()
	m.input.Reset()
	m.state = StateStreaming
	m.statusMsg = ""

	// Dismiss the banner on first use.
	m.session.Store().SetBannerVisible(false)

	mgr := m.session
	submitCmd := func() tea.Msg {
		return SubmitResultMsg{Err: mgr.Submit(context.Background(), input)}
	}

	m.refreshViewport()
	m.viewport.GotoBottom()
	return m, tea.Batch(submitCmd, m.spinner.Tick)
}

// currentSidebarIndex finds the selected conversation's position.
func (m Model) currentSidebarIndex() int {
	snap := m.session.Store().Snapshot()
	for i, c := range snap.Conversations {
		if c.ID == snap.CurrentConversationID {
			return i
		}
	}
	return 0
}
