// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command handler for the tanchat CLI.
//
// Handles the "tanchat chat" command: a plain-terminal REPL for talking to
// the gateway without the full TUI.
//
// Examples:
//   tanchat chat                      Start interactive chat
//   tanchat chat --gateway URL        Use a specific gateway
//   tanchat chat --no-store           Skip conversation persistence
//
// Interactive commands (during chat):
//   /help, /h           Show available commands
//   /new                Start a new conversation
//   /list               List stored conversations
//   /select N           Switch to conversation N from /list
//   /rename TITLE       Rename the current conversation
//   /delete             Delete the current conversation
//   /prompt [TEXT]      Show, set, or clear the custom system prompt
//   /export [md|json]   Export the current conversation to a file
//   /quit, /q           Exit chat
//   Ctrl+D              Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/peterh/liner"

	"github.com/jeranaias/tanchat/internal/client"
	"github.com/jeranaias/tanchat/internal/config"
	"github.com/jeranaias/tanchat/internal/export"
	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/session"
	"github.com/jeranaias/tanchat/internal/storage"
	"github.com/jeranaias/tanchat/internal/store"
	"github.com/jeranaias/tanchat/internal/ui/components"
	"github.com/jeranaias/tanchat/internal/ui/styles"
	"github.com/jeranaias/tanchat/internal/util"
)

// =============================================================================
// STYLES
// =============================================================================

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(styles.Cyan).
			Bold(true)

	welcomeStyle = lipgloss.NewStyle().
			Foreground(styles.Purple).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(styles.TextSecondary)

	commandStyle = lipgloss.NewStyle().
			Foreground(styles.Emerald)

	errorStyle = lipgloss.NewStyle().
			Foreground(styles.Rose).
			Bold(true)
)

// =============================================================================
// INPUT HISTORY
// =============================================================================

// ChatCLI provides input history and line editing for interactive chat.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a new ChatCLI with input history support.
func NewChatCLI() *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	configDir, err := config.ConfigDir()
	if err != nil {
		configDir = os.TempDir()
	}

	cli := &ChatCLI{
		line:        line,
		historyFile: filepath.Join(configDir, "chat_history"),
	}
	cli.LoadHistory()
	return cli
}

// LoadHistory loads command history from file.
func (c *ChatCLI) LoadHistory() {
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt. Non-empty input
// is recorded in history.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists command history with restrictive permissions.
func (c *ChatCLI) SaveHistory() {
	if err := os.MkdirAll(filepath.Dir(c.historyFile), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and closes the liner.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CHAT HANDLER
// =============================================================================

// HandleChatCommand handles the "chat" command.
func HandleChatCommand(args *ArgParser, cfg *config.Config) error {
	gatewayURL := args.FlagOrDefault("gateway", cfg.Gateway.URL)

	var remote storage.Store
	if !args.BoolFlag("no-store") {
		dbPath, err := cfg.DatabasePath()
		if err == nil {
			if st, err := storage.OpenSQLite(dbPath); err == nil {
				remote = st
				defer st.Close()
			} else {
				fmt.Fprintln(os.Stderr, styles.RenderWarning("Persistence unavailable: "+err.Error()))
			}
		}
	}

	mgr := session.NewManager(store.New(), remote, client.New(gatewayURL))
	mgr.Hydrate(context.Background())
	defer mgr.Flush()

	markdown := components.NewMarkdownRenderer(cfg.UI.Theme, cfg.UI.WordWrap)
	useMarkdown := IsStdoutTTY()

	// Typing effect: each draft snapshot extends the last, so printing the
	// suffix reproduces the paced stream. Markdown mode collects instead
	// and renders the finished response once.
	var printed int
	mgr.SetDraftHandler(func(conversationID, draft string) {
		if useMarkdown {
			return
		}
		if len(draft) > printed {
			fmt.Print(draft[printed:])
			printed = len(draft)
		}
	})

	input := NewChatCLI()
	defer input.Close()

	if !args.BoolFlag("quiet") {
		printWelcome(gatewayURL, remote != nil)
	}

	for {
		line, err := input.ReadInput(promptStyle.Render("tanchat> "))
		if err != nil {
			// Ctrl+C or Ctrl+D exits cleanly.
			fmt.Println()
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			cont, err := handleSlashCommand(line, mgr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			}
			if !cont {
				fmt.Println(infoStyle.Render("Goodbye!"))
				return nil
			}
			continue
		}
		if strings.EqualFold(line, "exit") || strings.EqualFold(line, "quit") {
			fmt.Println(infoStyle.Render("Goodbye!"))
			return nil
		}

		printed = 0
		fmt.Println()
		if err := mgr.Submit(context.Background(), line); err != nil {
			fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("[Error]"), err)
			continue
		}

		if useMarkdown {
			if conv, ok := mgr.Store().CurrentConversation(); ok {
				if last := conv.LastMessage(); last != nil && last.Role == model.RoleAssistant {
					fmt.Print(markdown.Render(last.Content, terminalWidth()))
				}
			}
		}
		fmt.Println()
	}
}

// terminalWidth returns a usable render width for stdout.
func terminalWidth() int {
	if w, ok := os.LookupEnv("COLUMNS"); ok {
		if n, err := strconv.Atoi(w); err == nil && n > 20 {
			return n
		}
	}
	return 80
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// handleSlashCommand processes slash commands.
// Returns (shouldContinue, error) where shouldContinue=false means exit.
func handleSlashCommand(cmd string, mgr *session.Manager) (bool, error) {
	parts := strings.Fields(cmd)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "/help", "/h", "/?":
		printHelp()
		return true, nil

	case "/new":
		mgr.StartNewConversation()
		fmt.Println(commandStyle.Render("[New conversation]"))
		return true, nil

	case "/list", "/l":
		printConversations(mgr)
		return true, nil

	case "/select", "/s":
		if len(args) == 0 {
			return true, errors.New("usage: /select N")
		}
		return true, selectConversation(mgr, args[0])

	case "/rename":
		if len(args) == 0 {
			return true, errors.New("usage: /rename TITLE")
		}
		conv, ok := mgr.Store().CurrentConversation()
		if !ok {
			return true, errors.New("no conversation selected")
		}
		title := strings.Join(args, " ")
		mgr.RenameConversation(conv.ID, title)
		fmt.Printf("%s %s\n", commandStyle.Render("[Renamed]"), title)
		return true, nil

	case "/delete", "/d":
		conv, ok := mgr.Store().CurrentConversation()
		if !ok {
			return true, errors.New("no conversation selected")
		}
		mgr.DeleteConversation(conv.ID)
		fmt.Println(commandStyle.Render("[Deleted]"))
		return true, nil

	case "/prompt", "/p":
		return true, handlePromptCommand(mgr, args)

	case "/export", "/e":
		return true, handleExportCommand(mgr, args)

	case "/quit", "/q", "/exit":
		return false, nil

	case "/":
		printHelp()
		return true, nil

	default:
		return true, fmt.Errorf("unknown command: %s (type /help for commands)", command)
	}
}

// handlePromptCommand shows, sets, or clears the custom system prompt.
func handlePromptCommand(mgr *session.Manager, args []string) error {
	st := mgr.Store()

	if len(args) == 0 {
		if p, ok := st.ActivePrompt(); ok {
			fmt.Printf("%s %s\n", infoStyle.Render("[Prompt]"), p.Content)
		} else {
			fmt.Println(infoStyle.Render("[Prompt] (default)"))
		}
		return nil
	}

	if args[0] == "clear" {
		if p, ok := st.ActivePrompt(); ok {
			st.DeletePrompt(p.ID)
		}
		fmt.Println(commandStyle.Render("[Prompt cleared]"))
		return nil
	}

	value := strings.Join(args, " ")
	if p, ok := st.ActivePrompt(); ok {
		st.DeletePrompt(p.ID)
	}
	st.CreatePrompt(model.Prompt{
		ID:        uuid.NewString(),
		Name:      "cli",
		Content:   value,
		IsActive:  true,
		CreatedAt: time.Now().UnixMilli(),
	})
	fmt.Println(commandStyle.Render("[Prompt set]"))
	return nil
}

// handleExportCommand writes the current conversation to a file.
func handleExportCommand(mgr *session.Manager, args []string) error {
	conv, ok := mgr.Store().CurrentConversation()
	if !ok {
		return errors.New("no conversation selected")
	}

	opts := export.DefaultOptions()
	var exporter export.Exporter
	format := "md"
	if len(args) > 0 {
		format = strings.ToLower(args[0])
	}
	switch format {
	case "md", "markdown":
		exporter = export.NewMarkdownExporter(opts)
	case "json":
		exporter = export.NewJSONExporter(opts)
	default:
		return fmt.Errorf("unknown export format: %s (md or json)", format)
	}

	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", commandStyle.Render("[Exported]"), path)
	return nil
}

// selectConversation switches to the Nth conversation from /list.
func selectConversation(mgr *session.Manager, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return fmt.Errorf("invalid conversation number: %s", arg)
	}
	convs := mgr.Store().Snapshot().Conversations
	if n < 1 || n > len(convs) {
		return fmt.Errorf("conversation %d not found (have %d)", n, len(convs))
	}
	mgr.SelectConversation(convs[n-1].ID)
	fmt.Printf("%s %s\n", commandStyle.Render("[Switched]"), convs[n-1].Title)
	return nil
}

// =============================================================================
// DISPLAY
// =============================================================================

func printWelcome(gatewayURL string, persistent bool) {
	fmt.Println()
	fmt.Println(welcomeStyle.Render("tanchat interactive chat"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n", infoStyle.Render("Gateway:"), commandStyle.Render(gatewayURL))
	if persistent {
		fmt.Printf("%s %s\n", infoStyle.Render("Storage:"), commandStyle.Render("enabled"))
	} else {
		fmt.Printf("%s %s\n", infoStyle.Render("Storage:"), infoStyle.Render("in-memory only"))
	}
	fmt.Println()
	fmt.Println(infoStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Println()
}

func printHelp() {
	fmt.Println()
	fmt.Println(promptStyle.Render("Available Commands"))
	fmt.Println(infoStyle.Render(strings.Repeat("─", 20)))
	fmt.Println()

	commands := []struct {
		cmd  string
		desc string
	}{
		{"/help, /h", "Show this help"},
		{"/new", "Start a new conversation"},
		{"/list, /l", "List stored conversations"},
		{"/select N", "Switch to conversation N"},
		{"/rename TITLE", "Rename the current conversation"},
		{"/delete, /d", "Delete the current conversation"},
		{"/prompt [TEXT]", "Show, set, or clear the system prompt"},
		{"/export [md|json]", "Export the current conversation"},
		{"/quit, /q", "Exit chat"},
	}

	for _, c := range commands {
		fmt.Printf("  %s  %s\n",
			commandStyle.Render(fmt.Sprintf("%-15s", c.cmd)),
			infoStyle.Render(c.desc))
	}

	fmt.Println()
	fmt.Println(infoStyle.Render("Tip: Ctrl+D exits"))
	fmt.Println()
}

func printConversations(mgr *session.Manager) {
	snap := mgr.Store().Snapshot()
	if len(snap.Conversations) == 0 {
		fmt.Println(infoStyle.Render("[No conversations yet]"))
		return
	}

	fmt.Println()
	for i, c := range snap.Conversations {
		marker := "  "
		if c.ID == snap.CurrentConversationID {
			marker = commandStyle.Render("* ")
		}
		fmt.Printf("%s%d. %s %s\n",
			marker, i+1,
			util.TruncateRunes(c.Title, 50),
			infoStyle.Render(fmt.Sprintf("(%d messages)", c.MessageCount())))
	}
	fmt.Println()
}
