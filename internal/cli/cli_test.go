// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/jeranaias/tanchat/internal/client"
	"github.com/jeranaias/tanchat/internal/model"
	"github.com/jeranaias/tanchat/internal/session"
	"github.com/jeranaias/tanchat/internal/store"
)

func TestArgParserFlagFormats(t *testing.T) {
	args := NewArgParser([]string{"serve", "--port", "9000", "--theme=dark", "--quiet"})

	if args.Subcommand() != "serve" {
		t.Errorf("Expected subcommand serve, got %q", args.Subcommand())
	}
	if args.Flag("port") != "9000" {
		t.Errorf("Expected port 9000, got %q", args.Flag("port"))
	}
	if args.Flag("theme") != "dark" {
		t.Errorf("Expected theme dark, got %q", args.Flag("theme"))
	}
	if !args.BoolFlag("quiet") {
		t.Error("Expected quiet flag set")
	}
}

func TestArgParserExplicitBool(t *testing.T) {
	args := NewArgParser([]string{"--json=false", "--color=true"})

	if args.BoolFlag("json") {
		t.Error("Expected json=false")
	}
	if !args.BoolFlag("color") {
		t.Error("Expected color=true")
	}
}

func TestArgParserIntDefault(t *testing.T) {
	args := NewArgParser([]string{"--port", "abc"})

	if got := args.FlagIntOrDefault("port", 8787); got != 8787 {
		t.Errorf("Expected default on bad int, got %d", got)
	}
	if got := args.FlagIntOrDefault("missing", 42); got != 42 {
		t.Errorf("Expected default on missing flag, got %d", got)
	}
}

func TestArgParserPositional(t *testing.T) {
	args := NewArgParser([]string{"config", "init", "--force"})

	if args.Positional(0) != "config" || args.Positional(1) != "init" {
		t.Errorf("Unexpected positionals: %v", args.PositionalFrom(0))
	}
	if args.Positional(5) != "" {
		t.Error("Expected empty string for out-of-range positional")
	}
}

func newTestManager() *session.Manager {
	return session.NewManager(store.New(), nil, client.New("http://localhost:0"))
}

func TestSlashCommandQuit(t *testing.T) {
	mgr := newTestManager()
	for _, cmd := range []string{"/quit", "/q", "/exit"} {
		cont, err := handleSlashCommand(cmd, mgr)
		if err != nil {
			t.Errorf("%s returned error: %v", cmd, err)
		}
		if cont {
			t.Errorf("%s should stop the REPL", cmd)
		}
	}
}

func TestSlashCommandUnknown(t *testing.T) {
	mgr := newTestManager()
	cont, err := handleSlashCommand("/bogus", mgr)
	if err == nil {
		t.Error("Expected error for unknown command")
	}
	if !cont {
		t.Error("Unknown command should not exit the REPL")
	}
}

func TestSlashCommandPromptSetAndClear(t *testing.T) {
	mgr := newTestManager()

	if _, err := handleSlashCommand("/prompt be terse", mgr); err != nil {
		t.Fatalf("prompt set failed: %v", err)
	}
	p, ok := mgr.Store().ActivePrompt()
	if !ok || p.Content != "be terse" {
		t.Errorf("Expected active prompt 'be terse', got %+v ok=%v", p, ok)
	}

	if _, err := handleSlashCommand("/prompt clear", mgr); err != nil {
		t.Fatalf("prompt clear failed: %v", err)
	}
	if _, ok := mgr.Store().ActivePrompt(); ok {
		t.Error("Expected prompt cleared")
	}
}

func TestSelectConversationBounds(t *testing.T) {
	mgr := newTestManager()
	conv := model.NewConversation("Only One")
	mgr.Store().AddConversation(conv)

	if err := selectConversation(mgr, "1"); err != nil {
		t.Errorf("select 1 failed: %v", err)
	}
	if cur, ok := mgr.Store().CurrentConversation(); !ok || cur.ID != conv.ID {
		t.Error("Expected conversation selected")
	}

	if err := selectConversation(mgr, "2"); err == nil {
		t.Error("Expected error for out-of-range selection")
	}
	if err := selectConversation(mgr, "x"); err == nil {
		t.Error("Expected error for non-numeric selection")
	}
}
