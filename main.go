// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tanchat - a streaming chat client for the terminal.
//
// Usage:
//   tanchat             Launch the TUI
//   tanchat chat        Plain-terminal REPL
//   tanchat serve       Run the local gateway
//   tanchat config      Show or initialize configuration
//   tanchat version     Print the version
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/tanchat/internal/cli"
	"github.com/jeranaias/tanchat/internal/client"
	"github.com/jeranaias/tanchat/internal/config"
	"github.com/jeranaias/tanchat/internal/session"
	"github.com/jeranaias/tanchat/internal/storage"
	"github.com/jeranaias/tanchat/internal/store"
	"github.com/jeranaias/tanchat/internal/ui/chat"
	"github.com/jeranaias/tanchat/internal/ui/styles"
)

const version = "0.1.0"

func main() {
	args := cli.NewArgParser(os.Args[1:])

	cfg, err := loadConfig(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tanchat: %v\n", err)
		os.Exit(1)
	}

	switch args.Subcommand() {
	case "serve":
		err = cli.HandleServeCommand(args, cfg)
	case "chat":
		err = cli.HandleChatCommand(args, cfg)
	case "config":
		err = cli.HandleConfigCommand(args, cfg)
	case "version":
		fmt.Println("tanchat " + version)
	case "help", "-h", "--help":
		printUsage()
	case "":
		err = runTUI(cfg)
	default:
		fmt.Fprintf(os.Stderr, "tanchat: unknown command %q\n\n", args.Subcommand())
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tanchat: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config, honoring --config for an explicit path.
func loadConfig(args *cli.ArgParser) (*config.Config, error) {
	if path := args.Flag("config"); path != "" {
		return config.LoadFromPath(path)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	config.SetGlobal(cfg)
	return cfg, nil
}

// =============================================================================
// TUI
// =============================================================================

func runTUI(cfg *config.Config) error {
	// The TUI owns the terminal; logs go to a file instead.
	redirectLogs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var remote storage.Store
	if dbPath, err := cfg.DatabasePath(); err == nil {
		if st, err := storage.OpenSQLite(dbPath); err == nil {
			remote = st
			defer st.Close()
		} else {
			log.Printf("STORAGE_UNAVAILABLE | error=%v", err)
		}
	}

	st := store.New()
	st.SetBannerVisible(cfg.UI.ShowBanner)

	mgr := session.NewManager(st, remote, client.New(cfg.Gateway.URL))
	mgr.Hydrate(ctx)
	defer mgr.Flush()

	theme := styles.NewTheme(cfg.UI.Theme)
	p := tea.NewProgram(chat.New(mgr, theme, cfg), tea.WithAltScreen())

	// Paced draft snapshots flow from the scheduler's goroutine into the
	// Bubble Tea loop.
	mgr.SetDraftHandler(func(conversationID, draft string) {
		p.Send(chat.DraftMsg{ConversationID: conversationID, Content: draft})
	})

	if err := config.Watch(ctx, func(*config.Config) {}); err != nil {
		log.Printf("CONFIG_WATCH_DISABLED | error=%v", err)
	}

	_, err := p.Run()
	return err
}

// redirectLogs sends the standard logger to ~/.tanchat/tanchat.log so log
// lines never tear the alt screen.
func redirectLogs() {
	dir, err := config.ConfigDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return
	}
	f, err := os.OpenFile(filepath.Join(dir, "tanchat.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return
	}
	log.SetOutput(f)
}

func printUsage() {
	fmt.Print(`tanchat - streaming chat for the terminal

Usage:
  tanchat               Launch the TUI
  tanchat chat          Plain-terminal chat REPL
  tanchat serve         Run the local gateway
  tanchat config        Show effective configuration
  tanchat config init   Write a default config file
  tanchat config path   Print the config file location
  tanchat version       Print the version

Flags:
  --config PATH         Use an explicit config file
  --port N              (serve) Listen port
  --gateway URL         (chat) Gateway base URL
  --no-store            (chat) Skip conversation persistence
`)
}
