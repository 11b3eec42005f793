// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// serve.go - Gateway server command handler.
//
// Handles the "tanchat serve" command which runs the local HTTP gateway
// that the chat clients talk to.
//
// Examples:
//   tanchat serve                 Listen on the configured port
//   tanchat serve --port 9000     Override the port
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jeranaias/tanchat/internal/config"
	"github.com/jeranaias/tanchat/internal/provider"
	"github.com/jeranaias/tanchat/internal/server"
	"github.com/jeranaias/tanchat/internal/ui/styles"
)

// HandleServeCommand handles the "serve" command. Blocks until SIGINT or
// SIGTERM, then shuts down gracefully.
func HandleServeCommand(args *ArgParser, cfg *config.Config) error {
	port := args.FlagIntOrDefault("port", cfg.Gateway.Port)

	if cfg.Provider.APIKey == "" {
		fmt.Fprintln(os.Stderr, styles.RenderWarning(
			"No API key configured. Set ANTHROPIC_API_KEY or provider.api_key; chat requests will fail until then."))
	}

	p := provider.New(cfg.Provider.APIKey,
		provider.WithBaseURL(cfg.Provider.BaseURL),
		provider.WithModel(cfg.Provider.Model),
		provider.WithMaxTokens(cfg.Provider.MaxTokens),
	)

	srv := server.NewServer(port, p).
		WithRateLimiter(server.NewRateLimiter(
			cfg.Gateway.RateLimitPerSec,
			cfg.Gateway.RateLimitBurst,
		))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Reloads update the global config; a port change needs a restart.
	if err := config.Watch(ctx, func(*config.Config) {}); err != nil {
		fmt.Fprintln(os.Stderr, styles.RenderWarning("Config watch disabled: "+err.Error()))
	}

	fmt.Println(styles.RenderInfo(fmt.Sprintf("Gateway listening on :%d", port)))
	return srv.Start(ctx)
}
