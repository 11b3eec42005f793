// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config_cmd.go - Config inspection and initialization.
//
// Examples:
//   tanchat config            Show the effective configuration
//   tanchat config path       Print the config file location
//   tanchat config init       Write a default config file
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/jeranaias/tanchat/internal/config"
	"github.com/jeranaias/tanchat/internal/ui/styles"
)

// HandleConfigCommand handles the "config" command.
func HandleConfigCommand(args *ArgParser, cfg *config.Config) error {
	switch args.Positional(1) {
	case "path":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "init":
		path, err := config.ConfigPathTOML()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !args.BoolFlag("force") {
			return fmt.Errorf("config already exists at %s (use --force to overwrite)", path)
		}
		if err := config.Save(config.Default()); err != nil {
			return err
		}
		fmt.Println(styles.RenderSuccess("Wrote " + path))
		return nil

	case "":
		printConfig(cfg)
		return nil

	default:
		return fmt.Errorf("unknown config subcommand: %s", args.Positional(1))
	}
}

func printConfig(cfg *config.Config) {
	key := "(not set)"
	if cfg.Provider.APIKey != "" {
		// Never echo key material.
		key = "****" + lastN(cfg.Provider.APIKey, 4)
	}

	dbPath, _ := cfg.DatabasePath()

	fmt.Println()
	fmt.Println(infoStyle.Render(strings.Repeat("─", 30)))
	fmt.Printf("%s %s\n", infoStyle.Render("Model:"), cfg.Provider.Model)
	fmt.Printf("%s %s\n", infoStyle.Render("Provider URL:"), cfg.Provider.BaseURL)
	fmt.Printf("%s %s\n", infoStyle.Render("API key:"), key)
	fmt.Printf("%s %d\n", infoStyle.Render("Max tokens:"), cfg.Provider.MaxTokens)
	fmt.Printf("%s %d\n", infoStyle.Render("Gateway port:"), cfg.Gateway.Port)
	fmt.Printf("%s %s\n", infoStyle.Render("Gateway URL:"), cfg.Gateway.URL)
	fmt.Printf("%s %s\n", infoStyle.Render("Database:"), dbPath)
	fmt.Printf("%s %s\n", infoStyle.Render("Theme:"), cfg.UI.Theme)
	fmt.Println()
}

func lastN(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}
