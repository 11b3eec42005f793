// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the tanchat command handlers: the plain-terminal
// chat REPL, the gateway server command, and config inspection. The TUI
// lives in internal/ui; everything here writes to stdout/stderr directly.
package cli
