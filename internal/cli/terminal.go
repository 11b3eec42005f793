// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/muesli/termenv"
)

// IsStdoutTTY reports whether stdout is an interactive terminal. Markdown
// rendering and ANSI styling are skipped when output is piped.
func IsStdoutTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// ColorProfile returns the detected terminal color profile.
func ColorProfile() termenv.Profile {
	return termenv.ColorProfile()
}
