// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared utilities for tanchat.
//
// It contains the atomic file write used by config and storage, and
// rune/width-aware string helpers used wherever text is truncated for
// display (titles, previews, sidebar entries).
package util
