// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat view.
//
// The view is a thin layer over session.Manager: key presses become
// Submit calls, paced draft updates arrive as DraftMsg from the draft
// handler, and everything rendered is read back from the state tree.
package chat
