// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// DraftMsg carries one paced draft snapshot from the rendering scheduler.
// Sent via Program.Send from the scheduler's drain goroutine.
type DraftMsg struct {
	ConversationID string
	Content        string
}

// SubmitResultMsg reports the end of a prompt round trip.
type SubmitResultMsg struct {
	Err error
}

// HydratedMsg reports that stored conversations finished loading.
type HydratedMsg struct{}
