// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server is the chat gateway.
//
// Endpoints:
//   - POST /v1/chat - stream a completion as NDJSON frames
//   - GET  /health  - health check
//
// The gateway fronts the upstream provider: it validates and filters the
// client's conversation history, forwards it upstream, and re-emits each
// text delta as one newline-terminated JSON frame, flushed immediately.
// Errors detected before the first frame map onto an HTTP status with a
// JSON body; once frames have been written the only remaining error signal
// is dropping the connection.
package server
