// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider speaks to the upstream model API.
//
// The gateway is the only consumer: it forwards conversation history
// upstream, receives the provider's SSE event stream, and re-emits text
// deltas as NDJSON frames. Errors are classified into sentinel values so
// the gateway can map them onto HTTP statuses without string matching.
package provider
