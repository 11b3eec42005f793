// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package client talks to the chat gateway.
//
// It posts the conversation history to /v1/chat and feeds the NDJSON
// response through the wire decoder and interpreter, delivering text
// fragments to the caller as they complete. Error bodies are decoded into
// typed errors that carry the gateway's status and message.
package client
