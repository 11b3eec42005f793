// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package wire implements the newline-delimited JSON frame protocol used
// between the gateway and the chat client.
//
// Each frame is one JSON object on its own line:
//
//	{"type":"content_block_delta","delta":{"type":"text_delta","text":"..."}}
//
// The Decoder turns arbitrary byte chunks into complete lines, carrying
// partial UTF-8 sequences and partial lines across chunk boundaries. The
// Interpreter parses complete lines into text fragments, skipping anything
// malformed. Neither side assumes the transport respects frame boundaries.
package wire
