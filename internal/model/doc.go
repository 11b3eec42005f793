// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and system prompts.
//
// These types are shared between the in-memory state tree, the remote
// conversation store, and the wire request payloads, so their JSON tags
// define both the persistence format and the request contract.
package model
