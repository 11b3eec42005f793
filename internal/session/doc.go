// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session orchestrates a chat round trip.
//
// The Manager owns the interplay between the in-memory state tree, the
// gateway client, the rendering scheduler, and the durable store. The
// state tree is authoritative throughout: persistence is mirrored
// best-effort in background goroutines, failures are logged and never
// retried, and a conversation whose remote creation fails simply lives
// local-only for the rest of the session.
package session
