// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations durably.
//
// The Store interface is the session layer's persistence collaborator:
// every call may fail, and callers treat every failure as best-effort.
// Nothing here retries, and nothing here is allowed to block the in-memory
// state tree from being authoritative.
//
// The SQLite implementation assigns its own document IDs on Create; the
// caller is expected to rewrite its local conversation ID to the returned
// one.
package storage
