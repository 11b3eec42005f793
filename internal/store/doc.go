// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the client's in-memory state tree.
//
// All mutation goes through the fixed reducer methods on Store; nothing
// else writes the tree. Each reducer is total (a no-op on absent targets),
// takes the lock once, and notifies subscribers after the tree has settled.
// The remote conversation store is deliberately absent here: persistence is
// a collaborator of the session layer, and this tree stays authoritative
// even when persistence fails.
package store
