// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render paces streamed text into a typing effect.
//
// Incoming fragments arrive in network-sized bursts; the Scheduler queues
// them and drains the queue in small rune slices with a delay between
// slices, so output appears at reading speed instead of in blocks. Content
// currently inside a code fence drains faster with bigger slices, since
// code is scanned rather than read.
package render
