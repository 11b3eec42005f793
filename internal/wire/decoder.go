// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"strings"
	"unicode/utf8"
)

// =============================================================================
// CHUNK DECODER
// =============================================================================

// Decoder assembles complete NDJSON lines from arbitrary byte chunks.
//
// The transport may split the stream anywhere, including mid-frame and
// mid-UTF-8-sequence. Feed never interprets line content; it only restores
// line boundaries. A trailing partial line is held back until the newline
// that completes it arrives; Flush at end of stream discards it.
type Decoder struct {
	pending []byte // bytes of an incomplete UTF-8 sequence from the last chunk
	tail    string // decoded text after the last newline, not yet a full line
}

// NewDecoder creates a decoder with empty carry-over state.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed consumes one chunk and returns the complete lines it finishes.
// Lines are returned without their trailing newline. Blank lines are
// dropped. The final segment after the last newline is retained as the
// tail for the next Feed.
func (d *Decoder) Feed(chunk []byte) []string {
	if len(d.pending) > 0 {
		chunk = append(d.pending, chunk...)
		d.pending = nil
	}

	// UNICODE: Hold back an incomplete trailing UTF-8 sequence so a
	// multi-byte character split across chunks decodes intact.
	cut := len(chunk)
	for cut > 0 && cut > len(chunk)-utf8.UTFMax {
		r, size := utf8.DecodeLastRune(chunk[:cut])
		if r != utf8.RuneError || size != 1 {
			break
		}
		cut--
	}
	if cut < len(chunk) {
		d.pending = append(d.pending, chunk[cut:]...)
		chunk = chunk[:cut]
	}

	if len(chunk) == 0 {
		return nil
	}

	text := d.tail + string(chunk)
	parts := strings.Split(text, "\n")
	d.tail = parts[len(parts)-1]
	parts = parts[:len(parts)-1]

	lines := make([]string, 0, len(parts))
	for _, line := range parts {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// Flush ends the stream and discards the retained tail. Every frame in a
// conforming stream is newline-terminated, so leftover bytes mean the
// stream was cut mid-frame; the fragment is never delivered as content,
// even when it happens to parse. Returns the discarded text so callers
// can log the truncation.
func (d *Decoder) Flush() string {
	tail := d.tail
	if len(d.pending) > 0 {
		tail += string(d.pending)
	}
	d.tail = ""
	d.pending = nil

	tail = strings.TrimSuffix(tail, "\r")
	if strings.TrimSpace(tail) == "" {
		return ""
	}
	return tail
}
