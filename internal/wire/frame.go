// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import "encoding/json"

// Frame type constants. Only content_block_delta frames carry text; other
// types pass through the interpreter without producing output.
const (
	TypeContentBlockDelta = "content_block_delta"
	TypeTextDelta         = "text_delta"
)

// Frame is one NDJSON stream event.
type Frame struct {
	Type  string `json:"type"`
	Delta *Delta `json:"delta,omitempty"`
}

// Delta is the payload of a content_block_delta frame.
type Delta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewTextFrame builds a content_block_delta frame carrying text.
func NewTextFrame(text string) Frame {
	return Frame{
		Type: TypeContentBlockDelta,
		Delta: &Delta{
			Type: TypeTextDelta,
			Text: text,
		},
	}
}

// Encode serializes the frame as one newline-terminated NDJSON line.
func (f Frame) Encode() ([]byte, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Text returns the text carried by the frame, or "" for non-delta frames.
func (f Frame) Text() string {
	if f.Type != TypeContentBlockDelta || f.Delta == nil {
		return ""
	}
	if f.Delta.Type != TypeTextDelta {
		return ""
	}
	return f.Delta.Text
}
