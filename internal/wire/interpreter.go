// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
)

// ErrMalformedFrame indicates a line that did not parse as a frame object.
var ErrMalformedFrame = errors.New("malformed frame")

// ParseFrame parses one NDJSON line into a Frame.
func ParseFrame(line string) (Frame, error) {
	var f Frame
	if err := json.Unmarshal([]byte(line), &f); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return f, nil
}

// Interpreter turns complete lines into text fragments.
//
// RELIABILITY: One malformed line never kills the stream. Bad lines are
// logged and skipped; the interpreter keeps consuming.
type Interpreter struct {
	skipped int
}

// NewInterpreter creates an interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// Interpret parses one line and returns the text fragment it carries.
// Returns ok=false for malformed lines, non-delta frame types, and deltas
// with empty text.
func (in *Interpreter) Interpret(line string) (string, bool) {
	f, err := ParseFrame(line)
	if err != nil {
		in.skipped++
		log.Printf("FRAME_SKIP | reason=parse error=%v", err)
		return "", false
	}
	text := f.Text()
	if text == "" {
		return "", false
	}
	return text, true
}

// InterpretAll parses a batch of lines and returns the fragments in order.
func (in *Interpreter) InterpretAll(lines []string) []string {
	var out []string
	for _, line := range lines {
		if text, ok := in.Interpret(line); ok {
			out = append(out, text)
		}
	}
	return out
}

// Skipped returns the number of malformed lines seen so far.
func (in *Interpreter) Skipped() int {
	return in.skipped
}
