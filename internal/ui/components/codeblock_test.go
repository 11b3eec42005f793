// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
)

func TestParseCodeBlocksClosedFence(t *testing.T) {
	input := "before\n```go\nfunc main() {}\n```\nafter"
	out := ParseCodeBlocks(input, 80)

	if !strings.Contains(out, "before") || !strings.Contains(out, "after") {
		t.Error("Expected surrounding prose preserved")
	}
	if !strings.Contains(out, "main") {
		t.Error("Expected code content preserved")
	}
	if strings.Contains(out, "```") {
		t.Error("Expected fences replaced by rendered block")
	}
}

func TestParseCodeBlocksUnclosedFence(t *testing.T) {
	// Mid-stream state: the closing fence has not arrived yet.
	input := "look:\n```python\nprint('hi')"
	out := ParseCodeBlocks(input, 80)

	if !strings.Contains(out, "print") {
		t.Error("Expected unclosed block content rendered")
	}
}

func TestParseCodeBlocksNoFence(t *testing.T) {
	input := "just prose\nwith lines"
	if out := ParseCodeBlocks(input, 80); out != input {
		t.Errorf("Expected plain text unchanged, got %q", out)
	}
}

func TestCodeBlockRenderNarrowWidth(t *testing.T) {
	cb := NewCodeBlock("go", "x := 1")
	cb.SetMaxWidth(1)
	if out := cb.Render(); out == "" {
		t.Error("Expected non-empty render at narrow width")
	}
}

func TestMarkdownRendererFallsBackOnRawInput(t *testing.T) {
	r := NewMarkdownRenderer("dark", 0)
	out := r.Render("# Title\n\nsome **bold** text", 60)
	if !strings.Contains(out, "Title") {
		t.Errorf("Expected heading text in output, got %q", out)
	}
	if !strings.Contains(out, "bold") {
		t.Error("Expected body text in output")
	}
}

func TestMarkdownRendererWordWrapCap(t *testing.T) {
	r := NewMarkdownRenderer("dark", 40)
	out := r.Render("plain paragraph", 120)
	if out == "" {
		t.Error("Expected non-empty output")
	}
}
