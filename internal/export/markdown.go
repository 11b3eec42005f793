// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"time"

	"github.com/jeranaias/tanchat/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a conversation as a Markdown document.
type MarkdownExporter struct {
	opts *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{opts: opts}
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// Export renders the conversation. Assistant messages are already
// markdown and pass through unchanged; user messages get a blockquote so
// the two sides stay visually distinct.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(conv.Title)
	b.WriteString("\n\n")

	if e.opts.IncludeMetadata {
		b.WriteString("> Exported ")
		b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
		b.WriteString("\n\n---\n\n")
	}

	for _, msg := range conv.Messages {
		b.WriteString("## ")
		b.WriteString(msg.Role.DisplayName())
		b.WriteString("\n\n")

		if msg.Role == model.RoleUser {
			for _, line := range strings.Split(msg.Content, "\n") {
				b.WriteString("> ")
				b.WriteString(line)
				b.WriteString("\n")
			}
			b.WriteString("\n")
		} else {
			b.WriteString(msg.Content)
			b.WriteString("\n\n")
		}
	}

	return []byte(b.String()), nil
}
