// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/tanchat/internal/model"
)

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter renders a conversation as a machine-readable JSON document.
type JSONExporter struct {
	opts *Options
}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{opts: opts}
}

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// jsonDocument is the export schema.
type jsonDocument struct {
	Title      string          `json:"title"`
	ExportedAt string          `json:"exported_at,omitempty"`
	Messages   []model.Message `json:"messages"`
}

// Export renders the conversation as indented JSON.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	doc := jsonDocument{
		Title:    conv.Title,
		Messages: conv.Messages,
	}
	if e.opts.IncludeMetadata {
		doc.ExportedAt = time.Now().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
