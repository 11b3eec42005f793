// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"
)

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is an ordered list of messages under a title.
//
// The ID starts as a locally generated value and may later be rewritten to
// the identifier assigned by the remote store. Both forms are opaque strings.
type Conversation struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Messages []Message `json:"messages"`
}

// NewConversation creates a conversation with a generated local ID.
func NewConversation(title string) *Conversation {
	return &Conversation{
		ID:       NewID(),
		Title:    title,
		Messages: []Message{},
	}
}

// AddMessage appends a message to the conversation.
func (c *Conversation) AddMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return &Conversation{
		ID:       c.ID,
		Title:    c.Title,
		Messages: msgs,
	}
}

// TitleFromInput derives a conversation title from the first user input:
// the first three words, with "..." appended when the input has more.
func TitleFromInput(input string) string {
	words := strings.Fields(strings.TrimSpace(input))
	if len(words) == 0 {
		return "New Conversation"
	}
	if len(words) <= 3 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:3], " ") + "..."
}

// =============================================================================
// PROMPT TYPE
// =============================================================================

// Prompt is a named system prompt. At most one prompt is active at a time;
// the store enforces that invariant on every mutation.
type Prompt struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Content   string `json:"content"`
	IsActive  bool   `json:"is_active"`
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
}

// NewPrompt creates an inactive prompt with a generated ID.
func NewPrompt(name, content string) Prompt {
	return Prompt{
		ID:        NewID(),
		Name:      name,
		Content:   content,
		CreatedAt: time.Now().UnixMilli(),
	}
}

// SystemPrompt is the request-level system prompt payload: the prompt text
// and whether the client had a custom prompt enabled.
type SystemPrompt struct {
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}
