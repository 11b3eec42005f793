// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/tanchat/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound indicates the conversation does not exist in the store.
	ErrNotFound = errors.New("conversation not found")

	// ErrClosed indicates the store has been closed.
	ErrClosed = errors.New("store is closed")
)

// StoreError wraps a failed store operation with its context.
type StoreError struct {
	Op  string // "list", "get", "create", "update_title", "add_message", "remove"
	ID  string // conversation ID, if the operation targets one
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is supports errors.Is matching on the wrapped error.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// =============================================================================
// STORE INTERFACE
// =============================================================================

// Store is the durable conversation collaborator.
type Store interface {
	// List returns all stored conversations, newest first.
	List(ctx context.Context) ([]*model.Conversation, error)

	// Get returns one conversation. ErrNotFound if absent.
	Get(ctx context.Context, id string) (*model.Conversation, error)

	// Create stores a new conversation with its initial messages and
	// returns the ID the store assigned to it. messages may be nil.
	Create(ctx context.Context, title string, messages []model.Message) (string, error)

	// UpdateTitle renames a conversation. ErrNotFound if absent.
	UpdateTitle(ctx context.Context, id, title string) error

	// AddMessage appends a message to a conversation. ErrNotFound if absent.
	AddMessage(ctx context.Context, id string, msg model.Message) error

	// Remove deletes a conversation. Removing an absent conversation is not
	// an error.
	Remove(ctx context.Context, id string) error

	// Close releases the underlying resources.
	Close() error
}
