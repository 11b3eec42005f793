// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/tanchat/internal/model"
)

// =============================================================================
// SCHEMA
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
    id         TEXT PRIMARY KEY,
    title      TEXT NOT NULL,
    messages   TEXT NOT NULL DEFAULT '[]',  -- JSON array of messages
    created_at INTEGER NOT NULL,            -- Unix milliseconds
    updated_at INTEGER NOT NULL
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_conversations_created ON conversations(created_at);
`

// =============================================================================
// SQLITE STORE
// =============================================================================

// SQLiteStore is the Store implementation backed by an embedded SQLite
// database. Messages are stored as a JSON document per conversation: the
// access pattern is whole-conversation reads and appends, never per-message
// queries.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the conversation database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// RELIABILITY: WAL survives crashes mid-write; busy_timeout covers the
	// TUI and a serve process sharing the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// List returns all conversations, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]*model.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, messages FROM conversations ORDER BY created_at DESC`)
	if err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	defer rows.Close()

	var convs []*model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, &StoreError{Op: "list", Err: err}
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list", Err: err}
	}
	return convs, nil
}

// Get returns one conversation by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, messages FROM conversations WHERE id = ?`, id)
	conv, err := scanConversation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &StoreError{Op: "get", ID: id, Err: ErrNotFound}
	}
	if err != nil {
		return nil, &StoreError{Op: "get", ID: id, Err: err}
	}
	return conv, nil
}

// Create inserts a conversation with its initial messages and returns the
// assigned ID.
func (s *SQLiteStore) Create(ctx context.Context, title string, messages []model.Message) (string, error) {
	if messages == nil {
		messages = []model.Message{}
	}
	doc, err := json.Marshal(messages)
	if err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}

	id := uuid.NewString()
	now := time.Now().UnixMilli()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, title, messages, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, title, string(doc), now, now)
	if err != nil {
		return "", &StoreError{Op: "create", Err: err}
	}
	return id, nil
}

// UpdateTitle renames a conversation.
func (s *SQLiteStore) UpdateTitle(ctx context.Context, id, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE conversations SET title = ?, updated_at = ? WHERE id = ?`,
		title, time.Now().UnixMilli(), id)
	if err != nil {
		return &StoreError{Op: "update_title", ID: id, Err: err}
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &StoreError{Op: "update_title", ID: id, Err: ErrNotFound}
	}
	return nil
}

// AddMessage appends a message to a conversation's document.
func (s *SQLiteStore) AddMessage(ctx context.Context, id string, msg model.Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &StoreError{Op: "add_message", ID: id, Err: err}
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx,
		`SELECT messages FROM conversations WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return &StoreError{Op: "add_message", ID: id, Err: ErrNotFound}
	}
	if err != nil {
		return &StoreError{Op: "add_message", ID: id, Err: err}
	}

	var msgs []model.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return &StoreError{Op: "add_message", ID: id, Err: err}
	}
	msgs = append(msgs, msg)
	data, err := json.Marshal(msgs)
	if err != nil {
		return &StoreError{Op: "add_message", ID: id, Err: err}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET messages = ?, updated_at = ? WHERE id = ?`,
		string(data), time.Now().UnixMilli(), id)
	if err != nil {
		return &StoreError{Op: "add_message", ID: id, Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &StoreError{Op: "add_message", ID: id, Err: err}
	}
	return nil
}

// Remove deletes a conversation. Absent rows are not an error.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, id); err != nil {
		return &StoreError{Op: "remove", ID: id, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanConversation(row scanner) (*model.Conversation, error) {
	var conv model.Conversation
	var raw string
	if err := row.Scan(&conv.ID, &conv.Title, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), &conv.Messages); err != nil {
		return nil, fmt.Errorf("corrupt message document: %w", err)
	}
	if conv.Messages == nil {
		conv.Messages = []model.Message{}
	}
	return &conv, nil
}
