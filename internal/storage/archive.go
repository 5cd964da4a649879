// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/parley/internal/model"
)

// ErrTranscriptNotFound is returned when no archived transcript matches.
var ErrTranscriptNotFound = errors.New("transcript not found")

// schema holds the two-table layout: one row per conversation, one row
// per message, ordered by position.
const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	remote_id       INTEGER NOT NULL DEFAULT 0,
	role            TEXT NOT NULL,
	content         TEXT NOT NULL,
	created_at      INTEGER NOT NULL,
	PRIMARY KEY (conversation_id, position)
);

CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
`

// TranscriptMeta contains listing metadata for one archived conversation.
type TranscriptMeta struct {
	ConversationID string
	Title          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	MessageCount   int
}

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive is the SQLite-backed transcript store.
type Archive struct {
	db          *sql.DB
	maxSessions int
}

// Open opens (creating if needed) the archive database at path.
// maxSessions caps retained conversations; 0 means unlimited.
func Open(path string, maxSessions int) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time; keep the pool to match.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure database: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Archive{db: db, maxSessions: maxSessions}, nil
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveTranscript archives the full history for conversationID, replacing
// any previous snapshot of the same conversation. The title is derived
// from the first user message.
func (a *Archive) SaveTranscript(ctx context.Context, conversationID string, history []model.Message) error {
	if conversationID == "" {
		return errors.New("conversation id required")
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	title := transcriptTitle(history)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO conversations (id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, updated_at = excluded.updated_at`,
		conversationID, title, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	// Replace the snapshot wholesale; positions are dense from zero.
	if _, err := tx.ExecContext(ctx, "DELETE FROM messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("failed to clear previous snapshot: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO messages (conversation_id, position, remote_id, role, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range history {
		ts := msg.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := stmt.ExecContext(ctx, conversationID, i, msg.ID, string(msg.Role), msg.Content, ts.Unix()); err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	if err := a.enforceLimit(ctx, tx); err != nil {
		return err
	}
	return tx.Commit()
}

// enforceLimit prunes the oldest conversations beyond maxSessions.
func (a *Archive) enforceLimit(ctx context.Context, tx *sql.Tx) error {
	if a.maxSessions <= 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx, `
		DELETE FROM conversations WHERE id IN (
			SELECT id FROM conversations
			ORDER BY updated_at DESC
			LIMIT -1 OFFSET ?
		)`, a.maxSessions)
	if err != nil {
		return fmt.Errorf("failed to prune old transcripts: %w", err)
	}
	return nil
}

// LoadTranscript returns the archived history for conversationID.
func (a *Archive) LoadTranscript(ctx context.Context, conversationID string) ([]model.Message, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT remote_id, role, content, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY position`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var history []model.Message
	for rows.Next() {
		var (
			remoteID  int64
			role      string
			content   string
			createdAt int64
		)
		if err := rows.Scan(&remoteID, &role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		history = append(history, model.Message{
			ID:        remoteID,
			Role:      model.Role(role),
			Content:   content,
			Timestamp: time.Unix(createdAt, 0),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, ErrTranscriptNotFound
	}
	return history, nil
}

// List returns metadata for all archived conversations, newest first.
func (a *Archive) List(ctx context.Context) ([]TranscriptMeta, error) {
	return a.query(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at, COUNT(m.position)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC`)
}

// Search returns conversations whose title or message content matches
// query, newest first. Matching is case-insensitive substring.
// likeEscaper neutralizes LIKE metacharacters so user queries match
// literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (a *Archive) Search(ctx context.Context, query string) ([]TranscriptMeta, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(query)) + "%"
	return a.query(ctx, `
		SELECT c.id, c.title, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM messages WHERE conversation_id = c.id)
		FROM conversations c
		WHERE LOWER(c.title) LIKE ? ESCAPE '\'
		   OR EXISTS (
			SELECT 1 FROM messages m
			WHERE m.conversation_id = c.id AND LOWER(m.content) LIKE ? ESCAPE '\'
		   )
		ORDER BY c.updated_at DESC`, pattern, pattern)
}

func (a *Archive) query(ctx context.Context, sqlText string, args ...any) ([]TranscriptMeta, error) {
	rows, err := a.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var out []TranscriptMeta
	for rows.Next() {
		var (
			meta      TranscriptMeta
			createdAt int64
			updatedAt int64
		)
		if err := rows.Scan(&meta.ConversationID, &meta.Title, &createdAt, &updatedAt, &meta.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		meta.CreatedAt = time.Unix(createdAt, 0)
		meta.UpdatedAt = time.Unix(updatedAt, 0)
		out = append(out, meta)
	}
	return out, rows.Err()
}

// Delete removes one archived conversation and its messages.
func (a *Archive) Delete(ctx context.Context, conversationID string) error {
	res, err := a.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", conversationID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTranscriptNotFound
	}
	return nil
}

// Clear removes all archived conversations.
func (a *Archive) Clear(ctx context.Context) error {
	_, err := a.db.ExecContext(ctx, "DELETE FROM conversations")
	return err
}

// transcriptTitle derives a listing title from the first user message.
func transcriptTitle(history []model.Message) string {
	for _, msg := range history {
		if msg.Role == model.RoleUser {
			return msg.Preview(60)
		}
	}
	return "(empty conversation)"
}
