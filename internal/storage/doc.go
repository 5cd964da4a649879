// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage archives chat transcripts in a local SQLite database.
//
// The archive is a convenience layer: the backend owns conversation
// context, and the local copy exists for browsing and resuming past
// sessions from this machine. Archiving failures never interrupt a chat.
//
// # Key Types
//
//   - Archive: SQLite-backed transcript store
//   - TranscriptMeta: Listing metadata for one archived conversation
//
// # Usage
//
//	arc, err := storage.Open(path, 100)
//	defer arc.Close()
//	arc.SaveTranscript(ctx, conversationID, history)
package storage
