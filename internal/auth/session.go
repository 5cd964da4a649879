// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth holds the bearer credential for the active client session.
package auth

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jeranaias/parley/internal/util"
)

// tokenFileName is the file under the config directory holding the token.
const tokenFileName = "token"

// =============================================================================
// SESSION
// =============================================================================

// Session owns the bearer credential for one client session. Safe for
// concurrent use: gateway calls read the token from request goroutines
// while login and logout write it.
//
// The token is readable by every gateway call but written only by explicit
// login and logout actions. When a storage path is configured, Set and Clear
// write through so the credential survives restarts.
type Session struct {
	mu    sync.RWMutex
	token string
	path  string // empty means in-memory only (no durable storage)
}

// NewSession creates a session backed by the given storage directory.
// An empty dir disables persistence; Restore becomes a no-op.
func NewSession(dir string) *Session {
	s := &Session{}
	if dir != "" {
		s.path = filepath.Join(dir, tokenFileName)
	}
	return s
}

// Restore loads a previously persisted token, if any. Safe to call once at
// session start. Storage failures degrade to "no credential"; a warning is
// logged so the failure is not completely silent.
func (s *Session) Restore() (string, bool) {
	if s.path == "" {
		return "", false
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("auth: could not restore token: %v", err)
		}
		return "", false
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", false
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	return token, true
}

// Set stores the credential in memory and writes it through to durable
// storage. An empty token is equivalent to Clear.
func (s *Session) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return s.Clear()
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	// Owner read/write only: the token is a credential.
	return util.AtomicWriteFile(s.path, []byte(token), 0600)
}

// Clear removes the credential from memory and durable storage.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Token returns the current credential and whether one is held.
func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.token != ""
}

// Authenticated reports whether a credential is currently held.
func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}
