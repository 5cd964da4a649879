// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
package model

import (
	"time"
)

// WelcomeText is the canned assistant greeting that seeds a fresh session.
const WelcomeText = "Welcome to your private session. Your conversation stays between you and the system."

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	case RoleSystem:
		return "System"
	default:
		return string(r)
	}
}

// Valid reports whether the role is one the backend understands.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
//
// ID is assigned by the backend and is only present on assistant messages
// that can receive feedback; user-authored messages never carry one. The
// JSON shape matches the backend wire format exactly.
type Message struct {
	ID      int64  `json:"id,omitempty"`
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Local metadata, never sent to the backend.
	Timestamp time.Time `json:"-"`
}

// NewMessage creates a new message with the local timestamp set.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, content)
}

// WelcomeMessage returns the assistant greeting used to seed a new session.
func WelcomeMessage() Message {
	return NewAssistantMessage(WelcomeText)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// HasFeedbackID reports whether this message can receive feedback.
// Only assistant messages with a backend-assigned ID qualify.
func (m Message) HasFeedbackID() bool {
	return m.Role == RoleAssistant && m.ID != 0
}

// Preview returns a truncated single-line preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	content := collapseWhitespace(m.Content)
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// collapseWhitespace flattens newlines so previews stay on one line.
func collapseWhitespace(s string) string {
	out := make([]rune, 0, len(s))
	lastSpace := false
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		if r == ' ' {
			if lastSpace {
				continue
			}
			lastSpace = true
		} else {
			lastSpace = false
		}
		out = append(out, r)
	}
	return string(out)
}
