// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the chat backend.
package api

import (
	"errors"

	"github.com/jeranaias/parley/internal/model"
)

// Response status values used by the backend.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// =============================================================================
// CHAT
// =============================================================================

// ChatRequest is the request body for POST /chat.
//
// The client sends only the newest user turn; the backend reconstructs
// context server-side from ConversationID.
type ChatRequest struct {
	UserID         string          `json:"user_id,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty"`
	Messages       []model.Message `json:"messages"`
	Stream         bool            `json:"stream"`
}

// ChatResponse is the response from POST /chat.
//
// MessageID duplicates the embedded message's ID in some backend responses;
// the client normalizes the two at the boundary (see Client.SendChat).
type ChatResponse struct {
	ConversationID string        `json:"conversation_id"`
	Response       model.Message `json:"response"`
	Status         string        `json:"status"`
	MessageID      int64         `json:"message_id,omitempty"`
}

// OK reports whether the backend answered with a success status.
func (r ChatResponse) OK() bool {
	return r.Status == StatusOK
}

// =============================================================================
// FEEDBACK
// =============================================================================

// Rating is the thumbs verdict on an assistant message.
type Rating string

const (
	RatingThumbsUp   Rating = "thumbs_up"
	RatingThumbsDown Rating = "thumbs_down"
)

// Valid reports whether the rating is one the backend accepts.
func (r Rating) Valid() bool {
	return r == RatingThumbsUp || r == RatingThumbsDown
}

// Validation errors for feedback requests.
var (
	ErrInvalidRating = errors.New("invalid rating")
	ErrNoMessageID   = errors.New("feedback requires a message id")
	ErrEmptyTags     = errors.New("tags must be non-empty when present")
)

// FeedbackRequest is the request body for POST /feedback.
type FeedbackRequest struct {
	MessageID   int64    `json:"message_id"`
	Rating      Rating   `json:"rating"`
	Tags        []string `json:"tags,omitempty"`
	RewriteText string   `json:"rewrite_text,omitempty"`
}

// NewFeedbackRequest builds a validated feedback request. A non-empty tag is
// wrapped as a singleton set; an empty tag means no tags field on the wire.
func NewFeedbackRequest(messageID int64, rating Rating, tag string, rewriteText string) (FeedbackRequest, error) {
	if messageID == 0 {
		return FeedbackRequest{}, ErrNoMessageID
	}
	if !rating.Valid() {
		return FeedbackRequest{}, ErrInvalidRating
	}

	req := FeedbackRequest{
		MessageID:   messageID,
		Rating:      rating,
		RewriteText: rewriteText,
	}
	if tag != "" {
		req.Tags = []string{tag}
	}
	return req, nil
}

// Validate checks the invariants a hand-built request must hold.
func (r FeedbackRequest) Validate() error {
	if r.MessageID == 0 {
		return ErrNoMessageID
	}
	if !r.Rating.Valid() {
		return ErrInvalidRating
	}
	if r.Tags != nil && len(r.Tags) == 0 {
		return ErrEmptyTags
	}
	return nil
}

// FeedbackResponse is the response from POST /feedback.
type FeedbackResponse struct {
	Status string `json:"status"`
}

// OK reports whether the feedback was recorded.
func (r FeedbackResponse) OK() bool {
	return r.Status == StatusOK
}

// =============================================================================
// AUTH
// =============================================================================

// ErrEmptyCredentials is returned before any network call when the username
// or password is blank.
var ErrEmptyCredentials = errors.New("username and password are required")

// Credentials is the request body for POST /auth/login and /auth/register.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate rejects blank credentials before they reach the wire.
func (c Credentials) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrEmptyCredentials
	}
	return nil
}

// AuthResponse is the response from the auth endpoints. A success always
// carries a token, so a structurally-empty success cannot occur.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
