// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"strings"
	"sync"

	"github.com/jeranaias/parley/internal/api"
	"github.com/jeranaias/parley/internal/model"
)

// ChatSender is the backend surface the controller depends on. *api.Client
// satisfies it; tests substitute their own.
type ChatSender interface {
	SendChat(ctx context.Context, req api.ChatRequest) api.ChatResponse
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller owns the state of one conversation: the visible message
// history, the server-assigned conversation identifier, and the pending
// flag guarding the single in-flight exchange.
//
// All exported methods are safe for concurrent use.
type Controller struct {
	mu sync.Mutex

	sender ChatSender

	history        []model.Message
	conversationID string
	pending        bool

	// onChange fires after every state mutation, outside the lock.
	onChange func()
}

// NewController creates a controller seeded with the welcome message.
func NewController(sender ChatSender) *Controller {
	return &Controller{
		sender:  sender,
		history: []model.Message{model.WelcomeMessage()},
	}
}

// OnChange registers a callback invoked after every state change. The
// callback runs on the mutating goroutine and must not call back into the
// controller.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

// History returns a copy of the message history.
func (c *Controller) History() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Message, len(c.history))
	copy(out, c.history)
	return out
}

// ConversationID returns the server-assigned conversation identifier, empty
// until the first successful exchange.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Pending reports whether a chat exchange is in flight.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Submit runs one chat exchange: the trimmed input is appended to the
// history and sent to the backend as the newest turn, and the reply is
// appended when it arrives. It returns true if the exchange ran.
//
// Blank input is a no-op. While an exchange is pending, further calls are
// dropped rather than queued. The backend call never fails outright; an
// unreachable backend surfaces as an error-status reply in the history.
func (c *Controller) Submit(ctx context.Context, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	c.mu.Lock()
	if c.pending {
		c.mu.Unlock()
		return false
	}
	c.pending = true
	userMsg := model.NewUserMessage(text)
	c.history = append(c.history, userMsg)
	// Only the newest turn goes over the wire; the backend reconstructs
	// context from the conversation identifier.
	req := api.ChatRequest{
		ConversationID: c.conversationID,
		Messages:       []model.Message{userMsg},
	}
	c.mu.Unlock()
	c.notify()

	// Release the guard no matter how the exchange ends.
	defer func() {
		c.mu.Lock()
		c.pending = false
		c.mu.Unlock()
		c.notify()
	}()

	resp := c.sender.SendChat(ctx, req)

	c.mu.Lock()
	c.history = append(c.history, resp.Response)
	// The identifier tracks whatever the backend last said, including the
	// "unknown" marker a failed exchange reports.
	if resp.ConversationID != "" {
		c.conversationID = resp.ConversationID
	}
	c.mu.Unlock()
	c.notify()
	return true
}

// Reset discards the conversation and returns to the welcome state. Safe to
// call while an exchange is pending; the stale reply is still appended when
// it lands, which matches treating reset as a UI-level clear rather than a
// cancellation.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.history = []model.Message{model.WelcomeMessage()}
	c.conversationID = ""
	c.mu.Unlock()
	c.notify()
}

// Restore replaces the history and conversation identifier with a
// previously archived transcript.
func (c *Controller) Restore(conversationID string, history []model.Message) {
	c.mu.Lock()
	c.conversationID = conversationID
	c.history = make([]model.Message, len(history))
	copy(c.history, history)
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
