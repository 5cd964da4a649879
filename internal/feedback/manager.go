// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package feedback

import (
	"context"
	"sync"

	"github.com/jeranaias/parley/internal/api"
)

// Status is the delivery state of one draft.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusError   Status = "error"
)

// Draft is one message's feedback state: what the user has selected so far
// and where its delivery stands.
type Draft struct {
	MessageID   int64
	Tag         string
	RewriteText string
	Status      Status
}

// Editable reports whether the draft can still be changed or submitted.
// Sent is terminal; a failed delivery stays editable.
func (d Draft) Editable() bool {
	return d.Status != StatusSent && d.Status != StatusSending
}

// Patch carries partial draft edits. Nil fields are left untouched, so a
// tag can be changed without disturbing rewrite text and vice versa.
type Patch struct {
	Tag         *string
	RewriteText *string
}

// FeedbackSender is the backend surface the manager depends on. *api.Client
// satisfies it.
type FeedbackSender interface {
	SendFeedback(ctx context.Context, req api.FeedbackRequest) api.FeedbackResponse
}

// =============================================================================
// MANAGER
// =============================================================================

// Manager owns the draft mapping, one entry per assistant message id.
// Submissions for distinct messages may be in flight concurrently; each
// draft's state is its own and never touches another entry.
//
// All exported methods are safe for concurrent use.
type Manager struct {
	mu     sync.Mutex
	sender FeedbackSender
	drafts map[int64]*Draft
}

// NewManager creates an empty draft manager.
func NewManager(sender FeedbackSender) *Manager {
	return &Manager{
		sender: sender,
		drafts: make(map[int64]*Draft),
	}
}

// Draft returns a copy of the draft for messageID, and whether one exists.
func (m *Manager) Draft(messageID int64) (Draft, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[messageID]
	if !ok {
		return Draft{}, false
	}
	return *d, true
}

// UpdateDraft merges patch into the draft for messageID, creating an idle
// draft on first touch. A pure state merge with no network effect, so the
// UI can accumulate selections before submitting. Edits against a sent or
// in-flight draft are dropped.
func (m *Manager) UpdateDraft(messageID int64, patch Patch) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.draft(messageID)
	if !d.Editable() {
		return
	}
	if patch.Tag != nil {
		d.Tag = *patch.Tag
	}
	if patch.RewriteText != nil {
		d.RewriteText = *patch.RewriteText
	}
}

// Submit delivers the draft for messageID with the given rating. The draft
// moves to sending for the duration of the call and always lands in sent
// or error. Sent is terminal: resubmission after success is refused here,
// not just by disabled controls. Resubmission after error retries.
//
// Submit blocks for the duration of the network call; drive it from a
// goroutine when serving a UI. It returns the draft's final status.
func (m *Manager) Submit(ctx context.Context, messageID int64, rating api.Rating) Status {
	m.mu.Lock()
	d := m.draft(messageID)
	if !d.Editable() {
		status := d.Status
		m.mu.Unlock()
		return status
	}

	req, err := api.NewFeedbackRequest(messageID, rating, d.Tag, d.RewriteText)
	if err != nil {
		d.Status = StatusError
		m.mu.Unlock()
		return StatusError
	}
	d.Status = StatusSending
	m.mu.Unlock()

	resp := m.sender.SendFeedback(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if resp.OK() {
		d.Status = StatusSent
	} else {
		d.Status = StatusError
	}
	return d.Status
}

// Reset discards all drafts, for session resets.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.drafts = make(map[int64]*Draft)
	m.mu.Unlock()
}

// draft returns the live entry for messageID, creating it if absent.
// Callers hold m.mu.
func (m *Manager) draft(messageID int64) *Draft {
	d, ok := m.drafts[messageID]
	if !ok {
		d = &Draft{MessageID: messageID, Status: StatusIdle}
		m.drafts[messageID] = d
	}
	return d
}
