// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/parley/internal/feedback"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// exchangeDoneMsg signals that a chat exchange finished; the controller
// already holds the updated history.
type exchangeDoneMsg struct{}

// feedbackDoneMsg reports a completed feedback submission.
type feedbackDoneMsg struct {
	MessageID int64
	Status    feedback.Status
}

// authDoneMsg reports a login or registration attempt.
type authDoneMsg struct {
	Err error
}

// archiveDoneMsg reports the result of a background transcript save.
type archiveDoneMsg struct {
	Err error
}

// statusMsg sets a transient status line notice.
type statusMsg string
