// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package feedback tracks per-message feedback drafts and their delivery.
//
// Each assistant message with a server identifier can carry one draft: a
// rating, an optional tag, and optional rewrite text. Drafts are edited
// freely until submitted; a draft that reaches the sent state is frozen,
// while a failed submission stays editable and retryable.
//
// # Key Types
//
//   - Manager: Draft store keyed by message identifier
//   - Draft: One message's feedback state
//   - Status: idle, sending, sent, or error
package feedback
