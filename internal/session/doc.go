// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the conversation state machine for one chat session.
//
// The controller owns the message history, the server-assigned conversation
// identifier, and the single in-flight guard: while one chat exchange is
// pending, further submissions are silently dropped rather than queued.
//
// # Key Types
//
//   - Controller: Conversation state owner
//   - ChatSender: The backend call the controller depends on
//
// # Usage
//
// Create a controller over an api.Client and submit turns:
//
//	ctrl := session.NewController(client)
//	ctrl.OnChange(func() { redraw() })
//	ctrl.Submit(ctx, "hello")
//
// Submit blocks for the duration of the exchange; run it from a goroutine
// (or a Bubble Tea command) when driving a UI.
package session
