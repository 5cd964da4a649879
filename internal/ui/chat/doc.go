// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the Bubble Tea chat interface.
//
// The model has two screens: an auth form shown until a credential is
// held, and the conversation view. The conversation view is a viewport
// over the rendered history, a single-line input, and a status bar. One
// exchange may be in flight at a time; while it is, the input stays live
// but submissions are dropped and a spinner marks the wait.
//
// # Key Types
//
//   - Model: Top-level Bubble Tea model
//   - Deps: Injected collaborators (gateway, controller, drafts, archive)
//
// # Usage
//
//	m := chat.New(deps)
//	p := tea.NewProgram(m, tea.WithAltScreen())
//	p.Run()
package chat
