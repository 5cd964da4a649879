// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat messages.
//
// This package defines the core domain types used throughout the application
// for representing chat messages exchanged with the backend.
//
// # Key Types
//
//   - Message: Single message with role, content, and the backend-assigned ID
//   - Role: Message role enumeration (user, assistant, system)
//
// # Usage
//
// Create a user message:
//
//	msg := model.NewUserMessage("Hello!")
//
// Messages marshal to the backend wire shape: only id, role and content cross
// the wire; local metadata such as timestamps does not.
package model
