// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the chat backend.
//
// The backend exposes four JSON endpoints: /chat, /feedback, /auth/register
// and /auth/login. All calls attach "Authorization: Bearer <token>" when the
// injected auth session holds a credential.
//
// # Failure contract
//
// Failures are typed errors internally (transport, HTTP status, decode) so
// tests can observe failure kinds, but they never cross the public chat and
// feedback boundaries:
//
//   - SendChat always returns a well-formed ChatResponse; on any failure it
//     synthesizes an error-status response with a fixed fallback message.
//   - SendFeedback collapses failures to {status: "error"}.
//   - Login and Register return a nil response with the underlying error.
//
// Callers therefore never need error handling on the chat path, only a
// status check.
package api
