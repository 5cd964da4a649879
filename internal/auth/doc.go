// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth holds the bearer credential for the active client session.
//
// A Session is the single writer of the persisted token: login and logout go
// through Set and Clear, which write through to a 0600 file under the config
// directory. Restore reads the file back at startup and degrades silently to
// "no credential" when the file is missing or unreadable, logging a warning
// so storage failures are not completely invisible.
package auth
