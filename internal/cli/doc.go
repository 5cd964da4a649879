// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI command surface of parley.
//
// Running parley with no arguments starts the full-screen interface; the
// subcommands here cover scripted and terminal-native use:
//
//	parley login            authenticate and store the credential
//	parley register         create an account
//	parley logout           discard the stored credential
//	parley chat             line-mode chat REPL with input history
//	parley sessions         list, search, show, and delete archived transcripts
//	parley config           show the active configuration
//	parley version          print version information
package cli
