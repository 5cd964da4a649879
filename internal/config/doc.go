// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for parley.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation. Everything lives under ~/.parley:
//
//   - ~/.parley/config.toml  configuration
//   - ~/.parley/token        bearer credential (owned by the auth package)
//   - ~/.parley/parley.db    archived transcripts
//
// # Key Types
//
//   - Config: The complete configuration tree
//   - Watcher: fsnotify-backed live reload of the config file
//
// # Usage
//
// Load with defaults, file, then environment, in that precedence:
//
//	cfg, err := config.Load()
package config
