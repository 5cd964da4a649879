// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the parley TUI.
//
// All colors use Lip Gloss AdaptiveColor so light and dark terminals get
// sensible palettes without configuration. The Theme struct carries every
// styled component; build one with NewTheme and resize it as the terminal
// changes.
package styles
