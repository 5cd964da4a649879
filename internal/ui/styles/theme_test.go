// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "testing"

func TestNewTheme(t *testing.T) {
	theme := NewTheme(80, 24)
	if theme.Width != 80 || theme.Height != 24 {
		t.Errorf("dimensions = %dx%d", theme.Width, theme.Height)
	}
}

func TestResizeClampsBubbleWidth(t *testing.T) {
	theme := NewTheme(80, 24)
	theme.Resize(10, 24)
	if got := theme.UserBubble.GetMaxWidth(); got != 20 {
		t.Errorf("bubble max width = %d, want clamp to 20", got)
	}

	theme.Resize(120, 40)
	if got := theme.AssistantBubble.GetMaxWidth(); got != 90 {
		t.Errorf("bubble max width = %d, want 90", got)
	}
}
