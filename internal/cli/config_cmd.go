// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/jeranaias/parley/internal/config"
)

// HandleConfigCommand shows the active configuration and its file location.
func HandleConfigCommand(cfg *config.Config) error {
	path, err := config.Path()
	if err != nil {
		return err
	}

	fmt.Printf("config file:      %s\n", path)
	fmt.Printf("backend.url:      %s\n", cfg.Backend.URL)
	fmt.Printf("backend.timeout:  %ds\n", cfg.Backend.TimeoutSecs)
	fmt.Printf("ui.theme:         %s\n", cfg.UI.Theme)
	fmt.Printf("ui.markdown:      %t\n", cfg.UI.Markdown)
	fmt.Printf("storage.enabled:  %t\n", cfg.Storage.Enabled)
	if cfg.Storage.Enabled {
		dbPath, err := cfg.DatabasePath()
		if err == nil {
			fmt.Printf("storage.path:     %s\n", dbPath)
		}
		fmt.Printf("storage.max:      %d\n", cfg.Storage.MaxSessions)
	}
	fmt.Printf("user.id:          %s\n", cfg.User.ID)
	return nil
}
