// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - TTY detection and credential prompting.

package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/jeranaias/parley/internal/api"
)

// IsTTY returns true if stdin is a terminal. Interactive prompts require it.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// PromptCredentials reads a username and password from the terminal. The
// password is read without echo.
func PromptCredentials() (api.Credentials, error) {
	if !IsTTY() {
		return api.Credentials{}, fmt.Errorf("credentials require an interactive terminal")
	}

	fmt.Print("Username: ")
	reader := bufio.NewReader(os.Stdin)
	username, err := reader.ReadString('\n')
	if err != nil {
		return api.Credentials{}, fmt.Errorf("failed to read username: %w", err)
	}

	fmt.Print("Password: ")
	passBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return api.Credentials{}, fmt.Errorf("failed to read password: %w", err)
	}

	creds := api.Credentials{
		Username: strings.TrimSpace(username),
		Password: string(passBytes),
	}
	return creds, creds.Validate()
}
