// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/jeranaias/parley/internal/api"
	"github.com/jeranaias/parley/internal/auth"
)

// HandleLoginCommand prompts for credentials, exchanges them for a token,
// and stores it.
func HandleLoginCommand(client *api.Client, session *auth.Session) error {
	creds, err := PromptCredentials()
	if err != nil {
		return err
	}

	resp, err := client.Login(context.Background(), creds)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := session.Set(resp.AccessToken); err != nil {
		return fmt.Errorf("authenticated, but could not store the credential: %w", err)
	}

	fmt.Println("Signed in.")
	return nil
}

// HandleRegisterCommand creates an account and stores its token.
func HandleRegisterCommand(client *api.Client, session *auth.Session) error {
	creds, err := PromptCredentials()
	if err != nil {
		return err
	}

	resp, err := client.Register(context.Background(), creds)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}
	if err := session.Set(resp.AccessToken); err != nil {
		return fmt.Errorf("registered, but could not store the credential: %w", err)
	}

	fmt.Println("Account created and signed in.")
	return nil
}

// HandleLogoutCommand discards the stored credential.
func HandleLogoutCommand(session *auth.Session) error {
	if !session.Authenticated() {
		fmt.Println("Not signed in.")
		return nil
	}
	if err := session.Clear(); err != nil {
		return fmt.Errorf("failed to discard credential: %w", err)
	}
	fmt.Println("Signed out.")
	return nil
}
