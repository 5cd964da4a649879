// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/parley/internal/model"
	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/util"
)

// HandleSessionsCommand dispatches the transcript archive subcommands.
func HandleSessionsCommand(arc *storage.Archive, rawArgs []string) error {
	if arc == nil {
		return errors.New("transcript archiving is disabled (storage.enabled = false)")
	}

	args := NewArgParser(rawArgs)
	ctx := context.Background()

	switch args.Subcommand() {
	case "", "list":
		return listSessions(ctx, arc)

	case "show":
		if len(args.Positional()) == 0 {
			return errors.New("usage: parley sessions show <conversation-id>")
		}
		return showSession(ctx, arc, args.Positional()[0])

	case "search":
		if len(args.Positional()) == 0 {
			return errors.New("usage: parley sessions search <text>")
		}
		return searchSessions(ctx, arc, strings.Join(args.Positional(), " "))

	case "delete":
		if len(args.Positional()) == 0 {
			return errors.New("usage: parley sessions delete <conversation-id>")
		}
		return deleteSession(ctx, arc, args.Positional()[0])

	case "clear":
		if !args.BoolFlag("confirm") {
			return errors.New("this deletes every archived transcript; rerun with --confirm")
		}
		if err := arc.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("Archive cleared.")
		return nil

	default:
		return fmt.Errorf("unknown sessions subcommand %q (list, show, search, delete, clear)", args.Subcommand())
	}
}

func listSessions(ctx context.Context, arc *storage.Archive) error {
	metas, err := arc.List(ctx)
	if err != nil {
		return err
	}
	printSessionTable(metas)
	return nil
}

func searchSessions(ctx context.Context, arc *storage.Archive, query string) error {
	metas, err := arc.Search(ctx, query)
	if err != nil {
		return err
	}
	printSessionTable(metas)
	return nil
}

func printSessionTable(metas []storage.TranscriptMeta) {
	if len(metas) == 0 {
		fmt.Println("No archived conversations.")
		return
	}
	fmt.Printf("%-26s %-17s %5s  %s\n", "ID", "UPDATED", "MSGS", "TITLE")
	for _, meta := range metas {
		fmt.Printf("%-26s %-17s %5d  %s\n",
			util.TruncateRunes(meta.ConversationID, 26),
			meta.UpdatedAt.Format("2006-01-02 15:04"),
			meta.MessageCount,
			util.TruncateRunes(meta.Title, 50))
	}
}

func showSession(ctx context.Context, arc *storage.Archive, id string) error {
	history, err := arc.LoadTranscript(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrTranscriptNotFound) {
			return fmt.Errorf("no archived conversation %q", id)
		}
		return err
	}

	for _, msg := range history {
		label := msg.Role.DisplayName()
		if msg.Role == model.RoleUser {
			label = "You"
		}
		fmt.Printf("[%s] %s\n%s\n\n", msg.Timestamp.Format("15:04"), label, msg.Content)
	}
	return nil
}

func deleteSession(ctx context.Context, arc *storage.Archive, id string) error {
	if err := arc.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrTranscriptNotFound) {
			return fmt.Errorf("no archived conversation %q", id)
		}
		return err
	}
	fmt.Println("Deleted.")
	return nil
}
