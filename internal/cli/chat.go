// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat REPL with input history.

package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/parley/internal/api"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/feedback"
	"github.com/jeranaias/parley/internal/model"
	"github.com/jeranaias/parley/internal/session"
	"github.com/jeranaias/parley/internal/storage"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// LineEditor wraps liner with persistent input history.
type LineEditor struct {
	line        *liner.State
	historyFile string
}

// NewLineEditor creates a line editor with history loaded from the config
// directory.
func NewLineEditor() *LineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.Dir()
	if err != nil {
		dir = os.TempDir()
	}

	ed := &LineEditor{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	ed.loadHistory()
	return ed
}

func (e *LineEditor) loadHistory() {
	if f, err := os.Open(e.historyFile); err == nil {
		e.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads one line with history navigation.
func (e *LineEditor) ReadInput(prompt string) (string, error) {
	input, err := e.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		e.line.AppendHistory(input)
	}
	return input, nil
}

func (e *LineEditor) saveHistory() {
	if err := config.EnsureDir(); err != nil {
		return
	}
	f, err := os.OpenFile(e.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()
	e.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (e *LineEditor) Close() {
	e.saveHistory()
	e.line.Close()
}

// =============================================================================
// CHAT REPL
// =============================================================================

// ChatDeps carries the collaborators the REPL drives.
type ChatDeps struct {
	Controller *session.Controller
	Drafts     *feedback.Manager
	Archive    *storage.Archive // nil when archiving is disabled
	Quiet      bool
}

// HandleChatCommand runs the line-mode chat loop until EOF or /quit.
func HandleChatCommand(deps ChatDeps) error {
	if !IsTTY() {
		return errors.New("chat requires an interactive terminal (did you mean to pipe input?)")
	}

	ed := NewLineEditor()
	defer ed.Close()

	if !deps.Quiet {
		fmt.Println(model.WelcomeText)
		fmt.Println("Type /help for commands, /quit to leave.")
		fmt.Println()
	}

	for {
		input, err := ed.ReadInput("you> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, liner.ErrNotTerminalOutput) {
				return nil
			}
			// io.EOF on ctrl-d
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := handleSlashCommand(input, deps)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
			}
			if quit {
				return nil
			}
			continue
		}

		runExchange(deps, input)
	}
}

func runExchange(deps ChatDeps, input string) {
	before := len(deps.Controller.History())
	if !deps.Controller.Submit(context.Background(), input) {
		return
	}

	history := deps.Controller.History()
	for _, msg := range history[before:] {
		if msg.Role != model.RoleAssistant {
			continue
		}
		if msg.HasFeedbackID() {
			fmt.Printf("\nassistant [#%d]> %s\n\n", msg.ID, msg.Content)
		} else {
			fmt.Printf("\nassistant> %s\n\n", msg.Content)
		}
	}

	if deps.Archive != nil {
		if id := deps.Controller.ConversationID(); id != "" && id != api.ConversationUnknown {
			if err := deps.Archive.SaveTranscript(context.Background(), id, history); err != nil {
				fmt.Fprintf(os.Stderr, "warning: transcript archive failed: %v\n", err)
			}
		}
	}
}

// handleSlashCommand processes one /command. It returns true when the REPL
// should exit.
func handleSlashCommand(input string, deps ChatDeps) (bool, error) {
	parts := strings.Fields(input)
	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	switch name {
	case "quit", "q", "exit":
		return true, nil

	case "help", "h":
		printChatHelp()
		return false, nil

	case "new", "clear":
		deps.Controller.Reset()
		deps.Drafts.Reset()
		fmt.Println("Started a new conversation.")
		return false, nil

	case "resume":
		if len(args) == 0 {
			return false, errors.New("usage: /resume <conversation-id>")
		}
		return false, resumeSession(deps, args[0])

	case "up", "down":
		rating := api.RatingThumbsUp
		if name == "down" {
			rating = api.RatingThumbsDown
		}
		return false, submitRating(deps, args, rating)

	case "tag":
		if len(args) < 1 {
			return false, errors.New("usage: /tag <tag> [message-id]")
		}
		target, err := feedbackTarget(deps, args[1:])
		if err != nil {
			return false, err
		}
		tag := args[0]
		deps.Drafts.UpdateDraft(target, feedback.Patch{Tag: &tag})
		fmt.Printf("Tag %q staged for message %d.\n", tag, target)
		return false, nil

	case "rewrite":
		if len(args) == 0 {
			return false, errors.New("usage: /rewrite <text>")
		}
		target, err := feedbackTarget(deps, nil)
		if err != nil {
			return false, err
		}
		rewrite := strings.Join(args, " ")
		deps.Drafts.UpdateDraft(target, feedback.Patch{RewriteText: &rewrite})
		fmt.Printf("Rewrite staged for message %d.\n", target)
		return false, nil

	default:
		return false, fmt.Errorf("unknown command %q (/help)", name)
	}
}

// resumeSession loads an archived transcript into the live conversation.
func resumeSession(deps ChatDeps, id string) error {
	if deps.Archive == nil {
		return errors.New("transcript archiving is disabled")
	}
	history, err := deps.Archive.LoadTranscript(context.Background(), id)
	if err != nil {
		if errors.Is(err, storage.ErrTranscriptNotFound) {
			return fmt.Errorf("no archived conversation %q", id)
		}
		return err
	}

	deps.Controller.Restore(id, history)
	deps.Drafts.Reset()
	fmt.Printf("Resumed conversation %s (%d messages).\n", id, len(history))
	for _, msg := range history {
		fmt.Printf("  [%s] %s\n", msg.Role.DisplayName(), msg.Preview(70))
	}
	return nil
}

// submitRating rates a reply: the id from args when given, otherwise the
// newest ratable reply.
func submitRating(deps ChatDeps, args []string, rating api.Rating) error {
	target, err := feedbackTarget(deps, args)
	if err != nil {
		return err
	}
	status := deps.Drafts.Submit(context.Background(), target, rating)
	switch status {
	case feedback.StatusSent:
		fmt.Printf("Feedback saved for message %d.\n", target)
	case feedback.StatusError:
		fmt.Printf("Feedback failed for message %d; try again.\n", target)
	default:
		fmt.Printf("Feedback for message %d already sent.\n", target)
	}
	return nil
}

// feedbackTarget resolves args to a message id, defaulting to the newest
// ratable assistant reply.
func feedbackTarget(deps ChatDeps, args []string) (int64, error) {
	if len(args) > 0 {
		var id int64
		if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil || id <= 0 {
			return 0, fmt.Errorf("invalid message id %q", args[0])
		}
		return id, nil
	}

	history := deps.Controller.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].HasFeedbackID() {
			return history[i].ID, nil
		}
	}
	return 0, errors.New("no reply to rate yet")
}

func printChatHelp() {
	fmt.Print(`Commands:
  /new               start a new conversation
  /resume <id>       continue an archived conversation (see: parley sessions)
  /up [id]           thumbs-up a reply (newest by default)
  /down [id]         thumbs-down a reply
  /tag <tag> [id]    stage a tag before rating (too_vague, too_repetitive,
                     too_generic, off_topic, perfect)
  /rewrite <text>    stage a suggested rewrite before rating
  /help              this help
  /quit              leave
`)
}
