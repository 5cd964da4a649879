// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley/internal/api"
	"github.com/jeranaias/parley/internal/feedback"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keyMap.Quit) {
			return m, tea.Quit
		}
		if m.screen == screenAuth {
			return m.updateAuth(msg)
		}
		return m.updateChat(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case exchangeDoneMsg:
		m.pending = false
		m.outbox = ""
		m.refreshViewport()
		return m, m.archiveCmd()

	case feedbackDoneMsg:
		switch msg.Status {
		case feedback.StatusSent:
			m.status = fmt.Sprintf("feedback saved for message %d", msg.MessageID)
		default:
			m.status = fmt.Sprintf("feedback failed for message %d (retry with C-t/C-b)", msg.MessageID)
		}
		m.refreshViewport()
		return m, nil

	case authDoneMsg:
		m.authBusy = false
		if msg.Err != nil {
			m.authErr = msg.Err.Error()
			return m, nil
		}
		m.screen = screenChat
		m.authErr = ""
		m.passInput.SetValue("")
		m.refreshViewport()
		return m, nil

	case archiveDoneMsg:
		if msg.Err != nil {
			m.status = "transcript archive failed"
		}
		return m, nil

	case statusMsg:
		m.status = string(msg)
		return m, nil
	}

	return m, nil
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.Resize(msg.Width, msg.Height)

	// header + input + status
	chromeHeight := 4
	if !m.ready {
		m.viewport = viewport.New(msg.Width, msg.Height-chromeHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - chromeHeight
	}
	m.input.Width = msg.Width - 6
	m.refreshViewport()
	return m, nil
}

// =============================================================================
// CONVERSATION SCREEN
// =============================================================================

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Submit):
		return m.submit()

	case key.Matches(msg, m.keyMap.RateUp):
		return m.rate(api.RatingThumbsUp)

	case key.Matches(msg, m.keyMap.RateDown):
		return m.rate(api.RatingThumbsDown)

	case key.Matches(msg, m.keyMap.Up), key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp), key.Matches(msg, m.keyMap.PageDown):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if strings.HasPrefix(text, "/") {
		m.input.SetValue("")
		return m.handleCommand(text)
	}
	if m.pending {
		m.status = "still waiting for the last reply"
		return m, nil
	}

	m.input.SetValue("")
	m.pending = true
	m.outbox = text
	m.status = ""

	ctrl := m.deps.Controller
	cmd := func() tea.Msg {
		ctrl.Submit(context.Background(), text)
		return exchangeDoneMsg{}
	}

	// The controller only appends the message once the command goroutine
	// runs, so echo the submitted text from the outbox until the exchange
	// lands.
	m.refreshViewport()
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) rate(rating api.Rating) (tea.Model, tea.Cmd) {
	target := m.lastFeedbackTarget()
	if target == 0 {
		m.status = "no reply to rate yet"
		return m, nil
	}
	return m, m.feedbackCmd(target, rating)
}

func (m Model) feedbackCmd(messageID int64, rating api.Rating) tea.Cmd {
	drafts := m.deps.Drafts
	return func() tea.Msg {
		status := drafts.Submit(context.Background(), messageID, rating)
		return feedbackDoneMsg{MessageID: messageID, Status: status}
	}
}

func (m Model) archiveCmd() tea.Cmd {
	if m.deps.Archive == nil {
		return nil
	}
	id := m.deps.Controller.ConversationID()
	if id == "" || id == api.ConversationUnknown {
		return nil
	}
	arc := m.deps.Archive
	history := m.deps.Controller.History()
	return func() tea.Msg {
		return archiveDoneMsg{Err: arc.SaveTranscript(context.Background(), id, history)}
	}
}

// =============================================================================
// AUTH SCREEN
// =============================================================================

func (m Model) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.SwitchTab):
		if m.focused == fieldUsername {
			m.focused = fieldPassword
			m.userInput.Blur()
			m.passInput.Focus()
		} else {
			m.focused = fieldUsername
			m.passInput.Blur()
			m.userInput.Focus()
		}
		return m, textinput.Blink

	case key.Matches(msg, m.keyMap.Submit):
		if m.focused == fieldUsername {
			m.focused = fieldPassword
			m.userInput.Blur()
			m.passInput.Focus()
			return m, textinput.Blink
		}
		return m.authenticate()

	case msg.String() == "ctrl+r":
		m.registerMode = !m.registerMode
		m.authErr = ""
		return m, nil
	}

	var cmd tea.Cmd
	if m.focused == fieldUsername {
		m.userInput, cmd = m.userInput.Update(msg)
	} else {
		m.passInput, cmd = m.passInput.Update(msg)
	}
	return m, cmd
}

func (m Model) authenticate() (tea.Model, tea.Cmd) {
	if m.authBusy {
		return m, nil
	}
	creds := api.Credentials{
		Username: strings.TrimSpace(m.userInput.Value()),
		Password: m.passInput.Value(),
	}
	if err := creds.Validate(); err != nil {
		m.authErr = err.Error()
		return m, nil
	}

	m.authBusy = true
	m.authErr = ""

	client := m.deps.Client
	sess := m.deps.Auth
	register := m.registerMode
	cmd := func() tea.Msg {
		var (
			resp *api.AuthResponse
			err  error
		)
		if register {
			resp, err = client.Register(context.Background(), creds)
		} else {
			resp, err = client.Login(context.Background(), creds)
		}
		if err != nil {
			return authDoneMsg{Err: err}
		}
		if err := sess.Set(resp.AccessToken); err != nil {
			// The token works for this run even if persisting it failed.
			return authDoneMsg{}
		}
		return authDoneMsg{}
	}
	return m, tea.Batch(cmd, m.spinner.Tick)
}

// =============================================================================
// SLASH COMMANDS
// =============================================================================

func (m Model) handleCommand(text string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(text)
	name := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	switch name {
	case "help", "h":
		m.status = "commands: /new /logout /rewrite <text> /tag <tag> /quit  keys: C-t / C-b rate last reply"
		return m, nil

	case "quit", "q", "exit":
		return m, tea.Quit

	case "new", "clear":
		m.deps.Controller.Reset()
		m.deps.Drafts.Reset()
		m.status = "started a new conversation"
		m.refreshViewport()
		return m, nil

	case "logout":
		m.deps.Auth.Clear()
		m.deps.Controller.Reset()
		m.deps.Drafts.Reset()
		m.screen = screenAuth
		m.focused = fieldUsername
		m.userInput.Focus()
		m.passInput.Blur()
		m.passInput.SetValue("")
		m.refreshViewport()
		return m, textinput.Blink

	case "tag":
		if len(args) == 0 {
			m.status = "usage: /tag <tag> - attach a tag to the last reply's feedback"
			return m, nil
		}
		target := m.lastFeedbackTarget()
		if target == 0 {
			m.status = "no reply to tag yet"
			return m, nil
		}
		tag := args[0]
		m.deps.Drafts.UpdateDraft(target, feedback.Patch{Tag: &tag})
		m.status = fmt.Sprintf("tag %q staged for message %d", tag, target)
		return m, nil

	case "rewrite":
		if len(args) == 0 {
			m.status = "usage: /rewrite <text> - suggest a better reply"
			return m, nil
		}
		target := m.lastFeedbackTarget()
		if target == 0 {
			m.status = "no reply to rewrite yet"
			return m, nil
		}
		rewrite := strings.Join(args, " ")
		m.deps.Drafts.UpdateDraft(target, feedback.Patch{RewriteText: &rewrite})
		m.status = fmt.Sprintf("rewrite staged for message %d", target)
		return m, nil

	default:
		m.status = fmt.Sprintf("unknown command %q (/help)", name)
		return m, nil
	}
}
