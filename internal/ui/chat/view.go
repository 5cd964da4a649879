// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/parley/internal/feedback"
	"github.com/jeranaias/parley/internal/model"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "starting..."
	}
	if m.screen == screenAuth {
		return m.viewAuth()
	}
	return m.viewChat()
}

// =============================================================================
// CONVERSATION VIEW
// =============================================================================

func (m Model) viewChat() string {
	header := m.theme.Header.Render(m.theme.Title.Render("parley") + "  " + m.conversationLabel())
	input := m.theme.InputContainer.Render(m.theme.InputPrompt.Render("> ") + m.input.View())
	return strings.Join([]string{header, m.viewport.View(), input, m.statusLine()}, "\n")
}

func (m Model) conversationLabel() string {
	id := m.deps.Controller.ConversationID()
	if id == "" {
		return m.theme.Timestamp.Render("new conversation")
	}
	return m.theme.Timestamp.Render(runewidth.Truncate(id, 24, "…"))
}

func (m Model) statusLine() string {
	if m.pending {
		return m.theme.StatusBar.Render(m.spinner.View() + " " + m.theme.PendingText.Render("waiting for reply..."))
	}
	if m.status != "" {
		return m.theme.StatusBar.Render(m.status)
	}
	help := strings.Join([]string{
		m.theme.ShortcutKey.Render("Enter") + m.theme.ShortcutDesc.Render(" send"),
		m.theme.ShortcutKey.Render("C-t/C-b") + m.theme.ShortcutDesc.Render(" rate"),
		m.theme.ShortcutKey.Render("/help") + m.theme.ShortcutDesc.Render(" commands"),
		m.theme.ShortcutKey.Render("C-c") + m.theme.ShortcutDesc.Render(" quit"),
	}, "  ")
	return m.theme.StatusBar.Render(help)
}

// refreshViewport re-renders the history into the viewport and follows the
// tail.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	history := m.deps.Controller.History()
	blocks := make([]string, 0, len(history)+1)
	for _, msg := range history {
		blocks = append(blocks, m.renderMessage(msg))
	}
	// Echo the in-flight user message; the controller appends it on its
	// own goroutine and the history above may not carry it yet.
	if m.pending && m.outbox != "" && !latestUserMessageIs(history, m.outbox) {
		blocks = append(blocks, m.renderMessage(model.Message{
			Role:    model.RoleUser,
			Content: m.outbox,
		}))
	}
	return strings.Join(blocks, "\n")
}

func latestUserMessageIs(history []model.Message, content string) bool {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser {
			return history[i].Content == content
		}
	}
	return false
}

func (m Model) renderMessage(msg model.Message) string {
	content := msg.Content

	var label, bubble lipgloss.Style
	switch msg.Role {
	case model.RoleUser:
		label = m.theme.UserLabel
		bubble = m.theme.UserBubble
	default:
		label = m.theme.AssistantLabel
		bubble = m.theme.AssistantBubble
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(content); err == nil {
				content = strings.TrimRight(rendered, "\n")
			}
		}
	}

	header := label.Render(msg.Role.DisplayName())
	if note := m.feedbackNote(msg); note != "" {
		header += " " + note
	}
	return header + "\n" + bubble.Render(content) + "\n"
}

// feedbackNote renders the draft state marker next to a ratable reply.
func (m Model) feedbackNote(msg model.Message) string {
	if !msg.HasFeedbackID() {
		return ""
	}
	draft, ok := m.deps.Drafts.Draft(msg.ID)
	if !ok {
		return m.theme.FeedbackHint.Render(fmt.Sprintf("#%d", msg.ID))
	}
	switch draft.Status {
	case feedback.StatusSent:
		return m.theme.FeedbackSent.Render("✓ feedback sent")
	case feedback.StatusSending:
		return m.theme.FeedbackHint.Render("sending feedback...")
	case feedback.StatusError:
		return m.theme.FeedbackError.Render("✗ feedback failed")
	default:
		if draft.Tag != "" || draft.RewriteText != "" {
			return m.theme.FeedbackHint.Render("feedback staged")
		}
		return m.theme.FeedbackHint.Render(fmt.Sprintf("#%d", msg.ID))
	}
}

// =============================================================================
// AUTH VIEW
// =============================================================================

func (m Model) viewAuth() string {
	title := "Sign in"
	action := "Enter to sign in, C-r to switch to registration"
	if m.registerMode {
		title = "Create account"
		action = "Enter to register, C-r to switch to sign in"
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render(title) + "\n\n")
	b.WriteString(m.theme.FormLabel.Render("Username") + "\n")
	b.WriteString(m.userInput.View() + "\n\n")
	b.WriteString(m.theme.FormLabel.Render("Password") + "\n")
	b.WriteString(m.passInput.View() + "\n\n")

	if m.authBusy {
		b.WriteString(m.spinner.View() + " " + m.theme.PendingText.Render("authenticating..."))
	} else if m.authErr != "" {
		b.WriteString(m.theme.FormError.Render(m.authErr))
	} else {
		b.WriteString(m.theme.ShortcutDesc.Render(action))
	}

	form := m.theme.FormBox.Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}
