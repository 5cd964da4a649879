// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/parley/internal/api"
	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/feedback"
	"github.com/jeranaias/parley/internal/session"
	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/ui/styles"
)

// screen selects which view the model renders.
type screen int

const (
	screenAuth screen = iota
	screenChat
)

// authField indexes the focused auth form input.
type authField int

const (
	fieldUsername authField = iota
	fieldPassword
)

// Deps carries the collaborators the chat interface drives.
type Deps struct {
	Client     *api.Client
	Controller *session.Controller
	Drafts     *feedback.Manager
	Auth       *auth.Session
	Archive    *storage.Archive // nil when archiving is disabled
	Config     *config.Config
}

// Model is the top-level Bubble Tea model.
type Model struct {
	deps   Deps
	screen screen
	theme  *styles.Theme
	keyMap KeyMap

	width  int
	height int
	ready  bool

	// Conversation view
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	pending  bool
	outbox   string // user text echoed while the exchange is in flight
	status   string
	renderer *glamour.TermRenderer

	// Auth form
	userInput    textinput.Model
	passInput    textinput.Model
	focused      authField
	registerMode bool
	authBusy     bool
	authErr      string
}

// New creates the chat interface. The auth form is skipped when a stored
// credential was restored.
func New(deps Deps) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 4000
	input.Focus()

	userInput := textinput.New()
	userInput.Placeholder = "username"
	userInput.CharLimit = 64
	userInput.Focus()

	passInput := textinput.New()
	passInput.Placeholder = "password"
	passInput.CharLimit = 128
	passInput.EchoMode = textinput.EchoPassword

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	scr := screenAuth
	if deps.Auth.Authenticated() {
		scr = screenChat
	}

	m := Model{
		deps:      deps,
		screen:    scr,
		theme:     styles.NewTheme(80, 24),
		keyMap:    DefaultKeyMap(),
		input:     input,
		userInput: userInput,
		passInput: passInput,
		spinner:   sp,
	}

	if deps.Config == nil || deps.Config.UI.Markdown {
		// Renderer failure just means plain text output.
		if r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(76)); err == nil {
			m.renderer = r
		}
	}
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// lastFeedbackTarget returns the newest assistant message that can take
// feedback, or 0 when none can.
func (m Model) lastFeedbackTarget() int64 {
	history := m.deps.Controller.History()
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].HasFeedbackID() {
			return history[i].ID
		}
	}
	return 0
}
