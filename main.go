// parley - A terminal client for a private chat backend.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/parley/internal/api"
	"github.com/jeranaias/parley/internal/auth"
	"github.com/jeranaias/parley/internal/cli"
	"github.com/jeranaias/parley/internal/config"
	"github.com/jeranaias/parley/internal/feedback"
	"github.com/jeranaias/parley/internal/session"
	"github.com/jeranaias/parley/internal/storage"
	"github.com/jeranaias/parley/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

// setupLogging routes the stdlib logger to a file under the config
// directory so diagnostics never bleed into the terminal interface.
// Falls back to stderr when the directory cannot be created.
func setupLogging() func() {
	dir, err := config.Dir()
	if err != nil {
		return func() {}
	}
	if err := config.EnsureDir(); err != nil {
		return func() {}
	}
	f, err := os.OpenFile(filepath.Join(dir, "parley.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return func() {}
	}
	log.SetOutput(f)
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	return func() { f.Close() }
}

func main() {
	args := cli.ParseArgs(os.Args[1:])

	switch args.Command {
	case cli.CmdHelp:
		cli.PrintUsage()
		return
	case cli.CmdVersion:
		cli.PrintVersion()
		return
	}

	closeLog := setupLogging()
	defer closeLog()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if args.URL != "" {
		cfg.Backend.URL = args.URL
	}
	config.SetGlobal(cfg)

	app, err := buildApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer app.close()

	if err := run(args, cfg, app); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired components shared across commands.
type app struct {
	client     *api.Client
	authSess   *auth.Session
	controller *session.Controller
	drafts     *feedback.Manager
	archive    *storage.Archive // nil when archiving is disabled
}

func (a *app) close() {
	if a.archive != nil {
		a.archive.Close()
	}
}

func buildApp(cfg *config.Config) (*app, error) {
	dir, err := config.Dir()
	if err != nil {
		// Memory-only auth still lets a session run.
		dir = ""
	}

	authSess := auth.NewSession(dir)
	authSess.Restore()

	client := api.NewClientWithConfig(&api.ClientConfig{
		BaseURL:           cfg.Backend.URL,
		Timeout:           time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		UserID:            cfg.User.ID,
		RequestsPerSecond: cfg.Backend.RequestsPerSecond,
	}, authSess)

	a := &app{
		client:     client,
		authSess:   authSess,
		controller: session.NewController(client),
		drafts:     feedback.NewManager(client),
	}

	if cfg.Storage.Enabled {
		dbPath, err := cfg.DatabasePath()
		if err == nil {
			if arc, err := storage.Open(dbPath, cfg.Storage.MaxSessions); err == nil {
				a.archive = arc
			} else {
				log.Printf("transcript archive unavailable: %v", err)
			}
		}
	}
	return a, nil
}

func run(args cli.Args, cfg *config.Config, app *app) error {
	switch args.Command {
	case cli.CmdLogin:
		return cli.HandleLoginCommand(app.client, app.authSess)

	case cli.CmdRegister:
		return cli.HandleRegisterCommand(app.client, app.authSess)

	case cli.CmdLogout:
		return cli.HandleLogoutCommand(app.authSess)

	case cli.CmdSessions:
		return cli.HandleSessionsCommand(app.archive, args.Rest)

	case cli.CmdConfig:
		return cli.HandleConfigCommand(cfg)

	case cli.CmdChat:
		return cli.HandleChatCommand(cli.ChatDeps{
			Controller: app.controller,
			Drafts:     app.drafts,
			Archive:    app.archive,
			Quiet:      args.Quiet,
		})

	default:
		return runTUI(cfg, app)
	}
}

func runTUI(cfg *config.Config, app *app) error {
	// Reload config live while the interface runs; an invalid edit keeps
	// the previous config.
	if path, err := config.Path(); err == nil {
		if w, err := config.NewWatcher(path, nil); err == nil {
			if err := w.Watch(); err == nil {
				defer w.Close()
			}
		}
	}

	m := chat.New(chat.Deps{
		Client:     app.client,
		Controller: app.controller,
		Drafts:     app.drafts,
		Auth:       app.authSess,
		Archive:    app.archive,
		Config:     cfg,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
