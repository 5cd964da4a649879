// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdChat
	CmdLogin
	CmdRegister
	CmdLogout
	CmdSessions
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	Command Command

	// Global flags
	URL   string // backend override (--url)
	Quiet bool

	// Remaining arguments for the subcommand's own parser
	Rest []string
}

// ParseArgs parses os.Args-style arguments (excluding the program name).
func ParseArgs(argv []string) Args {
	args := Args{Command: CmdTUI}

	var rest []string
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--url" && i+1 < len(argv):
			args.URL = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--url="):
			args.URL = strings.TrimPrefix(arg, "--url=")
		case arg == "--quiet" || arg == "-q":
			args.Quiet = true
		case arg == "--help" || arg == "-h":
			args.Command = CmdHelp
		case arg == "--version":
			args.Command = CmdVersion
		default:
			rest = append(rest, arg)
		}
	}

	if len(rest) > 0 && args.Command == CmdTUI {
		switch rest[0] {
		case "chat":
			args.Command = CmdChat
		case "login":
			args.Command = CmdLogin
		case "register":
			args.Command = CmdRegister
		case "logout":
			args.Command = CmdLogout
		case "sessions", "session":
			args.Command = CmdSessions
		case "config":
			args.Command = CmdConfig
		case "version":
			args.Command = CmdVersion
		case "help":
			args.Command = CmdHelp
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", rest[0])
			args.Command = CmdHelp
		}
		rest = rest[1:]
	}
	args.Rest = rest
	return args
}

// PrintUsage writes the top-level help text.
func PrintUsage() {
	fmt.Print(`parley - terminal chat client

Usage:
  parley                     start the full-screen interface
  parley chat                line-mode chat REPL
  parley login               authenticate and store the credential
  parley register            create an account
  parley logout              discard the stored credential
  parley sessions [sub]      manage archived transcripts
                             (list, show <id>, search <text>, delete <id>, clear)
  parley config              show the active configuration
  parley version             print version information

Flags:
  --url <base-url>           override the backend URL for this run
  -q, --quiet                suppress informational output
  -h, --help                 show this help
`)
}

// PrintVersion writes version information.
func PrintVersion() {
	fmt.Printf("parley %s (%s, built %s)\n", Version, GitCommit, BuildDate)
}
