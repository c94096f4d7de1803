// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and command handlers for uniroad.
package cli

import (
	"fmt"
	"os"
	"runtime"
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
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	ServerURL string
	Debug     bool

	// Command-specific
	Subcommand string

	// Raw args (remaining after flag parsing)
	Raw []string
}

const usageText = `uniroad - study-abroad Q&A in your terminal

UniRoad answers questions about studying abroad: admissions, housing,
visas, and daily life, with cited sources. Answers stream live from the
UniRoad server; sign-in happens in your browser via Google.

Usage:
  uniroad                    Start TUI (default)
  uniroad chat               Interactive chat in plain stdio
  uniroad status, s          Show server and session status
  uniroad config [show|init|path]  Configuration
  uniroad version, -v        Show version
  uniroad help, -h           Show this help

Global flags:
  --server URL               Override the server base URL
  --debug                    Verbose logging to the log file

Examples:
  uniroad
  uniroad chat
  uniroad --server https://staging.example.com status
`

// Parse reads os.Args and returns the command to run with its arguments.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsed := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsed
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsed.Raw = remaining
	if len(remaining) > 0 {
		parsed.Subcommand = strings.ToLower(remaining[0])
	}

	switch cmd {
	case "tui":
		return CmdTUI, parsed

	case "chat":
		return CmdChat, parsed

	case "status", "s":
		return CmdStatus, parsed

	case "config":
		return CmdConfig, parsed

	case "version", "-v", "--version":
		return CmdVersion, parsed

	case "help", "-h", "--help":
		return CmdHelp, parsed

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, parsed
	}
}

func parseGlobalFlags(args []string) ([]string, Args) {
	var parsed Args
	var remaining []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--server":
			if i+1 < len(args) {
				i++
				parsed.ServerURL = args[i]
			}
		case "--debug":
			parsed.Debug = true
		default:
			remaining = append(remaining, args[i])
		}
	}
	return remaining, parsed
}

// HandleVersion prints version information.
func HandleVersion() {
	fmt.Printf("uniroad %s\n", Version)
	fmt.Printf("  commit:  %s\n", GitCommit)
	fmt.Printf("  built:   %s\n", BuildDate)
	fmt.Printf("  runtime: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// HandleHelp prints usage.
func HandleHelp() {
	fmt.Print(usageText)
}
