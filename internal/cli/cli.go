// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli parses command-line arguments and runs the console's
// commands: the TUI by default, plus one-shot admin operations.
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
	CmdUnlock
	CmdStatus
	CmdConfig
	CmdJobs
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Verbose bool
	APIURL  string

	// Command-specific
	Subcommand string
	Name       string
	Key        string
	Value      string
	JobID      string
	Out        string

	// Raw args remaining after flag parsing
	Raw []string
}

const usageText = `ragai-console - terminal console for the ragai local-first RAG stack

Usage:
  ragai-console                      Start the TUI (default)
  ragai-console unlock               Unlock the admin session (hidden token prompt)
  ragai-console status               One-shot backend and worker status
  ragai-console config get NAME      Print a server config document
  ragai-console config set NAME KEY VALUE
                                     Update one field (dotted path) of a document
  ragai-console config export NAME   Write a document as YAML
    --out DIR                        Target directory (default: downloads dir)
  ragai-console jobs [list]          List jobs
  ragai-console jobs delete ID       Delete a job and its log
  ragai-console jobs export ID       Export a job's log
    --out DIR                        Target directory (default: downloads dir)
  ragai-console version              Print version
  ragai-console help                 This text

Config documents: allow_block, crawler, agents, ingest

Global Flags:
  --api URL       Override the backend base URL
  -v, --verbose   Debug logging

Configuration is read from ~/.ragai/console.toml; RAGAI_API_URL,
RAGAI_ADMIN_TOKEN, RAGAI_LOG_LEVEL and friends override it.

Version: %s
`

// PrintUsage prints the usage/help text.
func PrintUsage() {
	fmt.Printf(usageText, Version)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("ragai-console version %s\n", Version)
	fmt.Printf("  Git commit: %s\n", GitCommit)
	fmt.Printf("  Build date: %s\n", BuildDate)
}

// Parse parses command-line arguments and returns the command and args.
func Parse() (Command, Args) {
	args := os.Args[1:]

	remaining, parsedArgs := parseGlobalFlags(args)

	if len(remaining) == 0 {
		return CmdTUI, parsedArgs
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	parsedArgs.Raw = remaining

	switch cmd {
	case "tui":
		return CmdTUI, parsedArgs

	case "unlock":
		return CmdUnlock, parsedArgs

	case "status", "s":
		return CmdStatus, parsedArgs

	case "config":
		parseConfigArgs(&parsedArgs, remaining)
		return CmdConfig, parsedArgs

	case "jobs", "job":
		parseJobsArgs(&parsedArgs, remaining)
		return CmdJobs, parsedArgs

	case "version", "--version":
		return CmdVersion, parsedArgs

	case "help", "-h", "--help":
		return CmdHelp, parsedArgs

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		return CmdHelp, parsedArgs
	}
}

// parseGlobalFlags extracts global flags from args and returns remaining args.
func parseGlobalFlags(args []string) ([]string, Args) {
	var remaining []string
	var parsedArgs Args

	i := 0
	for i < len(args) {
		arg := args[i]

		switch {
		case arg == "-v" || arg == "--verbose":
			parsedArgs.Verbose = true
		case arg == "--api":
			if i+1 < len(args) {
				i++
				parsedArgs.APIURL = args[i]
			}
		case strings.HasPrefix(arg, "--api="):
			parsedArgs.APIURL = strings.TrimPrefix(arg, "--api=")
		case arg == "--out":
			if i+1 < len(args) {
				i++
				parsedArgs.Out = args[i]
			}
		case strings.HasPrefix(arg, "--out="):
			parsedArgs.Out = strings.TrimPrefix(arg, "--out=")
		default:
			remaining = append(remaining, arg)
		}
		i++
	}

	return remaining, parsedArgs
}

// parseConfigArgs parses config command specific arguments.
func parseConfigArgs(args *Args, remaining []string) {
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
	if len(remaining) > 1 {
		args.Name = remaining[1]
	}
	if len(remaining) > 2 {
		args.Key = remaining[2]
	}
	if len(remaining) > 3 {
		args.Value = strings.Join(remaining[3:], " ")
	}
}

// parseJobsArgs parses jobs command specific arguments.
func parseJobsArgs(args *Args, remaining []string) {
	args.Subcommand = "list"
	if len(remaining) > 0 {
		args.Subcommand = remaining[0]
	}
	if len(remaining) > 1 {
		args.JobID = remaining[1]
	}
}

// HandleVersion handles the "version" command.
func HandleVersion() {
	PrintVersion()
}

// HandleHelp handles the "help" command.
func HandleHelp() {
	PrintUsage()
}
