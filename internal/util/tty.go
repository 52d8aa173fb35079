// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether the file is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// StdinIsTerminal reports whether stdin is interactive.
func StdinIsTerminal() bool {
	return IsTerminal(os.Stdin)
}

// StdoutIsTerminal reports whether stdout is a terminal. The TUI refuses
// to start when it is not.
func StdoutIsTerminal() bool {
	return IsTerminal(os.Stdout)
}
