// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/todddb/ragai-console/internal/config"
	"github.com/todddb/ragai-console/internal/ui/app"
	"github.com/todddb/ragai-console/internal/util"
)

// HandleTUI launches the full-screen console.
func HandleTUI(args Args) error {
	if !util.StdoutIsTerminal() {
		return errors.New("stdout is not a terminal; the TUI needs an interactive session")
	}

	rt, err := NewRuntime(args)
	if err != nil {
		return err
	}
	defer rt.Close()

	root := app.New(rt.Config, rt.Client, rt.State, rt.Log)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if rt.Config.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	program := tea.NewProgram(root, opts...)

	// Config edits on disk reach the running program as messages.
	if path, err := config.Path(); err == nil {
		watcher, err := config.NewWatcher(path, rt.Log, func(cfg *config.Config) {
			program.Send(app.ConfigChangedMsg{Config: cfg})
		})
		if err == nil {
			if err := watcher.Watch(); err != nil {
				rt.Log.WithError(err).Warn("config watcher unavailable")
			} else {
				defer watcher.Close()
			}
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
