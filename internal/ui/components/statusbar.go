// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar renders the bottom status line: backend connection state,
// admin lock state, a sticky error segment, and key hints. The error
// segment stays until cleared, matching banner semantics.
type StatusBar struct {
	theme *styles.Theme

	connected bool
	apiURL    string
	unlocked  bool
	errText   string
	hint      string
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{theme: theme}
}

// SetConnection records the backend reachability shown on the left.
func (s *StatusBar) SetConnection(apiURL string, connected bool) {
	s.apiURL = apiURL
	s.connected = connected
}

// SetUnlocked records the admin session state.
func (s *StatusBar) SetUnlocked(unlocked bool) {
	s.unlocked = unlocked
}

// SetError sets the sticky error segment. Empty clears it.
func (s *StatusBar) SetError(text string) {
	s.errText = text
}

// Error returns the current sticky error text.
func (s *StatusBar) Error() string {
	return s.errText
}

// SetHint sets the contextual key hint on the right.
func (s *StatusBar) SetHint(hint string) {
	s.hint = hint
}

// View renders the bar at the given width.
func (s *StatusBar) View(width int) string {
	t := s.theme

	var conn string
	if s.connected {
		conn = t.StatusOK.Render("●") + " " + s.apiURL
	} else {
		conn = t.StatusError.Render("●") + " " + s.apiURL
	}

	var admin string
	if s.unlocked {
		admin = t.AdminUnlocked.Render("admin")
	} else {
		admin = t.AdminLocked.Render("locked")
	}

	left := conn + "  " + admin
	if s.errText != "" {
		left += "  " + t.StatusError.Render(util.TruncateWidth(s.errText, width/2))
	}

	right := t.ShortcutDesc.Render(s.hint)

	gap := width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		// Drop the hint rather than overflow the line.
		right = ""
		gap = width - lipgloss.Width(left) - 2
		if gap < 0 {
			gap = 0
		}
	}
	line := left + lipgloss.NewStyle().Width(gap).Render("") + right

	return t.StatusBar.Width(width).Render(line)
}
