// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/config"
	"github.com/todddb/ragai-console/internal/state"
	"github.com/todddb/ragai-console/internal/ui/chat"
	"github.com/todddb/ragai-console/internal/ui/jobs"
)

func newTestApp(t *testing.T) Model {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	st, err := state.Open(t.TempDir()+"/state.db", log)
	if err != nil {
		t.Fatalf("state.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.Default()
	client := api.NewClient(api.Config{BaseURL: "http://127.0.0.1:1", Logger: log})

	m := New(cfg, client, st, log)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return model.(Model)
}

func TestAdminTabsGatedWhileLocked(t *testing.T) {
	m := newTestApp(t)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyF2})
	m = model.(Model)
	if m.tab != tabCrawl {
		t.Fatalf("tab = %v, want crawl", m.tab)
	}
	if !strings.Contains(m.View(), "locked") {
		t.Error("locked admin tab should show the lock placeholder")
	}

	// Keys aimed at a locked admin view are swallowed.
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = model.(Model)
	if cmd != nil {
		t.Error("locked tab should not issue refresh commands")
	}
}

func TestUnlockFlow(t *testing.T) {
	m := newTestApp(t)

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	m = model.(Model)
	if !m.unlockActive {
		t.Fatal("ctrl+u should open the unlock prompt")
	}

	// Esc closes without unlocking.
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = model.(Model)
	if m.unlockActive {
		t.Error("esc should close the prompt")
	}

	model, _ = m.Update(unlockedMsg{})
	m = model.(Model)
	if !m.state.AdminUnlocked() {
		t.Error("unlockedMsg should persist the unlocked flag")
	}
}

func TestUnlockRefreshesAdminViews(t *testing.T) {
	m := newTestApp(t)
	if m.tab != tabChat {
		t.Fatalf("tab = %v, want chat", m.tab)
	}

	// Unlocking from the chat tab must still load the admin surfaces so
	// crawl and data are populated on first activation.
	_, cmd := m.Update(unlockedMsg{})
	if cmd == nil {
		t.Error("unlock should schedule the admin view refreshes")
	}
}

func TestAdminSessionResetOn401(t *testing.T) {
	m := newTestApp(t)
	m.state.SetAdminUnlocked(true)
	m.tab = tabJobs

	model, _ := m.Update(jobs.ErrMsg{Err: &api.StatusError{Code: 401, Path: "/api/admin/jobs"}})
	m = model.(Model)

	if m.state.AdminUnlocked() {
		t.Error("401 should clear the persisted unlocked flag")
	}
	if m.tab != tabChat {
		t.Errorf("tab = %v, want chat after reset", m.tab)
	}
	if !strings.Contains(m.status.Error(), "admin session expired") {
		t.Errorf("status error = %q", m.status.Error())
	}
}

func TestNon401ErrorLandsOnStatusBar(t *testing.T) {
	m := newTestApp(t)
	m.state.SetAdminUnlocked(true)

	model, _ := m.Update(chat.ErrMsg{Err: errors.New("stream hiccup")})
	m = model.(Model)
	if m.state.AdminUnlocked() {
		t.Error("a plain error should not reset the admin session")
	}
	if !strings.Contains(m.status.Error(), "stream hiccup") {
		t.Errorf("status error = %q", m.status.Error())
	}
}

func TestTabCycle(t *testing.T) {
	m := newTestApp(t)
	m.state.SetAdminUnlocked(true)

	for i := 0; i < int(tabCount); i++ {
		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
		m = model.(Model)
	}
	if m.tab != tabChat {
		t.Errorf("full cycle should land back on chat, got %v", m.tab)
	}
}

func TestExportHint(t *testing.T) {
	m := newTestApp(t)
	model, _ := m.Update(jobs.ExportedMsg{Path: "/tmp/job.log"})
	m = model.(Model)
	if !strings.Contains(m.status.View(120), "/tmp/job.log") {
		t.Error("status bar should hint at the export path")
	}
}
