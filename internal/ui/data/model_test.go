// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package data

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/state"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/validation"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	st, err := state.Open(t.TempDir()+"/state.db", log)
	if err != nil {
		t.Fatalf("state.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	client := api.NewClient(api.Config{BaseURL: "http://127.0.0.1:1", RetryMax: 0})
	m := New(styles.NewTheme("dark"), validation.NewService(client), st, log)
	m.SetSize(100, 30)
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func summaryWith(findings ...model.Finding) model.ValidationSummary {
	return model.ValidationSummary{Total: len(findings), Findings: findings}
}

func TestStaleSummaryIgnored(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(SummaryMsg{Kind: validation.KindIngest, Summary: summaryWith(model.Finding{ID: "f1", Severity: "high", Reason: "login page"})})
	if m.loaded {
		t.Error("summary for the other kind should be dropped")
	}
	m, _ = m.Update(SummaryMsg{Kind: validation.KindCrawl, Summary: summaryWith()})
	if !m.loaded {
		t.Error("matching kind should apply")
	}
}

func TestRowsRespectExpansionAndFilter(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(SummaryMsg{Kind: validation.KindCrawl, Summary: summaryWith(
		model.Finding{ID: "h1", Severity: "high", Reason: "parser failed"},
		model.Finding{ID: "m1", Severity: "medium", Reason: "thin content"},
		model.Finding{ID: "l1", Severity: "low", Reason: "short page"},
	)})

	// Collapsed: only the high-priority row.
	m.expanded = false
	if got := len(m.rows()); got != 1 {
		t.Errorf("collapsed rows = %d, want 1", got)
	}

	m.expanded = true
	if got := len(m.rows()); got != 3 {
		t.Errorf("expanded rows = %d, want 3", got)
	}

	m.filter = validation.FilterMedium
	rows := m.rows()
	if len(rows) != 2 || rows[1].ID != "m1" {
		t.Errorf("medium filter rows = %v", rows)
	}
}

func TestExpansionPersists(t *testing.T) {
	m := newTestModel(t)
	if m.expanded {
		t.Fatal("lower section should start collapsed")
	}
	m, _ = m.Update(key("x"))
	if !m.expanded || !m.state.LowerExpanded() {
		t.Error("x should expand and persist")
	}
}

func TestPageSizeSteps(t *testing.T) {
	if got := nextPageSize(25, 1); got != 50 {
		t.Errorf("nextPageSize(25,+1) = %d", got)
	}
	if got := nextPageSize(10, -1); got != 10 {
		t.Errorf("nextPageSize should clamp at the bottom, got %d", got)
	}
	if got := nextPageSize(100, 1); got != 100 {
		t.Errorf("nextPageSize should clamp at the top, got %d", got)
	}
	if got := nextPageSize(7, 1); got != state.DefaultPageSize {
		t.Errorf("unknown size should reset to default, got %d", got)
	}
}

func TestSelectionAndQuarantineGate(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(SummaryMsg{Kind: validation.KindCrawl, Summary: summaryWith(
		model.Finding{ID: "h1", Severity: "high", Reason: "403 forbidden"},
	)})

	if cmd := m.quarantineSelected(); cmd != nil {
		t.Error("quarantine with no selection should be a no-op")
	}

	m, _ = m.Update(key(" "))
	if !m.selected["h1"] {
		t.Error("space should select the row under the cursor")
	}
	m, _ = m.Update(key(" "))
	if m.selected["h1"] {
		t.Error("space should toggle the selection off")
	}
}

func TestSelectAllTogglesRenderedRows(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(SummaryMsg{Kind: validation.KindCrawl, Summary: summaryWith(
		model.Finding{ID: "h1", Severity: "high", Reason: "parser failed"},
		model.Finding{ID: "h2", Severity: "high", Reason: "403 forbidden"},
		model.Finding{ID: "m1", Severity: "medium", Reason: "thin content"},
	)})

	// Collapsed: only high-priority rows are rendered, so only those
	// are selected.
	m.expanded = false
	m, _ = m.Update(key("a"))
	if !m.selected["h1"] || !m.selected["h2"] {
		t.Error("a should select every rendered row")
	}
	if m.selected["m1"] {
		t.Error("a should not select hidden lower-priority rows")
	}

	// A second press with one row already off selects the remainder
	// rather than clearing.
	delete(m.selected, "h2")
	m, _ = m.Update(key("a"))
	if !m.selected["h1"] || !m.selected["h2"] {
		t.Error("partial selection should fill in, not clear")
	}

	m, _ = m.Update(key("a"))
	if len(m.selected) != 0 {
		t.Errorf("full selection should clear, got %v", m.selected)
	}
}

func TestKindSwitchResetsSelection(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(SummaryMsg{Kind: validation.KindCrawl, Summary: summaryWith(
		model.Finding{ID: "h1", Severity: "high", Reason: "no content"},
	)})
	m, _ = m.Update(key(" "))

	m, _ = m.Update(key("t"))
	if m.kind != validation.KindIngest {
		t.Errorf("kind = %q, want ingest", m.kind)
	}
	if len(m.selected) != 0 {
		t.Error("kind switch should clear selection")
	}
	if m.loaded {
		t.Error("kind switch should mark the view stale")
	}
}

func TestViewShowsCollapsedHint(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(SummaryMsg{Kind: validation.KindCrawl, Summary: summaryWith(
		model.Finding{ID: "m1", Severity: "medium", Reason: "thin content"},
	)})
	view := m.View()
	if !strings.Contains(view, "lower-priority") {
		t.Error("collapsed view should hint at hidden findings")
	}
}
