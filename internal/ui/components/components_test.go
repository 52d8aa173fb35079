// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/todddb/ragai-console/internal/health"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/ui/styles"
)

func testTheme() *styles.Theme {
	return styles.NewTheme("dark")
}

// =============================================================================
// CONFIRM MODAL
// =============================================================================

func typeString(m *ConfirmModal, s string) {
	for _, r := range s {
		m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestConfirmModalRequiresExactPhrase(t *testing.T) {
	m := NewConfirmModal(testTheme(), "DELETE")
	m.Open("Reset Qdrant", "This wipes the vector store.")

	for _, wrong := range []string{"delete", "DELET", "DELETE ", "yes"} {
		m.Open("Reset Qdrant", "")
		typeString(m, wrong)
		res, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if res != ConfirmPending {
			t.Errorf("phrase %q: result = %v, want pending", wrong, res)
		}
		if !m.Active() {
			t.Errorf("phrase %q: modal closed on wrong phrase", wrong)
		}
	}

	m.Open("Reset Qdrant", "")
	typeString(m, "DELETE")
	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if res != ConfirmAccepted {
		t.Errorf("result = %v, want accepted", res)
	}
	if m.Active() {
		t.Error("modal still active after accept")
	}
}

func TestConfirmModalEscCancels(t *testing.T) {
	m := NewConfirmModal(testTheme(), "DELETE")
	m.Open("Reset", "")
	typeString(m, "DEL")

	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if res != ConfirmCancelled {
		t.Errorf("result = %v, want cancelled", res)
	}
	if m.Active() {
		t.Error("modal still active after cancel")
	}
}

func TestConfirmModalInactiveIgnoresKeys(t *testing.T) {
	m := NewConfirmModal(testTheme(), "DELETE")
	res, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if res != ConfirmPending {
		t.Errorf("result = %v", res)
	}
	if m.View() != "" {
		t.Error("inactive modal rendered content")
	}
}

// =============================================================================
// LOG PANE
// =============================================================================

func TestLogPaneBuffersAndTrims(t *testing.T) {
	p := NewLogPane(testTheme())
	p.SetChannel("crawl")

	for i := 0; i < maxLogLines+50; i++ {
		p.Append("crawl", "line")
	}
	if got := p.Len("crawl"); got != maxLogLines {
		t.Errorf("Len = %d, want %d", got, maxLogLines)
	}
}

func TestLogPaneBuffersPerChannel(t *testing.T) {
	p := NewLogPane(testTheme())
	p.SetChannel("crawl")

	p.Append("crawl", "fetching page 1")
	p.Append("ingest", "[info] chunking doc.pdf")
	p.Append("crawl", "fetching page 2")

	if got := p.Len("crawl"); got != 2 {
		t.Errorf("crawl Len = %d, want 2", got)
	}
	if got := p.Len("ingest"); got != 1 {
		t.Errorf("ingest Len = %d, want 1", got)
	}

	out := p.View(80, 10)
	if strings.Contains(out, "chunking") {
		t.Errorf("ingest line rendered in the crawl pane:\n%s", out)
	}
}

func TestLogPaneSetChannelKeepsHistory(t *testing.T) {
	p := NewLogPane(testTheme())
	p.SetChannel("crawl")
	p.Append("crawl", "old line")

	p.SetChannel("ingest")
	if got := p.Len("crawl"); got != 1 {
		t.Errorf("crawl Len = %d after channel switch, want 1", got)
	}

	p.SetChannel("crawl")
	out := p.View(60, 10)
	if !strings.Contains(out, "old line") {
		t.Errorf("history lost after switching back:\n%s", out)
	}
}

func TestLogPaneClearEmptiesEveryChannel(t *testing.T) {
	p := NewLogPane(testTheme())
	p.Append("crawl", "a")
	p.Append("ingest", "b")

	p.Clear()
	if p.Len("crawl") != 0 || p.Len("ingest") != 0 {
		t.Error("Clear left buffered lines")
	}
}

func TestLogPaneViewShowsTail(t *testing.T) {
	p := NewLogPane(testTheme())
	p.SetChannel("jobs")
	p.Append("jobs", "first")
	p.Append("jobs", "second")

	out := p.View(60, 10)
	if !strings.Contains(out, "second") {
		t.Errorf("view missing latest line:\n%s", out)
	}
	if !strings.Contains(out, "jobs") {
		t.Errorf("view missing channel header:\n%s", out)
	}
}

func TestLogPaneCachesWhenClean(t *testing.T) {
	p := NewLogPane(testTheme())
	p.SetChannel("crawl")
	p.Append("crawl", "a line")

	first := p.View(60, 10)
	second := p.View(60, 10)
	if first != second {
		t.Error("unchanged pane re-rendered differently")
	}
}

// =============================================================================
// PILLS AND CARDS
// =============================================================================

func TestPillBarOmitsZeroCounts(t *testing.T) {
	bar := NewPillBar(testTheme())

	out := bar.View(model.CrawlSummary{Captured: 5})
	if !strings.Contains(out, "Captured 5") {
		t.Errorf("missing captured pill:\n%s", out)
	}
	if strings.Contains(out, "Skipped") || strings.Contains(out, "Errors") {
		t.Errorf("zero pills rendered:\n%s", out)
	}

	out = bar.View(model.CrawlSummary{
		Captured:      5,
		Skipped:       model.SkippedCounts{NotAllowed: 2},
		ErrorsByClass: model.ErrorsByClass{Server: 1},
	})
	if !strings.Contains(out, "Skipped 2") || !strings.Contains(out, "Errors 1") {
		t.Errorf("nonzero pills missing:\n%s", out)
	}
}

func TestPillBarBreakdownSkipsZeroRows(t *testing.T) {
	bar := NewPillBar(testTheme())
	out := bar.Breakdown(model.CrawlSummary{
		Skipped:       model.SkippedCounts{DepthExceeded: 3},
		ErrorsByClass: model.ErrorsByClass{NetworkTimeout: 1},
	})
	if !strings.Contains(out, "depth_exceeded: 3") {
		t.Errorf("missing skip row:\n%s", out)
	}
	if !strings.Contains(out, "network_timeout: 1") {
		t.Errorf("missing error row:\n%s", out)
	}
	if strings.Contains(out, "not_allowed") {
		t.Errorf("zero row rendered:\n%s", out)
	}
}

func TestCardGridRendersAllCards(t *testing.T) {
	grid := NewCardGrid(testTheme())
	cards := []health.Card{
		{Title: "Artifacts", Status: health.StatusOK, Lines: []string{"120 files"}},
		{Title: "Qdrant", Status: health.StatusBad, Lines: []string{"unreachable"}},
	}
	out := grid.View(cards, 120)
	for _, want := range []string{"Artifacts", "Qdrant", "120 files", "unreachable"} {
		if !strings.Contains(out, want) {
			t.Errorf("grid missing %q:\n%s", want, out)
		}
	}
}

// =============================================================================
// STATUS BAR
// =============================================================================

func TestStatusBarStickyError(t *testing.T) {
	bar := NewStatusBar(testTheme())
	bar.SetConnection("http://localhost:8000", true)
	bar.SetError("crawl save failed")

	out := bar.View(120)
	if !strings.Contains(out, "crawl save failed") {
		t.Errorf("error segment missing:\n%s", out)
	}

	// Error persists across repaints until explicitly cleared.
	out = bar.View(120)
	if !strings.Contains(out, "crawl save failed") {
		t.Error("error segment not sticky")
	}
	bar.SetError("")
	if strings.Contains(bar.View(120), "crawl save failed") {
		t.Error("error segment survived clear")
	}
}
