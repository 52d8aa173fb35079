// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package healthview

import (
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/health"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/ui/styles"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	client := api.NewClient(api.Config{BaseURL: "http://127.0.0.1:1", RetryMax: 0})
	m := New(styles.NewTheme("dark"), health.NewService(client), log)
	m.SetSize(100, 30)
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCheckTile(t *testing.T) {
	missing := checkTile("Artifact", nil)
	if missing.Status != health.StatusWarn || missing.Lines[0] != "not found" {
		t.Errorf("nil payload tile = %+v", missing)
	}

	notFound := checkTile("Ingest", []byte(`{"found":false}`))
	if notFound.Status != health.StatusWarn {
		t.Errorf("found=false should read as missing, got %v", notFound.Status)
	}

	found := checkTile("Artifact", []byte(`{"found":true,"content_type":"text/html","size":2048}`), "content_type", "size")
	if found.Status != health.StatusOK {
		t.Errorf("found tile status = %v", found.Status)
	}
	joined := strings.Join(found.Lines, "\n")
	if !strings.Contains(joined, "content_type: text/html") || !strings.Contains(joined, "size: 2048") {
		t.Errorf("tile lines = %q", joined)
	}

	// Fields absent from the payload are skipped, not rendered empty.
	sparse := checkTile("Qdrant", []byte(`{"points":3}`), "points", "collection")
	if len(sparse.Lines) != 2 {
		t.Errorf("sparse tile lines = %v", sparse.Lines)
	}
}

func TestResetRequiresTypedPhrase(t *testing.T) {
	m := newTestModel(t)
	m.loaded = true

	m, _ = m.Update(key("3"))
	if !m.confirm.Active() {
		t.Fatal("3 should arm the reset-all confirm")
	}
	if m.pendingReset != health.ResetAll {
		t.Errorf("pendingReset = %q", m.pendingReset)
	}

	// Wrong phrase keeps the modal armed.
	for _, r := range "delete" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, _ = m.Update(key("enter"))
	if !m.confirm.Active() {
		t.Error("lowercase phrase should not confirm")
	}

	m, _ = m.Update(key("esc"))
	if m.confirm.Active() || m.pendingReset != "" {
		t.Error("esc should disarm the reset")
	}
}

func TestInputModeLifecycle(t *testing.T) {
	m := newTestModel(t)
	m.loaded = true

	m, _ = m.Update(key("u"))
	if m.mode != inputCheckURL {
		t.Fatalf("mode = %v, want check-url", m.mode)
	}

	// Empty submit closes without issuing a request.
	m, cmd := m.Update(key("enter"))
	if m.mode != inputNone {
		t.Error("empty submit should close the input")
	}
	if cmd != nil {
		t.Error("empty submit should not produce a command")
	}

	m, _ = m.Update(key("s"))
	if m.mode != inputSearch {
		t.Errorf("mode = %v, want search", m.mode)
	}
	m, _ = m.Update(key("esc"))
	if m.mode != inputNone {
		t.Error("esc should close the input")
	}
}

func TestViewShowsSearchSections(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(HealthMsg{Pipeline: model.PipelineHealth{}, APIOk: true})
	m, _ = m.Update(searchedMsg{
		query: "syllabus",
		result: model.SearchResult{
			Artifacts: []model.SearchMatch{{URL: "https://x.example/a", Snippet: "course syllabus"}},
		},
	})

	view := m.View()
	if !strings.Contains(view, "Artifacts (1)") {
		t.Error("view should show the artifacts hit count")
	}
	if !strings.Contains(view, "Qdrant (0)") {
		t.Error("view should show the empty qdrant section")
	}
	if !strings.Contains(view, "no matches") {
		t.Error("empty list should render a placeholder")
	}
}

func TestAPIDownPill(t *testing.T) {
	m := newTestModel(t)
	m, _ = m.Update(HealthMsg{Pipeline: model.PipelineHealth{}, APIOk: false})
	if !strings.Contains(m.View(), "API down") {
		t.Error("view should flag the API as down")
	}
}
