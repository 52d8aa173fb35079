// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package crawl

import (
	"errors"
	"testing"
)

func stateOf(tr *SaveTracker, key string) SaveState {
	s, _ := tr.State(key)
	return s
}

func TestSaveLifecycle(t *testing.T) {
	tr := NewSaveTracker()

	if stateOf(tr, "row") != SaveIdle {
		t.Errorf("Fresh key should be idle, got %v", stateOf(tr, "row"))
	}

	id := tr.MarkSaving("row")
	if id == "" {
		t.Error("MarkSaving should return a correlation ID")
	}
	if stateOf(tr, "row") != SaveSaving {
		t.Errorf("State = %v, want saving", stateOf(tr, "row"))
	}

	gen := tr.MarkSaved("row")
	if stateOf(tr, "row") != SaveSaved {
		t.Errorf("State = %v, want saved", stateOf(tr, "row"))
	}

	tr.ClearSaved("row", gen)
	if stateOf(tr, "row") != SaveIdle {
		t.Errorf("State after clear = %v, want idle", stateOf(tr, "row"))
	}
}

func TestStaleClearIgnored(t *testing.T) {
	tr := NewSaveTracker()

	tr.MarkSaving("row")
	gen := tr.MarkSaved("row")

	// A newer save starts before the scheduled clear fires.
	tr.MarkSaving("row")
	tr.ClearSaved("row", gen)
	if stateOf(tr, "row") != SaveSaving {
		t.Errorf("Stale clear should not touch a newer save, got %v", stateOf(tr, "row"))
	}

	gen2 := tr.MarkSaved("row")
	tr.ClearSaved("row", gen) // still stale
	if stateOf(tr, "row") != SaveSaved {
		t.Errorf("Old generation should not clear new saved state, got %v", stateOf(tr, "row"))
	}
	tr.ClearSaved("row", gen2)
	if stateOf(tr, "row") != SaveIdle {
		t.Errorf("Matching generation should clear, got %v", stateOf(tr, "row"))
	}
}

func TestErrorSticky(t *testing.T) {
	tr := NewSaveTracker()

	tr.MarkSaving("row")
	tr.MarkError("row", errors.New("boom"))
	if stateOf(tr, "row") != SaveError {
		t.Errorf("State = %v, want error", stateOf(tr, "row"))
	}

	// Clears never apply to error rows.
	tr.ClearSaved("row", 0)
	tr.ClearSaved("row", 1)
	if stateOf(tr, "row") != SaveError {
		t.Error("Error state should be sticky until the next save attempt")
	}

	tr.MarkSaving("row")
	if stateOf(tr, "row") != SaveSaving {
		t.Error("New save attempt should replace error state")
	}
}

func TestIndicatorGlyphs(t *testing.T) {
	tr := NewSaveTracker()

	if got := tr.Indicator("row"); got != " " {
		t.Errorf("Idle indicator = %q, want blank", got)
	}
	tr.MarkSaving("row")
	if got := tr.Indicator("row"); got != "⏳" {
		t.Errorf("Saving indicator = %q", got)
	}
	tr.MarkSaved("row")
	if got := tr.Indicator("row"); got != "✓" {
		t.Errorf("Saved indicator = %q", got)
	}
	tr.MarkError("row", errors.New("boom"))
	if got := tr.Indicator("row"); got != "✗" {
		t.Errorf("Error indicator = %q", got)
	}
}
