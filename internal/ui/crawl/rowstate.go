// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package crawl

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// savedClearDelay is how long the saved checkmark stays visible.
const savedClearDelay = 2 * time.Second

// =============================================================================
// PER-ROW SAVE TRACKER
// =============================================================================

// SaveState is the lifecycle of one row's save indicator.
type SaveState int

const (
	SaveIdle SaveState = iota
	SaveSaving
	SaveSaved
	SaveError
)

type rowStatus struct {
	state SaveState
	err   string
	gen   int
}

// SaveTracker tracks per-row save indicators. Saved clears itself after
// a delay; errors stick until the next save attempt on the same row.
// Generations guard against a stale clear hiding a newer result.
type SaveTracker struct {
	mu   sync.Mutex
	rows map[string]*rowStatus
}

// NewSaveTracker creates an empty tracker.
func NewSaveTracker() *SaveTracker {
	return &SaveTracker{rows: make(map[string]*rowStatus)}
}

// MarkSaving puts a row into the saving state and returns a correlation
// ID for the request log.
func (t *SaveTracker) MarkSaving(key string) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	row := t.row(key)
	row.state = SaveSaving
	row.err = ""
	row.gen++
	return uuid.NewString()
}

// MarkSaved records a successful save and returns the generation to
// pass to ClearSaved when the display delay elapses.
func (t *SaveTracker) MarkSaved(key string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	row := t.row(key)
	row.state = SaveSaved
	row.err = ""
	row.gen++
	return row.gen
}

// ClearSaved returns the row to idle, but only if no newer transition
// happened since the matching MarkSaved.
func (t *SaveTracker) ClearSaved(key string, gen int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[key]
	if !ok || row.gen != gen || row.state != SaveSaved {
		return
	}
	row.state = SaveIdle
}

// MarkError records a failed save. The indicator is sticky.
func (t *SaveTracker) MarkError(key string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row := t.row(key)
	row.state = SaveError
	if err != nil {
		row.err = err.Error()
	}
	row.gen++
}

// State returns the row's indicator state and error text.
func (t *SaveTracker) State(key string) (SaveState, string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.rows[key]
	if !ok {
		return SaveIdle, ""
	}
	return row.state, row.err
}

// Indicator renders the row's indicator glyph.
func (t *SaveTracker) Indicator(key string) string {
	state, _ := t.State(key)
	switch state {
	case SaveSaving:
		return "⏳"
	case SaveSaved:
		return "✓"
	case SaveError:
		return "✗"
	default:
		return " "
	}
}

func (t *SaveTracker) row(key string) *rowStatus {
	row, ok := t.rows[key]
	if !ok {
		row = &rowStatus{}
		t.rows[key] = row
	}
	return row
}
