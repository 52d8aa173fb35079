// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

func TestETACalculatingUntilEnoughSamples(t *testing.T) {
	clock := time.Unix(0, 0)
	tracker := NewETATracker()
	tracker.now = func() time.Time { return clock }

	tracker.Observe(0, 100)
	for i := 1; i <= 4; i++ {
		clock = clock.Add(time.Second)
		tracker.Observe(i, 100)
	}
	if got := tracker.Label(); got != "Calculating…" {
		t.Errorf("label with 4 samples = %q", got)
	}

	clock = clock.Add(time.Second)
	tracker.Observe(5, 100)
	if got := tracker.Label(); got == "Calculating…" {
		t.Error("label with 5 samples should be an estimate")
	}
}

func TestETAEstimateFromMovingAverage(t *testing.T) {
	clock := time.Unix(0, 0)
	tracker := NewETATracker()
	tracker.now = func() time.Time { return clock }

	// 2 s per artifact, 10 done, 90 remaining: 180 s.
	tracker.Observe(0, 100)
	for i := 1; i <= 10; i++ {
		clock = clock.Add(2 * time.Second)
		tracker.Observe(i, 100)
	}
	if got := tracker.Label(); got != "~3m remaining" {
		t.Errorf("label = %q, want ~3m remaining", got)
	}
}

func TestETAWindowKeepsLastTenDeltas(t *testing.T) {
	clock := time.Unix(0, 0)
	tracker := NewETATracker()
	tracker.now = func() time.Time { return clock }

	// Slow start, then a fast steady state the window should converge on.
	tracker.Observe(0, 30)
	for i := 1; i <= 5; i++ {
		clock = clock.Add(time.Minute)
		tracker.Observe(i, 30)
	}
	for i := 6; i <= 20; i++ {
		clock = clock.Add(time.Second)
		tracker.Observe(i, 30)
	}

	// Window holds ten 1 s deltas; 10 remaining = ~10 s.
	if got := tracker.Label(); got != "~10s remaining" {
		t.Errorf("label = %q, want ~10s remaining", got)
	}
}

func TestETACompleteRequiresNonZeroTotal(t *testing.T) {
	tracker := NewETATracker()
	tracker.Observe(0, 0)
	if got := tracker.Label(); got == "Complete" {
		t.Error("0/0 must not read as Complete")
	}

	tracker = NewETATracker()
	tracker.Observe(7, 7)
	if got := tracker.Label(); got != "Complete" {
		t.Errorf("7/7 label = %q, want Complete", got)
	}
}

func TestETAIgnoresNonForwardProgress(t *testing.T) {
	clock := time.Unix(0, 0)
	tracker := NewETATracker()
	tracker.now = func() time.Time { return clock }

	tracker.Observe(0, 10)
	clock = clock.Add(time.Second)
	tracker.Observe(3, 10)
	clock = clock.Add(time.Second)
	tracker.Observe(3, 10) // repeat snapshot
	if len(tracker.deltas) != 1 {
		t.Errorf("deltas = %d, want 1", len(tracker.deltas))
	}
}

// ingestBackend drives the dual-track controller. The SSE endpoint can be
// told to fail so polling has to carry the job alone.
type ingestBackend struct {
	mu        sync.Mutex
	sseFails  bool
	statuses  []model.IngestStatus // served in order, last repeats
	statusIdx int
}

func (b *ingestBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.JobStarted{JobID: "I1", Status: "queued"})
	})
	mux.HandleFunc("/api/ingest/I1/events", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		fails := b.sseFails
		b.mu.Unlock()
		if fails {
			http.Error(w, "stream unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	mux.HandleFunc("/api/ingest/I1", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status := b.statuses[b.statusIdx]
		if b.statusIdx < len(b.statuses)-1 {
			b.statusIdx++
		}
		b.mu.Unlock()
		json.NewEncoder(w).Encode(status)
	})
	return mux
}

func TestPollingCarriesJobWhenSSEFails(t *testing.T) {
	backend := &ingestBackend{
		sseFails: true,
		statuses: []model.IngestStatus{
			{Status: model.IngestStatusRunning, Done: 3, Total: 10},
			{Status: model.IngestStatusRunning, Done: 7, Total: 10},
			{Status: model.IngestStatusDone, Done: 10, Total: 10},
		},
	}
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	client := api.NewClient(api.Config{BaseURL: server.URL, RetryMax: 1})
	ctrl := NewIngestController(client, nil)
	ctrl.pollInterval = 20 * time.Millisecond

	finished := make(chan IngestProgress, 1)
	var mu sync.Mutex
	var doneCounts []int
	ctrl.Watch(t.Context(), "I1", IngestSink{
		OnProgress: func(p IngestProgress) {
			mu.Lock()
			doneCounts = append(doneCounts, p.Done)
			mu.Unlock()
		},
		OnFinished: func(status string, p IngestProgress) {
			if status != model.IngestStatusDone {
				t.Errorf("terminal status = %q", status)
			}
			finished <- p
		},
	})

	select {
	case p := <-finished:
		if p.Done != 10 || p.Total != 10 {
			t.Errorf("final progress = %+v", p)
		}
		if p.ETA != "Complete" {
			t.Errorf("final ETA = %q, want Complete", p.ETA)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch never finished")
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(doneCounts); i++ {
		if doneCounts[i] < doneCounts[i-1] {
			t.Errorf("done counts went backwards: %v", doneCounts)
		}
	}
}

func TestErrorsCounterIsMonotone(t *testing.T) {
	ctrl := NewIngestController(api.NewClient(api.Config{BaseURL: "http://127.0.0.1:1"}), nil)
	ctrl.progress = IngestProgress{JobID: "I1", Total: 10}

	var last int
	sink := IngestSink{OnProgress: func(p IngestProgress) { last = p.Errors }}

	// SSE error event bumps by one.
	ctrl.update(sink, func(p *IngestProgress) { p.Errors++ })
	if last != 1 {
		t.Errorf("errors = %d, want 1", last)
	}

	// Server-authoritative replace, higher value wins.
	ctrl.update(sink, func(p *IngestProgress) {
		if 3 > p.Errors {
			p.Errors = 3
		}
	})
	if last != 3 {
		t.Errorf("errors = %d, want 3", last)
	}

	// A stale lower server value never lowers the counter.
	ctrl.update(sink, func(p *IngestProgress) {
		if 2 > p.Errors {
			p.Errors = 2
		}
	})
	if last != 3 {
		t.Errorf("errors = %d, want 3 after stale update", last)
	}
}

func TestIngestEventStreamDrivesProgress(t *testing.T) {
	events := []string{
		`{"type":"connected"}`,
		`{"type":"start","job_id":"I1","total_artifacts":4}`,
		`{"type":"artifact_progress","done_artifacts":1,"total_artifacts":4,"current_artifact":"a.pdf"}`,
		`{"type":"log","level":"info","message":"parsed a.pdf"}`,
		`{"type":"artifact_progress","done_artifacts":4,"total_artifacts":4}`,
		`{"type":"complete","done_artifacts":4,"total_artifacts":4}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/ingest/I1/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, event := range events {
			w.Write([]byte("data: " + event + "\n\n"))
			flusher.Flush()
		}
	})
	mux.HandleFunc("/api/ingest/I1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.IngestStatus{Status: model.IngestStatusRunning, Done: 1, Total: 4})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	ctrl := NewIngestController(api.NewClient(api.Config{BaseURL: server.URL}), nil)
	ctrl.pollInterval = time.Hour // SSE only

	finished := make(chan IngestProgress, 1)
	var logs []string
	var mu sync.Mutex
	ctrl.Watch(t.Context(), "I1", IngestSink{
		OnLog: func(level, message string) {
			mu.Lock()
			logs = append(logs, level+": "+message)
			mu.Unlock()
		},
		OnFinished: func(status string, p IngestProgress) { finished <- p },
	})

	select {
	case p := <-finished:
		if p.Done != 4 || p.Total != 4 || p.Status != model.IngestStatusDone {
			t.Errorf("final progress = %+v", p)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watch never finished")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(logs) != 1 || !strings.Contains(logs[0], "parsed a.pdf") {
		t.Errorf("logs = %v", logs)
	}
}
