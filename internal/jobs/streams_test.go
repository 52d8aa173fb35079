// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobs

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

// logBackend serves job log streams and summaries.
type logBackend struct {
	mu      sync.Mutex
	lines   map[string][]string // job id -> log lines
	summary string
	hold    map[string]chan struct{} // job id -> block stream end
}

func newLogBackend() *logBackend {
	return &logBackend{
		lines:   map[string][]string{},
		summary: `{"captured":5,"errors":0,"skipped":{"already_processed":2}}`,
		hold:    map[string]chan struct{}{},
	}
}

func (b *logBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/jobs/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		switch {
		case len(path) > 8 && path[len(path)-8:] == "/summary":
			b.mu.Lock()
			summary := b.summary
			b.mu.Unlock()
			w.Write([]byte(summary))
		case len(path) > 4 && path[len(path)-4:] == "/log":
			jobID := path[len("/api/admin/jobs/") : len(path)-len("/log")]
			w.Header().Set("Content-Type", "text/event-stream")
			flusher := w.(http.Flusher)
			flusher.Flush()
			b.mu.Lock()
			lines := b.lines[jobID]
			hold := b.hold[jobID]
			b.mu.Unlock()
			for _, line := range lines {
				fmt.Fprintf(w, "data: %s\n\n", line)
				flusher.Flush()
			}
			if hold != nil {
				<-hold
			}
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

func newTestManager(t *testing.T) (*StreamManager, *logBackend) {
	t.Helper()
	backend := newLogBackend()
	server := httptest.NewServer(backend.handler())
	t.Cleanup(server.Close)
	client := api.NewClient(api.Config{BaseURL: server.URL})
	manager := NewStreamManager(client, nil)
	manager.summaryDelay = 50 * time.Millisecond
	return manager, backend
}

func TestLogLinesDeliveredVerbatim(t *testing.T) {
	manager, backend := newTestManager(t)
	backend.lines["J1"] = []string{"fetching https://x.com/", "captured 1 page"}

	var mu sync.Mutex
	var got []string
	closed := make(chan struct{})

	err := manager.Open(t.Context(), ChannelJobs, "J1", LogSink{
		OnLine: func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		},
		OnClosed: func(err error) {
			if err != nil {
				t.Errorf("stream closed with error: %v", err)
			}
			close(closed)
		},
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("stream never ended")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 2 || got[0] != "fetching https://x.com/" || got[1] != "captured 1 page" {
		t.Errorf("lines = %q", got)
	}
}

func TestCrawlCompleteTriggersDeferredSummary(t *testing.T) {
	manager, backend := newTestManager(t)
	backend.lines["J1"] = []string{"working", "Crawl job complete."}
	backend.hold["J1"] = make(chan struct{})
	defer close(backend.hold["J1"])

	summaries := make(chan model.CrawlSummary, 1)
	err := manager.Open(t.Context(), ChannelCrawl, "J1", LogSink{
		OnSummary: func(summary model.CrawlSummary) { summaries <- summary },
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	select {
	case summary := <-summaries:
		if summary.Captured != 5 || summary.Skipped.Total() != 2 {
			t.Errorf("summary = %+v", summary)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("summary never fetched")
	}
}

func TestChannelHoldsOneStream(t *testing.T) {
	manager, backend := newTestManager(t)
	backend.hold["J1"] = make(chan struct{})
	backend.hold["J2"] = make(chan struct{})
	defer close(backend.hold["J1"])
	defer close(backend.hold["J2"])

	first := make(chan string, 16)
	if err := manager.Open(t.Context(), ChannelJobs, "J1", LogSink{
		OnLine:   func(line string) { first <- line },
		OnClosed: func(err error) { first <- "closed" },
	}); err != nil {
		t.Fatalf("Open J1: %v", err)
	}

	// Reassigning the channel evicts J1's stream silently.
	if err := manager.Open(t.Context(), ChannelJobs, "J2", LogSink{}); err != nil {
		t.Fatalf("Open J2: %v", err)
	}

	if jobID, ok := manager.JobID(ChannelJobs); !ok || jobID != "J2" {
		t.Errorf("channel owner = %q, %v", jobID, ok)
	}

	select {
	case kind := <-first:
		t.Errorf("evicted stream delivered %q", kind)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseIsIdempotentAndSilent(t *testing.T) {
	manager, backend := newTestManager(t)
	backend.hold["J1"] = make(chan struct{})
	defer close(backend.hold["J1"])

	fired := make(chan struct{}, 4)
	if err := manager.Open(t.Context(), ChannelCrawl, "J1", LogSink{
		OnClosed: func(err error) { fired <- struct{}{} },
	}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	manager.Close(ChannelCrawl)
	manager.Close(ChannelCrawl)

	if _, ok := manager.JobID(ChannelCrawl); ok {
		t.Error("channel slot not cleared")
	}
	select {
	case <-fired:
		t.Error("local close fired OnClosed")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseAllClearsEveryChannel(t *testing.T) {
	manager, backend := newTestManager(t)
	for _, id := range []string{"J1", "J2", "J3"} {
		backend.hold[id] = make(chan struct{})
		defer close(backend.hold[id])
	}

	for channel, id := range map[string]string{ChannelCrawl: "J1", ChannelIngest: "J2", ChannelJobs: "J3"} {
		if err := manager.Open(t.Context(), channel, id, LogSink{}); err != nil {
			t.Fatalf("Open %s: %v", channel, err)
		}
	}

	manager.CloseAll()
	for _, channel := range []string{ChannelCrawl, ChannelIngest, ChannelJobs} {
		if _, ok := manager.JobID(channel); ok {
			t.Errorf("channel %s still occupied", channel)
		}
	}
}
