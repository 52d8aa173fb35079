// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

func TestCardsAreTotalOverMissingSubtrees(t *testing.T) {
	cards := Cards(model.PipelineHealth{})
	if len(cards) != 5 {
		t.Fatalf("cards = %d, want 5", len(cards))
	}
	for _, card := range cards {
		if card.Status != StatusUnknown {
			t.Errorf("card %q status = %v, want unknown", card.Title, card.Status)
		}
		if len(card.Lines) == 0 {
			t.Errorf("card %q has no placeholder line", card.Title)
		}
	}
}

func TestCrawlCardStatusFromLastJob(t *testing.T) {
	tests := []struct {
		jobStatus string
		want      Status
	}{
		{"done", StatusOK},
		{"running", StatusWarn},
		{"error", StatusBad},
		{"", StatusUnknown},
	}
	for _, tt := range tests {
		card := crawlCard(&model.CrawlHealth{LastJobID: "J1", LastJobStatus: tt.jobStatus})
		if card.Status != tt.want {
			t.Errorf("crawl status %q -> %v, want %v", tt.jobStatus, card.Status, tt.want)
		}
	}
}

func TestIngestCardHeartbeatAge(t *testing.T) {
	fresh := 4.0
	card := ingestCard(&model.IngestHealth{AgeSeconds: &fresh, QueueDepth: 2})
	if card.Status != StatusOK {
		t.Errorf("fresh heartbeat status = %v", card.Status)
	}

	stale := 600.0
	card = ingestCard(&model.IngestHealth{AgeSeconds: &stale})
	if card.Status != StatusBad {
		t.Errorf("stale heartbeat status = %v", card.Status)
	}

	card = ingestCard(&model.IngestHealth{})
	if card.Status != StatusUnknown {
		t.Errorf("missing heartbeat status = %v", card.Status)
	}
}

func TestResetRequiresLiteralConfirmation(t *testing.T) {
	var hits int
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/reset/", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/admin/reset_ingest", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"status":"ok"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewService(api.NewClient(api.Config{BaseURL: server.URL}))

	for _, wrong := range []string{"", "delete", "DELETE ", "yes"} {
		if err := svc.Reset(t.Context(), ResetAll, wrong); err != ErrNotConfirmed {
			t.Errorf("Reset(%q) err = %v, want ErrNotConfirmed", wrong, err)
		}
		if err := svc.ResetIngest(t.Context(), wrong); err != ErrNotConfirmed {
			t.Errorf("ResetIngest(%q) err = %v, want ErrNotConfirmed", wrong, err)
		}
	}
	if hits != 0 {
		t.Fatalf("unconfirmed resets reached the server %d times", hits)
	}

	if err := svc.Reset(t.Context(), ResetArtifacts, "DELETE"); err != nil {
		t.Fatalf("confirmed Reset: %v", err)
	}
	if err := svc.ResetIngest(t.Context(), "DELETE"); err != nil {
		t.Fatalf("confirmed ResetIngest: %v", err)
	}
	if hits != 2 {
		t.Errorf("confirmed resets reached the server %d times, want 2", hits)
	}
}

func TestCheckURLTilesPresentOrAbsent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/data/check_url", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["url"] != "https://x.com/a" {
			t.Errorf("url = %q", payload["url"])
		}
		w.Write([]byte(`{"url":"https://x.com/a","artifact":{"id":"a1"},"qdrant":null}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewService(api.NewClient(api.Config{BaseURL: server.URL}))
	result, err := svc.CheckURL(t.Context(), "https://x.com/a")
	if err != nil {
		t.Fatalf("CheckURL: %v", err)
	}
	if len(result.Artifact) == 0 {
		t.Error("artifact tile missing")
	}
	if len(result.Ingest) != 0 {
		t.Errorf("absent ingest tile = %s", result.Ingest)
	}
}

func TestPipelineHealthDecode(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/data/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"artifacts":{"count":12},"crawl":{"last_job_id":"J9","last_job_status":"done"}}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewService(api.NewClient(api.Config{BaseURL: server.URL}))
	health, err := svc.Pipeline(t.Context())
	if err != nil {
		t.Fatalf("Pipeline: %v", err)
	}
	if health.Artifacts == nil || health.Artifacts.Count != 12 {
		t.Errorf("artifacts = %+v", health.Artifacts)
	}
	if health.Ingest != nil {
		t.Error("missing subtree should stay nil")
	}

	cards := Cards(health)
	if cards[1].Status != StatusOK {
		t.Errorf("crawl card = %+v", cards[1])
	}
}
