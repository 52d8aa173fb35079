// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package validation

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

func TestIsHighPriority(t *testing.T) {
	tests := []struct {
		name    string
		finding model.Finding
		want    bool
	}{
		{name: "high severity", finding: model.Finding{Severity: "high", Reason: "whatever"}, want: true},
		{name: "403 in reason", finding: model.Finding{Severity: "medium", Reason: "HTTP 403 Forbidden"}, want: true},
		{name: "401 in reason", finding: model.Finding{Severity: "low", Reason: "401 unauthorized"}, want: true},
		{name: "login page", finding: model.Finding{Severity: "medium", Reason: "Captured LOGIN page"}, want: true},
		{name: "cas redirect", finding: model.Finding{Severity: "low", Reason: "cas redirect detected"}, want: true},
		{name: "server error class", finding: model.Finding{Severity: "medium", Reason: "5xx from origin"}, want: true},
		{name: "parser failure", finding: model.Finding{Severity: "low", Reason: "parser failed on table"}, want: true},
		{name: "empty text", finding: model.Finding{Severity: "medium", Reason: "empty text after extraction"}, want: true},
		{name: "thin content stays lower", finding: model.Finding{Severity: "medium", Reason: "thin content"}, want: false},
		{name: "duplicate stays lower", finding: model.Finding{Severity: "low", Reason: "duplicate"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsHighPriority(tt.finding); got != tt.want {
				t.Errorf("IsHighPriority(%+v) = %v, want %v", tt.finding, got, tt.want)
			}
		})
	}
}

func TestPartitionPreservesOrder(t *testing.T) {
	findings := []model.Finding{
		{ID: "1", Severity: "high", Reason: "403 forbidden"},
		{ID: "2", Severity: "medium", Reason: "thin content"},
		{ID: "3", Severity: "low", Reason: "duplicate"},
		{ID: "4", Severity: "low", Reason: "parser failed"},
	}

	high, lower := Partition(findings)
	if len(high) != 2 || high[0].ID != "1" || high[1].ID != "4" {
		t.Errorf("high = %+v", high)
	}
	if len(lower) != 2 || lower[0].ID != "2" || lower[1].ID != "3" {
		t.Errorf("lower = %+v", lower)
	}
}

func TestFilterSeverity(t *testing.T) {
	findings := []model.Finding{
		{ID: "1", Severity: "medium"},
		{ID: "2", Severity: "low"},
		{ID: "3", Severity: "medium"},
	}

	if got := FilterSeverity(findings, FilterAll); len(got) != 3 {
		t.Errorf("all filter kept %d", len(got))
	}
	if got := FilterSeverity(findings, FilterLow); len(got) != 1 || got[0].ID != "2" {
		t.Errorf("low filter = %+v", got)
	}
	if got := FilterSeverity(findings, FilterMedium); len(got) != 2 {
		t.Errorf("medium filter kept %d", len(got))
	}
}

func TestPaginateHeadTruncation(t *testing.T) {
	var findings []model.Finding
	for i := 0; i < 37; i++ {
		findings = append(findings, model.Finding{ID: string(rune('a' + i%26))})
	}

	page := Paginate(findings, 10)
	if page.Shown != 10 || page.Total != 37 {
		t.Errorf("page = %d of %d", page.Shown, page.Total)
	}
	if !page.Truncated() {
		t.Error("page should be truncated")
	}
	if got := page.Caption(); got != "Showing 10 of 37" {
		t.Errorf("caption = %q", got)
	}

	full := Paginate(findings, 100)
	if full.Truncated() {
		t.Error("page larger than list should not truncate")
	}
	if full.Caption() != "" {
		t.Errorf("caption on full page = %q", full.Caption())
	}
}

func TestRunTriggersThenFetchesSummary(t *testing.T) {
	var ran bool
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/validate/crawl", func(w http.ResponseWriter, r *http.Request) {
		ran = true
		w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/admin/validate/crawl/summary", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(model.ValidationSummary{
			Total:    2,
			Findings: []model.Finding{{ID: "f1", Severity: "high", Reason: "no content"}},
		})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewService(api.NewClient(api.Config{BaseURL: server.URL}))
	summary, err := svc.Run(t.Context(), KindCrawl)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !ran {
		t.Error("validation run not triggered")
	}
	if summary.Total != 2 || len(summary.Findings) != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestQuarantineBatch(t *testing.T) {
	var got []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/admin/quarantine", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			IDs []string `json:"ids"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		got = payload.IDs
		w.Write([]byte(`{"status":"ok"}`))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	svc := NewService(api.NewClient(api.Config{BaseURL: server.URL}))
	if err := svc.Quarantine(t.Context(), []string{"a1", "a2"}); err != nil {
		t.Fatalf("Quarantine: %v", err)
	}
	if len(got) != 2 || got[0] != "a1" {
		t.Errorf("ids = %v", got)
	}

	// Empty batch never reaches the server.
	got = nil
	if err := svc.Quarantine(t.Context(), nil); err != nil {
		t.Fatalf("empty Quarantine: %v", err)
	}
	if got != nil {
		t.Error("empty batch posted")
	}
}
