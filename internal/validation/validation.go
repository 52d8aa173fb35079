// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package validation drives the crawl and ingest validation workspaces:
// fetching and running validations, partitioning findings by priority,
// severity filtering, head-truncation pagination, and batch quarantine.
package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

// Validation kinds.
const (
	KindCrawl  = "crawl"
	KindIngest = "ingest"
)

// =============================================================================
// PRIORITY PARTITIONING
// =============================================================================

// highPriorityMarkers promote a finding regardless of its severity when its
// reason contains one, case-insensitively. These are the failure shapes that
// usually mean captured garbage rather than thin content.
var highPriorityMarkers = []string{
	"login",
	"cas redirect",
	"malformed_url",
	"401",
	"403",
	"5",
	"parser failed",
	"no content",
	"empty text",
}

// IsHighPriority reports whether a finding belongs in the always-visible
// section: severity high, or a reason carrying a known bad marker.
func IsHighPriority(f model.Finding) bool {
	if f.Severity == model.SeverityHigh {
		return true
	}
	reason := strings.ToLower(f.Reason)
	for _, marker := range highPriorityMarkers {
		if strings.Contains(reason, marker) {
			return true
		}
	}
	return false
}

// Partition splits findings into high-priority and lower-priority slices,
// preserving order within each.
func Partition(findings []model.Finding) (high, lower []model.Finding) {
	for _, f := range findings {
		if IsHighPriority(f) {
			high = append(high, f)
		} else {
			lower = append(lower, f)
		}
	}
	return high, lower
}

// =============================================================================
// FILTERING AND PAGINATION
// =============================================================================

// Severity filter values for the lower-priority section.
const (
	FilterAll    = "all"
	FilterMedium = "medium"
	FilterLow    = "low"
)

// FilterSeverity keeps findings matching the filter; FilterAll keeps all.
func FilterSeverity(findings []model.Finding, filter string) []model.Finding {
	if filter == FilterAll || filter == "" {
		return findings
	}
	var out []model.Finding
	for _, f := range findings {
		if f.Severity == filter {
			out = append(out, f)
		}
	}
	return out
}

// Page is one head-truncated slice of a filtered list.
type Page struct {
	Findings []model.Finding
	Shown    int
	Total    int
}

// Truncated reports whether the page hides part of the list.
func (p Page) Truncated() bool {
	return p.Shown < p.Total
}

// Caption renders the "Showing X of Y" line, empty when nothing is hidden.
func (p Page) Caption() string {
	if !p.Truncated() {
		return ""
	}
	return fmt.Sprintf("Showing %d of %d", p.Shown, p.Total)
}

// Paginate head-truncates the list to pageSize entries.
func Paginate(findings []model.Finding, pageSize int) Page {
	total := len(findings)
	if pageSize > 0 && total > pageSize {
		findings = findings[:pageSize]
	}
	return Page{Findings: findings, Shown: len(findings), Total: total}
}

// =============================================================================
// SERVICE
// =============================================================================

// Service talks to the validation endpoints.
type Service struct {
	client *api.Client
}

// NewService creates a validation service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Summary fetches the current validation summary for a kind.
func (s *Service) Summary(ctx context.Context, kind string) (model.ValidationSummary, error) {
	var summary model.ValidationSummary
	err := s.client.GetJSON(ctx, "/api/admin/validate/"+kind+"/summary", &summary)
	return summary, err
}

// Run triggers a validation pass and returns the refreshed summary.
func (s *Service) Run(ctx context.Context, kind string) (model.ValidationSummary, error) {
	if err := s.client.PostJSON(ctx, "/api/admin/validate/"+kind, nil, nil); err != nil {
		return model.ValidationSummary{}, err
	}
	return s.Summary(ctx, kind)
}

// Quarantine batches the given artifact ids out of the pipeline. On success
// the caller reloads the summary.
func (s *Service) Quarantine(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return s.client.PostJSON(ctx, "/api/admin/quarantine", map[string][]string{"ids": ids}, nil)
}
