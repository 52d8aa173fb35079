// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// Finding severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// Finding is one validation result row.
type Finding struct {
	ID       string `json:"id"`
	URL      string `json:"url,omitempty"`
	Title    string `json:"title,omitempty"`
	Severity string `json:"severity"`
	Reason   string `json:"reason"`
}

// ValidationSummary is the payload of GET /api/admin/validate/{kind}/summary.
type ValidationSummary struct {
	Total            int            `json:"total"`
	CountsBySeverity map[string]int `json:"counts_by_severity,omitempty"`
	CountsByCode     map[string]int `json:"counts_by_code,omitempty"`
	Findings         []Finding      `json:"findings"`
	GeneratedAt      string         `json:"generated_at,omitempty"`
}
