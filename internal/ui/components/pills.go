// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// SUMMARY PILL BAR
// =============================================================================

// PillBar renders crawl summary counts as colored pills. Zero-count
// skip and error pills are omitted to keep the bar short.
type PillBar struct {
	theme *styles.Theme
}

// NewPillBar creates a pill bar renderer.
func NewPillBar(theme *styles.Theme) *PillBar {
	return &PillBar{theme: theme}
}

// View renders the pills for a crawl summary.
func (p *PillBar) View(s model.CrawlSummary) string {
	t := p.theme

	pills := []string{
		t.PillOK.Render("Captured " + util.FormatCount(s.Captured)),
	}
	if n := s.Skipped.Total(); n > 0 {
		pills = append(pills, t.PillWarn.Render("Skipped "+util.FormatCount(n)))
	}
	if n := s.ErrorsByClass.Total(); n > 0 {
		pills = append(pills, t.PillErr.Render("Errors "+util.FormatCount(n)))
	}
	if n := s.Artifacts.Total(); n > 0 {
		pills = append(pills, t.PillInfo.Render("Artifacts "+util.FormatCount(n)))
	}

	return strings.Join(pills, " ")
}

// Breakdown renders the per-reason skip and per-class error lines shown
// under the pills when a summary is expanded.
func (p *PillBar) Breakdown(s model.CrawlSummary) string {
	t := p.theme
	var lines []string

	for _, row := range s.Skipped.Rows() {
		if row.Count > 0 {
			lines = append(lines, t.CardDetail.Render("skipped/"+row.Name+": "+util.FormatCount(row.Count)))
		}
	}
	for _, row := range s.ErrorsByClass.Rows() {
		if row.Count > 0 {
			lines = append(lines, t.CardDetail.Render("errors/"+row.Name+": "+util.FormatCount(row.Count)))
		}
	}
	return strings.Join(lines, "\n")
}
