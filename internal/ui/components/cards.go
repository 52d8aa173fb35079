// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/todddb/ragai-console/internal/health"
	"github.com/todddb/ragai-console/internal/ui/styles"
)

// =============================================================================
// CARD GRID
// =============================================================================

// CardGrid renders pipeline health cards in rows that fit the width.
type CardGrid struct {
	theme *styles.Theme
}

// NewCardGrid creates a card grid renderer.
func NewCardGrid(theme *styles.Theme) *CardGrid {
	return &CardGrid{theme: theme}
}

// View renders the cards, wrapping to the available width.
func (g *CardGrid) View(cards []health.Card, width int) string {
	if len(cards) == 0 {
		return g.theme.CardDetail.Render("No health data.")
	}

	rendered := make([]string, 0, len(cards))
	for _, c := range cards {
		rendered = append(rendered, g.renderCard(c))
	}

	cardWidth := lipgloss.Width(rendered[0])
	perRow := width / (cardWidth + 1)
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	for i := 0; i < len(rendered); i += perRow {
		end := i + perRow
		if end > len(rendered) {
			end = len(rendered)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered[i:end]...))
	}
	return strings.Join(rows, "\n")
}

func (g *CardGrid) renderCard(c health.Card) string {
	t := g.theme

	var box lipgloss.Style
	var badge string
	switch c.Status {
	case health.StatusOK:
		box = t.CardOK
		badge = t.StatusOK.Render(styles.StatusIndicators.Success)
	case health.StatusWarn:
		box = t.CardWarn
		badge = t.StatusWarn.Render(styles.StatusIndicators.Warning)
	case health.StatusBad:
		box = t.CardError
		badge = t.StatusError.Render(styles.StatusIndicators.Error)
	default:
		box = t.CardUnknown
		badge = t.StatusMuted.Render(styles.StatusIndicators.Pending)
	}

	var b strings.Builder
	b.WriteString(t.CardTitle.Render(c.Title) + " " + badge)
	for i, line := range c.Lines {
		style := t.CardDetail
		if i == 0 {
			style = t.CardValue
		}
		b.WriteString("\n" + style.Render(line))
	}
	return box.Render(b.String())
}
