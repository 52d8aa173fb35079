// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package data renders the data quality view: validation summaries for
// crawl and ingest content, the high-priority findings list, and the
// filtered, paginated lower-priority section with batch quarantine.
package data

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/state"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
	"github.com/todddb/ragai-console/internal/validation"
)

// =============================================================================
// MESSAGES
// =============================================================================

// SummaryMsg carries a refreshed validation summary.
type SummaryMsg struct {
	Kind    string
	Summary model.ValidationSummary
}

// ErrMsg carries a view-level failure for the status bar.
type ErrMsg struct {
	Err error
}

type quarantinedMsg struct {
	count int
}

// =============================================================================
// DATA MODEL
// =============================================================================

// Model is the data quality view.
type Model struct {
	theme   *styles.Theme
	log     *logrus.Logger
	service *validation.Service
	state   *state.Store

	kind    string
	summary model.ValidationSummary
	loaded  bool

	filter   string
	expanded bool
	pageSize int

	// cursor walks the combined high-then-lower row list.
	cursor   int
	selected map[string]bool

	width  int
	height int
}

// New creates the data view, restoring lower-section preferences.
func New(theme *styles.Theme, service *validation.Service, st *state.Store, log *logrus.Logger) Model {
	return Model{
		theme:    theme,
		log:      log,
		service:  service,
		state:    st,
		kind:     validation.KindCrawl,
		filter:   validation.FilterAll,
		expanded: st.LowerExpanded(),
		pageSize: st.LowerPageSize(),
		selected: map[string]bool{},
	}
}

// Refresh reloads the current kind's summary.
func (m Model) Refresh() tea.Cmd {
	service := m.service
	kind := m.kind
	return func() tea.Msg {
		summary, err := service.Summary(context.Background(), kind)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return SummaryMsg{Kind: kind, Summary: summary}
	}
}

// SetSize records the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// =============================================================================
// ROW MODEL
// =============================================================================

// rows returns the visible findings: all high-priority entries, then the
// lower section subject to filter, expansion, and page size.
func (m *Model) rows() []model.Finding {
	high, lower := validation.Partition(m.summary.Findings)
	if !m.expanded {
		return high
	}
	lower = validation.FilterSeverity(lower, m.filter)
	page := validation.Paginate(lower, m.pageSize)
	return append(high, page.Findings...)
}

func (m *Model) lowerPage() validation.Page {
	_, lower := validation.Partition(m.summary.Findings)
	return validation.Paginate(validation.FilterSeverity(lower, m.filter), m.pageSize)
}

func (m *Model) highCount() int {
	high, _ := validation.Partition(m.summary.Findings)
	return len(high)
}

func (m *Model) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case SummaryMsg:
		if msg.Kind != m.kind {
			return m, nil
		}
		m.summary = msg.Summary
		m.loaded = true
		m.selected = map[string]bool{}
		m.clampCursor()
		return m, nil

	case quarantinedMsg:
		m.selected = map[string]bool{}
		return m, m.Refresh()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case "t":
		if m.kind == validation.KindCrawl {
			m.kind = validation.KindIngest
		} else {
			m.kind = validation.KindCrawl
		}
		m.loaded = false
		m.cursor = 0
		m.selected = map[string]bool{}
		return m, m.Refresh()
	case "r":
		return m, m.Refresh()
	case "R":
		return m, m.runValidation()
	case "f":
		m.filter = nextFilter(m.filter)
		m.clampCursor()
	case "x":
		m.expanded = !m.expanded
		m.state.SetLowerExpanded(m.expanded)
		m.clampCursor()
	case "+":
		m.setPageSize(nextPageSize(m.pageSize, 1))
	case "-":
		m.setPageSize(nextPageSize(m.pageSize, -1))
	case " ":
		rows := m.rows()
		if m.cursor < len(rows) {
			id := rows[m.cursor].ID
			if m.selected[id] {
				delete(m.selected, id)
			} else {
				m.selected[id] = true
			}
		}
	case "a":
		m.toggleSelectAll()
	case "Q":
		return m, m.quarantineSelected()
	}
	return m, nil
}

// toggleSelectAll works on exactly the rendered rows: select them all
// while any is unselected, clear them all once every one is marked.
func (m *Model) toggleSelectAll() {
	rows := m.rows()
	if len(rows) == 0 {
		return
	}
	all := true
	for _, f := range rows {
		if !m.selected[f.ID] {
			all = false
			break
		}
	}
	for _, f := range rows {
		if all {
			delete(m.selected, f.ID)
		} else {
			m.selected[f.ID] = true
		}
	}
}

func (m *Model) setPageSize(size int) {
	m.pageSize = size
	m.state.SetLowerPageSize(size)
	m.clampCursor()
}

func nextFilter(current string) string {
	switch current {
	case validation.FilterAll:
		return validation.FilterMedium
	case validation.FilterMedium:
		return validation.FilterLow
	}
	return validation.FilterAll
}

// nextPageSize steps through the accepted sizes, clamping at the ends.
func nextPageSize(current, direction int) int {
	sizes := state.PageSizes
	for i, size := range sizes {
		if size == current {
			next := i + direction
			if next < 0 {
				return sizes[0]
			}
			if next >= len(sizes) {
				return sizes[len(sizes)-1]
			}
			return sizes[next]
		}
	}
	return state.DefaultPageSize
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) runValidation() tea.Cmd {
	service := m.service
	kind := m.kind
	return func() tea.Msg {
		summary, err := service.Run(context.Background(), kind)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return SummaryMsg{Kind: kind, Summary: summary}
	}
}

func (m Model) quarantineSelected() tea.Cmd {
	if len(m.selected) == 0 {
		return nil
	}
	ids := make([]string, 0, len(m.selected))
	for id := range m.selected {
		ids = append(ids, id)
	}
	service := m.service
	return func() tea.Msg {
		if err := service.Quarantine(context.Background(), ids); err != nil {
			return ErrMsg{Err: err}
		}
		return quarantinedMsg{count: len(ids)}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the data quality pane.
func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.TableHeader.Render("Validation: "+m.kind) + "  ")
	b.WriteString(t.TableCaption.Render("t: switch kind, R: re-run") + "\n")

	if !m.loaded {
		b.WriteString(t.TableCaption.Render("loading...") + "\n")
		return b.String()
	}

	b.WriteString(m.renderCounts())
	b.WriteString("\n")

	rows := m.rows()
	highCount := m.highCount()

	b.WriteString(t.TableHeader.Render("High priority ("+util.FormatCount(highCount)+")") + "\n")
	if highCount == 0 {
		b.WriteString(t.TableCaption.Render("none") + "\n")
	}
	for i, f := range rows {
		if i == highCount {
			b.WriteString("\n")
			b.WriteString(m.renderLowerHeader())
			b.WriteString("\n")
		}
		b.WriteString(m.renderFinding(f, i) + "\n")
	}
	if m.expanded && highCount == len(rows) {
		b.WriteString("\n" + m.renderLowerHeader() + "\n")
		b.WriteString(t.TableCaption.Render("none") + "\n")
	}
	if !m.expanded {
		_, lower := validation.Partition(m.summary.Findings)
		b.WriteString("\n" + t.TableCaption.Render("x: show "+util.FormatCount(len(lower))+" lower-priority findings") + "\n")
	} else if caption := m.lowerPage().Caption(); caption != "" {
		b.WriteString(t.TableCaption.Render(caption+"  (+/-: page size "+util.FormatCount(m.pageSize)+")") + "\n")
	}

	if len(m.selected) > 0 {
		b.WriteString("\n" + t.PillInfo.Render(util.FormatCount(len(m.selected))+" selected  Q: quarantine") + "\n")
	}

	return b.String()
}

func (m Model) renderCounts() string {
	t := m.theme
	parts := []string{t.PillInfo.Render(util.FormatCount(m.summary.Total) + " findings")}
	if n := m.summary.CountsBySeverity[model.SeverityHigh]; n > 0 {
		parts = append(parts, t.PillErr.Render(util.FormatCount(n)+" high"))
	}
	if n := m.summary.CountsBySeverity[model.SeverityMedium]; n > 0 {
		parts = append(parts, t.PillWarn.Render(util.FormatCount(n)+" medium"))
	}
	if n := m.summary.CountsBySeverity[model.SeverityLow]; n > 0 {
		parts = append(parts, t.PillOK.Render(util.FormatCount(n)+" low"))
	}
	return strings.Join(parts, " ") + "\n"
}

func (m Model) renderLowerHeader() string {
	label := "Lower priority"
	if m.filter != validation.FilterAll {
		label += " [" + m.filter + "]"
	}
	return m.theme.TableHeader.Render(label) + "  " + m.theme.TableCaption.Render("f: filter, x: collapse")
}

func (m Model) renderFinding(f model.Finding, index int) string {
	mark := "  "
	if m.selected[f.ID] {
		mark = "* "
	}
	subject := f.URL
	if subject == "" {
		subject = f.Title
	}
	line := mark + padCell(f.Severity, 8) + padCell(util.TruncateWidth(subject, m.width/2), m.width/2+2) + f.Reason
	line = util.TruncateWidth(line, m.width-2)
	if index == m.cursor {
		return m.theme.TableRowSelected.Render(line)
	}
	return m.theme.TableRow.Render(line)
}

func padCell(s string, width int) string {
	return util.PadRight(util.TruncateWidth(s, width-1), width)
}
