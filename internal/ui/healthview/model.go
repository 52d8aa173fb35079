// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package healthview renders the pipeline health view: the status card
// grid, the cross-system URL check tiles, text search, and the guarded
// reset actions.
package healthview

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/todddb/ragai-console/internal/health"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/ui/components"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// MESSAGES
// =============================================================================

// HealthMsg carries a refreshed pipeline snapshot.
type HealthMsg struct {
	Pipeline model.PipelineHealth
	APIOk    bool
}

// ErrMsg carries a view-level failure for the status bar.
type ErrMsg struct {
	Err error
}

type checkedMsg struct {
	result model.CheckURLResult
}

type searchedMsg struct {
	query  string
	result model.SearchResult
}

type resetDoneMsg struct {
	scope string
}

// input modes for the shared text input.
type inputMode int

const (
	inputNone inputMode = iota
	inputCheckURL
	inputSearch
)

// =============================================================================
// HEALTH MODEL
// =============================================================================

// Model is the health view.
type Model struct {
	theme   *styles.Theme
	log     *logrus.Logger
	service *health.Service

	grid    *components.CardGrid
	confirm *components.ConfirmModal
	input   textinput.Model
	mode    inputMode

	pipeline model.PipelineHealth
	apiOk    bool
	loaded   bool

	checkResult *model.CheckURLResult
	showRaw     bool
	searchQuery string
	search      *model.SearchResult

	// pendingReset is the scope armed behind the confirm modal.
	pendingReset string

	width  int
	height int
}

// New creates the health view.
func New(theme *styles.Theme, service *health.Service, log *logrus.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 2048

	return Model{
		theme:   theme,
		log:     log,
		service: service,
		grid:    components.NewCardGrid(theme),
		confirm: components.NewConfirmModal(theme, health.ConfirmPhrase),
		input:   ti,
	}
}

// Refresh reloads the API and pipeline health.
func (m Model) Refresh() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		_, apiErr := service.API(context.Background())
		pipeline, err := service.Pipeline(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return HealthMsg{Pipeline: pipeline, APIOk: apiErr == nil}
	}
}

// SetSize records the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case HealthMsg:
		m.pipeline = msg.Pipeline
		m.apiOk = msg.APIOk
		m.loaded = true
		return m, nil

	case checkedMsg:
		result := msg.result
		m.checkResult = &result
		return m, nil

	case searchedMsg:
		m.searchQuery = msg.query
		result := msg.result
		m.search = &result
		return m, nil

	case resetDoneMsg:
		return m, m.Refresh()

	case tea.KeyMsg:
		if m.confirm.Active() {
			result, cmd := m.confirm.Update(msg)
			switch result {
			case components.ConfirmAccepted:
				scope := m.pendingReset
				m.pendingReset = ""
				return m, tea.Batch(cmd, m.reset(scope))
			case components.ConfirmCancelled:
				m.pendingReset = ""
			}
			return m, cmd
		}
		if m.mode != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.mode = inputNone
		m.input.Blur()
		if value == "" {
			return m, nil
		}
		if mode == inputCheckURL {
			return m, m.checkURL(value)
		}
		return m, m.runSearch(value)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		return m, m.Refresh()
	case "o":
		m.showRaw = !m.showRaw
	case "u":
		return m.openInput(inputCheckURL), nil
	case "s":
		return m.openInput(inputSearch), nil
	case "1":
		return m.armReset(health.ResetArtifacts, "Reset artifacts",
			"This deletes every captured artifact."), nil
	case "2":
		return m.armReset(health.ResetQdrant, "Reset Qdrant",
			"This drops the vector collection."), nil
	case "3":
		return m.armReset(health.ResetAll, "Reset everything",
			"This deletes artifacts, the vector collection, and job history."), nil
	case "4":
		return m.armReset("ingest", "Reset ingest state",
			"This clears ingest bookkeeping so the next run starts from scratch."), nil
	}
	return m, nil
}

func (m Model) openInput(mode inputMode) Model {
	m.mode = mode
	m.input.SetValue("")
	m.input.Focus()
	return m
}

func (m Model) armReset(scope, title, body string) Model {
	m.pendingReset = scope
	m.confirm.Open(title, body+" Type DELETE to confirm.")
	return m
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) checkURL(url string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		result, err := service.CheckURL(context.Background(), url)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return checkedMsg{result: result}
	}
}

func (m Model) runSearch(query string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		result, err := service.Search(context.Background(), query)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return searchedMsg{query: query, result: result}
	}
}

func (m Model) reset(scope string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		var err error
		if scope == "ingest" {
			err = service.ResetIngest(context.Background(), health.ConfirmPhrase)
		} else {
			err = service.Reset(context.Background(), scope, health.ConfirmPhrase)
		}
		if err != nil {
			return ErrMsg{Err: err}
		}
		return resetDoneMsg{scope: scope}
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the health pane.
func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	if !m.loaded {
		b.WriteString(t.TableCaption.Render("loading..."))
		return b.String()
	}

	api := t.PillOK.Render("API up")
	if !m.apiOk {
		api = t.PillErr.Render("API down")
	}
	b.WriteString(api + "\n\n")

	b.WriteString(m.grid.View(health.Cards(m.pipeline), m.width))
	b.WriteString("\n")

	if m.checkResult != nil {
		b.WriteString(m.renderCheckTiles())
		b.WriteString("\n")
		if m.showRaw {
			b.WriteString(m.renderRawPayloads())
			b.WriteString("\n")
		}
	}

	if m.search != nil {
		b.WriteString(m.renderSearch())
		b.WriteString("\n")
	}

	if m.mode != inputNone {
		label := "Check URL"
		if m.mode == inputSearch {
			label = "Search"
		}
		b.WriteString(t.TableHeader.Render(label) + "\n")
		b.WriteString(t.InputContainer.Width(m.width - 2).Render(m.input.View()) + "\n")
	}

	if m.confirm.Active() {
		b.WriteString("\n" + m.confirm.View())
	} else {
		b.WriteString("\n" + t.TableCaption.Render("u: check url, s: search, 1-4: resets, r: refresh"))
	}

	return b.String()
}

// renderCheckTiles shows where a URL landed in each pipeline stage.
func (m Model) renderCheckTiles() string {
	r := m.checkResult
	cards := []health.Card{
		checkTile("Artifact", r.Artifact, "content_type", "size"),
		checkTile("Validation", r.Validation, "severity", "reason"),
		checkTile("Ingest", r.Ingest, "status", "chunks"),
		checkTile("Qdrant", r.Qdrant, "points", "collection"),
	}
	header := m.theme.TableHeader.Render("URL: " + util.TruncateWidth(r.URL, m.width-8))
	return header + "\n" + m.grid.View(cards, m.width)
}

// renderRawPayloads shows the stage payloads as highlighted JSON.
func (m Model) renderRawPayloads() string {
	r := m.checkResult
	var b strings.Builder
	for _, stage := range []struct {
		name string
		raw  []byte
	}{
		{"artifact", r.Artifact},
		{"validation", r.Validation},
		{"ingest", r.Ingest},
		{"qdrant", r.Qdrant},
	} {
		if len(stage.raw) == 0 {
			continue
		}
		b.WriteString(m.theme.TableCaption.Render(stage.name) + "\n")
		b.WriteString(highlightJSON(stage.raw) + "\n")
	}
	return b.String()
}

// highlightJSON pretty-prints and colors a payload, falling back to the
// raw bytes when either step fails.
func highlightJSON(raw []byte) string {
	pretty := raw
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err == nil {
		if out, err := json.MarshalIndent(doc, "", "  "); err == nil {
			pretty = out
		}
	}
	var b strings.Builder
	if err := quick.Highlight(&b, string(pretty), "json", "terminal256", "monokai"); err != nil {
		return string(pretty)
	}
	return b.String()
}

// checkTile folds one stage's raw payload into a card. A missing payload
// or a false "found" field reads as absent.
func checkTile(title string, raw []byte, fields ...string) health.Card {
	if len(raw) == 0 {
		return health.Card{Title: title, Status: health.StatusWarn, Lines: []string{"not found"}}
	}
	doc := gjson.ParseBytes(raw)
	if found := doc.Get("found"); found.Exists() && !found.Bool() {
		return health.Card{Title: title, Status: health.StatusWarn, Lines: []string{"not found"}}
	}

	lines := []string{"found"}
	for _, field := range fields {
		if v := doc.Get(field); v.Exists() {
			lines = append(lines, field+": "+v.String())
		}
	}
	return health.Card{Title: title, Status: health.StatusOK, Lines: lines}
}

func (m Model) renderSearch() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.TableHeader.Render("Search: "+m.searchQuery) + "\n")

	b.WriteString(t.TableCaption.Render("Artifacts ("+strconv.Itoa(len(m.search.Artifacts))+")") + "\n")
	b.WriteString(m.renderMatches(m.search.Artifacts))
	b.WriteString(t.TableCaption.Render("Qdrant ("+strconv.Itoa(len(m.search.Qdrant))+")") + "\n")
	b.WriteString(m.renderMatches(m.search.Qdrant))
	return b.String()
}

func (m Model) renderMatches(matches []model.SearchMatch) string {
	if len(matches) == 0 {
		return m.theme.TableRow.Render("  no matches") + "\n"
	}
	var b strings.Builder
	for _, match := range matches {
		subject := match.URL
		if subject == "" {
			subject = match.Title
		}
		line := "  " + util.TruncateWidth(subject, m.width/2)
		if match.Snippet != "" {
			line += "  " + util.TruncateWidth(match.Snippet, m.width/3)
		}
		b.WriteString(m.theme.TableRow.Render(util.TruncateWidth(line, m.width-2)) + "\n")
	}
	return b.String()
}
