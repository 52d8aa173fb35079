// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package crawl provides the crawl configuration view: seeds, blocked
// domains, allow rules, recommendations, and auth profiles, with
// per-row save indicators.
package crawl

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/todddb/ragai-console/internal/crawlcfg"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/normalize"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// SECTIONS
// =============================================================================

type section int

const (
	sectionSeeds section = iota
	sectionBlocked
	sectionRules
	sectionRecommendations
	sectionProfiles
	sectionCount
)

var sectionTitles = [sectionCount]string{
	"Seed URLs",
	"Blocked Domains",
	"Allow Rules",
	"Recommendations",
	"Auth Profiles",
}

// input modes for the shared text input.
type inputMode int

const (
	inputNone inputMode = iota
	inputAddSeed
	inputAddBlocked
	inputRulePattern
	inputEditProfile
)

// =============================================================================
// MESSAGES
// =============================================================================

// RefreshedMsg signals the store reloaded from the backend.
type RefreshedMsg struct{}

// ErrMsg carries a view-level failure for the status bar.
type ErrMsg struct {
	Err error
}

type rowSavedMsg struct {
	key string
}

type rowSaveFailedMsg struct {
	key string
	err error
}

type clearSavedMsg struct {
	key string
	gen int
}

type authTestedMsg struct {
	results []model.AuthCheckResult
}

// =============================================================================
// CRAWL MODEL
// =============================================================================

// Model is the crawl configuration view.
type Model struct {
	theme *styles.Theme
	log   *logrus.Logger
	store *crawlcfg.Store

	tracker  *SaveTracker
	collator *collate.Collator

	section section
	cursor  int

	input     textinput.Model
	mode      inputMode
	inputErr  string
	allowHTTP bool

	// Copy of the rule being edited; nil when not editing a rule.
	editedRule *model.AllowRule

	// Original of the profile being edited; nil when adding a new one.
	editedProfile *model.AuthProfile

	authResults []model.AuthCheckResult

	width  int
	height int
}

// New creates the crawl view backed by a config store.
func New(theme *styles.Theme, store *crawlcfg.Store, log *logrus.Logger) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 2048

	return Model{
		theme:    theme,
		log:      log,
		store:    store,
		tracker:  NewSaveTracker(),
		collator: collate.New(language.Und, collate.IgnoreCase),
		input:    ti,
	}
}

// Refresh reloads all five configuration surfaces.
func (m Model) Refresh() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if err := store.Refresh(context.Background()); err != nil {
			return ErrMsg{Err: err}
		}
		return RefreshedMsg{}
	}
}

// SetSize records the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// =============================================================================
// SORTED VIEWS
// =============================================================================

// Display order is case-insensitive lexicographic; the store's
// canonical order on the wire may differ.

func (m *Model) sortedSeeds() []model.Seed {
	seeds := m.store.Seeds()
	sort.SliceStable(seeds, func(i, j int) bool {
		return m.collator.CompareString(seeds[i].URL, seeds[j].URL) < 0
	})
	return seeds
}

func (m *Model) sortedBlocked() []string {
	blocked := m.store.Blocked()
	sort.SliceStable(blocked, func(i, j int) bool {
		return m.collator.CompareString(blocked[i], blocked[j]) < 0
	})
	return blocked
}

func (m *Model) sortedRules() []model.AllowRule {
	rules := m.store.AllowRules()
	sort.SliceStable(rules, func(i, j int) bool {
		return m.collator.CompareString(rules[i].Pattern, rules[j].Pattern) < 0
	})
	return rules
}

func (m *Model) sortedProfiles() []model.AuthProfile {
	settings := m.store.Playwright()
	profiles := make([]model.AuthProfile, 0, len(settings.AuthProfiles))
	for name, p := range settings.AuthProfiles {
		p.Name = name
		profiles = append(profiles, p)
	}
	sort.SliceStable(profiles, func(i, j int) bool {
		return m.collator.CompareString(profiles[i].Name, profiles[j].Name) < 0
	})
	return profiles
}

func (m *Model) sectionLen() int {
	switch m.section {
	case sectionSeeds:
		return len(m.store.Seeds())
	case sectionBlocked:
		return len(m.store.Blocked())
	case sectionRules:
		return len(m.store.AllowRules())
	case sectionRecommendations:
		recs, _ := m.store.VisibleRecommendations()
		return len(recs)
	case sectionProfiles:
		return len(m.sortedProfiles())
	}
	return 0
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case RefreshedMsg:
		m.clampCursor()
		return m, nil

	case rowSavedMsg:
		gen := m.tracker.MarkSaved(msg.key)
		key := msg.key
		clear := tea.Tick(savedClearDelay, func(time.Time) tea.Msg {
			return clearSavedMsg{key: key, gen: gen}
		})
		return m, tea.Batch(clear, m.Refresh())

	case rowSaveFailedMsg:
		m.tracker.MarkError(msg.key, msg.err)
		return m, func() tea.Msg { return ErrMsg{Err: msg.err} }

	case clearSavedMsg:
		m.tracker.ClearSaved(msg.key, msg.gen)
		return m, nil

	case authTestedMsg:
		m.authResults = msg.results
		return m, nil

	case tea.KeyMsg:
		if m.mode != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) clampCursor() {
	if n := m.sectionLen(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// handleInputKey feeds keys to the active text input.
func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = inputNone
		m.inputErr = ""
		m.input.Blur()
		if m.editedRule != nil {
			m.store.CancelEdit(crawlcfg.EditAllow)
			m.editedRule = nil
		}
		m.editedProfile = nil
		return m, nil

	case tea.KeyEnter:
		return m.submitInput()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitInput commits the text input for the current mode. A scheme
// rejection keeps the input (and its text) so the value can be fixed.
func (m Model) submitInput() (Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}

	switch m.mode {
	case inputAddSeed:
		if _, err := normalize.URLRow(value, m.allowHTTP); err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		m.mode = inputNone
		m.inputErr = ""
		m.input.Blur()
		return m, m.saveCmd("seed:"+value, func(ctx context.Context) error {
			return m.store.AddSeedFromInput(ctx, value, m.allowHTTP)
		})

	case inputAddBlocked:
		m.mode = inputNone
		m.inputErr = ""
		m.input.Blur()
		return m, m.saveCmd("blocked:"+value, func(ctx context.Context) error {
			return m.store.AddBlockedFromInput(ctx, value)
		})

	case inputRulePattern:
		if m.editedRule == nil {
			m.mode = inputNone
			return m, nil
		}
		m.editedRule.Pattern = value
		if _, err := crawlcfg.PrepareAllowRule(*m.editedRule); err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		m.mode = inputNone
		m.inputErr = ""
		m.input.Blur()
		return m, nil

	case inputEditProfile:
		profile, err := parseProfileInput(value)
		if err != nil {
			m.inputErr = err.Error()
			return m, nil
		}
		// Renaming through the input leaves the old entry in place;
		// keep the unshown fields only when the name still matches.
		if prev := m.editedProfile; prev != nil && prev.Name == profile.Name {
			profile.StartURL = prev.StartURL
			profile.UseForDomains = prev.UseForDomains
		}
		m.editedProfile = nil
		m.mode = inputNone
		m.inputErr = ""
		m.input.Blur()
		return m, m.saveCmd("profile:"+profile.Name, func(ctx context.Context) error {
			return m.store.SaveAuthProfile(ctx, profile)
		})
	}

	return m, nil
}

// handleKey processes navigation and row actions.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "tab":
		m.section = (m.section + 1) % sectionCount
		m.cursor = 0
		return m, nil
	case "shift+tab":
		m.section = (m.section + sectionCount - 1) % sectionCount
		m.cursor = 0
		return m, nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < m.sectionLen()-1 {
			m.cursor++
		}
		return m, nil
	case "r":
		return m, m.Refresh()
	case "H":
		m.allowHTTP = !m.allowHTTP
		return m, nil
	case "M":
		if m.store.NeedsLegacyMigration() {
			return m, m.saveCmd("migrate", m.store.MigrateLegacy)
		}
		return m, nil
	}

	switch m.section {
	case sectionSeeds:
		return m.handleSeedKey(msg)
	case sectionBlocked:
		return m.handleBlockedKey(msg)
	case sectionRules:
		return m.handleRuleKey(msg)
	case sectionRecommendations:
		return m.handleRecommendationKey(msg)
	case sectionProfiles:
		return m.handleProfileKey(msg)
	}
	return m, nil
}

func (m Model) handleSeedKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		return m.openInput(inputAddSeed, "https://example.edu/"), nil
	case "d":
		seeds := m.sortedSeeds()
		if m.cursor < len(seeds) {
			url := seeds[m.cursor].URL
			return m, m.saveCmd("seed:"+url, func(ctx context.Context) error {
				return m.store.RemoveSeed(ctx, url)
			})
		}
	}
	return m, nil
}

func (m Model) handleBlockedKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		return m.openInput(inputAddBlocked, "ads.example.com"), nil
	case "d":
		blocked := m.sortedBlocked()
		if m.cursor < len(blocked) {
			domain := blocked[m.cursor]
			return m, m.saveCmd("blocked:"+domain, func(ctx context.Context) error {
				return m.store.RemoveBlocked(ctx, domain)
			})
		}
	}
	return m, nil
}

func (m Model) handleRuleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	rules := m.sortedRules()

	// Actions on the edited copy.
	if m.editedRule != nil {
		switch msg.String() {
		case "m":
			if m.editedRule.Match == model.MatchExact {
				m.editedRule.Match = model.MatchPrefix
			} else {
				m.editedRule.Match = model.MatchExact
			}
			return m, nil
		case "h":
			m.editedRule.AllowHTTP = !m.editedRule.AllowHTTP
			*m.editedRule = crawlcfg.RenormalizeForAllowHTTP(*m.editedRule)
			return m, nil
		case "1", "2", "3", "4", "5":
			toggleType(&m.editedRule.Types, msg.String())
			return m, nil
		case "a":
			m.editedRule.AuthProfile = m.nextProfile(m.editedRule.AuthProfile)
			return m, nil
		case "p":
			return m.openInput(inputRulePattern, m.editedRule.Pattern), nil
		case "enter":
			return m.saveEditedRule()
		case "esc":
			m.store.CancelEdit(crawlcfg.EditAllow)
			m.editedRule = nil
			return m, nil
		}
		return m, nil
	}

	switch msg.String() {
	case "e":
		if m.cursor < len(rules) {
			rule := rules[m.cursor]
			m.store.BeginEdit(crawlcfg.EditAllow, ruleKey(rule))
			m.editedRule = &rule
		}
	case "n":
		rule := model.AllowRule{Match: model.MatchPrefix}
		m.store.BeginEdit(crawlcfg.EditAllow, "new")
		m.editedRule = &rule
		return m.openInput(inputRulePattern, ""), nil
	case "d":
		if m.cursor < len(rules) && rules[m.cursor].ID != "" {
			id := rules[m.cursor].ID
			key := ruleKey(rules[m.cursor])
			return m, m.saveCmd(key, func(ctx context.Context) error {
				return m.store.DeleteAllowRule(ctx, id)
			})
		}
	case "t":
		if m.cursor < len(rules) && rules[m.cursor].AuthProfile != "" {
			return m, m.testAuth(rules[m.cursor].AuthProfile)
		}
	}
	return m, nil
}

func (m Model) saveEditedRule() (Model, tea.Cmd) {
	rule := *m.editedRule
	m.editedRule = nil
	m.store.CancelEdit(crawlcfg.EditAllow)

	key := ruleKey(rule)
	store := m.store
	m.tracker.MarkSaving(key)
	return m, func() tea.Msg {
		if _, err := store.SaveAllowRule(context.Background(), rule); err != nil {
			return rowSaveFailedMsg{key: key, err: err}
		}
		return rowSavedMsg{key: key}
	}
}

func (m Model) handleRecommendationKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	recs, _ := m.store.VisibleRecommendations()
	switch msg.String() {
	case "enter":
		if m.cursor < len(recs) {
			rec := recs[m.cursor]
			return m, m.saveCmd("rec:"+rec.SuggestedURL, func(ctx context.Context) error {
				_, err := m.store.AddRecommendation(ctx, rec)
				return err
			})
		}
	case "x":
		m.store.ToggleRecommendationsExpanded()
		m.clampCursor()
	case "P":
		return m, m.saveCmd("rec:purge", m.store.PurgeCandidates)
	}
	return m, nil
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	profiles := m.sortedProfiles()
	switch msg.String() {
	case "a":
		m.editedProfile = nil
		return m.openInput(inputEditProfile, ""), nil
	case "e":
		if m.cursor < len(profiles) {
			p := profiles[m.cursor]
			m.editedProfile = &p
			value := p.Name + " " + p.StorageStatePath
			if p.TestURL != "" {
				value += " " + p.TestURL
			}
			return m.openInput(inputEditProfile, value), nil
		}
	case "d":
		if m.cursor < len(profiles) {
			name := profiles[m.cursor].Name
			return m, m.saveCmd("profile:"+name, func(ctx context.Context) error {
				return m.store.DeleteAuthProfile(ctx, name)
			})
		}
	case "t":
		if m.cursor < len(profiles) {
			return m, m.testAuth(profiles[m.cursor].Name)
		}
	}
	return m, nil
}

// =============================================================================
// COMMAND HELPERS
// =============================================================================

// saveCmd runs op with the row's indicator in the saving state and a
// correlation ID in the log.
func (m Model) saveCmd(key string, op func(context.Context) error) tea.Cmd {
	correlationID := m.tracker.MarkSaving(key)
	log := m.log
	return func() tea.Msg {
		log.WithField("correlation_id", correlationID).WithField("row", key).Debug("saving")
		if err := op(context.Background()); err != nil {
			return rowSaveFailedMsg{key: key, err: err}
		}
		return rowSavedMsg{key: key}
	}
}

func (m Model) testAuth(profile string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		results, err := store.TestAuth(context.Background(), profile)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return authTestedMsg{results: results}
	}
}

func (m Model) openInput(mode inputMode, value string) Model {
	m.mode = mode
	m.inputErr = ""
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
	return m
}

// nextProfile cycles the rule's profile through none and every
// configured profile name.
func (m *Model) nextProfile(current string) string {
	profiles := m.sortedProfiles()
	if len(profiles) == 0 {
		return ""
	}
	names := make([]string, 0, len(profiles)+1)
	names = append(names, "")
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	for i, n := range names {
		if n == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func toggleType(flags *model.TypeFlags, key string) {
	switch key {
	case "1":
		flags.Web = !flags.Web
	case "2":
		flags.PDF = !flags.PDF
	case "3":
		flags.DOCX = !flags.DOCX
	case "4":
		flags.XLSX = !flags.XLSX
	case "5":
		flags.PPTX = !flags.PPTX
	}
}

// parseProfileInput splits "name storage-state-path [test-url]" into a
// profile. The path is required; a profile without storage state can
// never authenticate.
func parseProfileInput(value string) (model.AuthProfile, error) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return model.AuthProfile{}, errors.New("expected: name storage-state-path [test-url]")
	}
	p := model.AuthProfile{
		Name:             fields[0],
		StorageStatePath: fields[1],
	}
	if len(fields) > 2 {
		p.TestURL = fields[2]
	}
	return p, nil
}

// ruleKey identifies a rule row for the save tracker: server ID when
// assigned, pattern for unsaved rows.
func ruleKey(rule model.AllowRule) string {
	if rule.ID != "" {
		return "rule:" + rule.ID
	}
	return "rule:" + rule.Pattern
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the crawl configuration pane.
func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	if m.store.NeedsLegacyMigration() {
		b.WriteString(t.StatusWarn.Render("Legacy Playwright settings detected. Press M to migrate to a named profile."))
		b.WriteString("\n\n")
	}

	for s := section(0); s < sectionCount; s++ {
		header := t.TableHeader.Render(sectionTitles[s])
		if s == m.section {
			header = t.TabActive.Render(sectionTitles[s])
		}
		b.WriteString(header + "\n")
		b.WriteString(m.renderSection(s))
		b.WriteString("\n")
	}

	if m.mode != inputNone {
		b.WriteString(t.InputContainer.Width(m.width - 2).Render(m.input.View()))
		b.WriteString("\n")
		if m.inputErr != "" {
			b.WriteString(t.ModalDanger.Render(m.inputErr))
			b.WriteString("\n")
		}
	}

	if len(m.authResults) > 0 {
		b.WriteString(m.renderAuthResults())
	}

	return b.String()
}

func (m Model) renderSection(s section) string {
	switch s {
	case sectionSeeds:
		return m.renderSeeds()
	case sectionBlocked:
		return m.renderBlocked()
	case sectionRules:
		return m.renderRules()
	case sectionRecommendations:
		return m.renderRecommendations()
	case sectionProfiles:
		return m.renderProfiles()
	}
	return ""
}

func (m Model) rowStyle(s section, i int) func(string) string {
	if s == m.section && i == m.cursor {
		return func(s string) string { return m.theme.TableRowSelected.Render(s) }
	}
	return func(s string) string { return m.theme.TableRow.Render(s) }
}

func (m Model) renderSeeds() string {
	var b strings.Builder
	for i, seed := range m.sortedSeeds() {
		scheme := ""
		if seed.AllowHTTP {
			scheme = " [http ok]"
		}
		line := m.tracker.Indicator("seed:"+seed.URL) + " " + util.TruncateWidth(seed.URL, m.width-14) + scheme
		b.WriteString(m.rowStyle(sectionSeeds, i)(line) + "\n")
	}
	return b.String()
}

func (m Model) renderBlocked() string {
	var b strings.Builder
	for i, domain := range m.sortedBlocked() {
		line := m.tracker.Indicator("blocked:"+domain) + " " + domain
		b.WriteString(m.rowStyle(sectionBlocked, i)(line) + "\n")
	}
	return b.String()
}

func (m Model) renderRules() string {
	overlay := m.store.Overlay()
	var b strings.Builder
	for i, rule := range m.sortedRules() {
		display := rule
		editing := false
		if m.editedRule != nil && ruleKey(*m.editedRule) == ruleKey(rule) {
			display = *m.editedRule
			editing = true
		}
		line := m.tracker.Indicator(ruleKey(rule)) + " " +
			AuthIcon(display, overlay) + " " +
			util.TruncateWidth(display.Pattern, m.width/2) +
			"  " + display.Match +
			"  " + typeSummary(display.Types) +
			httpSummary(display.AllowHTTP) +
			profileSummary(display.AuthProfile)
		if editing {
			line += "  (editing: p pattern, m match, h http, 1-5 types, a profile, enter save)"
		}
		b.WriteString(m.rowStyle(sectionRules, i)(line) + "\n")
	}
	if m.editedRule != nil && m.editedRule.ID == "" {
		b.WriteString(m.theme.TableCaption.Render("new rule: "+m.editedRule.Pattern) + "\n")
	}
	return b.String()
}

func (m Model) renderRecommendations() string {
	recs, remaining := m.store.VisibleRecommendations()
	var b strings.Builder
	for i, rec := range recs {
		line := m.tracker.Indicator("rec:"+rec.SuggestedURL) + " " + util.TruncateWidth(rec.SuggestedURL, m.width-10)
		b.WriteString(m.rowStyle(sectionRecommendations, i)(line) + "\n")
	}
	if remaining > 0 {
		b.WriteString(m.theme.TableCaption.Render("x: show all (" + util.FormatCount(remaining) + " uncovered)\n"))
	}
	return b.String()
}

func (m Model) renderProfiles() string {
	var b strings.Builder
	for i, p := range m.sortedProfiles() {
		line := m.tracker.Indicator("profile:"+p.Name) + " " + p.Name + "  " + util.TruncateWidth(p.StorageStatePath, m.width/2)
		b.WriteString(m.rowStyle(sectionProfiles, i)(line) + "\n")
	}
	return b.String()
}

func (m Model) renderAuthResults() string {
	t := m.theme
	var b strings.Builder
	b.WriteString(t.TableHeader.Render("Auth Check") + "\n")
	for _, r := range m.authResults {
		icon := IconInvalid
		if r.OK {
			icon = IconValid
		}
		line := icon + " " + r.ProfileName
		if r.ErrorReason != "" {
			line += "  " + r.ErrorReason
		} else if r.FinalURL != "" {
			line += "  " + util.TruncateWidth(r.FinalURL, m.width/2)
		}
		b.WriteString(t.TableRow.Render(line) + "\n")
	}
	return b.String()
}

func typeSummary(f model.TypeFlags) string {
	var parts []string
	if f.Web {
		parts = append(parts, "web")
	}
	if f.PDF {
		parts = append(parts, "pdf")
	}
	if f.DOCX {
		parts = append(parts, "docx")
	}
	if f.XLSX {
		parts = append(parts, "xlsx")
	}
	if f.PPTX {
		parts = append(parts, "pptx")
	}
	if len(parts) == 0 {
		return "[none]"
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func httpSummary(allowHTTP bool) string {
	if allowHTTP {
		return "  http"
	}
	return ""
}

func profileSummary(profile string) string {
	if profile == "" {
		return ""
	}
	return "  @" + profile
}
