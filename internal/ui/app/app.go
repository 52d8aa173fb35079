// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model: the tab bar, the
// conversation sidebar, view routing, the status bar, and the admin
// session lifecycle.
package app

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/config"
	"github.com/todddb/ragai-console/internal/crawlcfg"
	"github.com/todddb/ragai-console/internal/health"
	"github.com/todddb/ragai-console/internal/session"
	"github.com/todddb/ragai-console/internal/state"
	"github.com/todddb/ragai-console/internal/ui/chat"
	"github.com/todddb/ragai-console/internal/ui/components"
	"github.com/todddb/ragai-console/internal/ui/crawl"
	"github.com/todddb/ragai-console/internal/ui/data"
	"github.com/todddb/ragai-console/internal/ui/healthview"
	"github.com/todddb/ragai-console/internal/ui/jobs"
	"github.com/todddb/ragai-console/internal/ui/sidebar"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/validation"
)

// =============================================================================
// TABS
// =============================================================================

type tab int

const (
	tabChat tab = iota
	tabCrawl
	tabJobs
	tabIngest
	tabData
	tabHealth
	tabCount
)

var tabTitles = [tabCount]string{"Chat", "Crawl", "Jobs", "Ingest", "Data", "Health"}

// adminTabs require an unlocked admin session.
var adminTabs = map[tab]bool{
	tabCrawl:  true,
	tabJobs:   true,
	tabIngest: true,
	tabData:   true,
	tabHealth: true,
}

// =============================================================================
// MESSAGES
// =============================================================================

// ConfigChangedMsg is sent by the config watcher when the file reloads.
type ConfigChangedMsg struct {
	Config *config.Config
}

type unlockedMsg struct{}

type unlockFailedMsg struct {
	err error
}

// =============================================================================
// APP MODEL
// =============================================================================

// Model is the root application model.
type Model struct {
	cfg   *config.Config
	log   *logrus.Logger
	theme *styles.Theme

	client     *api.Client
	state      *state.Store
	controller *session.Controller

	status  *components.StatusBar
	sidebar sidebar.Model
	chat    chat.Model
	crawl   crawl.Model
	jobs    jobs.Model
	data    data.Model
	health  healthview.Model

	tab          tab
	focusSidebar bool

	unlockInput  textinput.Model
	unlockActive bool

	width  int
	height int
}

// New wires the whole application together.
func New(cfg *config.Config, client *api.Client, st *state.Store, log *logrus.Logger) Model {
	theme := styles.NewTheme(cfg.UI.Theme)
	controller := session.NewController(client, log)
	crawlStore := crawlcfg.NewStore(client, log)

	status := components.NewStatusBar(theme)
	status.SetConnection(client.BaseURL(), false)
	status.SetUnlocked(st.AdminUnlocked())

	unlock := textinput.New()
	unlock.Prompt = "admin token: "
	unlock.EchoMode = textinput.EchoPassword
	unlock.CharLimit = 256

	return Model{
		cfg:         cfg,
		log:         log,
		theme:       theme,
		client:      client,
		state:       st,
		controller:  controller,
		status:      status,
		sidebar:     sidebar.New(theme, st, controller),
		chat:        chat.New(theme, controller, log, cfg.UI.MarkdownStyle, cfg.Downloads.Dir),
		crawl:       crawl.New(theme, crawlStore, log),
		jobs:        jobs.New(theme, client, log, cfg.Downloads.Dir),
		data:        data.New(theme, validation.NewService(client), st, log),
		health:      healthview.New(theme, health.NewService(client), log),
		unlockInput: unlock,
	}
}

// Init starts the background refreshes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.chat.Init(),
		m.jobs.Init(),
		m.sidebar.Refresh(),
		m.health.Refresh(),
	)
}

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages: keys go to the focused surface, everything
// else fans out so background streams keep feeding inactive views.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ConfigChangedMsg:
		m.cfg = msg.Config
		m.log.Info("configuration reloaded")
		return m, nil

	case unlockedMsg:
		m.state.SetAdminUnlocked(true)
		m.status.SetUnlocked(true)
		m.status.SetError("")
		return m, m.refreshAdmin()

	case unlockFailedMsg:
		m.status.SetError("unlock failed: " + msg.err.Error())
		return m, nil

	// Sidebar intents.
	case sidebar.SelectMsg:
		m.tab = tabChat
		m.focusSidebar = false
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return m, tea.Batch(cmd, m.chat.OpenConversation(msg.ID))
	case sidebar.NewConversationMsg:
		m.tab = tabChat
		m.focusSidebar = false
		return m, m.chat.StartConversation()
	case sidebar.DeleteMsg:
		return m, m.deleteConversation(msg.ID)

	// Cross-view notifications.
	case chat.TitleChangedMsg:
		return m, m.sidebar.Refresh()
	case chat.ExportedMsg:
		m.status.SetHint("exported to " + msg.Path)
	case jobs.ExportedMsg:
		m.status.SetHint("exported to " + msg.Path)

	// Failures land on the status bar; a 401 means the admin session is
	// gone server-side and every admin surface must be torn down.
	case chat.ErrMsg:
		return m.handleError(msg.Err)
	case sidebar.ErrMsg:
		return m.handleError(msg.Err)
	case crawl.ErrMsg:
		return m.handleError(msg.Err)
	case jobs.ErrMsg:
		return m.handleError(msg.Err)
	case data.ErrMsg:
		return m.handleError(msg.Err)
	case healthview.ErrMsg:
		return m.handleError(msg.Err)

	case healthview.HealthMsg:
		m.status.SetConnection(m.client.BaseURL(), msg.APIOk)
	}

	return m.fanOut(msg)
}

// fanOut delivers a non-key message to every view.
func (m Model) fanOut(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	m.sidebar, cmd = m.sidebar.Update(msg)
	cmds = append(cmds, cmd)
	m.chat, cmd = m.chat.Update(msg)
	cmds = append(cmds, cmd)
	m.crawl, cmd = m.crawl.Update(msg)
	cmds = append(cmds, cmd)
	m.jobs, cmd = m.jobs.Update(msg)
	cmds = append(cmds, cmd)
	m.data, cmd = m.data.Update(msg)
	cmds = append(cmds, cmd)
	m.health, cmd = m.health.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) handleError(err error) (tea.Model, tea.Cmd) {
	if err == nil {
		return m, nil
	}
	if api.IsStatus(err, 401) {
		m.resetAdminSession()
		return m, nil
	}
	m.status.SetError(err.Error())
	if api.IsConnectionError(err) {
		m.status.SetConnection(m.client.BaseURL(), false)
	}
	return m, nil
}

// resetAdminSession tears down everything that assumed admin access:
// open log streams, the ingest watch, and the persisted unlocked flag.
func (m *Model) resetAdminSession() {
	m.jobs.CloseStreams()
	m.controller.CloseStream()
	m.state.SetAdminUnlocked(false)
	m.status.SetUnlocked(false)
	m.status.SetError("admin session expired; press ctrl+u to unlock")
	if adminTabs[m.tab] {
		m.tab = tabChat
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.unlockActive {
		return m.handleUnlockKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		m.jobs.CloseStreams()
		m.controller.CloseStream()
		return m, tea.Quit
	case "ctrl+t":
		return m.switchTab((m.tab + 1) % tabCount), nil
	case "f1":
		return m.switchTab(tabChat), nil
	case "f2":
		return m.switchTab(tabCrawl), nil
	case "f3":
		return m.switchTab(tabJobs), nil
	case "f4":
		return m.switchTab(tabIngest), nil
	case "f5":
		return m.switchTab(tabData), nil
	case "f6":
		return m.switchTab(tabHealth), nil
	case "ctrl+b":
		m.sidebar.ToggleCollapsed()
		m.layout()
		return m, nil
	case "ctrl+s":
		if !m.sidebar.Collapsed() {
			m.focusSidebar = !m.focusSidebar
		}
		return m, nil
	case "ctrl+u":
		m.unlockActive = true
		m.unlockInput.SetValue("")
		m.unlockInput.Focus()
		return m, nil
	}

	if m.focusSidebar {
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		m.layout()
		return m, cmd
	}

	return m.updateActive(msg)
}

func (m Model) handleUnlockKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.unlockActive = false
		m.unlockInput.Blur()
		return m, nil
	case tea.KeyEnter:
		token := m.unlockInput.Value()
		m.unlockActive = false
		m.unlockInput.Blur()
		if token == "" {
			return m, nil
		}
		return m, m.unlock(token)
	}

	var cmd tea.Cmd
	m.unlockInput, cmd = m.unlockInput.Update(msg)
	return m, cmd
}

func (m Model) unlock(token string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.PostJSON(context.Background(), "/api/admin/unlock",
			map[string]string{"token": token}, nil)
		if err != nil {
			return unlockFailedMsg{err: err}
		}
		return unlockedMsg{}
	}
}

// switchTab activates a tab. Admin tabs stay reachable while locked so
// their locked placeholder can explain the gate.
func (m Model) switchTab(next tab) Model {
	m.tab = next
	m.focusSidebar = false
	return m
}

// refreshAdmin reloads every admin surface. Runs once on unlock so the
// crawl and data tabs arrive populated, whichever tab was active when
// the token went in.
func (m Model) refreshAdmin() tea.Cmd {
	return tea.Batch(
		m.crawl.Refresh(),
		m.jobs.Refresh(),
		m.data.Refresh(),
		m.health.Refresh(),
	)
}

// updateActive delivers a key to the active tab's view.
func (m Model) updateActive(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if adminTabs[m.tab] && !m.state.AdminUnlocked() {
		return m, nil
	}

	var cmd tea.Cmd
	switch m.tab {
	case tabChat:
		m.chat, cmd = m.chat.Update(msg)
	case tabCrawl:
		m.crawl, cmd = m.crawl.Update(msg)
	case tabJobs, tabIngest:
		m.jobs, cmd = m.jobs.Update(msg)
	case tabData:
		m.data, cmd = m.data.Update(msg)
	case tabHealth:
		m.health, cmd = m.health.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) deleteConversation(id string) tea.Cmd {
	controller := m.controller
	refresh := m.sidebar.Refresh()
	return func() tea.Msg {
		if err := controller.Delete(context.Background(), id); err != nil {
			return sidebar.ErrMsg{Err: err}
		}
		return refresh()
	}
}

// =============================================================================
// LAYOUT AND VIEW
// =============================================================================

// layout pushes the current dimensions into every view. The sidebar is
// sized first since its width decides the content column.
func (m *Model) layout() {
	contentHeight := m.height - 2 // tab bar + status bar
	if contentHeight < 1 {
		contentHeight = 1
	}

	m.sidebar.SetSize(m.width, contentHeight)
	contentWidth := m.width - m.sidebar.WidthColumns()
	if contentWidth < 20 {
		contentWidth = 20
	}

	m.chat.SetSize(contentWidth, contentHeight)
	m.crawl.SetSize(contentWidth, contentHeight)
	m.jobs.SetSize(contentWidth, contentHeight)
	m.data.SetSize(contentWidth, contentHeight)
	m.health.SetSize(contentWidth, contentHeight)
}

// View renders the full frame.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}

	var frame strings.Builder
	frame.WriteString(m.renderTabBar())
	frame.WriteString("\n")

	content := m.renderContent()
	if cols := m.sidebar.WidthColumns(); cols > 0 {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), content)
	}
	frame.WriteString(content)
	frame.WriteString("\n")

	if m.unlockActive {
		frame.WriteString(m.theme.InputContainer.Width(m.width - 2).Render(m.unlockInput.View()))
		frame.WriteString("\n")
	}

	frame.WriteString(m.status.View(m.width))
	return frame.String()
}

func (m Model) renderTabBar() string {
	var tabs []string
	for t := tab(0); t < tabCount; t++ {
		title := tabTitles[t]
		switch {
		case t == m.tab:
			tabs = append(tabs, m.theme.TabActive.Render(title))
		case adminTabs[t] && !m.state.AdminUnlocked():
			tabs = append(tabs, m.theme.TabDisabled.Render(title))
		default:
			tabs = append(tabs, m.theme.Tab.Render(title))
		}
	}
	return m.theme.TabBar.Width(m.width).Render(strings.Join(tabs, " "))
}

func (m Model) renderContent() string {
	if adminTabs[m.tab] && !m.state.AdminUnlocked() {
		return m.theme.ModalBody.Render("\n  Admin access is locked. Press ctrl+u and enter the admin token.\n")
	}

	switch m.tab {
	case tabChat:
		return m.chat.View()
	case tabCrawl:
		return m.crawl.View()
	case tabJobs, tabIngest:
		return m.jobs.View()
	case tabData:
		return m.data.View()
	case tabHealth:
		return m.health.View()
	}
	return ""
}
