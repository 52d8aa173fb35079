// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sidebar provides the conversation list pane.
//
// The sidebar's width is persisted in the state store in the original
// unit scale (eighths of a column); rendering divides by 8 and clamps
// to the terminal. Collapsing hides the pane but preserves the
// preferred width, so expanding restores the previous size.
package sidebar

import (
	"context"
	"sort"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/session"
	"github.com/todddb/ragai-console/internal/state"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// widthStep is one resize keypress in stored units (2 columns).
const widthStep = 16

// =============================================================================
// MESSAGES
// =============================================================================

// ConversationsMsg carries a refreshed conversation list.
type ConversationsMsg struct {
	Conversations []model.Conversation
}

// SelectMsg asks the app to open a conversation in the chat view.
type SelectMsg struct {
	ID string
}

// NewConversationMsg asks the app to start a fresh conversation.
type NewConversationMsg struct{}

// DeleteMsg asks the app to delete a conversation.
type DeleteMsg struct {
	ID string
}

// ErrMsg carries a refresh failure.
type ErrMsg struct {
	Err error
}

// =============================================================================
// SIDEBAR MODEL
// =============================================================================

// Model is the conversation sidebar.
type Model struct {
	theme      *styles.Theme
	store      *state.Store
	controller *session.Controller

	conversations []model.Conversation
	selected      int

	collapsed  bool
	widthUnits int
	termWidth  int
	height     int
}

// New creates the sidebar with persisted preferences applied.
func New(theme *styles.Theme, store *state.Store, controller *session.Controller) Model {
	return Model{
		theme:      theme,
		store:      store,
		controller: controller,
		collapsed:  store.SidebarCollapsed(),
		widthUnits: store.SidebarWidth(),
	}
}

// Refresh fetches the conversation list.
func (m Model) Refresh() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		list, err := controller.List(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ConversationsMsg{Conversations: list}
	}
}

// SetSize records the terminal dimensions.
func (m *Model) SetSize(termWidth, height int) {
	m.termWidth = termWidth
	m.height = height
}

// Collapsed reports whether the pane is hidden.
func (m Model) Collapsed() bool {
	return m.collapsed
}

// ToggleCollapsed flips visibility, preserving the preferred width.
func (m *Model) ToggleCollapsed() {
	m.collapsed = !m.collapsed
	m.store.SetSidebarCollapsed(m.collapsed)
}

// WidthColumns returns the rendered width in terminal columns: the
// stored unit width divided by 8, clamped so the main pane keeps room.
func (m Model) WidthColumns() int {
	if m.collapsed {
		return 0
	}
	cols := state.ClampSidebarWidth(m.widthUnits) / 8
	max := m.termWidth / 2
	if max > 0 && cols > max {
		cols = max
	}
	return cols
}

// Widen grows the preferred width by one step.
func (m *Model) Widen() {
	m.widthUnits = state.ClampSidebarWidth(m.widthUnits + widthStep)
	m.store.SetSidebarWidth(m.widthUnits)
}

// Narrow shrinks the preferred width by one step.
func (m *Model) Narrow() {
	m.widthUnits = state.ClampSidebarWidth(m.widthUnits - widthStep)
	m.store.SetSidebarWidth(m.widthUnits)
}

// Selected returns the highlighted conversation, or nil.
func (m Model) Selected() *model.Conversation {
	if m.selected < 0 || m.selected >= len(m.conversations) {
		return nil
	}
	return &m.conversations[m.selected]
}

// Update handles sidebar messages and focused key input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case ConversationsMsg:
		m.conversations = msg.Conversations
		// Newest activity first.
		sort.SliceStable(m.conversations, func(i, j int) bool {
			return m.conversations[i].UpdatedAt.After(m.conversations[j].UpdatedAt)
		})
		if m.selected >= len(m.conversations) {
			m.selected = len(m.conversations) - 1
		}
		if m.selected < 0 {
			m.selected = 0
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.conversations)-1 {
			m.selected++
		}
	case "enter":
		if c := m.Selected(); c != nil {
			id := c.ID
			return m, func() tea.Msg { return SelectMsg{ID: id} }
		}
	case "n":
		return m, func() tea.Msg { return NewConversationMsg{} }
	case "d":
		if c := m.Selected(); c != nil {
			id := c.ID
			return m, func() tea.Msg { return DeleteMsg{ID: id} }
		}
	case "[":
		m.Narrow()
	case "]":
		m.Widen()
	}
	return m, nil
}

// View renders the pane. Collapsed renders nothing.
func (m Model) View() string {
	if m.collapsed {
		return ""
	}
	t := m.theme
	cols := m.WidthColumns()

	lines := make([]string, 0, len(m.conversations)+2)
	lines = append(lines, t.SidebarTitle.Render("Conversations"))

	visible := m.height - 3
	if visible < 1 {
		visible = 1
	}
	start := 0
	if m.selected >= visible {
		start = m.selected - visible + 1
	}
	end := start + visible
	if end > len(m.conversations) {
		end = len(m.conversations)
	}

	activeID := m.controller.ConversationID()
	for i := start; i < end; i++ {
		c := &m.conversations[i]
		label := util.TruncateWidth(c.DisplayTitle(), cols-4)
		marker := "  "
		if c.ID == activeID {
			marker = "• "
		}
		style := t.SidebarItem
		if i == m.selected {
			style = t.SidebarSelected
		}
		lines = append(lines, style.Render(marker+label))
	}

	if len(m.conversations) == 0 {
		lines = append(lines, t.SidebarMeta.Render("no conversations"))
	}

	body := ""
	for i, l := range lines {
		if i > 0 {
			body += "\n"
		}
		body += l
	}
	return t.Sidebar.Width(cols - 1).Height(m.height).Render(body)
}
