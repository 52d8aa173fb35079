// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/todddb/ragai-console/internal/ui/styles"
)

// =============================================================================
// TYPED CONFIRMATION MODAL
// =============================================================================

// ConfirmResult is the outcome of a modal interaction.
type ConfirmResult int

const (
	ConfirmPending ConfirmResult = iota
	ConfirmAccepted
	ConfirmCancelled
)

// ConfirmModal gates a destructive action behind typing an exact
// phrase. The action only fires when the input matches the phrase
// case-sensitively; Enter with anything else does nothing.
type ConfirmModal struct {
	theme *styles.Theme

	title  string
	body   string
	phrase string
	input  textinput.Model
	active bool
}

// NewConfirmModal creates an inactive modal requiring phrase to confirm.
func NewConfirmModal(theme *styles.Theme, phrase string) *ConfirmModal {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 64
	return &ConfirmModal{theme: theme, phrase: phrase, input: ti}
}

// Open activates the modal for a specific action.
func (m *ConfirmModal) Open(title, body string) {
	m.title = title
	m.body = body
	m.input.SetValue("")
	m.input.Focus()
	m.active = true
}

// Active reports whether the modal is capturing input.
func (m *ConfirmModal) Active() bool {
	return m.active
}

// Update handles a key press while active. ConfirmAccepted is returned
// only when Enter is pressed with the exact phrase typed.
func (m *ConfirmModal) Update(msg tea.KeyMsg) (ConfirmResult, tea.Cmd) {
	if !m.active {
		return ConfirmPending, nil
	}

	switch msg.Type {
	case tea.KeyEsc:
		m.active = false
		return ConfirmCancelled, nil
	case tea.KeyEnter:
		if m.input.Value() == m.phrase {
			m.active = false
			return ConfirmAccepted, nil
		}
		// Wrong phrase, keep waiting.
		return ConfirmPending, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return ConfirmPending, cmd
}

// View renders the modal box.
func (m *ConfirmModal) View() string {
	if !m.active {
		return ""
	}
	t := m.theme

	var b strings.Builder
	b.WriteString(t.StatusError.Render(m.title) + "\n\n")
	if m.body != "" {
		b.WriteString(t.ModalBody.Render(m.body) + "\n\n")
	}
	b.WriteString(t.ModalBody.Render("Type "+m.phrase+" to confirm, Esc to cancel.") + "\n")
	b.WriteString(m.input.View())

	return t.ModalDanger.Render(b.String())
}
