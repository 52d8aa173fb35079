// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/session"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents the current state of the chat view.
type State int

const (
	StateReady     State = iota // Ready for input
	StateStreaming              // Receiving a streamed response
)

// =============================================================================
// MESSAGES
// =============================================================================

// ConversationLoadedMsg carries a freshly fetched transcript.
type ConversationLoadedMsg struct {
	Detail model.ConversationDetail
}

// TitleChangedMsg tells the app a conversation title may have changed,
// so the sidebar should refresh.
type TitleChangedMsg struct{}

// ExportedMsg reports where a transcript export landed.
type ExportedMsg struct {
	Path string
}

// ErrMsg carries a view-level failure for the status bar.
type ErrMsg struct {
	Err error
}

type stageMsg struct {
	stage   string
	message string
}

type streamDoneMsg struct{}

type streamFailedMsg struct {
	err error
}

type sendFailedMsg struct {
	err error
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	theme *styles.Theme
	log   *logrus.Logger

	width  int
	height int

	state State

	controller *session.Controller
	detail     model.ConversationDetail

	// Partial assistant text for the in-flight response.
	partial        string
	buffer         *StreamingBuffer
	currentStage   string
	currentMessage string

	// Stream events cross from the SSE goroutine into the Bubble Tea
	// loop through this channel.
	events chan tea.Msg

	markdown     *Markdown
	downloadsDir string

	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	errText string
}

// New creates the chat view.
func New(theme *styles.Theme, controller *session.Controller, log *logrus.Logger, markdownStyle, downloadsDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask the knowledge base..."
	ti.CharLimit = 4096
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = theme.Spinner

	return Model{
		theme:        theme,
		log:          log,
		controller:   controller,
		buffer:       NewStreamingBuffer(),
		events:       make(chan tea.Msg, 64),
		markdown:     NewMarkdown(markdownStyle, 80),
		downloadsDir: downloadsDir,
		viewport:     viewport.New(80, 20),
		input:        ti,
		spinner:      sp,
	}
}

// Init starts the event pump.
func (m Model) Init() tea.Cmd {
	return m.waitEvent()
}

// SetSize resizes the view.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 4
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	m.markdown.SetWidth(width - 4)
	m.refreshViewport()
}

// ConversationID returns the active conversation, if any.
func (m Model) ConversationID() string {
	return m.controller.ConversationID()
}

// waitEvent delivers the next stream event to the update loop.
func (m Model) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// OpenConversation switches to a conversation by id.
func (m Model) OpenConversation(id string) tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		detail, err := controller.Load(context.Background(), id)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ConversationLoadedMsg{Detail: detail}
	}
}

// StartConversation creates a fresh conversation on the backend.
func (m Model) StartConversation() tea.Cmd {
	controller := m.controller
	return func() tea.Msg {
		id, err := controller.Start(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		detail, err := controller.Load(context.Background(), id)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ConversationLoadedMsg{Detail: detail}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case ConversationLoadedMsg:
		m.detail = msg.Detail
		m.partial = ""
		m.currentStage = ""
		m.errText = ""
		m.refreshViewport()
		m.viewport.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		if chunk, ok := m.buffer.Flush(); ok {
			m.partial += chunk
			m.refreshViewport()
			m.viewport.GotoBottom()
		}
		return m, streamTickCmd()

	case stageMsg:
		m.currentStage = msg.stage
		m.currentMessage = msg.message
		return m, m.waitEvent()

	case streamDoneMsg:
		return m.finishStream()

	case streamFailedMsg:
		m.state = StateReady
		m.currentStage = ""
		if chunk, ok := m.buffer.Flush(); ok {
			m.partial += chunk
		}
		m.errText = msg.err.Error()
		m.refreshViewport()
		return m, tea.Batch(m.waitEvent(), func() tea.Msg { return ErrMsg{Err: msg.err} })

	case sendFailedMsg:
		m.state = StateReady
		m.errText = msg.err.Error()
		return m, func() tea.Msg { return ErrMsg{Err: msg.err} }

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		if m.state == StateStreaming {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			return m, nil
		}
		return m.send(text)

	case tea.KeyEsc:
		if m.state == StateStreaming {
			m.controller.CloseStream()
			m.buffer.Reset()
			m.state = StateReady
			m.currentStage = ""
			m.refreshViewport()
			return m, nil
		}

	case tea.KeyCtrlE:
		return m, m.export()

	case tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send dispatches the user's message and enters streaming state.
func (m Model) send(text string) (Model, tea.Cmd) {
	m.input.SetValue("")
	m.errText = ""

	// Show the user's message immediately.
	m.detail.Messages = append(m.detail.Messages, model.Message{
		Role:      model.RoleUser,
		Content:   encodeString(text),
		Timestamp: time.Now(),
	})
	m.partial = ""
	m.buffer.Reset()
	m.state = StateStreaming
	m.currentStage = ""
	m.refreshViewport()
	m.viewport.GotoBottom()

	events := m.events
	buffer := m.buffer
	controller := m.controller

	start := func() tea.Msg {
		err := controller.Send(context.Background(), text, session.Events{
			OnStatus: func(stage, message string) {
				events <- stageMsg{stage: stage, message: message}
			},
			OnToken: func(token string) {
				buffer.Write(token)
			},
			OnDone: func() {
				events <- streamDoneMsg{}
			},
			OnError: func(err error) {
				events <- streamFailedMsg{err: err}
			},
		})
		if err != nil {
			return sendFailedMsg{err: err}
		}
		return nil
	}

	return m, tea.Batch(start, streamTickCmd(), m.spinner.Tick)
}

// finishStream folds the completed response into the transcript and
// kicks off the reload that drives auto-titling.
func (m Model) finishStream() (Model, tea.Cmd) {
	if chunk, ok := m.buffer.Flush(); ok {
		m.partial += chunk
	}
	m.state = StateReady
	m.currentStage = ""

	controller := m.controller
	id := controller.ConversationID()
	log := m.log

	reload := func() tea.Msg {
		detail, err := controller.Load(context.Background(), id)
		if err != nil {
			log.WithError(err).Warn("post-stream reload failed")
			return ErrMsg{Err: err}
		}
		controller.MaybeAutoTitle(context.Background(), detail)
		return ConversationLoadedMsg{Detail: detail}
	}
	notify := func() tea.Msg { return TitleChangedMsg{} }

	return m, tea.Batch(m.waitEvent(), reload, notify)
}

// export writes the transcript to a JSON file.
func (m Model) export() tea.Cmd {
	controller := m.controller
	id := controller.ConversationID()
	dir := m.downloadsDir
	if id == "" {
		return nil
	}
	return func() tea.Msg {
		path, err := controller.Export(context.Background(), id, dir)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ExportedMsg{Path: path}
	}
}

// =============================================================================
// RENDERING
// =============================================================================

// refreshViewport re-renders the transcript into the viewport.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.renderTranscript())
}

func (m *Model) renderTranscript() string {
	t := m.theme
	var b strings.Builder

	for i := range m.detail.Messages {
		msg := &m.detail.Messages[i]
		switch msg.Role {
		case model.RoleUser:
			b.WriteString(t.UserMessage.Render(msg.Text()))
		case model.RoleAssistant:
			b.WriteString(m.renderAssistant(msg))
		}
		b.WriteString("\n\n")
	}

	if m.partial != "" {
		b.WriteString(t.AssistantMessage.Render(m.markdown.Render(m.partial)))
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderAssistant(msg *model.Message) string {
	t := m.theme
	content := msg.AssistantContent()
	if content == nil {
		return t.AssistantMessage.Render(m.markdown.Render(msg.Text()))
	}

	var b strings.Builder
	b.WriteString(t.AssistantMessage.Render(m.markdown.Render(content.Text)))

	citations := content.Citations
	if len(citations) == 0 {
		citations = content.Sources
	}
	for _, c := range citations {
		label := c.Title
		if label == "" {
			label = c.URL
		}
		b.WriteString("\n" + t.CitationLine.Render("  › "+util.TruncateWidth(label, m.width-6)))
	}
	return b.String()
}

// View renders the chat pane.
func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.state == StateStreaming {
		stage := m.currentStage
		if stage == "" {
			stage = "thinking"
		}
		line := m.spinner.View() + " " + stage
		if m.currentMessage != "" {
			line += ": " + m.currentMessage
		}
		b.WriteString(t.StageLine.Render(line))
		b.WriteString("\n")
	} else if m.errText != "" {
		b.WriteString(t.InputError.Render(util.TruncateWidth(m.errText, m.width-2)))
		b.WriteString("\n")
	}

	b.WriteString(t.InputContainer.Width(m.width - 2).Render(m.input.View()))
	return b.String()
}

// encodeString JSON-encodes a plain string for a Message body.
func encodeString(s string) []byte {
	data, err := json.Marshal(s)
	if err != nil {
		return []byte(`""`)
	}
	return data
}
