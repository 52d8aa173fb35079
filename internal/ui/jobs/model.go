// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package jobs renders the jobs view: the job table, the live log pane
// with its three channels, crawl summary pills, and the ingest progress
// tracker.
package jobs

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	jobsvc "github.com/todddb/ragai-console/internal/jobs"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/ui/components"
	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// summaryFetchDelay is how long "view log" on a crawl job waits before
// fetching the summary, giving the server time to finalize it.
const summaryFetchDelay = 500 * time.Millisecond

// workerPollInterval is the ingest worker heartbeat cadence.
const workerPollInterval = 5 * time.Second

// workerStaleAfter is the heartbeat age beyond which the worker reads as
// stale.
const workerStaleAfter = 30.0

// =============================================================================
// MESSAGES
// =============================================================================

// JobsMsg carries a refreshed job list.
type JobsMsg struct {
	Jobs []model.Job
}

// ExportedMsg reports a completed log export.
type ExportedMsg struct {
	Path string
}

// ErrMsg carries a view-level failure for the status bar.
type ErrMsg struct {
	Err error
}

type startedMsg struct {
	jobID   string
	channel string
}

type logLineMsg struct {
	channel string
	line    string
}

type summaryMsg struct {
	summary model.CrawlSummary
}

// summaryFetchedMsg carries a summary fetched directly (outside the
// stream pump), so handling it must not re-arm the event wait.
type summaryFetchedMsg struct {
	summary model.CrawlSummary
}

type deletedMsg struct {
	jobID string
}

type workerMsg struct {
	status model.WorkerStatus
	err    error
}

type streamClosedMsg struct {
	err error
}

type jobDetailMsg struct {
	job model.Job
}

type ingestProgressMsg struct {
	progress jobsvc.IngestProgress
}

type ingestFinishedMsg struct {
	status   string
	progress jobsvc.IngestProgress
}

// =============================================================================
// JOBS MODEL
// =============================================================================

// Model is the jobs view.
type Model struct {
	theme *styles.Theme
	log   *logrus.Logger

	client  *api.Client
	service *jobsvc.Service
	streams *jobsvc.StreamManager
	ingest  *jobsvc.IngestController

	// worker polls the ingest worker heartbeat; never watches a job.
	worker *jobsvc.IngestController

	jobs   []model.Job
	cursor int

	logPane *components.LogPane
	pills   *components.PillBar
	confirm *components.ConfirmModal
	bar     progress.Model

	// channel whose log pane is visible; streams on other channels keep
	// flowing into their buffers.
	channel string

	summary    model.CrawlSummary
	hasSummary bool

	ingestProgress jobsvc.IngestProgress
	ingestActive   bool

	workerStatus model.WorkerStatus
	workerErr    error
	workerSeen   bool

	downloadsDir string

	// events bridges sink callbacks from stream goroutines into the
	// program loop.
	events chan tea.Msg

	width  int
	height int
}

// New creates the jobs view.
func New(theme *styles.Theme, client *api.Client, log *logrus.Logger, downloadsDir string) Model {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return Model{
		theme:        theme,
		log:          log,
		client:       client,
		service:      jobsvc.NewService(client),
		streams:      jobsvc.NewStreamManager(client, log),
		worker:       jobsvc.NewIngestController(client, log),
		logPane:      components.NewLogPane(theme),
		pills:        components.NewPillBar(theme),
		confirm:      components.NewConfirmModal(theme, "DELETE"),
		bar:          bar,
		channel:      jobsvc.ChannelCrawl,
		downloadsDir: downloadsDir,
		events:       make(chan tea.Msg, 128),
	}
}

// Init starts the event pump and the worker heartbeat poll.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.Refresh(), m.waitEvent(), m.pollWorker())
}

// Refresh reloads the job table.
func (m Model) Refresh() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		jobs, err := service.List(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return JobsMsg{Jobs: jobs}
	}
}

// SetSize records the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.bar.Width = min(width-20, 60)
}

// CloseStreams shuts every log channel and the ingest watch and empties
// the log buffers. Used by the admin-session reset and on quit.
func (m *Model) CloseStreams() {
	m.streams.CloseAll()
	if m.ingest != nil {
		m.ingest.Stop()
	}
	m.ingestActive = false
	m.logPane.Clear()
}

func (m Model) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// push delivers a sink callback into the program loop, dropping on a full
// buffer so a stalled UI cannot block stream goroutines.
func (m Model) push(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {

	case JobsMsg:
		m.jobs = msg.Jobs
		if m.cursor >= len(m.jobs) {
			m.cursor = len(m.jobs) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}
		return m, nil

	case startedMsg:
		return m, tea.Batch(m.attach(msg.channel, msg.jobID), m.Refresh())

	case logLineMsg:
		m.logPane.Append(msg.channel, msg.line)
		return m, m.waitEvent()

	case summaryMsg:
		m.summary = msg.summary
		m.hasSummary = true
		return m, tea.Batch(m.waitEvent(), m.Refresh())

	case summaryFetchedMsg:
		m.summary = msg.summary
		m.hasSummary = true
		return m, nil

	case deletedMsg:
		m.dropJobStreams(msg.jobID)
		return m, m.Refresh()

	case workerMsg:
		m.workerStatus = msg.status
		m.workerErr = msg.err
		m.workerSeen = true
		return m, m.pollWorker()

	case jobDetailMsg:
		for i := range m.jobs {
			if m.jobs[i].JobID == msg.job.JobID {
				m.jobs[i] = msg.job
				break
			}
		}
		return m, nil

	case streamClosedMsg:
		if msg.err != nil {
			return m, tea.Batch(m.waitEvent(), func() tea.Msg { return ErrMsg{Err: msg.err} })
		}
		return m, tea.Batch(m.waitEvent(), m.Refresh())

	case ingestProgressMsg:
		m.ingestProgress = msg.progress
		return m, m.waitEvent()

	case ingestFinishedMsg:
		m.ingestProgress = msg.progress
		m.ingestActive = false
		return m, tea.Batch(m.waitEvent(), m.Refresh())

	case tea.KeyMsg:
		if m.confirm.Active() {
			result, cmd := m.confirm.Update(msg)
			if result == components.ConfirmAccepted {
				return m, tea.Batch(cmd, m.deleteSelected())
			}
			return m, cmd
		}
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
		if m.cursor < len(m.jobs)-1 {
			m.cursor++
		}
	case "r":
		return m, m.Refresh()
	case "c":
		return m, m.startCrawl()
	case "i":
		return m, m.startIngest()
	case "x":
		return m, m.cancelIngest()
	case "d":
		if m.cursor < len(m.jobs) {
			job := m.jobs[m.cursor]
			m.confirm.Open("Delete job "+shortID(job.JobID),
				"This removes the job record and its log. Type DELETE to confirm.")
		}
	case "e":
		return m, m.exportSelected()
	case "enter":
		if m.cursor < len(m.jobs) {
			job := m.jobs[m.cursor]
			channel := channelForJob(job)
			m.channel = channel
			m.logPane.SetChannel(channel)
			cmds := []tea.Cmd{m.attach(channel, job.JobID), m.fetchDetail(job.JobID)}
			if job.JobType == model.JobTypeCrawl {
				cmds = append(cmds, m.fetchSummaryDeferred(job.JobID))
			}
			return m, tea.Batch(cmds...)
		}
	case "1":
		m.switchChannel(jobsvc.ChannelCrawl)
	case "2":
		m.switchChannel(jobsvc.ChannelIngest)
	case "3":
		m.switchChannel(jobsvc.ChannelJobs)
	}
	return m, nil
}

func (m *Model) switchChannel(channel string) {
	if m.channel == channel {
		return
	}
	m.channel = channel
	m.logPane.SetChannel(channel)
}

// =============================================================================
// COMMANDS
// =============================================================================

func (m Model) startCrawl() tea.Cmd {
	service := m.service
	return func() tea.Msg {
		started, err := service.StartCrawl(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return startedMsg{jobID: started.JobID, channel: jobsvc.ChannelCrawl}
	}
}

func (m *Model) startIngest() tea.Cmd {
	if m.ingestActive {
		return nil
	}
	controller := jobsvc.NewIngestController(m.client, m.log)
	m.ingest = controller
	m.ingestActive = true

	push := m.push
	return func() tea.Msg {
		jobID, err := controller.Start(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		controller.Watch(context.Background(), jobID, jobsvc.IngestSink{
			OnProgress: func(p jobsvc.IngestProgress) {
				push(ingestProgressMsg{progress: p})
			},
			OnLog: func(level, message string) {
				push(logLineMsg{channel: jobsvc.ChannelIngest, line: "[" + level + "] " + message})
			},
			OnFinished: func(status string, p jobsvc.IngestProgress) {
				push(ingestFinishedMsg{status: status, progress: p})
			},
		})
		return startedMsg{jobID: jobID, channel: jobsvc.ChannelIngest}
	}
}

func (m Model) cancelIngest() tea.Cmd {
	if !m.ingestActive || m.ingest == nil {
		return nil
	}
	controller := m.ingest
	jobID := m.ingestProgress.JobID
	return func() tea.Msg {
		if err := controller.Cancel(context.Background(), jobID); err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

// fetchDetail rereads the selected job's record so its row reflects the
// current status without waiting for a full table refresh.
func (m Model) fetchDetail(jobID string) tea.Cmd {
	service := m.service
	return func() tea.Msg {
		job, err := service.Detail(context.Background(), jobID)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return jobDetailMsg{job: job}
	}
}

// fetchSummaryDeferred fetches a crawl job's summary shortly after its
// log is opened, so a finished crawl viewed after the fact still shows
// its pills without waiting for the live completion marker.
func (m Model) fetchSummaryDeferred(jobID string) tea.Cmd {
	streams := m.streams
	return tea.Tick(summaryFetchDelay, func(time.Time) tea.Msg {
		summary, err := streams.Summary(context.Background(), jobID)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return summaryFetchedMsg{summary: summary}
	})
}

// pollWorker fetches the ingest worker heartbeat on a fixed cadence.
// Failures land in the worker pill, not the status bar; an unreachable
// worker is a state to display, not a fault to announce every 5 s.
func (m Model) pollWorker() tea.Cmd {
	worker := m.worker
	return tea.Tick(workerPollInterval, func(time.Time) tea.Msg {
		status, err := worker.WorkerStatus(context.Background())
		return workerMsg{status: status, err: err}
	})
}

// attach opens the job's log stream on the channel, wiring the sink into
// the event bridge.
func (m Model) attach(channel, jobID string) tea.Cmd {
	streams := m.streams
	push := m.push
	return func() tea.Msg {
		err := streams.Open(context.Background(), channel, jobID, jobsvc.LogSink{
			OnLine: func(line string) {
				push(logLineMsg{channel: channel, line: line})
			},
			OnSummary: func(summary model.CrawlSummary) {
				push(summaryMsg{summary: summary})
			},
			OnClosed: func(err error) {
				push(streamClosedMsg{err: err})
			},
		})
		if err != nil {
			return ErrMsg{Err: err}
		}
		return nil
	}
}

func (m Model) deleteSelected() tea.Cmd {
	if m.cursor >= len(m.jobs) {
		return nil
	}
	jobID := m.jobs[m.cursor].JobID
	service := m.service
	return func() tea.Msg {
		if err := service.Delete(context.Background(), jobID); err != nil {
			return ErrMsg{Err: err}
		}
		return deletedMsg{jobID: jobID}
	}
}

// dropJobStreams closes every channel still attached to the job and stops
// the ingest watch when it tracks the same job. Deleting a job leaves no
// live reference to it.
func (m *Model) dropJobStreams(jobID string) {
	for _, channel := range []string{jobsvc.ChannelCrawl, jobsvc.ChannelIngest, jobsvc.ChannelJobs} {
		if id, ok := m.streams.JobID(channel); ok && id == jobID {
			m.streams.Close(channel)
		}
	}
	if m.ingestActive && m.ingestProgress.JobID == jobID {
		if m.ingest != nil {
			m.ingest.Stop()
		}
		m.ingestActive = false
	}
}

func (m Model) exportSelected() tea.Cmd {
	if m.cursor >= len(m.jobs) {
		return nil
	}
	jobID := m.jobs[m.cursor].JobID
	service := m.service
	dir := m.downloadsDir
	return func() tea.Msg {
		path, err := service.ExportLog(context.Background(), jobID, dir)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return ExportedMsg{Path: path}
	}
}

// channelForJob maps a job to the channel its log belongs on.
func channelForJob(job model.Job) string {
	switch job.JobType {
	case "crawl":
		return jobsvc.ChannelCrawl
	case "ingest":
		return jobsvc.ChannelIngest
	}
	return jobsvc.ChannelJobs
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the jobs pane.
func (m Model) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.TableHeader.Render(padCell("Job", 14) + padCell("Type", 10) + padCell("Status", 12) + "Started"))
	b.WriteString("\n")
	for i, job := range m.jobs {
		line := padCell(shortID(job.JobID), 14) + padCell(job.JobType, 10) + padCell(job.Status, 12) + job.StartedAt
		style := t.TableRow
		if i == m.cursor {
			style = t.TableRowSelected
		}
		b.WriteString(style.Render(util.TruncateWidth(line, m.width-2)) + "\n")
	}
	if len(m.jobs) == 0 {
		b.WriteString(t.TableCaption.Render("no jobs yet  (c: start crawl, i: start ingest)") + "\n")
	}
	b.WriteString("\n")

	if m.hasSummary {
		b.WriteString(m.pills.View(m.summary) + "\n")
		if breakdown := m.pills.Breakdown(m.summary); breakdown != "" {
			b.WriteString(t.TableCaption.Render(breakdown) + "\n")
		}
		b.WriteString("\n")
	}

	if m.workerSeen {
		b.WriteString(m.renderWorker() + "\n\n")
	}

	if m.ingestActive || m.ingestProgress.JobID != "" {
		b.WriteString(m.renderIngest())
		b.WriteString("\n")
	}

	b.WriteString(m.renderLogHeader())
	b.WriteString("\n")
	logHeight := m.height - strings.Count(b.String(), "\n") - 1
	if logHeight < 3 {
		logHeight = 3
	}
	b.WriteString(m.logPane.View(m.width-2, logHeight))

	if m.confirm.Active() {
		b.WriteString("\n")
		b.WriteString(m.confirm.View())
	}

	return b.String()
}

func (m Model) renderIngest() string {
	t := m.theme
	p := m.ingestProgress

	var b strings.Builder
	b.WriteString(t.TableHeader.Render("Ingest: "+p.Status) + "\n")
	b.WriteString(m.bar.ViewAs(float64(p.Percent()) / 100))
	b.WriteString("  " + util.FormatCount(p.Done) + "/" + util.FormatCount(p.Total))
	b.WriteString("  " + p.ETA)
	if p.Errors > 0 {
		b.WriteString("  " + t.PillErr.Render(util.FormatCount(p.Errors)+" errors"))
	}
	b.WriteString("\n")
	if p.CurrentArtifact != "" {
		b.WriteString(t.TableCaption.Render(util.TruncateWidth(p.CurrentArtifact, m.width-4)) + "\n")
	}
	return b.String()
}

// renderWorker shows the ingest worker heartbeat as a pill.
func (m Model) renderWorker() string {
	t := m.theme
	switch {
	case m.workerErr != nil:
		return t.PillErr.Render("worker: unreachable")
	case m.workerStatus.AgeSeconds != nil && *m.workerStatus.AgeSeconds > workerStaleAfter:
		return t.PillWarn.Render("worker: stale") + " " +
			t.TableCaption.Render(util.FormatCount(m.workerStatus.QueueDepth)+" queued")
	default:
		return t.PillOK.Render("worker: ok") + " " +
			t.TableCaption.Render(util.FormatCount(m.workerStatus.QueueDepth)+" queued")
	}
}

func (m Model) renderLogHeader() string {
	t := m.theme
	var tabs []string
	for i, channel := range []string{jobsvc.ChannelCrawl, jobsvc.ChannelIngest, jobsvc.ChannelJobs} {
		label := channel
		if jobID, ok := m.streams.JobID(channel); ok {
			label += " (" + shortID(jobID) + ")"
		}
		label = "[" + string(rune('1'+i)) + "] " + label
		if channel == m.channel {
			tabs = append(tabs, t.TabActive.Render(label))
		} else {
			tabs = append(tabs, t.Tab.Render(label))
		}
	}
	return strings.Join(tabs, " ")
}

func shortID(id string) string {
	if len(id) > 10 {
		return id[:10]
	}
	return id
}

func padCell(s string, width int) string {
	return util.PadRight(util.TruncateWidth(s, width-1), width)
}
