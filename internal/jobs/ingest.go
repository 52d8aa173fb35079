// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobs

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

// =============================================================================
// ETA TRACKER
// =============================================================================

// etaSampleWindow is how many inter-progress deltas feed the moving average.
const etaSampleWindow = 10

// etaMinSamples is the sample count below which the estimate reads
// "Calculating…".
const etaMinSamples = 5

// ETATracker estimates time to completion from the pace of progress events.
// Not safe for concurrent use; the ingest controller serializes access.
type ETATracker struct {
	now     func() time.Time
	lastAt  time.Time
	deltas  []time.Duration
	done    int
	total   int
	started bool
}

// NewETATracker creates a tracker using the wall clock.
func NewETATracker() *ETATracker {
	return &ETATracker{now: time.Now}
}

// Observe records a progress snapshot. Only forward movement of done
// produces a sample; repeated snapshots of the same count are ignored.
func (t *ETATracker) Observe(done, total int) {
	t.total = total
	now := t.now()
	if !t.started {
		t.started = true
		t.done = done
		t.lastAt = now
		return
	}
	if done <= t.done {
		return
	}

	t.deltas = append(t.deltas, now.Sub(t.lastAt))
	if len(t.deltas) > etaSampleWindow {
		t.deltas = t.deltas[len(t.deltas)-etaSampleWindow:]
	}
	t.done = done
	t.lastAt = now
}

// Label renders the current estimate: "Complete" once everything is done,
// "Calculating…" until enough samples exist, otherwise the projected
// remaining time.
func (t *ETATracker) Label() string {
	if t.total > 0 && t.done == t.total {
		return "Complete"
	}
	if len(t.deltas) < etaMinSamples {
		return "Calculating…"
	}

	var sum time.Duration
	for _, d := range t.deltas {
		sum += d
	}
	avg := sum / time.Duration(len(t.deltas))
	eta := avg * time.Duration(t.total-t.done)
	return formatETA(eta)
}

func formatETA(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("~%ds remaining", int(d.Round(time.Second).Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("~%dm remaining", int(d.Round(time.Minute).Minutes()))
	}
	return fmt.Sprintf("~%dh%02dm remaining", int(d.Hours()), int(d.Minutes())%60)
}

// =============================================================================
// INGEST PROGRESS
// =============================================================================

// IngestProgress is the converged view both tracks update.
type IngestProgress struct {
	JobID           string
	Status          string
	Done            int
	Total           int
	CurrentArtifact string
	Errors          int
	ETA             string
}

// Percent returns completion in [0,100].
func (p IngestProgress) Percent() int {
	if p.Total <= 0 {
		return 0
	}
	return p.Done * 100 / p.Total
}

// IngestSink receives ingest updates. Callbacks fire from background
// goroutines; nil callbacks are skipped.
type IngestSink struct {
	// OnProgress delivers every converged progress change.
	OnProgress func(p IngestProgress)

	// OnLog delivers one log message from the event stream.
	OnLog func(level, message string)

	// OnFinished fires once, with the terminal status.
	OnFinished func(status string, p IngestProgress)
}

// =============================================================================
// INGEST CONTROLLER
// =============================================================================

// pollInterval is the status polling cadence while the job is live.
const pollInterval = 2 * time.Second

// IngestController runs one ingest job's progress tracking: an SSE event
// stream and a ~2 s status poll feeding the same display. The poll outlives
// a failed stream, so progress keeps updating on SSE loss.
type IngestController struct {
	mu       sync.Mutex
	client   *api.Client
	log      *logrus.Logger
	progress IngestProgress
	eta      *ETATracker
	stream   *api.Stream
	cancel   context.CancelFunc
	finished bool

	// pollInterval is overridable in tests.
	pollInterval time.Duration
}

// NewIngestController creates a controller for one job watch.
func NewIngestController(client *api.Client, log *logrus.Logger) *IngestController {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &IngestController{
		client:       client,
		log:          log,
		eta:          NewETATracker(),
		pollInterval: pollInterval,
	}
}

// Start enqueues an ingest job and returns its id.
func (c *IngestController) Start(ctx context.Context) (string, error) {
	var started model.JobStarted
	if err := c.client.PostJSON(ctx, "/api/ingest", nil, &started); err != nil {
		return "", err
	}
	return started.JobID, nil
}

// Cancel requests cancellation of a running job.
func (c *IngestController) Cancel(ctx context.Context, jobID string) error {
	return c.client.PostJSON(ctx, "/api/ingest/"+jobID+"/cancel", nil, nil)
}

// WorkerStatus fetches the ingest worker heartbeat.
func (c *IngestController) WorkerStatus(ctx context.Context) (model.WorkerStatus, error) {
	var status model.WorkerStatus
	err := c.client.GetJSON(ctx, "/api/ingest/worker/status", &status)
	return status, err
}

// Watch follows a job until it reaches a terminal status or Stop is called.
// The SSE track is best-effort: a failed or dropped stream leaves polling
// running to completion.
func (c *IngestController) Watch(ctx context.Context, jobID string, sink IngestSink) {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	c.cancel = cancel
	c.progress = IngestProgress{JobID: jobID, Status: model.IngestStatusQueued, ETA: "Calculating…"}
	c.mu.Unlock()

	if stream, err := c.client.OpenSSE(ctx, http.MethodGet, "/api/ingest/"+jobID+"/events", nil); err != nil {
		c.log.WithError(err).Debug("ingest event stream unavailable, polling only")
	} else {
		c.mu.Lock()
		c.stream = stream
		c.mu.Unlock()
		go c.consumeEvents(stream, sink)
	}

	go c.poll(ctx, jobID, sink)
}

// Stop tears the watch down without waiting for a terminal status.
func (c *IngestController) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	stream := c.stream
	c.cancel = nil
	c.stream = nil
	c.finished = true
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
	if cancel != nil {
		cancel()
	}
}

// Progress returns the latest converged snapshot.
func (c *IngestController) Progress() IngestProgress {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// consumeEvents pumps the SSE track. Errors counters only rise: an error
// event bumps by one, a progress event replaces with the server's value.
func (c *IngestController) consumeEvents(stream *api.Stream, sink IngestSink) {
	for {
		var event model.IngestEvent
		if err := stream.NextJSON(&event); err != nil {
			// Polling carries on; a dropped stream is not fatal.
			stream.Close()
			return
		}

		switch event.Type {
		case model.IngestEventConnected:
			// Handshake only.
		case model.IngestEventStart:
			c.update(sink, func(p *IngestProgress) {
				p.Status = model.IngestStatusRunning
				p.Total = event.TotalArtifacts
			})
		case model.IngestEventProgress:
			c.update(sink, func(p *IngestProgress) {
				p.Done = event.DoneArtifacts
				p.Total = event.TotalArtifacts
				p.CurrentArtifact = event.CurrentArtifact
				if event.Errors > p.Errors {
					p.Errors = event.Errors
				}
			})
		case model.IngestEventLog:
			if sink.OnLog != nil {
				message := event.Message
				if message == "" {
					message = event.Msg
				}
				sink.OnLog(event.Level, message)
			}
		case model.IngestEventError:
			c.update(sink, func(p *IngestProgress) {
				p.Errors++
			})
		case model.IngestEventComplete:
			c.update(sink, func(p *IngestProgress) {
				if event.TotalArtifacts > 0 {
					p.Total = event.TotalArtifacts
					p.Done = event.DoneArtifacts
				} else if p.Total > 0 {
					p.Done = p.Total
				}
			})
			c.finish(model.IngestStatusDone, sink)
			stream.Close()
			return
		case model.IngestEventControl:
			switch event.Action {
			case "cancelling":
				// Not terminal on its own; the cancelled control or the
				// polled status ends the watch.
				c.update(sink, func(p *IngestProgress) {
					p.Status = model.IngestStatusCancelling
				})
			case "cancelled":
				c.finish(model.IngestStatusCancelled, sink)
				stream.Close()
				return
			}
		}
	}
}

// poll drives the status track every pollInterval until terminal.
func (c *IngestController) poll(ctx context.Context, jobID string, sink IngestSink) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		var status model.IngestStatus
		if err := c.client.GetJSON(ctx, "/api/ingest/"+jobID, &status); err != nil {
			c.log.WithError(err).Debug("ingest status poll failed")
			continue
		}

		c.update(sink, func(p *IngestProgress) {
			p.Status = status.Status
			if status.Total > 0 {
				p.Total = status.Total
			}
			if status.Done > p.Done {
				p.Done = status.Done
			}
			if status.Errors > p.Errors {
				p.Errors = status.Errors
			}
		})

		if model.IngestStatusTerminal(status.Status) {
			c.finish(status.Status, sink)
			return
		}
	}
}

// update applies a mutation, refreshes the ETA, and notifies the sink.
// No-op once the watch finished.
func (c *IngestController) update(sink IngestSink, mutate func(p *IngestProgress)) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	mutate(&c.progress)
	c.eta.Observe(c.progress.Done, c.progress.Total)
	c.progress.ETA = c.eta.Label()
	snapshot := c.progress
	c.mu.Unlock()

	if sink.OnProgress != nil {
		sink.OnProgress(snapshot)
	}
}

// finish delivers the terminal callback exactly once and stops both tracks.
func (c *IngestController) finish(status string, sink IngestSink) {
	c.mu.Lock()
	if c.finished {
		c.mu.Unlock()
		return
	}
	c.finished = true
	c.progress.Status = status
	if status == model.IngestStatusDone && c.progress.Total > 0 {
		c.progress.Done = c.progress.Total
	}
	c.eta.Observe(c.progress.Done, c.progress.Total)
	c.progress.ETA = c.eta.Label()
	snapshot := c.progress
	cancel := c.cancel
	c.cancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if sink.OnFinished != nil {
		sink.OnFinished(status, snapshot)
	}
}
