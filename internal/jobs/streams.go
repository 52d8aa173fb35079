// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package jobs manages crawl and ingest jobs: the job table, per-job log
// streams on named channels, crawl summaries, and the ingest progress
// controller with its SSE-plus-polling dual track.
package jobs

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/normalize"
)

// =============================================================================
// CHANNELS
// =============================================================================

// Log channel names. Each holds at most one open stream at a time.
const (
	ChannelCrawl  = "crawl"
	ChannelIngest = "ingest"
	ChannelJobs   = "jobs"
)

// crawlCompleteMarker triggers the deferred summary fetch on the crawl
// channel. Matched as a substring of each log line.
const crawlCompleteMarker = "Crawl job complete"

// summaryDelay is how long after the completion marker the summary fetch
// fires, giving the server time to finalize the summary document.
const summaryDelay = time.Second

// LogSink receives one channel's stream callbacks, from the pump goroutine.
// Nil callbacks are skipped.
type LogSink struct {
	// OnLine delivers one log line, verbatim, without trailing newline.
	OnLine func(line string)

	// OnSummary delivers the crawl summary fetched after the completion
	// marker (crawl channel only).
	OnSummary func(summary model.CrawlSummary)

	// OnClosed fires once when the peer ends the stream or it fails.
	// A local Close never fires it.
	OnClosed func(err error)
}

// =============================================================================
// STREAM MANAGER
// =============================================================================

// openStream pairs a stream with its owning generation so a stale pump can
// detect it lost the slot.
type openStream struct {
	stream *api.Stream
	jobID  string
	gen    uint64
}

// StreamManager owns the three log channels. Opening a channel that is
// already occupied closes the prior stream first; closing is idempotent and
// turns the in-flight pump into a no-op.
type StreamManager struct {
	mu       sync.Mutex
	client   *api.Client
	log      *logrus.Logger
	channels map[string]*openStream
	gen      uint64

	// summaryDelay is overridable in tests.
	summaryDelay time.Duration
}

// NewStreamManager creates a manager with no open channels.
func NewStreamManager(client *api.Client, log *logrus.Logger) *StreamManager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &StreamManager{
		client:       client,
		log:          log,
		channels:     map[string]*openStream{},
		summaryDelay: summaryDelay,
	}
}

// Open attaches a job's log stream to the named channel. Any stream already
// on the channel is closed first.
func (m *StreamManager) Open(ctx context.Context, channel, jobID string, sink LogSink) error {
	stream, err := m.client.OpenSSE(ctx, http.MethodGet, "/api/admin/jobs/"+jobID+"/log", nil)
	if err != nil {
		return err
	}

	m.mu.Lock()
	prior := m.channels[channel]
	m.gen++
	entry := &openStream{stream: stream, jobID: jobID, gen: m.gen}
	m.channels[channel] = entry
	m.mu.Unlock()

	if prior != nil {
		prior.stream.Close()
	}

	go m.pump(ctx, channel, entry, sink)
	return nil
}

// Close closes the named channel. Idempotent; safe while a pump is reading.
func (m *StreamManager) Close(channel string) {
	m.mu.Lock()
	entry := m.channels[channel]
	delete(m.channels, channel)
	m.mu.Unlock()

	if entry != nil {
		entry.stream.Close()
	}
}

// CloseAll closes every channel. Used by the admin-session reset.
func (m *StreamManager) CloseAll() {
	m.mu.Lock()
	entries := m.channels
	m.channels = map[string]*openStream{}
	m.mu.Unlock()

	for _, entry := range entries {
		entry.stream.Close()
	}
}

// JobID returns the job attached to a channel, if any.
func (m *StreamManager) JobID(channel string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.channels[channel]
	if !ok {
		return "", false
	}
	return entry.jobID, true
}

// owns reports whether the entry still occupies its channel slot.
func (m *StreamManager) owns(channel string, entry *openStream) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.channels[channel]
	return ok && current.gen == entry.gen
}

// releaseIfOwner clears the slot when the entry still holds it.
func (m *StreamManager) releaseIfOwner(channel string, entry *openStream) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.channels[channel]; ok && current.gen == entry.gen {
		delete(m.channels, channel)
	}
}

// pump reads log lines until the stream ends. Ownership is re-checked before
// every callback so a closed or reassigned channel delivers nothing.
func (m *StreamManager) pump(ctx context.Context, channel string, entry *openStream, sink LogSink) {
	defer m.releaseIfOwner(channel, entry)

	for {
		line, err := entry.stream.Next()
		if err != nil {
			if err == api.ErrStreamClosed || !m.owns(channel, entry) {
				return
			}
			entry.stream.Close()
			if sink.OnClosed != nil {
				if err == io.EOF {
					sink.OnClosed(nil)
				} else {
					sink.OnClosed(err)
				}
			}
			return
		}
		if !m.owns(channel, entry) {
			return
		}

		if sink.OnLine != nil {
			sink.OnLine(line)
		}

		if channel == ChannelCrawl && strings.Contains(line, crawlCompleteMarker) {
			go m.fetchSummaryLater(ctx, channel, entry, sink)
		}
	}
}

// fetchSummaryLater waits out the settle delay and fetches the crawl
// summary, delivering it only if the channel still belongs to this stream.
func (m *StreamManager) fetchSummaryLater(ctx context.Context, channel string, entry *openStream, sink LogSink) {
	select {
	case <-time.After(m.summaryDelay):
	case <-ctx.Done():
		return
	}
	if sink.OnSummary == nil {
		return
	}

	summary, err := m.Summary(ctx, entry.jobID)
	if err != nil {
		m.log.WithError(err).WithField("job_id", entry.jobID).Warn("deferred summary fetch failed")
		return
	}
	if !m.owns(channel, entry) {
		return
	}
	sink.OnSummary(summary)
}

// Summary fetches and folds a job's crawl summary.
func (m *StreamManager) Summary(ctx context.Context, jobID string) (model.CrawlSummary, error) {
	raw, err := m.client.GetRaw(ctx, "/api/admin/jobs/"+jobID+"/summary")
	if err != nil {
		return model.CrawlSummary{}, err
	}
	return normalize.CrawlSummary(raw), nil
}
