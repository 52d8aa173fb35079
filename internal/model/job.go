// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// JOBS
// =============================================================================

// Job types.
const (
	JobTypeCrawl  = "crawl"
	JobTypeIngest = "ingest"
)

// Job is one row of GET /api/admin/jobs.
type Job struct {
	JobID     string `json:"job_id"`
	JobType   string `json:"job_type"`
	Status    string `json:"status"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
}

// JobStarted is the response to POST /api/admin/{crawl|ingest}.
type JobStarted struct {
	JobID  string `json:"job_id"`
	Status string `json:"status,omitempty"`
}

// =============================================================================
// CRAWL SUMMARY
// =============================================================================

// SkippedCounts breaks down pages the crawler declined to capture.
type SkippedCounts struct {
	AlreadyProcessed int `json:"already_processed"`
	DepthExceeded    int `json:"depth_exceeded"`
	NotAllowed       int `json:"not_allowed"`
	AuthRequired     int `json:"auth_required"`
	NonHTML          int `json:"non_html"`

	// Other holds legacy summaries' flat skip count, which carries no
	// per-reason breakdown.
	Other int `json:"other,omitempty"`
}

// Total sums all skip reasons.
func (s SkippedCounts) Total() int {
	return s.AlreadyProcessed + s.DepthExceeded + s.NotAllowed + s.AuthRequired + s.NonHTML + s.Other
}

// CountRow is one named counter of a summary breakdown.
type CountRow struct {
	Name  string
	Count int
}

// Rows returns the skip reasons in display order.
func (s SkippedCounts) Rows() []CountRow {
	return []CountRow{
		{"already_processed", s.AlreadyProcessed},
		{"depth_exceeded", s.DepthExceeded},
		{"not_allowed", s.NotAllowed},
		{"auth_required", s.AuthRequired},
		{"non_html", s.NonHTML},
		{"other", s.Other},
	}
}

// ErrorsByClass buckets crawl failures.
type ErrorsByClass struct {
	Client         int `json:"4xx"`
	Server         int `json:"5xx"`
	NetworkTimeout int `json:"network_timeout"`
	Other          int `json:"other"`
}

// Total sums all error classes.
func (e ErrorsByClass) Total() int {
	return e.Client + e.Server + e.NetworkTimeout + e.Other
}

// Rows returns the error classes in display order.
func (e ErrorsByClass) Rows() []CountRow {
	return []CountRow{
		{"4xx", e.Client},
		{"5xx", e.Server},
		{"network_timeout", e.NetworkTimeout},
		{"other", e.Other},
	}
}

// ArtifactCounts tracks non-HTML artifacts captured during a crawl.
type ArtifactCounts struct {
	PDF               int `json:"pdf"`
	DOCX              int `json:"docx"`
	XLSX              int `json:"xlsx"`
	PPTX              int `json:"pptx"`
	SkippedNotAllowed int `json:"skipped_not_allowed"`
}

// Total sums captured artifacts, excluding the skipped counter.
func (a ArtifactCounts) Total() int {
	return a.PDF + a.DOCX + a.XLSX + a.PPTX
}

// ErrorDetail is one entry of a summary's error list.
type ErrorDetail struct {
	URL    string `json:"url"`
	Status int    `json:"status,omitempty"`
	Class  string `json:"class,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// CrawlSummary is the payload of GET /api/admin/jobs/{id}/summary.
// Legacy summaries carry flat Skipped/Errors integers instead of the nested
// breakdowns; normalize.CrawlSummary folds those into this form.
type CrawlSummary struct {
	Captured      int            `json:"captured"`
	Skipped       SkippedCounts  `json:"skipped"`
	ErrorsByClass ErrorsByClass  `json:"errors_by_class"`
	Artifacts     ArtifactCounts `json:"artifacts"`
	ErrorDetails  []ErrorDetail  `json:"error_details,omitempty"`
}

// =============================================================================
// INGEST JOBS
// =============================================================================

// Terminal ingest statuses: polling stops once one of these is reached.
const (
	IngestStatusQueued     = "queued"
	IngestStatusRunning    = "running"
	IngestStatusDone       = "done"
	IngestStatusError      = "error"
	IngestStatusCancelled  = "cancelled"
	IngestStatusCancelling = "cancelling"
)

// IngestStatusTerminal reports whether polling should stop.
func IngestStatusTerminal(status string) bool {
	switch status {
	case IngestStatusDone, IngestStatusError, IngestStatusCancelled:
		return true
	}
	return false
}

// IngestStatus is the snapshot payload of GET /api/ingest/{id}.
type IngestStatus struct {
	JobID      string `json:"job_id,omitempty"`
	Status     string `json:"status"`
	Done       int    `json:"done"`
	Total      int    `json:"total"`
	Errors     int    `json:"errors,omitempty"`
	Attempts   int    `json:"attempts,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
	StartedAt  string `json:"started_at,omitempty"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// Ingest SSE event types.
const (
	IngestEventConnected = "connected"
	IngestEventStart     = "start"
	IngestEventProgress  = "artifact_progress"
	IngestEventLog       = "log"
	IngestEventComplete  = "complete"
	IngestEventError     = "error"
	IngestEventControl   = "control"
)

// IngestEvent is one frame of GET /api/ingest/{id}/events.
type IngestEvent struct {
	Type            string `json:"type"`
	JobID           string `json:"job_id,omitempty"`
	TotalArtifacts  int    `json:"total_artifacts,omitempty"`
	DoneArtifacts   int    `json:"done_artifacts,omitempty"`
	CurrentArtifact string `json:"current_artifact,omitempty"`
	Errors          int    `json:"errors,omitempty"`
	Level           string `json:"level,omitempty"`
	Message         string `json:"message,omitempty"`
	Msg             string `json:"msg,omitempty"`
	Action          string `json:"action,omitempty"`
	StartedAt       string `json:"started_at,omitempty"`
	Timestamp       string `json:"ts,omitempty"`
}

// WorkerStatus is the payload of GET /api/ingest/worker/status.
type WorkerStatus struct {
	Heartbeat  string            `json:"heartbeat,omitempty"`
	AgeSeconds *float64          `json:"age_seconds"`
	Worker     map[string]string `json:"worker"`
	QueueDepth int               `json:"queue_depth"`
}
