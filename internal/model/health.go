// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "encoding/json"

// =============================================================================
// API HEALTH
// =============================================================================

// APIHealth is the payload of GET /api/health.
type APIHealth struct {
	API    string `json:"api"`
	Ollama string `json:"ollama"`
	Qdrant string `json:"qdrant,omitempty"`
	Model  string `json:"model"`
}

// =============================================================================
// PIPELINE HEALTH TREE
// =============================================================================

// PipelineHealth is the payload of GET /api/admin/data/health. Every subtree
// is optional; rendering must be total and degrade missing branches to
// "unknown" rather than fail.
type PipelineHealth struct {
	Artifacts *ArtifactsHealth `json:"artifacts,omitempty"`
	Crawl     *CrawlHealth     `json:"crawl,omitempty"`
	Ingest    *IngestHealth    `json:"ingest,omitempty"`
	Qdrant    *QdrantHealth    `json:"qdrant,omitempty"`
	System    *SystemHealth    `json:"system,omitempty"`
}

// ArtifactsHealth summarizes the captured artifact store.
type ArtifactsHealth struct {
	Count      int    `json:"count"`
	Bytes      int64  `json:"bytes,omitempty"`
	LastUpdate string `json:"last_update,omitempty"`
}

// CrawlHealth summarizes the most recent crawl job.
type CrawlHealth struct {
	LastJobID     string `json:"last_job_id,omitempty"`
	LastJobStatus string `json:"last_job_status,omitempty"`
	LastRunAt     string `json:"last_run_at,omitempty"`
}

// IngestHealth summarizes the ingest worker.
type IngestHealth struct {
	WorkerStatus string   `json:"worker_status,omitempty"`
	QueueDepth   int      `json:"queue_depth"`
	AgeSeconds   *float64 `json:"age_seconds,omitempty"`
}

// QdrantHealth summarizes the vector store.
type QdrantHealth struct {
	Status     string `json:"status,omitempty"`
	Collection string `json:"collection,omitempty"`
	Points     int64  `json:"points,omitempty"`
}

// SystemHealth carries API-level status.
type SystemHealth struct {
	API    string `json:"api,omitempty"`
	Ollama string `json:"ollama,omitempty"`
	Model  string `json:"model,omitempty"`
}

// =============================================================================
// CHECK-URL AND SEARCH
// =============================================================================

// CheckURLResult is the payload of POST /api/admin/data/check_url: one tile
// per pipeline stage, each present or absent independently.
type CheckURLResult struct {
	URL        string          `json:"url"`
	Artifact   json.RawMessage `json:"artifact,omitempty"`
	Validation json.RawMessage `json:"validation,omitempty"`
	Ingest     json.RawMessage `json:"ingest,omitempty"`
	Qdrant     json.RawMessage `json:"qdrant,omitempty"`
}

// SearchMatch is one hit of POST /api/admin/data/search.
type SearchMatch struct {
	URL     string  `json:"url,omitempty"`
	Title   string  `json:"title,omitempty"`
	Score   float64 `json:"score,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	DocID   string  `json:"doc_id,omitempty"`
}

// SearchResult is the payload of POST /api/admin/data/search.
type SearchResult struct {
	Artifacts []SearchMatch `json:"artifacts"`
	Qdrant    []SearchMatch `json:"qdrant"`
}
