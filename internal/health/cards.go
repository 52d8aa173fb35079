// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package health

import (
	"fmt"

	"github.com/todddb/ragai-console/internal/model"
)

// =============================================================================
// CARD PROJECTION
// =============================================================================

// Status drives a card's color.
type Status int

const (
	StatusUnknown Status = iota
	StatusOK
	StatusWarn
	StatusBad
)

// staleWorkerAge is the heartbeat age past which the ingest worker is
// considered stale.
const staleWorkerAge = 30.0

// Card is one tile of the health grid. Value lines are already formatted;
// missing data renders as em-dash placeholders rather than being omitted.
type Card struct {
	Title  string
	Status Status
	Lines  []string
}

// Cards projects the health tree into the five-card grid. Projection is
// total: a nil subtree yields an unknown card, never a panic.
func Cards(h model.PipelineHealth) []Card {
	return []Card{
		artifactsCard(h.Artifacts),
		crawlCard(h.Crawl),
		ingestCard(h.Ingest),
		qdrantCard(h.Qdrant),
		systemCard(h.System),
	}
}

func artifactsCard(a *model.ArtifactsHealth) Card {
	if a == nil {
		return unknownCard("Artifacts")
	}
	lines := []string{fmt.Sprintf("%d artifacts", a.Count)}
	if a.LastUpdate != "" {
		lines = append(lines, "updated "+a.LastUpdate)
	}
	status := StatusOK
	if a.Count == 0 {
		status = StatusWarn
	}
	return Card{Title: "Artifacts", Status: status, Lines: lines}
}

func crawlCard(c *model.CrawlHealth) Card {
	if c == nil {
		return unknownCard("Crawl")
	}
	status := StatusUnknown
	switch c.LastJobStatus {
	case "done", "completed":
		status = StatusOK
	case "running", "queued":
		status = StatusWarn
	case "error", "failed":
		status = StatusBad
	}
	return Card{Title: "Crawl", Status: status, Lines: []string{
		"last job " + orDash(c.LastJobID),
		"status " + orDash(c.LastJobStatus),
	}}
}

func ingestCard(i *model.IngestHealth) Card {
	if i == nil {
		return unknownCard("Ingest")
	}
	status := StatusUnknown
	if i.AgeSeconds != nil {
		if *i.AgeSeconds <= staleWorkerAge {
			status = StatusOK
		} else {
			status = StatusBad
		}
	}
	lines := []string{fmt.Sprintf("queue depth %d", i.QueueDepth)}
	if i.AgeSeconds != nil {
		lines = append(lines, fmt.Sprintf("heartbeat %.0fs ago", *i.AgeSeconds))
	} else {
		lines = append(lines, "heartbeat —")
	}
	return Card{Title: "Ingest", Status: status, Lines: lines}
}

func qdrantCard(q *model.QdrantHealth) Card {
	if q == nil {
		return unknownCard("Qdrant")
	}
	status := StatusBad
	if q.Status == "ok" || q.Status == "green" {
		status = StatusOK
	}
	return Card{Title: "Qdrant", Status: status, Lines: []string{
		orDash(q.Collection),
		fmt.Sprintf("%d points", q.Points),
	}}
}

func systemCard(s *model.SystemHealth) Card {
	if s == nil {
		return unknownCard("System")
	}
	status := StatusBad
	if s.API == "ok" {
		status = StatusOK
	}
	return Card{Title: "System", Status: status, Lines: []string{
		"api " + orDash(s.API),
		"ollama " + orDash(s.Ollama),
		"model " + orDash(s.Model),
	}}
}

func unknownCard(title string) Card {
	return Card{Title: title, Status: StatusUnknown, Lines: []string{"—"}}
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
