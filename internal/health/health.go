// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package health reads the pipeline health tree, the cross-system check-URL
// and search probes, and the destructive reset operations behind them.
package health

import (
	"context"
	"errors"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service talks to the health and data-inspection endpoints.
type Service struct {
	client *api.Client
}

// NewService creates a health service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// API fetches the top-level backend health.
func (s *Service) API(ctx context.Context) (model.APIHealth, error) {
	var health model.APIHealth
	err := s.client.GetJSON(ctx, "/api/health", &health)
	return health, err
}

// Pipeline fetches the pipeline health tree. Missing subtrees stay nil and
// render as unknown.
func (s *Service) Pipeline(ctx context.Context) (model.PipelineHealth, error) {
	var health model.PipelineHealth
	err := s.client.GetJSON(ctx, "/api/admin/data/health", &health)
	return health, err
}

// CheckURL looks one URL up across artifacts, validation, ingest, and
// Qdrant.
func (s *Service) CheckURL(ctx context.Context, url string) (model.CheckURLResult, error) {
	var result model.CheckURLResult
	err := s.client.PostJSON(ctx, "/api/admin/data/check_url", map[string]string{"url": url}, &result)
	return result, err
}

// searchLimit caps search responses to a screenful.
const searchLimit = 10

// Search runs the cross-system text search.
func (s *Service) Search(ctx context.Context, query string) (model.SearchResult, error) {
	var result model.SearchResult
	payload := map[string]interface{}{"query": query, "limit": searchLimit}
	err := s.client.PostJSON(ctx, "/api/admin/data/search", payload, &result)
	return result, err
}

// =============================================================================
// DESTRUCTIVE RESETS
// =============================================================================

// Reset scopes accepted by Reset.
const (
	ResetArtifacts = "artifacts"
	ResetQdrant    = "qdrant"
	ResetAll       = "all"
)

// ConfirmPhrase must be typed literally before any reset is issued.
const ConfirmPhrase = "DELETE"

// ErrNotConfirmed rejects a reset whose confirmation text was wrong.
var ErrNotConfirmed = errors.New(`confirmation text must be exactly "DELETE"`)

// Reset wipes one scope of pipeline data. The caller passes the user's
// literal confirmation text; anything but the exact phrase refuses without
// touching the server.
func (s *Service) Reset(ctx context.Context, scope, confirmation string) error {
	if confirmation != ConfirmPhrase {
		return ErrNotConfirmed
	}
	return s.client.PostJSON(ctx, "/api/admin/reset/"+scope, nil, nil)
}

// ResetIngest clears ingest bookkeeping. Same confirmation rule as Reset.
func (s *Service) ResetIngest(ctx context.Context, confirmation string) error {
	if confirmation != ConfirmPhrase {
		return ErrNotConfirmed
	}
	return s.client.PostJSON(ctx, "/api/admin/reset_ingest", nil, nil)
}
