// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package jobs

import (
	"context"
	"sort"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
)

// =============================================================================
// JOB TABLE
// =============================================================================

// Service performs job table operations. Table refreshes are monotone: the
// caller replaces its whole snapshot with each List result.
type Service struct {
	client *api.Client
}

// NewService creates a job service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List returns all jobs, newest first.
func (s *Service) List(ctx context.Context) ([]model.Job, error) {
	var jobs []model.Job
	if err := s.client.GetJSON(ctx, "/api/admin/jobs", &jobs); err != nil {
		return nil, err
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].StartedAt > jobs[j].StartedAt
	})
	return jobs, nil
}

// Detail fetches a single job's current record.
func (s *Service) Detail(ctx context.Context, jobID string) (model.Job, error) {
	var job model.Job
	err := s.client.GetJSON(ctx, "/api/admin/jobs/"+jobID, &job)
	return job, err
}

// StartCrawl enqueues a crawl job.
func (s *Service) StartCrawl(ctx context.Context) (model.JobStarted, error) {
	var started model.JobStarted
	err := s.client.PostJSON(ctx, "/api/admin/crawl", nil, &started)
	return started, err
}

// StartIngestAdmin enqueues an ingest job through the admin surface.
func (s *Service) StartIngestAdmin(ctx context.Context) (model.JobStarted, error) {
	var started model.JobStarted
	err := s.client.PostJSON(ctx, "/api/admin/ingest", nil, &started)
	return started, err
}

// Delete removes a job and its logs.
func (s *Service) Delete(ctx context.Context, jobID string) error {
	return s.client.Delete(ctx, "/api/admin/jobs/"+jobID)
}

// ExportLog downloads a job's log attachment to dir, naming the file from
// Content-Disposition, and returns the written path.
func (s *Service) ExportLog(ctx context.Context, jobID, dir string) (string, error) {
	resp, err := s.client.Download(ctx, "/api/admin/jobs/"+jobID+"/log/export")
	if err != nil {
		return "", err
	}
	return api.SaveResponse(resp, dir, "job-"+jobID+".log")
}
