// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/config"
	"github.com/todddb/ragai-console/internal/logging"
	"github.com/todddb/ragai-console/internal/state"
)

// =============================================================================
// RUNTIME BOOTSTRAP
// =============================================================================

// Runtime bundles everything a command handler needs.
type Runtime struct {
	Config *config.Config
	Log    *logrus.Logger
	Client *api.Client
	State  *state.Store

	logCloser io.Closer
}

// NewRuntime loads config, opens the log file and the state store, and
// builds the API client. For the backend URL, flag beats the stored
// override beats env beats file.
func NewRuntime(args Args) (*Runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if args.Verbose {
		cfg.Logging.Level = "debug"
	}

	log, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	statePath, err := state.DefaultPath()
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("state path: %w", err)
	}
	st, err := state.Open(statePath, log)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("open state store: %w", err)
	}

	cfg.API.URL = resolveAPIURL(args.APIURL, st.APIURL(), cfg.API.URL)

	client := api.NewClient(api.Config{
		BaseURL:  cfg.API.URL,
		Timeout:  cfg.API.Timeout(),
		RetryMax: cfg.API.RetryMax,
		Logger:   log,
	})

	return &Runtime{
		Config:    cfg,
		Log:       log,
		Client:    client,
		State:     st,
		logCloser: closer,
	}, nil
}

// resolveAPIURL picks the backend URL: an explicit --api flag wins, then
// the override persisted in the state store, then the configured default.
func resolveAPIURL(flag, stored, configured string) string {
	if flag != "" {
		return flag
	}
	if stored != "" {
		return stored
	}
	return configured
}

// Close releases the state store and the log file.
func (r *Runtime) Close() {
	if r.State != nil {
		r.State.Close()
	}
	if r.logCloser != nil {
		r.logCloser.Close()
	}
}
