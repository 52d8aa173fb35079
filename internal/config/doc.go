// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// ragai console.
//
// Two kinds of configuration live here. The local console config is a
// TOML file under ~/.ragai that controls how the console itself behaves
// (backend URL, theme, logging). Server config documents are the
// backend's own YAML-stored documents (allow_block, crawler, agents,
// ingest), which the console fetches and edits over the admin API.
//
// # Configuration Precedence
//
// Local configuration is loaded from (in order of precedence):
//   - Environment variables (RAGAI_*)
//   - ~/.ragai/console.toml
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Watch for edits:
//
//	w, _ := config.NewWatcher(path, logger, func(cfg *config.Config) {
//	    // apply the new settings
//	})
//	w.Watch()
package config
