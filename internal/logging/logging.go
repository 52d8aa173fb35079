// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the console's diagnostic logger.
//
// The console is a full-screen TUI, so logs never go to stdout or
// stderr while it runs. Everything is written to a file under ~/.ragai
// so a misbehaving session can be diagnosed after the fact.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/config"
)

// =============================================================================
// LOGGER SETUP
// =============================================================================

// New builds a logger from the logging config. The returned closer
// releases the log file; callers defer it at shutdown.
func New(cfg config.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	log := logrus.New()
	log.SetLevel(ParseLevel(cfg.Level))
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05.000",
	})

	path := cfg.File
	if path == "" {
		dir, err := config.Dir()
		if err != nil {
			return nil, nil, err
		}
		path = filepath.Join(dir, "console.log")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	log.SetOutput(f)

	return log, f, nil
}

// Discard returns a logger that drops everything. Used by tests and by
// one-shot CLI commands that report to the terminal directly.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// ParseLevel maps a config level name to a logrus level. Unknown names
// fall back to info rather than failing, since the config was already
// validated at load time.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
