// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides shared helpers for the ragai console.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, StringWidth: terminal-column aware sizing
//
// Display Formatting:
//   - FormatCount, FormatBytes, FormatDuration, FormatPercent
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// # Usage
//
//	// Fit a page title into a table cell
//	cell := util.TruncateWidth(title, 50)
//
//	// Write an export atomically
//	err := util.AtomicWriteFile(path, data, 0644)
package util
