// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures exchanged with the ragai
// backend: conversations and messages, crawl configuration documents,
// jobs and their summaries, validation findings, and pipeline health.
//
// These types mirror the JSON payloads of the HTTP API. Fields that exist
// only in legacy payloads are decoded tolerantly in package normalize and
// surfaced here in their canonical form.
package model
