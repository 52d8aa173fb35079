// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides shared widgets for the ragai console views.

Components here are plain value types rendered with the shared theme:

  - StatusBar: bottom bar with connection, admin, and sticky error segments
  - LogPane: scrolling job log viewer with rate-limited repaints
  - CardGrid: pipeline health card rendering
  - PillBar: crawl summary count pills
  - ConfirmModal: typed-phrase confirmation for destructive actions
*/
package components
