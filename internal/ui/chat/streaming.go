// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view for the console.
//
// This file implements streaming coalescing. Tokens arrive from the SSE
// goroutine far faster than the terminal needs to repaint; the
// StreamingBuffer accumulates them and the view flushes on a ~120ms
// tick, so markdown re-rendering happens a handful of times per second
// instead of per token.
package chat

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// flushInterval is the coalescing window for streamed tokens.
const flushInterval = 120 * time.Millisecond

// =============================================================================
// STREAMING BUFFER
// =============================================================================

// StreamingBuffer batches tokens for coalesced rendering.
//
// Thread-safety: Write is called from the SSE goroutine while Flush
// runs in the Bubble Tea loop, so all operations take the mutex.
type StreamingBuffer struct {
	mu     sync.Mutex
	buffer strings.Builder
}

// NewStreamingBuffer creates an empty buffer.
func NewStreamingBuffer() *StreamingBuffer {
	return &StreamingBuffer{}
}

// Write appends a token. Called from the streaming goroutine.
func (sb *StreamingBuffer) Write(token string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.WriteString(token)
}

// Flush returns and clears the accumulated tokens. The second return
// is false when nothing arrived since the last flush, letting the view
// skip the repaint entirely.
func (sb *StreamingBuffer) Flush() (string, bool) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if sb.buffer.Len() == 0 {
		return "", false
	}
	content := sb.buffer.String()
	sb.buffer.Reset()
	return content, true
}

// Reset drops any pending tokens. Used when a stream is cancelled.
func (sb *StreamingBuffer) Reset() {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.buffer.Reset()
}

// Pending reports whether tokens are waiting to be flushed.
func (sb *StreamingBuffer) Pending() bool {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.buffer.Len() > 0
}

// =============================================================================
// STREAMING TICK
// =============================================================================

// StreamTickMsg drives buffer flushes while a response is streaming.
type StreamTickMsg struct {
	Time time.Time
}

// streamTickCmd schedules the next coalescing tick.
func streamTickCmd() tea.Cmd {
	return tea.Tick(flushInterval, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}
