// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"github.com/todddb/ragai-console/internal/ui/styles"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// LOG PANE
// =============================================================================

// maxLogLines bounds memory per channel for long crawls.
const maxLogLines = 2000

// LogPane shows the tail of one job log channel at a time while buffering
// every channel. Streams on hidden channels keep appending to their own
// buffers; switching channels swaps the visible buffer without losing
// history. Appends arrive from stream goroutines, so the buffers are
// mutex-guarded. Rendering is limited to ~10 repaints per second with a
// token bucket; a busy crawl emits lines far faster than a terminal needs
// to repaint.
type LogPane struct {
	theme *styles.Theme

	mu      sync.Mutex
	buffers map[string][]string
	channel string
	dirty   bool

	limiter *rate.Limiter
	cached  string
	cachedW int
	cachedH int
}

// NewLogPane creates an empty log pane.
func NewLogPane(theme *styles.Theme) *LogPane {
	return &LogPane{
		theme:   theme,
		buffers: make(map[string][]string),
		limiter: rate.NewLimiter(rate.Limit(10), 1),
	}
}

// SetChannel switches which channel's buffer is visible. Hidden buffers
// are kept.
func (p *LogPane) SetChannel(channel string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == channel {
		return
	}
	p.channel = channel
	p.dirty = true
}

// Append adds one verbatim log line to the channel's buffer.
func (p *LogPane) Append(channel, line string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lines := append(p.buffers[channel], line)
	if len(lines) > maxLogLines {
		lines = lines[len(lines)-maxLogLines:]
	}
	p.buffers[channel] = lines
	if channel == p.channel {
		p.dirty = true
	}
}

// Clear empties every channel's buffer.
func (p *LogPane) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffers = make(map[string][]string)
	p.dirty = true
}

// Len returns the number of lines buffered for the channel.
func (p *LogPane) Len(channel string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buffers[channel])
}

// Lines returns a copy of the channel's buffered lines.
func (p *LogPane) Lines(channel string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.buffers[channel]))
	copy(out, p.buffers[channel])
	return out
}

// View renders the tail of the visible channel's log. When the pane is
// unchanged, or the repaint budget is exhausted, the previous rendering
// is reused.
func (p *LogPane) View(width, height int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	sameSize := width == p.cachedW && height == p.cachedH
	if p.cached != "" && sameSize && (!p.dirty || !p.limiter.Allow()) {
		return p.cached
	}

	p.cached = p.renderLocked(width, height)
	p.cachedW = width
	p.cachedH = height
	p.dirty = false
	return p.cached
}

func (p *LogPane) renderLocked(width, height int) string {
	t := p.theme

	inner := height - 3
	if inner < 1 {
		inner = 1
	}

	visible := p.buffers[p.channel]
	if len(visible) > inner {
		visible = visible[len(visible)-inner:]
	}

	var b strings.Builder
	b.WriteString(t.LogChannel.Render(p.channel))
	b.WriteString("\n")
	for _, line := range visible {
		style := t.LogLine
		if looksLikeError(line) {
			style = t.LogLineError
		}
		b.WriteString(style.Render(util.TruncateWidth(line, width-4)))
		b.WriteString("\n")
	}

	return t.LogPane.Width(width - 2).Render(strings.TrimRight(b.String(), "\n"))
}

// looksLikeError flags lines worth highlighting. The match is loose on
// purpose; it only affects color, never behavior.
func looksLikeError(line string) bool {
	l := strings.ToLower(line)
	return strings.Contains(l, "error") || strings.Contains(l, "failed")
}
