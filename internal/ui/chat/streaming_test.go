// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"sync"
	"testing"
)

func TestStreamingBufferFlushDrains(t *testing.T) {
	sb := NewStreamingBuffer()

	if _, ok := sb.Flush(); ok {
		t.Error("empty buffer reported content")
	}

	sb.Write("Hello")
	sb.Write(", ")
	sb.Write("world")

	got, ok := sb.Flush()
	if !ok || got != "Hello, world" {
		t.Errorf("Flush = %q, %v", got, ok)
	}

	if _, ok := sb.Flush(); ok {
		t.Error("second flush reported content")
	}
}

func TestStreamingBufferReset(t *testing.T) {
	sb := NewStreamingBuffer()
	sb.Write("partial answer")
	sb.Reset()
	if sb.Pending() {
		t.Error("buffer pending after reset")
	}
	if _, ok := sb.Flush(); ok {
		t.Error("reset buffer flushed content")
	}
}

func TestStreamingBufferConcurrentWrites(t *testing.T) {
	sb := NewStreamingBuffer()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				sb.Write("x")
			}
		}()
	}
	wg.Wait()

	got, ok := sb.Flush()
	if !ok || len(got) != 1000 {
		t.Errorf("len = %d, want 1000", len(got))
	}
}

func TestMarkdownRenderPlainFallbackWidth(t *testing.T) {
	m := NewMarkdown("dark", 40)
	out := m.Render("# Heading\n\nBody text.")
	if !strings.Contains(out, "Heading") || !strings.Contains(out, "Body text.") {
		t.Errorf("render lost content:\n%s", out)
	}

	// Resizing must not panic and must keep rendering.
	m.SetWidth(5)
	if m.Render("text") == "" {
		t.Error("render empty after narrow resize")
	}
}

func TestEncodeString(t *testing.T) {
	got := string(encodeString(`say "hi"` + "\nnext"))
	if got != `"say \"hi\"\nnext"` {
		t.Errorf("encodeString = %s", got)
	}
}
