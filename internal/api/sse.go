// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
)

// =============================================================================
// SSE FRAME READER
// =============================================================================

// FrameReader parses a Server-Sent-Events byte stream. Chunks of arbitrary
// size are buffered until a blank line terminates an event; within an event
// all "data:" lines are joined with "\n". Other SSE fields and comments are
// ignored.
type FrameReader struct {
	r     io.Reader
	buf   bytes.Buffer
	chunk []byte
	eof   bool
}

// NewFrameReader wraps an io.Reader carrying text/event-stream bytes.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r, chunk: make([]byte, 4096)}
}

// Next returns the data payload of the next event. Returns io.EOF when the
// stream ends; a trailing unterminated event is delivered before EOF.
func (f *FrameReader) Next() (string, error) {
	for {
		if data, ok := f.takeEvent(); ok {
			return data, nil
		}
		if f.eof {
			// Flush a final event that the peer never terminated.
			if f.buf.Len() > 0 {
				remainder := f.buf.String()
				f.buf.Reset()
				if data, ok := parseEvent(remainder); ok {
					return data, nil
				}
			}
			return "", io.EOF
		}

		n, err := f.r.Read(f.chunk)
		if n > 0 {
			f.buf.Write(f.chunk[:n])
		}
		if err != nil {
			if err != io.EOF {
				return "", err
			}
			f.eof = true
		}
	}
}

// takeEvent extracts one complete event from the buffer, if present.
func (f *FrameReader) takeEvent() (string, bool) {
	for {
		raw := f.buf.Bytes()
		idx := bytes.Index(raw, []byte("\n\n"))
		if idx < 0 {
			return "", false
		}
		event := string(raw[:idx])
		f.buf.Next(idx + 2)

		if data, ok := parseEvent(event); ok {
			return data, true
		}
		// Comment-only or field-only event; keep scanning.
	}
}

// parseEvent joins the data lines of a raw event block.
func parseEvent(event string) (string, bool) {
	var parts []string
	for _, line := range strings.Split(event, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		part := strings.TrimPrefix(line, "data:")
		part = strings.TrimPrefix(part, " ")
		parts = append(parts, part)
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, "\n"), true
}

// =============================================================================
// SSE STREAM
// =============================================================================

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = errors.New("stream closed")

// Stream is a live SSE connection. Next blocks on the wire; Close is
// idempotent and unblocks a pending Next.
type Stream struct {
	cancel context.CancelFunc
	body   io.ReadCloser
	frames *FrameReader

	mu     sync.Mutex
	closed bool

	badFrameLogged bool
	client         *Client
}

// OpenSSE starts an SSE request. A non-nil body is sent as JSON (the chat
// message stream POSTs its payload). The returned stream must be closed.
func (c *Client) OpenSSE(ctx context.Context, method, path string, body interface{}) (*Stream, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		cancel()
		return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.stream.Do(req)
	if err != nil {
		cancel()
		if errors.Is(err, context.Canceled) {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "stream cancelled", Cause: err}
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "backend unreachable at " + c.baseURL, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		resp.Body.Close()
		cancel()
		return nil, &StatusError{Code: resp.StatusCode, Path: path, Detail: detail}
	}

	return &Stream{
		cancel: cancel,
		body:   resp.Body,
		frames: NewFrameReader(resp.Body),
		client: c,
	}, nil
}

// Next returns the next event's data payload. io.EOF means the peer ended
// the stream; ErrStreamClosed means Close was called locally.
func (s *Stream) Next() (string, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrStreamClosed
	}
	s.mu.Unlock()

	data, err := s.frames.Next()
	if err == nil {
		return data, nil
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return "", ErrStreamClosed
	}
	return "", err
}

// NextJSON decodes the next event into out. Malformed events are logged once
// per stream and skipped, never fatal.
func (s *Stream) NextJSON(out interface{}) error {
	for {
		data, err := s.Next()
		if err != nil {
			return err
		}
		if err := json.Unmarshal([]byte(data), out); err != nil {
			if !s.badFrameLogged {
				s.badFrameLogged = true
				s.client.log.WithError(err).Warn("skipping malformed SSE event")
			}
			continue
		}
		return nil
	}
}

// Close terminates the stream. Safe to call more than once and from a
// different goroutine than Next.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.body.Close()
}
