// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP and SSE adapter for the ragai backend.
//
// All console traffic goes through the Client: JSON requests with typed
// non-2xx results, SSE streams with blank-line framing, and attachment
// downloads. Idempotent GETs ride a retrying transport; mutating requests
// and streams use plain clients so a retry can never duplicate a job.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is used when neither the config file nor the saved state
// override the API location.
const DefaultBaseURL = "http://localhost:8000"

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeInvalidResponse
)

// ClientError represents a transport-level failure (the server was never
// reached, or its response could not be decoded).
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// StatusError is a non-2xx response. It is a value, not an exceptional
// condition: callers render Detail inline and carry on.
type StatusError struct {
	Code   int
	Path   string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: HTTP %d: %s", e.Path, e.Code, e.Detail)
	}
	return fmt.Sprintf("%s: HTTP %d", e.Path, e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Code == code
}

// IsConnectionError reports whether err means the backend was unreachable.
func IsConnectionError(err error) bool {
	var clientErr *ClientError
	return errors.As(err, &clientErr) && clientErr.Type == ErrTypeConnection
}

// =============================================================================
// CLIENT
// =============================================================================

// Config holds client options.
type Config struct {
	// BaseURL of the backend, without trailing slash.
	BaseURL string

	// Timeout for plain JSON requests (default: 30s).
	Timeout time.Duration

	// RetryMax is the retry count for idempotent GETs (default: 2).
	RetryMax int

	// Logger receives transport diagnostics. Defaults to the standard logger.
	Logger *logrus.Logger
}

// Client talks to the ragai backend. Safe for concurrent use.
type Client struct {
	baseURL string
	log     *logrus.Logger

	retry  *retryablehttp.Client // GETs only
	plain  *http.Client          // mutating requests
	stream *http.Client          // SSE; no timeout, cancellation via context
}

// NewClient creates a client with defaults filled in.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 2
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}

	retry := retryablehttp.NewClient()
	retry.RetryMax = cfg.RetryMax
	retry.RetryWaitMin = 250 * time.Millisecond
	retry.RetryWaitMax = 2 * time.Second
	retry.HTTPClient.Timeout = cfg.Timeout
	retry.Logger = cfg.Logger
	// Surface the final response after retries are exhausted so a persistent
	// 5xx still reaches the caller as a StatusError with the server's detail.
	retry.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		log:     cfg.Logger,
		retry:   retry,
		plain:   &http.Client{Timeout: cfg.Timeout},
		stream:  &http.Client{},
	}
}

// BaseURL returns the resolved backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// REQUEST WRAPPER
// =============================================================================

// do issues a request and returns the response with a 2xx status, or an
// error. Non-2xx bodies are drained so the connection can be reused.
func (c *Client) do(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
	}

	var resp *http.Response
	var err error
	if method == http.MethodGet {
		var req *retryablehttp.Request
		req, err = retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
		if err != nil {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
		}
		resp, err = c.retry.Do(req)
	} else {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err = c.plain.Do(req)
	}

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
		}
		return nil, &ClientError{Type: ErrTypeConnection, Message: "backend unreachable at " + c.baseURL, Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := readDetail(resp.Body)
		resp.Body.Close()
		return nil, &StatusError{Code: resp.StatusCode, Path: path, Detail: detail}
	}

	return resp, nil
}

// readDetail extracts the server's error text. FastAPI errors carry a
// "detail" field; anything else falls back to the raw body.
func readDetail(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	if detail := gjson.GetBytes(data, "detail"); detail.Exists() {
		return detail.String()
	}
	return strings.TrimSpace(string(data))
}

// GetJSON fetches path and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out interface{}) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode " + path, Cause: err}
	}
	return nil
}

// GetRaw fetches path and returns the raw response body.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// PostJSON issues a POST. body and out may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPost, path, body, out)
}

// PutJSON issues a PUT. body and out may be nil.
func (c *Client) PutJSON(ctx context.Context, path string, body, out interface{}) error {
	return c.sendJSON(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE and discards the response body.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.sendJSON(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out interface{}) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode " + path, Cause: err}
	}
	return nil
}

// Download issues a GET and returns the raw response for attachment
// handling. The caller owns the body.
func (c *Client) Download(ctx context.Context, path string) (*http.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil)
}

// drainAndClose reads the body to completion so the connection is reusable.
func drainAndClose(r io.ReadCloser) {
	io.Copy(io.Discard, r)
	r.Close()
}
