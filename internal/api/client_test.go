// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGetJSONDecodesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"api": "ok"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	var out map[string]string
	if err := client.GetJSON(t.Context(), "/api/health", &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out["api"] != "ok" {
		t.Errorf("decoded = %v", out)
	}
}

func TestStatusErrorCarriesDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"detail":"A crawl job is already running"}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	err := client.PostJSON(t.Context(), "/api/crawl/start", nil, nil)
	if !IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 StatusError, got %v", err)
	}
	if !strings.Contains(err.Error(), "A crawl job is already running") {
		t.Errorf("detail missing from %v", err)
	}
}

func TestStatusErrorFallsBackToRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream worker offline"))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	var out map[string]any
	err := client.GetJSON(t.Context(), "/api/jobs", &out)
	if !IsStatus(err, http.StatusBadGateway) {
		t.Fatalf("expected 502, got %v", err)
	}
	if !strings.Contains(err.Error(), "upstream worker offline") {
		t.Errorf("raw body missing from %v", err)
	}
}

func TestConnectionErrorType(t *testing.T) {
	// A closed server guarantees a refused connection.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(Config{BaseURL: url, RetryMax: 0})
	err := client.PostJSON(t.Context(), "/api/chat/new", nil, nil)
	if !IsConnectionError(err) {
		t.Fatalf("expected connection error, got %v", err)
	}
	if !strings.Contains(err.Error(), "backend unreachable") {
		t.Errorf("message = %v", err)
	}
}

func TestMutationsAreNotRetried(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, RetryMax: 3})
	err := client.PostJSON(t.Context(), "/api/ingest/start", map[string]string{}, nil)
	if !IsStatus(err, http.StatusInternalServerError) {
		t.Fatalf("expected 500, got %v", err)
	}
	if hits != 1 {
		t.Errorf("POST hit the server %d times, want 1", hits)
	}
}

func TestDeleteSendsMethod(t *testing.T) {
	var method string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if err := client.Delete(t.Context(), "/api/chat/abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if method != http.MethodDelete {
		t.Errorf("method = %q", method)
	}
}
