// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// SERVER CONFIG DOCUMENTS
// =============================================================================

// ServerDocs lists the server-side config documents the console can
// fetch, update, and export.
var ServerDocs = []string{"allow_block", "crawler", "agents", "ingest"}

// KnownServerDoc reports whether name is a recognized server document.
func KnownServerDoc(name string) bool {
	for _, d := range ServerDocs {
		if d == name {
			return true
		}
	}
	return false
}

// FetchServerDoc retrieves a server config document as a generic map.
func FetchServerDoc(ctx context.Context, client *api.Client, name string) (map[string]interface{}, error) {
	if !KnownServerDoc(name) {
		return nil, fmt.Errorf("unknown config document %q", name)
	}
	var doc map[string]interface{}
	if err := client.GetJSON(ctx, "/api/admin/config/"+name, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// PutServerDoc replaces a server config document.
func PutServerDoc(ctx context.Context, client *api.Client, name string, doc map[string]interface{}) error {
	if !KnownServerDoc(name) {
		return fmt.Errorf("unknown config document %q", name)
	}
	return client.PutJSON(ctx, "/api/admin/config/"+name, doc, nil)
}

// SetServerField sets one dotted-path field in a server document and
// writes the document back. Intermediate maps are created as needed.
func SetServerField(ctx context.Context, client *api.Client, name, path string, value interface{}) error {
	doc, err := FetchServerDoc(ctx, client, name)
	if err != nil {
		return err
	}
	if err := setDotted(doc, path, value); err != nil {
		return err
	}
	return PutServerDoc(ctx, client, name, doc)
}

func setDotted(doc map[string]interface{}, path string, value interface{}) error {
	keys := splitDotted(path)
	if len(keys) == 0 {
		return fmt.Errorf("empty field path")
	}
	cur := doc
	for _, k := range keys[:len(keys)-1] {
		next, ok := cur[k].(map[string]interface{})
		if !ok {
			if _, exists := cur[k]; exists {
				return fmt.Errorf("field %q is not an object", k)
			}
			next = make(map[string]interface{})
			cur[k] = next
		}
		cur = next
	}
	cur[keys[len(keys)-1]] = value
	return nil
}

func splitDotted(path string) []string {
	var keys []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			if i > start {
				keys = append(keys, path[start:i])
			}
			start = i + 1
		}
	}
	if start < len(path) {
		keys = append(keys, path[start:])
	}
	return keys
}

// =============================================================================
// YAML EXPORT
// =============================================================================

// ExportServerDoc fetches a server document and writes it to dir as
// YAML, the server's native storage format. Returns the written path.
func ExportServerDoc(ctx context.Context, client *api.Client, name, dir string) (string, error) {
	doc, err := FetchServerDoc(ctx, client, name)
	if err != nil {
		return "", err
	}

	data, err := MarshalServerDoc(doc)
	if err != nil {
		return "", err
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".yaml")
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// MarshalServerDoc renders a document as YAML. The round trip through
// JSON normalizes types yaml.v3 would otherwise render oddly, such as
// json.Number.
func MarshalServerDoc(doc map[string]interface{}) ([]byte, error) {
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(normalized, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}
