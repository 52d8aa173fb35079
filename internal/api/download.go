// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// ATTACHMENT DOWNLOADS
// =============================================================================

// FilenameFromDisposition extracts a filename from a Content-Disposition
// header. The RFC 5987 form (filename*=UTF-8''...) wins over the quoted
// form; fallback applies when neither parses.
func FilenameFromDisposition(header, fallback string) string {
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		lower := strings.ToLower(part)
		if !strings.HasPrefix(lower, "filename*=") {
			continue
		}
		value := part[len("filename*="):]
		value = strings.TrimPrefix(value, "UTF-8''")
		value = strings.TrimPrefix(value, "utf-8''")
		if decoded, err := url.QueryUnescape(value); err == nil && decoded != "" {
			return sanitizeFilename(decoded, fallback)
		}
	}

	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		lower := strings.ToLower(part)
		if !strings.HasPrefix(lower, "filename=") {
			continue
		}
		value := strings.Trim(part[len("filename="):], `"`)
		if value != "" {
			return sanitizeFilename(value, fallback)
		}
	}

	return fallback
}

// sanitizeFilename strips any path component a hostile header may carry.
func sanitizeFilename(name, fallback string) string {
	name = filepath.Base(name)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return fallback
	}
	return name
}

// SaveResponse writes an attachment response to dir, naming the file from
// Content-Disposition with fallback. The body is consumed and closed.
// Returns the written path.
func SaveResponse(resp *http.Response, dir, fallback string) (string, error) {
	defer drainAndClose(resp.Body)

	name := FilenameFromDisposition(resp.Header.Get("Content-Disposition"), fallback)
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to read attachment", Cause: err}
	}

	path := filepath.Join(dir, name)
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
