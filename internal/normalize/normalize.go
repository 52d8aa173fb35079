// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package normalize is the only place schema drift between legacy and
// current backend payloads is resolved. Every function is pure and
// idempotent: applying one twice yields the same value as applying it once.
package normalize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/todddb/ragai-console/internal/model"
)

// =============================================================================
// URL AND DOMAIN INPUT
// =============================================================================

var schemeRe = regexp.MustCompile(`^([a-zA-Z][a-zA-Z0-9+.-]*)://`)

// SchemeError rejects a URL whose scheme is neither http nor https. Its
// message is shown to the user verbatim.
type SchemeError struct {
	Scheme string
}

func (e *SchemeError) Error() string {
	return fmt.Sprintf("Invalid scheme %q. Only http:// and https:// are allowed.", e.Scheme)
}

// URLRow canonicalizes a user-entered URL for a seed or allow-rule row.
// Schemeless input gets http:// or https:// per allowHTTP; a forbidden
// http:// is downgraded to https:// when allowHTTP is false; fragments are
// stripped and host-only patterns gain a trailing slash. Any scheme other
// than http(s) is rejected. Unparseable input past the scheme check is
// returned best-effort rather than failed.
func URLRow(input string, allowHTTP bool) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", nil
	}

	if m := schemeRe.FindStringSubmatch(s); m != nil {
		scheme := strings.ToLower(m[1])
		if scheme != "http" && scheme != "https" {
			return "", &SchemeError{Scheme: scheme}
		}
	} else if allowHTTP {
		s = "http://" + s
	} else {
		s = "https://" + s
	}

	if !allowHTTP {
		if rest, ok := cutPrefixFold(s, "http://"); ok {
			s = "https://" + rest
		}
	}

	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}

	u, err := url.Parse(s)
	if err != nil {
		return s, nil
	}
	if u.Path == "" && u.RawQuery == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String(), nil
}

// DomainInput reduces user input to a bare lowercase domain, stripping any
// scheme, path, query, or port-less noise the user pasted along.
func DomainInput(input string) string {
	s := strings.TrimSpace(input)
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(s)
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return "", false
}

// =============================================================================
// CONFIG ROW PAYLOADS
// =============================================================================

// Seed accepts the string shorthand or the object form of a seed entry.
func Seed(raw []byte) model.Seed {
	doc := gjson.ParseBytes(raw)
	if doc.Type == gjson.String {
		return model.Seed{URL: strings.TrimSpace(doc.String())}
	}
	return model.Seed{
		URL:       strings.TrimSpace(firstString(doc, "url", "seed_url", "seed")),
		AllowHTTP: doc.Get("allow_http").Bool() || doc.Get("allowHttp").Bool(),
	}
}

// AllowRule accepts the string shorthand, legacy camelCase key aliases, and
// missing fields, filling match="prefix" and allow_http=false defaults.
func AllowRule(raw []byte) model.AllowRule {
	doc := gjson.ParseBytes(raw)
	if doc.Type == gjson.String {
		return model.AllowRule{
			Pattern: strings.TrimSpace(doc.String()),
			Match:   model.MatchPrefix,
			Types:   model.DefaultTypeFlags(),
		}
	}

	rule := model.AllowRule{
		ID:          doc.Get("id").String(),
		Pattern:     strings.TrimSpace(firstString(doc, "pattern", "url", "prefix")),
		Match:       doc.Get("match").String(),
		AllowHTTP:   doc.Get("allow_http").Bool() || doc.Get("allowHttp").Bool(),
		AuthProfile: firstString(doc, "auth_profile", "authProfile"),
		Types:       Types([]byte(doc.Get("types").Raw)),
	}
	if rule.Match != model.MatchExact {
		rule.Match = model.MatchPrefix
	}
	return rule
}

// Types accepts the flag-object form, the legacy list-of-names form, or
// nothing at all. A payload that selects no type at all reads as web-only;
// rules are never persisted with an all-false type set.
func Types(raw []byte) model.TypeFlags {
	doc := gjson.ParseBytes(raw)
	switch {
	case doc.IsObject():
		flags := model.TypeFlags{
			Web:  doc.Get("web").Bool(),
			PDF:  doc.Get("pdf").Bool(),
			DOCX: doc.Get("docx").Bool(),
			XLSX: doc.Get("xlsx").Bool(),
			PPTX: doc.Get("pptx").Bool(),
		}
		return flags.EnsureAny()
	case doc.IsArray():
		var flags model.TypeFlags
		for _, v := range doc.Array() {
			switch strings.ToLower(v.String()) {
			case "web", "html":
				flags.Web = true
			case "pdf":
				flags.PDF = true
			case "docx":
				flags.DOCX = true
			case "xlsx":
				flags.XLSX = true
			case "pptx":
				flags.PPTX = true
			}
		}
		return flags.EnsureAny()
	default:
		return model.DefaultTypeFlags()
	}
}

// =============================================================================
// CRAWL SUMMARY
// =============================================================================

// CrawlSummary folds both summary generations into one shape. Current
// summaries nest skipped/errors breakdowns; legacy ones carry flat integers,
// which land in the Other buckets so totals stay right.
func CrawlSummary(raw []byte) model.CrawlSummary {
	doc := gjson.ParseBytes(raw)
	summary := model.CrawlSummary{
		Captured: int(doc.Get("captured").Int()),
	}

	if skipped := doc.Get("skipped"); skipped.IsObject() {
		summary.Skipped = model.SkippedCounts{
			AlreadyProcessed: int(skipped.Get("already_processed").Int()),
			DepthExceeded:    int(skipped.Get("depth_exceeded").Int()),
			NotAllowed:       int(skipped.Get("not_allowed").Int()),
			AuthRequired:     int(skipped.Get("auth_required").Int()),
			NonHTML:          int(skipped.Get("non_html").Int()),
			Other:            int(skipped.Get("other").Int()),
		}
	} else if skipped.Exists() {
		summary.Skipped.Other = int(skipped.Int())
	}

	if errs := doc.Get("errors_by_class"); errs.IsObject() {
		summary.ErrorsByClass = model.ErrorsByClass{
			Client:         int(errs.Get("4xx").Int()),
			Server:         int(errs.Get("5xx").Int()),
			NetworkTimeout: int(errs.Get("network_timeout").Int()),
			Other:          int(errs.Get("other").Int()),
		}
	} else if errs := doc.Get("errors"); errs.Exists() && !errs.IsObject() {
		summary.ErrorsByClass.Other = int(errs.Int())
	}

	if artifacts := doc.Get("artifacts"); artifacts.IsObject() {
		summary.Artifacts = model.ArtifactCounts{
			PDF:               int(artifacts.Get("pdf").Int()),
			DOCX:              int(artifacts.Get("docx").Int()),
			XLSX:              int(artifacts.Get("xlsx").Int()),
			PPTX:              int(artifacts.Get("pptx").Int()),
			SkippedNotAllowed: int(artifacts.Get("skipped_not_allowed").Int()),
		}
	}

	for _, detail := range doc.Get("error_details").Array() {
		summary.ErrorDetails = append(summary.ErrorDetails, model.ErrorDetail{
			URL:    detail.Get("url").String(),
			Status: int(detail.Get("status").Int()),
			Class:  detail.Get("class").String(),
			Reason: detail.Get("reason").String(),
		})
	}

	return summary
}

func firstString(doc gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := doc.Get(key); v.Exists() && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
