// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// TYPE FLAGS
// =============================================================================

// TypeFlags selects which artifact types a rule permits the crawler to fetch.
type TypeFlags struct {
	Web  bool `json:"web"`
	PDF  bool `json:"pdf"`
	DOCX bool `json:"docx"`
	XLSX bool `json:"xlsx"`
	PPTX bool `json:"pptx"`
}

// DefaultTypeFlags returns the flags applied when a payload omits types.
func DefaultTypeFlags() TypeFlags {
	return TypeFlags{Web: true}
}

// Any reports whether at least one flag is set.
func (t TypeFlags) Any() bool {
	return t.Web || t.PDF || t.DOCX || t.XLSX || t.PPTX
}

// EnsureAny forces web=true when no flag is set. Rules are never persisted
// with an all-false type set.
func (t TypeFlags) EnsureAny() TypeFlags {
	if !t.Any() {
		t.Web = true
	}
	return t
}

// =============================================================================
// SEEDS, BLOCKED DOMAINS, ALLOW RULES
// =============================================================================

// Seed is a crawl starting point. Identity is the URL.
type Seed struct {
	URL       string `json:"url"`
	AllowHTTP bool   `json:"allow_http"`
}

// Match modes for allow rules.
const (
	MatchPrefix = "prefix"
	MatchExact  = "exact"
)

// AllowRule permits the crawler to fetch URLs matching a pattern. ID is
// assigned by the server on first save and is empty for unsaved rows.
type AllowRule struct {
	ID          string    `json:"id,omitempty"`
	Pattern     string    `json:"pattern"`
	Match       string    `json:"match"`
	Types       TypeFlags `json:"types"`
	AllowHTTP   bool      `json:"allow_http"`
	AuthProfile string    `json:"auth_profile,omitempty"`
}

// Covers reports whether the rule covers the candidate URL according to its
// match mode. Comparison is textual against the stored pattern; callers that
// want canonical comparison normalize first.
func (r AllowRule) Covers(url string) bool {
	if r.Pattern == "" {
		return false
	}
	if r.Match == MatchExact {
		return url == r.Pattern
	}
	return len(url) >= len(r.Pattern) && url[:len(r.Pattern)] == r.Pattern
}

// AllowBlockDocument is the full seeds/blocked/allow-rules document stored
// under config/allow_block on the server.
type AllowBlockDocument struct {
	SeedURLs       []Seed      `json:"seed_urls"`
	BlockedDomains []string    `json:"blocked_domains"`
	AllowRules     []AllowRule `json:"allow_rules"`
}

// =============================================================================
// AUTH PROFILES
// =============================================================================

// Reserved auth profile names. A profile synthesized from flat legacy
// playwright fields is written as LegacyProfileName; some older documents
// used "default" for the same purpose and both read as legacy-migrated.
const (
	DefaultProfileName = "default"
	LegacyProfileName  = "legacy_migrated"
)

// AuthProfile is a named Playwright storage-state configuration used for
// authenticated crawling.
type AuthProfile struct {
	Name             string   `json:"-"`
	StorageStatePath string   `json:"storage_state_path"`
	TestURL          string   `json:"test_url,omitempty"`
	StartURL         string   `json:"start_url,omitempty"`
	UseForDomains    []string `json:"use_for_domains,omitempty"`
}

// IsLegacyMigrated reports whether the profile name is one of the
// legacy-migration synonyms.
func IsLegacyMigrated(name string) bool {
	return name == LegacyProfileName || name == DefaultProfileName
}

// PlaywrightSettings is the "playwright" block of the crawler document.
// The flat StorageStatePath/UseForDomains fields are the legacy form that
// migration folds into a named profile.
type PlaywrightSettings struct {
	Enabled          bool                   `json:"enabled,omitempty"`
	AuthProfiles     map[string]AuthProfile `json:"auth_profiles,omitempty"`
	StorageStatePath string                 `json:"storage_state_path,omitempty"`
	UseForDomains    []string               `json:"use_for_domains,omitempty"`
}

// NeedsLegacyMigration reports whether the block carries flat legacy fields
// and no named profiles. The migration banner shows iff this holds.
func (p *PlaywrightSettings) NeedsLegacyMigration() bool {
	if p == nil {
		return false
	}
	hasFlat := p.StorageStatePath != "" || len(p.UseForDomains) > 0
	return hasFlat && len(p.AuthProfiles) == 0
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

// Recommendation is a discovered URL suggested for the allow list.
type Recommendation struct {
	SuggestedURL string    `json:"suggested_url"`
	Count        int       `json:"count"`
	SeenTypes    TypeFlags `json:"seen_types"`
}

// RecommendationList is the payload of GET /api/admin/candidates/recommendations.
type RecommendationList struct {
	Items []Recommendation `json:"items"`
}
