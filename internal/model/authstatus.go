// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// AUTH CHECK RESULTS
// =============================================================================

// AuthCheckResult is one profile's entry in GET /api/crawl/auth-status and
// in the POST /api/crawl/test-auth response.
type AuthCheckResult struct {
	ProfileName string `json:"profile_name"`
	OK          bool   `json:"ok"`
	FinalURL    string `json:"final_url"`
	Title       string `json:"title,omitempty"`
	Status      *int   `json:"status"`
	ErrorReason string `json:"error_reason,omitempty"`
	CheckedAt   string `json:"checked_at,omitempty"`
}

// =============================================================================
// PER-RULE AUTH OVERLAY
// =============================================================================

// Per-rule auth UI states as reported by GET /api/admin/allowed-urls/auth-status.
const (
	AuthUIValid        = "valid"
	AuthUIInvalid      = "invalid"
	AuthUINeedsProfile = "needs_profile"
	AuthUICannotTest   = "cannot_test"
	AuthUIUnknown      = "unknown"
)

// RuleAuthStatus is the overlay entry for a single allow rule.
type RuleAuthStatus struct {
	UIStatus    string `json:"ui_status"`
	ProfileName string `json:"profile_name,omitempty"`
	ErrorReason string `json:"error_reason,omitempty"`
	CheckedAt   string `json:"checked_at,omitempty"`
}

// AuthStatusOverlay is the derived per-rule cache laid over the allow rules
// for rendering. Lookup is by rule ID with fallback to pattern.
type AuthStatusOverlay struct {
	ByRuleID            map[string]RuleAuthStatus `json:"by_rule_id"`
	ByPattern           map[string]RuleAuthStatus `json:"by_pattern"`
	PlaywrightAvailable bool                      `json:"playwright_available"`
	UpdatedAt           string                    `json:"updated_at,omitempty"`
}

// Lookup resolves the overlay entry for a rule, preferring the server ID.
func (o *AuthStatusOverlay) Lookup(rule AllowRule) (RuleAuthStatus, bool) {
	if o == nil {
		return RuleAuthStatus{}, false
	}
	if rule.ID != "" {
		if status, ok := o.ByRuleID[rule.ID]; ok {
			return status, true
		}
	}
	status, ok := o.ByPattern[rule.Pattern]
	return status, ok
}
