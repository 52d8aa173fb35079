// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package crawl

import (
	"github.com/todddb/ragai-console/internal/model"
)

// =============================================================================
// AUTH STATUS ICONS
// =============================================================================

// Auth icons, in rule precedence order.
const (
	IconCannotTest = "⚠️"
	IconValid      = "✅"
	IconInvalid    = "❌"
	IconNeedsAuth  = "🔒"
	IconPending    = "⏳"
	IconNone       = "—"
)

// AuthIcon derives an allow rule's auth icon from the overlay, the
// rule's profile assignment, and Playwright availability. A profile on
// a rule that cannot be tested outranks whatever the overlay last saw.
func AuthIcon(rule model.AllowRule, overlay model.AuthStatusOverlay) string {
	if rule.AuthProfile != "" && !overlay.PlaywrightAvailable {
		return IconCannotTest
	}

	if status, ok := overlay.Lookup(rule); ok {
		switch status.UIStatus {
		case model.AuthUIValid:
			return IconValid
		case model.AuthUIInvalid:
			return IconInvalid
		case model.AuthUINeedsProfile:
			return IconNeedsAuth
		case model.AuthUICannotTest:
			return IconCannotTest
		}
	}

	if rule.AuthProfile != "" {
		return IconPending
	}
	return IconNone
}
