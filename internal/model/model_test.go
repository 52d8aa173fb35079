// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"testing"
)

func TestMessageTextPlainString(t *testing.T) {
	msg := Message{Role: RoleUser, Content: json.RawMessage(`"hello there"`)}
	if got := msg.Text(); got != "hello there" {
		t.Errorf("Expected plain text, got %q", got)
	}
	if msg.AssistantContent() != nil {
		t.Error("Plain string content should not decode as assistant content")
	}
}

func TestMessageTextStructured(t *testing.T) {
	content := `{"text":"the answer","citations":[{"doc_id":"d1","url":"https://x.com/","score":0.9}]}`
	msg := Message{Role: RoleAssistant, Content: json.RawMessage(content)}

	if got := msg.Text(); got != "the answer" {
		t.Errorf("Expected structured text, got %q", got)
	}
	ac := msg.AssistantContent()
	if ac == nil {
		t.Fatal("Expected assistant content to decode")
	}
	if len(ac.Citations) != 1 || ac.Citations[0].DocID != "d1" {
		t.Errorf("Citations not decoded: %+v", ac.Citations)
	}
}

func TestMessageTextEncodedObject(t *testing.T) {
	// Older backends store the object JSON-encoded inside a string column.
	inner := `{"text":"nested","pipeline":{"error":"boom"}}`
	encoded, _ := json.Marshal(inner)
	msg := Message{Role: RoleAssistant, Content: encoded}

	if got := msg.Text(); got != "nested" {
		t.Errorf("Expected nested text, got %q", got)
	}
	ac := msg.AssistantContent()
	if ac == nil || ac.Pipeline == nil || ac.Pipeline.Error != "boom" {
		t.Errorf("Pipeline error not decoded: %+v", ac)
	}
}

func TestNeedsAutoTitle(t *testing.T) {
	tests := []struct {
		name string
		conv Conversation
		want bool
	}{
		{"empty title", Conversation{}, true},
		{"placeholder title", Conversation{Title: DefaultTitle}, true},
		{"real title", Conversation{Title: "Parking permits"}, false},
		{"already auto-titled", Conversation{Title: DefaultTitle, AutoTitled: true}, false},
		{"whitespace title", Conversation{Title: "   "}, true},
	}
	for _, tt := range tests {
		if got := tt.conv.NeedsAutoTitle(); got != tt.want {
			t.Errorf("%s: NeedsAutoTitle = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestHasExchange(t *testing.T) {
	detail := ConversationDetail{Messages: []Message{
		{Role: RoleUser, Content: json.RawMessage(`"hi"`)},
	}}
	if detail.HasExchange() {
		t.Error("User-only transcript should not count as an exchange")
	}
	detail.Messages = append(detail.Messages, Message{Role: RoleAssistant, Content: json.RawMessage(`{"text":"hello"}`)})
	if !detail.HasExchange() {
		t.Error("User+assistant transcript should count as an exchange")
	}
}

func TestTypeFlagsEnsureAny(t *testing.T) {
	flags := TypeFlags{}.EnsureAny()
	if !flags.Web {
		t.Error("EnsureAny should default an all-false set to web")
	}

	flags = TypeFlags{PDF: true}.EnsureAny()
	if flags.Web {
		t.Error("EnsureAny should not touch a set with any flag already true")
	}
}

func TestAllowRuleCovers(t *testing.T) {
	prefix := AllowRule{Pattern: "https://x.com/docs/", Match: MatchPrefix}
	if !prefix.Covers("https://x.com/docs/intro") {
		t.Error("Prefix rule should cover longer URL")
	}
	if prefix.Covers("https://x.com/other") {
		t.Error("Prefix rule should not cover unrelated URL")
	}

	exact := AllowRule{Pattern: "https://x.com/page", Match: MatchExact}
	if !exact.Covers("https://x.com/page") {
		t.Error("Exact rule should cover identical URL")
	}
	if exact.Covers("https://x.com/page/sub") {
		t.Error("Exact rule should not cover extensions")
	}
}

func TestNeedsLegacyMigration(t *testing.T) {
	flat := &PlaywrightSettings{StorageStatePath: "/data/state.json"}
	if !flat.NeedsLegacyMigration() {
		t.Error("Flat fields without profiles should need migration")
	}

	migrated := &PlaywrightSettings{
		StorageStatePath: "/data/state.json",
		AuthProfiles:     map[string]AuthProfile{LegacyProfileName: {}},
	}
	if migrated.NeedsLegacyMigration() {
		t.Error("Presence of a profile should suppress migration")
	}

	empty := &PlaywrightSettings{}
	if empty.NeedsLegacyMigration() {
		t.Error("Empty block should not need migration")
	}
}

func TestIngestStatusTerminal(t *testing.T) {
	for _, status := range []string{IngestStatusDone, IngestStatusError, IngestStatusCancelled} {
		if !IngestStatusTerminal(status) {
			t.Errorf("%s should be terminal", status)
		}
	}
	for _, status := range []string{IngestStatusQueued, IngestStatusRunning, IngestStatusCancelling} {
		if IngestStatusTerminal(status) {
			t.Errorf("%s should not be terminal", status)
		}
	}
}

func TestOverlayLookupFallsBackToPattern(t *testing.T) {
	overlay := &AuthStatusOverlay{
		ByRuleID:  map[string]RuleAuthStatus{"r1": {UIStatus: AuthUIValid}},
		ByPattern: map[string]RuleAuthStatus{"https://x.com/": {UIStatus: AuthUIInvalid}},
	}

	byID, ok := overlay.Lookup(AllowRule{ID: "r1", Pattern: "https://x.com/"})
	if !ok || byID.UIStatus != AuthUIValid {
		t.Errorf("Lookup by ID failed: %+v", byID)
	}

	byPattern, ok := overlay.Lookup(AllowRule{Pattern: "https://x.com/"})
	if !ok || byPattern.UIStatus != AuthUIInvalid {
		t.Errorf("Lookup by pattern failed: %+v", byPattern)
	}

	if _, ok := overlay.Lookup(AllowRule{Pattern: "https://other.com/"}); ok {
		t.Error("Unknown rule should not resolve")
	}
}
