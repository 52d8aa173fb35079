// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultTitle is the placeholder title the backend assigns to a fresh
// conversation. Auto-titling only fires while the title still equals it.
const DefaultTitle = "New Conversation"

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is the metadata record for a chat conversation.
type Conversation struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	AutoTitled bool      `json:"auto_titled,omitempty"`
}

// DisplayTitle returns the title or the backend placeholder.
func (c *Conversation) DisplayTitle() string {
	if strings.TrimSpace(c.Title) != "" {
		return c.Title
	}
	return DefaultTitle
}

// NeedsAutoTitle reports whether the conversation is still a candidate for
// auto-titling: no real title yet and not previously auto-titled.
func (c *Conversation) NeedsAutoTitle() bool {
	if c.AutoTitled {
		return false
	}
	title := strings.TrimSpace(c.Title)
	return title == "" || title == DefaultTitle
}

// ConversationDetail is the payload of GET /api/chat/{id}.
type ConversationDetail struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
}

// HasExchange reports whether the transcript contains at least one user and
// one assistant message. Auto-titling requires a complete exchange.
func (d *ConversationDetail) HasExchange() bool {
	var user, assistant bool
	for _, msg := range d.Messages {
		switch msg.Role {
		case RoleUser:
			user = true
		case RoleAssistant:
			assistant = true
		}
	}
	return user && assistant
}

// ConversationExport is the payload of GET /api/chat/{id}/export.
type ConversationExport struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
	ExportedAt   string       `json:"exported_at"`
}

// =============================================================================
// MESSAGES
// =============================================================================

// Message roles as sent by the backend.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single transcript entry. User content is plain text;
// assistant content is a structured object (possibly JSON-encoded as a
// string by older backends).
type Message struct {
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// Text extracts the display text of the message regardless of whether the
// content is a bare string, an object, or an object encoded as a string.
func (m *Message) Text() string {
	content := m.AssistantContent()
	if content != nil {
		return content.Text
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}
	return string(m.Content)
}

// AssistantContent decodes the structured assistant payload. Returns nil if
// the content is not an object (or an object encoded as a string).
func (m *Message) AssistantContent() *AssistantContent {
	raw := m.Content
	// Older backends store the object JSON-encoded inside a string.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		trimmed := strings.TrimSpace(s)
		if !strings.HasPrefix(trimmed, "{") {
			return nil
		}
		raw = json.RawMessage(trimmed)
	}
	var content AssistantContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil
	}
	return &content
}

// AssistantContent is the structured body of an assistant message.
type AssistantContent struct {
	Text      string          `json:"text"`
	Citations []Citation      `json:"citations,omitempty"`
	Sources   []Citation      `json:"sources,omitempty"`
	Pipeline  *Pipeline       `json:"pipeline,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
}

// Citation is a retrieval hit referenced by an answer.
type Citation struct {
	DocID   string  `json:"doc_id"`
	ChunkID string  `json:"chunk_id"`
	URL     string  `json:"url"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Text    string  `json:"text,omitempty"`
}

// Pipeline carries the per-stage agent outputs attached to an answer.
// The stages are opaque to the console; they are rendered as-is.
type Pipeline struct {
	Intent     json.RawMessage `json:"intent,omitempty"`
	Research   json.RawMessage `json:"research,omitempty"`
	Synthesis  json.RawMessage `json:"synthesis,omitempty"`
	Validation json.RawMessage `json:"validation,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// =============================================================================
// CHAT STREAM EVENTS
// =============================================================================

// Streaming stages reported by status events during a chat response.
const (
	StageIntent     = "intent"
	StageResearch   = "research"
	StageSynthesis  = "synthesis"
	StageValidation = "validation"
	StageError      = "error"
)

// ChatEvent is one frame of the POST /api/chat/{id}/message SSE stream.
type ChatEvent struct {
	Type    string `json:"type"` // "status", "token", "done"
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`
	Text    string `json:"text,omitempty"`
}
