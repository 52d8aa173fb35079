// Copyright (c) 2025 ragai project
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives streaming chat conversations against the backend:
// starting and loading conversations, sending messages over SSE, and the
// once-per-session auto-title request.
package session

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/todddb/ragai-console/internal/api"
	"github.com/todddb/ragai-console/internal/model"
	"github.com/todddb/ragai-console/internal/util"
)

// =============================================================================
// EVENTS
// =============================================================================

// Events receives stream callbacks from the reader goroutine, in arrival
// order. Nil callbacks are skipped. After CloseStream returns, no further
// callback fires.
type Events struct {
	// OnStatus reports a pipeline stage change (intent, research,
	// synthesis, validation).
	OnStatus func(stage, message string)

	// OnToken delivers one token of assistant output.
	OnToken func(text string)

	// OnDone fires when the server finished the reply. The caller should
	// re-fetch the conversation for server-authoritative content.
	OnDone func()

	// OnError fires at most once, for a transport failure or a server
	// error event. The stream is closed before it fires.
	OnError func(err error)
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller manages the active conversation and its message stream. At most
// one message stream is open at a time; sending while one is open closes it
// first.
type Controller struct {
	mu     sync.Mutex
	client *api.Client
	log    *logrus.Logger

	conversationID string
	stream         *api.Stream

	// autoTitleRequested tracks conversation ids for which the auto-title
	// request was already issued this run.
	autoTitleRequested map[string]bool
}

// NewController creates a controller backed by the given client.
func NewController(client *api.Client, log *logrus.Logger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{
		client:             client,
		log:                log,
		autoTitleRequested: map[string]bool{},
	}
}

// ConversationID returns the active conversation id, if any.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// =============================================================================
// CONVERSATION LIFECYCLE
// =============================================================================

// Start creates a new conversation on the server and makes it active. Any
// in-flight message stream is closed first.
func (c *Controller) Start(ctx context.Context) (string, error) {
	c.CloseStream()

	var resp struct {
		ConversationID string `json:"conversation_id"`
	}
	if err := c.client.PostJSON(ctx, "/api/chat/start", nil, &resp); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.conversationID = resp.ConversationID
	c.mu.Unlock()
	return resp.ConversationID, nil
}

// Load fetches a conversation with its transcript and makes it active.
func (c *Controller) Load(ctx context.Context, id string) (model.ConversationDetail, error) {
	var detail model.ConversationDetail
	if err := c.client.GetJSON(ctx, "/api/chat/"+id, &detail); err != nil {
		return detail, err
	}

	c.mu.Lock()
	c.conversationID = id
	c.mu.Unlock()
	return detail, nil
}

// List returns the sidebar conversation list.
func (c *Controller) List(ctx context.Context) ([]model.Conversation, error) {
	var conversations []model.Conversation
	if err := c.client.GetJSON(ctx, "/api/chat/list", &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

// Rename sets a conversation title.
func (c *Controller) Rename(ctx context.Context, id, title string) error {
	return c.client.PutJSON(ctx, "/api/chat/"+id, map[string]string{"title": title}, nil)
}

// Delete removes a conversation. The active conversation is cleared when it
// was the one deleted.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.client.Delete(ctx, "/api/chat/"+id); err != nil {
		return err
	}

	c.mu.Lock()
	if c.conversationID == id {
		c.conversationID = ""
	}
	c.mu.Unlock()
	return nil
}

// Export writes the conversation export payload to dir and returns the
// written path.
func (c *Controller) Export(ctx context.Context, id, dir string) (string, error) {
	data, err := c.client.GetRaw(ctx, "/api/chat/"+id+"/export")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "conversation-"+id+".json")
	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// =============================================================================
// AUTO-TITLE
// =============================================================================

// MaybeAutoTitle issues the best-effort title request when the conversation
// still carries the placeholder title and has at least one full exchange.
// At most one request per conversation per run; reports whether one was
// issued so the caller can refresh the sidebar.
func (c *Controller) MaybeAutoTitle(ctx context.Context, detail model.ConversationDetail) bool {
	if !detail.Conversation.NeedsAutoTitle() || !detail.HasExchange() {
		return false
	}

	id := detail.Conversation.ID
	c.mu.Lock()
	if c.autoTitleRequested[id] {
		c.mu.Unlock()
		return false
	}
	c.autoTitleRequested[id] = true
	c.mu.Unlock()

	if err := c.client.PostJSON(ctx, "/api/chat/"+id+"/title/auto", nil, nil); err != nil {
		c.log.WithError(err).Debug("auto-title request failed")
		return false
	}
	return true
}

// =============================================================================
// MESSAGE STREAMING
// =============================================================================

// Send posts a message to the active conversation and consumes the reply
// stream, delivering events in arrival order. The call returns once the
// stream is open; consumption continues on a background goroutine until
// done, error, or CloseStream.
func (c *Controller) Send(ctx context.Context, text string, ev Events) error {
	c.mu.Lock()
	id := c.conversationID
	c.mu.Unlock()
	if id == "" {
		return &api.ClientError{Type: api.ErrTypeInvalidResponse, Message: "no active conversation"}
	}

	c.CloseStream()

	stream, err := c.client.OpenSSE(ctx, http.MethodPost, "/api/chat/"+id+"/message", map[string]string{"text": text})
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.stream = stream
	c.mu.Unlock()

	go c.consume(stream, ev)
	return nil
}

// consume pumps one reply stream. A locally closed stream ends the pump
// silently; every other exit path fires exactly one terminal callback.
func (c *Controller) consume(stream *api.Stream, ev Events) {
	defer c.release(stream)

	for {
		var event model.ChatEvent
		if err := stream.NextJSON(&event); err != nil {
			if err == api.ErrStreamClosed {
				return
			}
			stream.Close()
			if err == io.EOF {
				// Peer ended without a done event.
				if ev.OnDone != nil {
					ev.OnDone()
				}
				return
			}
			if ev.OnError != nil {
				ev.OnError(err)
			}
			return
		}

		switch event.Type {
		case "status":
			if ev.OnStatus != nil {
				ev.OnStatus(event.Stage, event.Message)
			}
		case "token":
			if ev.OnToken != nil {
				ev.OnToken(event.Text)
			}
		case "done":
			stream.Close()
			if ev.OnDone != nil {
				ev.OnDone()
			}
			return
		case "error":
			stream.Close()
			if ev.OnError != nil {
				ev.OnError(&api.ClientError{Type: api.ErrTypeInvalidResponse, Message: event.Message})
			}
			return
		default:
			// Unknown event types are skipped so the protocol can grow.
		}
	}
}

// release clears the stream slot if this stream still owns it.
func (c *Controller) release(stream *api.Stream) {
	c.mu.Lock()
	if c.stream == stream {
		c.stream = nil
	}
	c.mu.Unlock()
}

// CloseStream closes any in-flight message stream. Idempotent; after it
// returns, the pump goroutine delivers no further callbacks.
func (c *Controller) CloseStream() {
	c.mu.Lock()
	stream := c.stream
	c.stream = nil
	c.mu.Unlock()

	if stream != nil {
		stream.Close()
	}
}
