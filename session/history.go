// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package session

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/storage"
)

// History reads and writes the per-session message log. Messages come back
// in conversation order: created_at ascending with the insertion sequence
// breaking timestamp ties.
type History struct {
	messages storage.MessageRepository
	logger   *slog.Logger
}

// HistoryOption configures a History.
type HistoryOption func(*History)

// WithHistoryLogger sets the logger used by the History.
func WithHistoryLogger(logger *slog.Logger) HistoryOption {
	return func(h *History) {
		h.logger = logger
	}
}

// NewHistory creates a History over a message repository.
func NewHistory(messages storage.MessageRepository, opts ...HistoryOption) *History {
	h := &History{
		messages: messages,
		logger:   slog.Default().With("component", "history"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Append adds a message to a session's log. The session must exist.
func (h *History) Append(ctx context.Context, sessionID uuid.UUID, senderID string, msgType core.MessageType, content string) (*core.ChatMessage, error) {
	message := &core.ChatMessage{
		SessionID: sessionID,
		SenderID:  senderID,
		Type:      msgType,
		Content:   content,
	}
	return h.messages.AddMessage(ctx, message)
}

// Get retrieves a single message by ID.
func (h *History) Get(ctx context.Context, id uuid.UUID) (*core.ChatMessage, error) {
	return h.messages.GetMessage(ctx, id)
}

// List retrieves a session's messages in conversation order, optionally
// filtered to one sender.
func (h *History) List(ctx context.Context, sessionID uuid.UUID, senderID string) ([]*core.ChatMessage, error) {
	return h.messages.ListMessages(ctx, sessionID, senderID)
}

// Update replaces the content of a message.
func (h *History) Update(ctx context.Context, id uuid.UUID, content string) (*core.ChatMessage, error) {
	return h.messages.UpdateMessage(ctx, id, content)
}

// Delete removes a message.
func (h *History) Delete(ctx context.Context, id uuid.UUID) error {
	return h.messages.DeleteMessage(ctx, id)
}
