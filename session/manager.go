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
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/storage"
)

// Manager owns the conversation session lifecycle. Status transitions are
// checked against the lifecycle graph while holding the session row lock,
// so two concurrent transitions on one session serialize and an illegal
// transition never mutates state.
type Manager struct {
	sessions storage.SessionRepository
	messages storage.MessageRepository
	logger   *slog.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger used by the Manager.
func WithManagerLogger(logger *slog.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a session Manager over the given repositories.
func NewManager(sessions storage.SessionRepository, messages storage.MessageRepository, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: sessions,
		messages: messages,
		logger:   slog.Default().With("component", "session"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create opens a new ACTIVE session for the user and chatbot pair.
func (m *Manager) Create(ctx context.Context, userID, chatbotID, topicName, description string, metadata map[string]string) (*core.ConversationSession, error) {
	session := &core.ConversationSession{
		UserID:      userID,
		ChatbotID:   chatbotID,
		TopicName:   topicName,
		Description: description,
		Status:      core.StatusActive,
		Metadata:    metadata,
	}

	created, err := m.sessions.AddSession(ctx, session)
	if err != nil {
		return nil, err
	}
	m.logger.Info("session created", "session_id", created.ID, "user_id", userID, "chatbot_id", chatbotID)
	return created, nil
}

// Get retrieves a session by ID.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error) {
	return m.sessions.GetSession(ctx, id)
}

// List retrieves the user's sessions with a chatbot, newest first,
// optionally filtered by status.
func (m *Manager) List(ctx context.Context, userID, chatbotID string, status *core.SessionStatus) ([]*core.ConversationSession, error) {
	return m.sessions.ListSessions(ctx, userID, chatbotID, status)
}

// Transition moves a session to target if the lifecycle graph allows it.
// The check and the update run in one transaction holding the session row
// lock; on an illegal transition the session is returned unchanged along
// with core.ErrInvalidTransition.
func (m *Manager) Transition(ctx context.Context, id uuid.UUID, target core.SessionStatus) (*core.ConversationSession, error) {
	if err := core.ValidateStatus(target); err != nil {
		return nil, err
	}

	var result *core.ConversationSession
	err := m.sessions.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := m.sessions.GetSessionForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !current.Status.CanTransitionTo(target) {
			result = current
			return fmt.Errorf("%w: %s to %s", core.ErrInvalidTransition, current.Status, target)
		}

		result, err = m.sessions.UpdateSessionStatus(txCtx, id, target)
		return err
	})
	if err != nil {
		return result, err
	}

	m.logger.Info("session transitioned", "session_id", id, "status", target)
	return result, nil
}

// Delete removes a session and its message history.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	if err := m.sessions.DeleteSession(ctx, id); err != nil {
		return err
	}
	m.logger.Info("session deleted", "session_id", id)
	return nil
}

// WithinDuration reports whether the session is younger than max. The check
// is advisory; callers decide what to do with an expired session.
func (m *Manager) WithinDuration(ctx context.Context, id uuid.UUID, max time.Duration) (bool, error) {
	session, err := m.sessions.GetSession(ctx, id)
	if err != nil {
		return false, err
	}
	return time.Since(session.CreatedAt) <= max, nil
}

// WithinTokenBudget reports whether the session's accumulated message
// content stays under maxTokens. Tokens are approximated by rune count of
// the message contents; the check is advisory.
func (m *Manager) WithinTokenBudget(ctx context.Context, id uuid.UUID, maxTokens int) (bool, error) {
	if _, err := m.sessions.GetSession(ctx, id); err != nil {
		return false, err
	}

	messages, err := m.messages.ListMessages(ctx, id, "")
	if err != nil {
		return false, err
	}

	var total int
	for _, msg := range messages {
		total += len([]rune(msg.Content))
	}
	return total <= maxTokens, nil
}
