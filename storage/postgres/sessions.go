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


package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/storage"
)

// SessionRepository implements storage.SessionRepository on PostgreSQL.
type SessionRepository struct {
	backend *Backend
}

// NewSessionRepository creates a session repository over an open backend.
func NewSessionRepository(backend *Backend) (storage.SessionRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &SessionRepository{backend: backend}, nil
}

const sessionColumns = `id, user_id, chatbot_id, topic_name, description, status, metadata, created_at`

func scanSession(row pgx.Row) (*core.ConversationSession, error) {
	var s core.ConversationSession
	var status string
	err := row.Scan(&s.ID, &s.UserID, &s.ChatbotID, &s.TopicName, &s.Description,
		&status, &s.Metadata, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = core.SessionStatus(status)
	return &s, nil
}

// AddSession persists a new session.
func (r *SessionRepository) AddSession(ctx context.Context, session *core.ConversationSession) (*core.ConversationSession, error) {
	if err := core.ValidateSession(session); err != nil {
		return nil, err
	}

	stored := *session
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Metadata == nil {
		stored.Metadata = map[string]string{}
	}

	_, err := r.backend.q(ctx).Exec(ctx, `
		INSERT INTO conversation_sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		stored.ID, stored.UserID, stored.ChatbotID, stored.TopicName,
		stored.Description, string(stored.Status), stored.Metadata, stored.CreatedAt)
	if err != nil {
		return nil, mapError(err, storage.ErrSessionNotFound)
	}
	return &stored, nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM conversation_sessions WHERE id = $1`, id)
	s, err := scanSession(row)
	if err != nil {
		return nil, mapError(err, storage.ErrSessionNotFound)
	}
	return s, nil
}

// GetSessionForUpdate retrieves a session and locks its row until the
// surrounding transaction ends.
func (r *SessionRepository) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM conversation_sessions WHERE id = $1 FOR UPDATE`, id)
	s, err := scanSession(row)
	if err != nil {
		return nil, mapError(err, storage.ErrSessionNotFound)
	}
	return s, nil
}

// ListSessions retrieves sessions for a user and chatbot, newest first.
func (r *SessionRepository) ListSessions(ctx context.Context, userID, chatbotID string, status *core.SessionStatus) ([]*core.ConversationSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM conversation_sessions
		WHERE user_id = $1 AND chatbot_id = $2`
	args := []any{userID, chatbotID}
	if status != nil {
		query += ` AND status = $3`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.backend.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*core.ConversationSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// UpdateSessionStatus sets the lifecycle status of a session.
func (r *SessionRepository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status core.SessionStatus) (*core.ConversationSession, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}

	row := r.backend.q(ctx).QueryRow(ctx, `
		UPDATE conversation_sessions SET status = $2 WHERE id = $1
		RETURNING `+sessionColumns, id, string(status))
	s, err := scanSession(row)
	if err != nil {
		return nil, mapError(err, storage.ErrSessionNotFound)
	}
	return s, nil
}

// DeleteSession removes a session; its messages cascade.
func (r *SessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	tag, err := r.backend.q(ctx).Exec(ctx,
		`DELETE FROM conversation_sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// WithTransaction executes fn within a transaction.
func (r *SessionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.withTransaction(ctx, fn)
}

// Close is a no-op; the shared backend owns the pool.
func (r *SessionRepository) Close() error {
	return nil
}
