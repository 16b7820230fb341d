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

// MessageRepository implements storage.MessageRepository on PostgreSQL.
type MessageRepository struct {
	backend *Backend
}

// NewMessageRepository creates a message repository over an open backend.
func NewMessageRepository(backend *Backend) (storage.MessageRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &MessageRepository{backend: backend}, nil
}

const messageColumns = `id, seq, session_id, sender_id, message_type, content, created_at`

func scanMessage(row pgx.Row) (*core.ChatMessage, error) {
	var m core.ChatMessage
	var messageType string
	err := row.Scan(&m.ID, &m.Seq, &m.SessionID, &m.SenderID, &messageType,
		&m.Content, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.Type = core.MessageType(messageType)
	return &m, nil
}

// AddMessage appends a message to its session. The seq column provides the
// insertion-sequence tiebreaker for equal timestamps.
func (r *MessageRepository) AddMessage(ctx context.Context, message *core.ChatMessage) (*core.ChatMessage, error) {
	if err := core.ValidateMessage(message); err != nil {
		return nil, err
	}

	stored := *message
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	row := r.backend.q(ctx).QueryRow(ctx, `
		INSERT INTO chat_messages (id, session_id, sender_id, message_type, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`,
		stored.ID, stored.SessionID, stored.SenderID, string(stored.Type),
		stored.Content, stored.CreatedAt)
	if err := row.Scan(&stored.Seq); err != nil {
		return nil, mapError(err, storage.ErrSessionNotFound)
	}
	return &stored, nil
}

// GetMessage retrieves a single message by ID.
func (r *MessageRepository) GetMessage(ctx context.Context, id uuid.UUID) (*core.ChatMessage, error) {
	row := r.backend.q(ctx).QueryRow(ctx,
		`SELECT `+messageColumns+` FROM chat_messages WHERE id = $1`, id)
	m, err := scanMessage(row)
	if err != nil {
		return nil, mapError(err, storage.ErrMessageNotFound)
	}
	return m, nil
}

// ListMessages retrieves messages in (created_at, seq) order.
func (r *MessageRepository) ListMessages(ctx context.Context, sessionID uuid.UUID, senderID string) ([]*core.ChatMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM chat_messages WHERE session_id = $1`
	args := []any{sessionID}
	if senderID != "" {
		query += ` AND sender_id = $2`
		args = append(args, senderID)
	}
	query += ` ORDER BY created_at, seq`

	rows, err := r.backend.q(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*core.ChatMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// UpdateMessage replaces the content of a message.
func (r *MessageRepository) UpdateMessage(ctx context.Context, id uuid.UUID, content string) (*core.ChatMessage, error) {
	if content == "" {
		return nil, core.ErrEmptyContent
	}

	row := r.backend.q(ctx).QueryRow(ctx, `
		UPDATE chat_messages SET content = $2 WHERE id = $1
		RETURNING `+messageColumns, id, content)
	m, err := scanMessage(row)
	if err != nil {
		return nil, mapError(err, storage.ErrMessageNotFound)
	}
	return m, nil
}

// DeleteMessage removes a message.
func (r *MessageRepository) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.backend.q(ctx).Exec(ctx,
		`DELETE FROM chat_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrMessageNotFound
	}
	return nil
}

// WithTransaction executes fn within a transaction.
func (r *MessageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.withTransaction(ctx, fn)
}

// Close is a no-op; the shared backend owns the pool.
func (r *MessageRepository) Close() error {
	return nil
}
