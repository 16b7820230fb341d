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
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/poiesic/parlance/storage"
)

// Backend wraps a pgx connection pool shared by the repositories.
type Backend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// OpenBackend connects to PostgreSQL, verifies the connection, and creates
// the session and message tables if they don't exist.
func OpenBackend(ctx context.Context, connString string) (*Backend, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	b := &Backend{
		pool:   pool,
		logger: slog.Default().With("component", "postgres-backend"),
	}
	if err := b.Init(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return b, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS conversation_sessions (
	id         UUID PRIMARY KEY,
	user_id    TEXT NOT NULL,
	chatbot_id TEXT NOT NULL,
	topic_name  TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL CHECK (status IN ('ACTIVE', 'PAUSED', 'ARCHIVED')),
	metadata   JSONB NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_chatbot
	ON conversation_sessions (user_id, chatbot_id, created_at DESC);

CREATE TABLE IF NOT EXISTS chat_messages (
	id          UUID PRIMARY KEY,
	seq         BIGSERIAL,
	session_id  UUID NOT NULL REFERENCES conversation_sessions(id) ON DELETE CASCADE,
	sender_id   TEXT NOT NULL,
	message_type TEXT NOT NULL CHECK (message_type IN ('user', 'ai', 'system')),
	content     TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_messages_session_order
	ON chat_messages (session_id, created_at, seq);
`

// Init creates the session and message tables if they don't exist.
func (b *Backend) Init(ctx context.Context) error {
	if _, err := b.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	b.pool.Close()
	return nil
}

// txKey carries an open pgx transaction through a context.
type txKey struct{}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// q returns the transaction bound to ctx, or the pool when none is open.
func (b *Backend) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return b.pool
}

// withTransaction runs fn inside a transaction. A context already carrying a
// transaction joins it instead of opening a nested one.
func (b *Backend) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := b.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			b.logger.Error("rollback failed", "err", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrTransactionFailed, err)
	}
	return nil
}

// mapError translates pgx errors to storage sentinel errors where possible.
func mapError(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", storage.ErrDuplicateKey, pgErr.ConstraintName)
		case "23503": // foreign_key_violation
			return storage.ErrSessionNotFound
		}
	}
	return err
}
