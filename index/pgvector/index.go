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


package pgvector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvec "github.com/pgvector/pgvector-go"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/index"
)

// Index is a Postgres-backed vector index using the pgvector extension.
// Collections share two tables; embeddings are keyed by
// (collection_id, fingerprint) so re-upserts replace rather than duplicate.
type Index struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS collections (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	embedding_dim INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS embeddings (
	id BIGSERIAL PRIMARY KEY,
	collection_id BIGINT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
	fingerprint BIGINT NOT NULL,
	content TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}',
	embedding vector NOT NULL,
	UNIQUE (collection_id, fingerprint)
);

CREATE INDEX IF NOT EXISTS idx_embeddings_collection ON embeddings(collection_id);
`

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used by the Index.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Index) {
		ix.logger = logger
	}
}

// OpenIndex connects to Postgres, verifies the connection, and ensures the
// pgvector schema exists.
func OpenIndex(ctx context.Context, connString string, opts ...Option) (*Index, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	ix := &Index{
		pool:   pool,
		logger: slog.Default().With("component", "pgvector"),
	}
	for _, opt := range opts {
		opt(ix)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing pgvector schema: %w", err)
	}
	return ix, nil
}

// CreateCollection registers a collection via a conditional insert. The
// unique constraint on name makes the insert the arbiter under concurrency:
// exactly one caller sees a row inserted, every other caller gets
// ErrCollectionConflict.
func (ix *Index) CreateCollection(ctx context.Context, name string, dim int) (*core.Collection, error) {
	if name == "" {
		return nil, core.ErrEmptyCollectionName
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dim %d", index.ErrDimensionMismatch, dim)
	}

	tag, err := ix.pool.Exec(ctx,
		`INSERT INTO collections (name, embedding_dim) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		name, dim)
	if err != nil {
		return nil, fmt.Errorf("creating collection %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("%w: %s", index.ErrCollectionConflict, name)
	}
	return ix.GetCollection(ctx, name)
}

// CollectionExists reports whether the named collection is present.
func (ix *Index) CollectionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := ix.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM collections WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking collection %q: %w", name, err)
	}
	return exists, nil
}

// GetCollection retrieves collection metadata.
func (ix *Index) GetCollection(ctx context.Context, name string) (*core.Collection, error) {
	collection := &core.Collection{}
	err := ix.pool.QueryRow(ctx,
		`SELECT name, embedding_dim, created_at FROM collections WHERE name = $1`, name).
		Scan(&collection.Name, &collection.EmbeddingDim, &collection.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("loading collection %q: %w", name, err)
	}
	return collection, nil
}

// DropCollection removes a collection; its embeddings cascade.
func (ix *Index) DropCollection(ctx context.Context, name string) error {
	tag, err := ix.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("dropping collection %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	return nil
}

// Upsert writes entries, replacing rows with the same fingerprint.
func (ix *Index) Upsert(ctx context.Context, collection string, entries []index.Entry) error {
	meta, err := ix.GetCollection(ctx, collection)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if len(entry.Vector) != meta.EmbeddingDim {
			return fmt.Errorf("%w: entry has dim %d, collection %q expects %d",
				index.ErrDimensionMismatch, len(entry.Vector), collection, meta.EmbeddingDim)
		}
	}

	batch := &pgx.Batch{}
	for _, entry := range entries {
		batch.Queue(
			`INSERT INTO embeddings (collection_id, fingerprint, content, metadata, embedding)
			 SELECT id, $2, $3, $4, $5 FROM collections WHERE name = $1
			 ON CONFLICT (collection_id, fingerprint) DO UPDATE SET
				content = EXCLUDED.content,
				metadata = EXCLUDED.metadata,
				embedding = EXCLUDED.embedding`,
			collection, int64(entry.Fingerprint), entry.Content, entry.Metadata,
			pgvec.NewVector(entry.Vector))
	}

	results := ix.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("upserting into %q: %w", collection, err)
		}
	}
	return nil
}

// SimilaritySearch returns the k entries nearest to vector by cosine
// distance, best first.
func (ix *Index) SimilaritySearch(ctx context.Context, collection string, vector []float32, k int) ([]index.Match, error) {
	meta, err := ix.GetCollection(ctx, collection)
	if err != nil {
		return nil, err
	}
	if len(vector) != meta.EmbeddingDim {
		return nil, fmt.Errorf("%w: query has dim %d, collection %q expects %d",
			index.ErrDimensionMismatch, len(vector), collection, meta.EmbeddingDim)
	}

	rows, err := ix.pool.Query(ctx,
		`SELECT e.fingerprint, e.content, e.metadata, e.embedding,
			1 - (e.embedding <=> $2) AS score
		 FROM embeddings e
		 JOIN collections c ON e.collection_id = c.id
		 WHERE c.name = $1
		 ORDER BY e.embedding <=> $2
		 LIMIT $3`,
		collection, pgvec.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("searching collection %q: %w", collection, err)
	}
	defer rows.Close()

	var matches []index.Match
	for rows.Next() {
		var (
			match       index.Match
			fingerprint int64
			embedding   pgvec.Vector
		)
		if err := rows.Scan(&fingerprint, &match.Content, &match.Metadata, &embedding, &match.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		match.Fingerprint = core.Fingerprint(fingerprint)
		match.Vector = embedding.Slice()
		matches = append(matches, match)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return matches, nil
}

// Scan visits every entry of a collection in batches of batchSize, paging
// by the surrogate row id so each batch is one bounded query. fn must not
// retain the slice across calls.
func (ix *Index) Scan(ctx context.Context, collection string, batchSize int, fn func([]index.Entry) error) error {
	if _, err := ix.GetCollection(ctx, collection); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = 100
	}

	lastID := int64(0)
	for {
		entries, maxID, err := ix.scanBatch(ctx, collection, lastID, batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		if err := fn(entries); err != nil {
			return err
		}
		if len(entries) < batchSize {
			return nil
		}
		lastID = maxID
	}
}

func (ix *Index) scanBatch(ctx context.Context, collection string, afterID int64, limit int) ([]index.Entry, int64, error) {
	rows, err := ix.pool.Query(ctx,
		`SELECT e.id, e.fingerprint, e.content, e.metadata, e.embedding
		 FROM embeddings e
		 JOIN collections c ON e.collection_id = c.id
		 WHERE c.name = $1 AND e.id > $2
		 ORDER BY e.id
		 LIMIT $3`,
		collection, afterID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("scanning collection %q: %w", collection, err)
	}
	defer rows.Close()

	var (
		entries []index.Entry
		maxID   int64
	)
	for rows.Next() {
		var (
			entry       index.Entry
			id          int64
			fingerprint int64
			embedding   pgvec.Vector
		)
		if err := rows.Scan(&id, &fingerprint, &entry.Content, &entry.Metadata, &embedding); err != nil {
			return nil, 0, fmt.Errorf("scanning entry: %w", err)
		}
		entry.Fingerprint = core.Fingerprint(fingerprint)
		entry.Vector = embedding.Slice()
		entries = append(entries, entry)
		maxID = id
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("reading scan results: %w", err)
	}
	return entries, maxID, nil
}

// SetEmbeddingDim updates a collection's declared embedding dimension.
// Existing entries are untouched; callers switching models must rewrite
// every entry or searches will mix dimensions.
func (ix *Index) SetEmbeddingDim(ctx context.Context, collection string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dim %d", index.ErrDimensionMismatch, dim)
	}
	tag, err := ix.pool.Exec(ctx,
		`UPDATE collections SET embedding_dim = $2 WHERE name = $1`, collection, dim)
	if err != nil {
		return fmt.Errorf("updating dimension of %q: %w", collection, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, collection)
	}
	return nil
}

// Count reports the number of entries in a collection.
func (ix *Index) Count(ctx context.Context, collection string) (int64, error) {
	var count int64
	err := ix.pool.QueryRow(ctx,
		`SELECT count(*) FROM embeddings e
		 JOIN collections c ON e.collection_id = c.id
		 WHERE c.name = $1`, collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting collection %q: %w", collection, err)
	}
	return count, nil
}

// Close releases the connection pool.
func (ix *Index) Close() error {
	ix.pool.Close()
	ix.logger.Debug("pgvector index closed")
	return nil
}
