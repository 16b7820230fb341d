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


package reindex

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/poiesic/parlance/ai"
	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/index"
)

// Index is the slice of the vector index a reindex needs: metadata, a full
// scan, a dimension update when the new model's vectors differ, and upserts
// to write the fresh embeddings back.
type Index interface {
	GetCollection(ctx context.Context, name string) (*core.Collection, error)
	Count(ctx context.Context, collection string) (int64, error)
	Scan(ctx context.Context, collection string, batchSize int, fn func([]index.Entry) error) error
	SetEmbeddingDim(ctx context.Context, collection string, dim int) error
	Upsert(ctx context.Context, collection string, entries []index.Entry) error
}

// Config holds configuration for the reindexing operation.
type Config struct {
	// BatchSize is the number of entries to process in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of entries)
	ReportInterval int

	// MaxRetries is the maximum number of retry attempts for failed operations
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      100,
		ReportInterval: 100,
		MaxRetries:     3,
		RetryDelay:     1 * time.Second,
	}
}

// Reindexer re-embeds every entry of one collection with a new embedder.
type Reindexer struct {
	index    Index
	embedder ai.Embedder
	config   *Config
	progress io.Writer
}

// NewReindexer creates a new reindexer.
// progress: where to write progress output (typically os.Stderr)
func NewReindexer(ix Index, embedder ai.Embedder, config *Config, progress io.Writer) (*Reindexer, error) {
	if ix == nil {
		return nil, ErrIndexRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	return &Reindexer{
		index:    ix,
		embedder: embedder,
		config:   config,
		progress: progress,
	}, nil
}

// Run re-embeds the named collection. Every entry is embedded with the
// configured embedder and written back under its original fingerprint; if
// the new model produces vectors of a different dimension, the collection's
// declared dimension is updated before the first write.
func (r *Reindexer) Run(ctx context.Context, collection string) error {
	meta, err := r.index.GetCollection(ctx, collection)
	if err != nil {
		return err
	}

	total, err := r.index.Count(ctx, collection)
	if err != nil {
		return err
	}
	if total == 0 {
		fmt.Fprintf(r.progress, "Collection %q is empty (0 entries)\n", collection)
		return nil
	}

	fmt.Fprintf(r.progress, "Starting reindex of %q: %d entries (batch size: %d)\n",
		collection, total, r.config.BatchSize)

	tracker := NewProgressTracker(r.progress, int(total), r.config.ReportInterval)
	tracker.Start()

	processed := 0
	currentDim := meta.EmbeddingDim

	err = r.index.Scan(ctx, collection, r.config.BatchSize, func(entries []index.Entry) error {
		texts := make([]string, len(entries))
		for i, entry := range entries {
			texts[i] = entry.Content
		}

		var embeddings [][]float32
		embedErr := RetryWithBackoff(ctx, func() error {
			var err error
			embeddings, err = r.embedder.EmbedTexts(ctx, texts)
			return err
		}, r.config.MaxRetries, r.config.RetryDelay)
		if embedErr != nil {
			return fmt.Errorf("failed to generate embeddings after %d attempts: %w", r.config.MaxRetries, embedErr)
		}
		if len(embeddings) != len(entries) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(entries), len(embeddings))
		}

		if dim := len(embeddings[0]); dim != currentDim {
			if err := r.index.SetEmbeddingDim(ctx, collection, dim); err != nil {
				return err
			}
			currentDim = dim
		}

		for i := range entries {
			entries[i].Vector = embeddings[i]
		}
		if err := r.index.Upsert(ctx, collection, entries); err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}

		processed += len(entries)
		tracker.Update(processed)
		return nil
	})
	if err != nil {
		return err
	}

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(r.progress, "Reindex complete. Processed %d entries in %v (%.1f entries/sec)\n",
		total, elapsed.Round(time.Second), float64(total)/elapsed.Seconds())

	return nil
}
