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


package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/index"
)

type collection struct {
	meta    core.Collection
	entries map[core.Fingerprint]index.Entry
}

// Index is a brute-force in-memory vector index, for testing.
type Index struct {
	mu          sync.Mutex
	closed      bool
	collections map[string]*collection
}

// NewIndex creates an empty in-memory vector index.
func NewIndex() *Index {
	return &Index{collections: make(map[string]*collection)}
}

// CreateCollection registers a collection. The check-and-insert runs under
// one mutex hold, so concurrent creates of the same name get exactly one
// winner.
func (ix *Index) CreateCollection(_ context.Context, name string, dim int) (*core.Collection, error) {
	if name == "" {
		return nil, core.ErrEmptyCollectionName
	}
	if dim <= 0 {
		return nil, fmt.Errorf("%w: dim %d", index.ErrDimensionMismatch, dim)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil, index.ErrIndexClosed
	}
	if _, exists := ix.collections[name]; exists {
		return nil, fmt.Errorf("%w: %s", index.ErrCollectionConflict, name)
	}

	c := &collection{
		meta: core.Collection{
			Name:         name,
			EmbeddingDim: dim,
			CreatedAt:    time.Now().UTC(),
		},
		entries: make(map[core.Fingerprint]index.Entry),
	}
	ix.collections[name] = c
	meta := c.meta
	return &meta, nil
}

// CollectionExists reports whether the named collection is present.
func (ix *Index) CollectionExists(_ context.Context, name string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return false, index.ErrIndexClosed
	}
	_, exists := ix.collections[name]
	return exists, nil
}

// GetCollection retrieves collection metadata.
func (ix *Index) GetCollection(_ context.Context, name string) (*core.Collection, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil, index.ErrIndexClosed
	}
	c, ok := ix.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	meta := c.meta
	return &meta, nil
}

// DropCollection removes a collection and its entries.
func (ix *Index) DropCollection(_ context.Context, name string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return index.ErrIndexClosed
	}
	if _, ok := ix.collections[name]; !ok {
		return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	delete(ix.collections, name)
	return nil
}

// Upsert writes entries keyed by fingerprint.
func (ix *Index) Upsert(_ context.Context, name string, entries []index.Entry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return index.ErrIndexClosed
	}
	c, ok := ix.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	for _, entry := range entries {
		if len(entry.Vector) != c.meta.EmbeddingDim {
			return fmt.Errorf("%w: entry has dim %d, collection %q expects %d",
				index.ErrDimensionMismatch, len(entry.Vector), name, c.meta.EmbeddingDim)
		}
	}
	for _, entry := range entries {
		c.entries[entry.Fingerprint] = entry
	}
	return nil
}

// SimilaritySearch scans every entry and returns the k best by cosine
// similarity.
func (ix *Index) SimilaritySearch(_ context.Context, name string, vector []float32, k int) ([]index.Match, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return nil, index.ErrIndexClosed
	}
	c, ok := ix.collections[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	if len(vector) != c.meta.EmbeddingDim {
		return nil, fmt.Errorf("%w: query has dim %d, collection %q expects %d",
			index.ErrDimensionMismatch, len(vector), name, c.meta.EmbeddingDim)
	}

	matches := make([]index.Match, 0, len(c.entries))
	for _, entry := range c.entries {
		matches = append(matches, index.Match{
			Entry: entry,
			Score: cosineSimilarity(vector, entry.Vector),
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

// Scan visits every entry of a collection in batches of batchSize, in
// fingerprint order. The snapshot is taken once; entries written during the
// scan are not visited.
func (ix *Index) Scan(_ context.Context, name string, batchSize int, fn func([]index.Entry) error) error {
	if batchSize <= 0 {
		batchSize = 100
	}

	ix.mu.Lock()
	if ix.closed {
		ix.mu.Unlock()
		return index.ErrIndexClosed
	}
	c, ok := ix.collections[name]
	if !ok {
		ix.mu.Unlock()
		return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	snapshot := make([]index.Entry, 0, len(c.entries))
	for _, entry := range c.entries {
		snapshot = append(snapshot, entry)
	}
	ix.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool {
		return snapshot[i].Fingerprint < snapshot[j].Fingerprint
	})

	for start := 0; start < len(snapshot); start += batchSize {
		end := start + batchSize
		if end > len(snapshot) {
			end = len(snapshot)
		}
		if err := fn(snapshot[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// SetEmbeddingDim updates a collection's declared embedding dimension.
// Existing entries are untouched.
func (ix *Index) SetEmbeddingDim(_ context.Context, name string, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("%w: dim %d", index.ErrDimensionMismatch, dim)
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return index.ErrIndexClosed
	}
	c, ok := ix.collections[name]
	if !ok {
		return fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	c.meta.EmbeddingDim = dim
	return nil
}

// Count reports the number of entries in a collection.
func (ix *Index) Count(_ context.Context, name string) (int64, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.closed {
		return 0, index.ErrIndexClosed
	}
	c, ok := ix.collections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", index.ErrCollectionNotFound, name)
	}
	return int64(len(c.entries)), nil
}

// Close marks the index closed.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.closed = true
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
