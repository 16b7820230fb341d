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


package index

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/parlance/ai"
	"github.com/poiesic/parlance/core"
)

// Indexer embeds documents and stores them into a vector index. Each
// collection is write-once: an ingest against an existing collection name is
// refused with ErrCollectionConflict so re-submitting a reference cannot
// duplicate its embeddings.
type Indexer struct {
	index    VectorIndex
	embedder ai.Embedder
	logger   *slog.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets the logger used by the Indexer.
func WithLogger(logger *slog.Logger) IndexerOption {
	return func(ix *Indexer) {
		ix.logger = logger
	}
}

// NewIndexer creates an Indexer over a vector index and an embedder.
func NewIndexer(index VectorIndex, embedder ai.Embedder, opts ...IndexerOption) *Indexer {
	ix := &Indexer{
		index:    index,
		embedder: embedder,
		logger:   slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// EmbedAndStore embeds docs and stores them into a new collection named
// collection. Documents whose embedding fails are skipped individually; if
// every embedding fails, no collection is created and ErrEmbeddingService is
// returned. Collection creation is atomic, so two concurrent ingests of the
// same name resolve to exactly one winner; the loser gets
// ErrCollectionConflict. Returns the number of entries stored.
func (ix *Indexer) EmbedAndStore(ctx context.Context, collection string, docs []*core.Document) (int, error) {
	if collection == "" {
		return 0, core.ErrEmptyCollectionName
	}
	if len(docs) == 0 {
		return 0, ErrNoDocuments
	}

	// Fast-path check. The authoritative gate is the atomic create below;
	// this just avoids embedding work for obvious re-submissions.
	exists, err := ix.index.CollectionExists(ctx, collection)
	if err != nil {
		return 0, fmt.Errorf("checking collection %q: %w", collection, err)
	}
	if exists {
		return 0, fmt.Errorf("%w: %s", ErrCollectionConflict, collection)
	}

	entries := ix.embedDocuments(ctx, docs)
	if len(entries) == 0 {
		return 0, fmt.Errorf("%w: all %d documents failed to embed", ErrEmbeddingService, len(docs))
	}

	dim := len(entries[0].Vector)
	if _, err := ix.index.CreateCollection(ctx, collection, dim); err != nil {
		return 0, err
	}

	if err := ix.index.Upsert(ctx, collection, entries); err != nil {
		return 0, fmt.Errorf("storing embeddings in %q: %w", collection, err)
	}

	ix.logger.Info("collection ingested",
		"collection", collection,
		"stored", len(entries),
		"skipped", len(docs)-len(entries),
		"dim", dim)
	return len(entries), nil
}

// embedDocuments embeds the batch in one call when possible, falling back to
// per-document embedding so a single bad document does not sink the batch.
func (ix *Indexer) embedDocuments(ctx context.Context, docs []*core.Document) []Entry {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = embeddingText(doc)
	}

	vectors, err := ix.embedder.EmbedTexts(ctx, texts)
	if err == nil && len(vectors) == len(docs) {
		entries := make([]Entry, 0, len(docs))
		for i, doc := range docs {
			entries = append(entries, entryFor(doc, vectors[i]))
		}
		return entries
	}
	if err != nil {
		ix.logger.Warn("batch embedding failed, retrying per document", "error", err)
	}

	entries := make([]Entry, 0, len(docs))
	for i, doc := range docs {
		vector, err := ix.embedder.EmbedText(ctx, texts[i])
		if err != nil {
			ix.logger.Warn("skipping document, embedding failed",
				"title", doc.Title(), "error", err)
			continue
		}
		entries = append(entries, entryFor(doc, vector))
	}
	return entries
}

func embeddingText(doc *core.Document) string {
	if doc.LemmatizedText != "" {
		return doc.LemmatizedText
	}
	return doc.Content
}

func entryFor(doc *core.Document, vector []float32) Entry {
	return Entry{
		Fingerprint: doc.Fingerprint(),
		Content:     doc.Content,
		Metadata:    doc.Metadata,
		Vector:      vector,
	}
}
