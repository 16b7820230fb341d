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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/fetch"
	"github.com/poiesic/parlance/index"
	"github.com/poiesic/parlance/normalize"
)

// Pipeline turns source references into an embedded collection: fetch,
// normalize, chunk, embed, store. References in a batch are fetched
// concurrently on a bounded worker pool; a reference that fails is recorded
// and skipped, never aborting the batch.
type Pipeline struct {
	fetcher    fetch.ContentFetcher
	normalizer *normalize.Normalizer
	indexer    *index.Indexer
	pool       *ants.Pool
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent fetching.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates an ingestion pipeline.
func NewPipeline(
	fetcher fetch.ContentFetcher,
	normalizer *normalize.Normalizer,
	indexer *index.Indexer,
	opts ...Option,
) (*Pipeline, error) {
	if fetcher == nil {
		return nil, ErrFetcherRequired
	}
	if normalizer == nil {
		return nil, ErrNormalizerRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		fetcher:    fetcher,
		normalizer: normalizer,
		indexer:    indexer,
		pool:       pool,
		logger:     slog.Default().With("component", "ingestion"),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Skip records one reference that contributed nothing, with its cause.
type Skip struct {
	Reference string `json:"reference"`
	Cause     string `json:"cause"`
}

// Report summarizes one ingest batch.
type Report struct {
	Collection string `json:"collection"`
	References int    `json:"references"`
	Stored     int    `json:"stored"`
	Skipped    []Skip `json:"skipped,omitempty"`
}

// Ingest fetches every reference, normalizes and chunks the content, and
// embeds the result into a new collection. The call blocks until the whole
// batch is done. Failed references are reported in the Report, not as an
// error; the error return covers batch-level failures: an existing
// collection, a dead embedding backend, or a batch where nothing survived.
func (p *Pipeline) Ingest(ctx context.Context, collection string, kind core.SourceKind, references []string) (*Report, error) {
	if collection == "" {
		return nil, core.ErrEmptyCollectionName
	}
	if len(references) == 0 {
		return nil, ErrNoReferences
	}

	report := &Report{Collection: collection, References: len(references)}

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		docs []*core.Document
	)

	for _, reference := range references {
		reference := reference
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			chunks, err := p.prepare(ctx, collection, kind, reference)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				p.logger.Warn("reference skipped", "reference", reference, "error", err)
				report.Skipped = append(report.Skipped, Skip{Reference: reference, Cause: err.Error()})
				return
			}
			docs = append(docs, chunks...)
		})
		if err != nil {
			wg.Done()
			mu.Lock()
			report.Skipped = append(report.Skipped, Skip{Reference: reference, Cause: err.Error()})
			mu.Unlock()
		}
	}
	wg.Wait()

	if len(docs) == 0 {
		return report, fmt.Errorf("%w: %s", ErrNothingIngested, collection)
	}

	stored, err := p.indexer.EmbedAndStore(ctx, collection, docs)
	if err != nil {
		return report, err
	}
	report.Stored = stored

	p.logger.Info("batch ingested",
		"collection", collection,
		"references", len(references),
		"stored", stored,
		"skipped", len(report.Skipped))
	return report, nil
}

// prepare fetches one reference and turns it into embedding-ready chunks.
// Pages that fail normalization are dropped individually; the reference
// only fails when no page survives.
func (p *Pipeline) prepare(ctx context.Context, collection string, kind core.SourceKind, reference string) ([]*core.Document, error) {
	result, err := p.fetcher.Fetch(ctx, kind, reference)
	if err != nil {
		return nil, err
	}

	var docs []*core.Document
	for _, page := range result.Pages {
		doc, err := p.normalizer.Normalize(normalize.Input{
			Raw:           page.Content,
			HTML:          page.HTML,
			Title:         page.Title,
			FallbackTitle: collection,
			Source:        page.Source,
			Collection:    collection,
			Kind:          kind,
		})
		if err != nil {
			p.logger.Debug("page dropped", "source", page.Source, "error", err)
			continue
		}

		chunks, err := p.normalizer.Chunk(doc)
		if err != nil {
			p.logger.Debug("page dropped", "source", page.Source, "error", err)
			continue
		}
		docs = append(docs, chunks...)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", fetch.ErrNoContent, reference)
	}
	return docs, nil
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
