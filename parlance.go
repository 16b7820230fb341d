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


// Package parlance is a retrieval-augmented chatbot backend: web pages,
// PDFs, and video transcripts are ingested into named collections of a
// Postgres/pgvector index, and conversation sessions answer user queries
// against those collections with an OpenAI-compatible model.
//
// System is the composition root for embedding the backend in another
// program; the server package wraps it in an HTTP API.
package parlance

import (
	"context"
	"io"
	"log/slog"

	"github.com/poiesic/parlance/ai"
	"github.com/poiesic/parlance/ai/openai"
	"github.com/poiesic/parlance/fetch"
	"github.com/poiesic/parlance/fetch/browser"
	"github.com/poiesic/parlance/index"
	"github.com/poiesic/parlance/index/pgvector"
	"github.com/poiesic/parlance/ingestion"
	"github.com/poiesic/parlance/normalize"
	"github.com/poiesic/parlance/reindex"
	"github.com/poiesic/parlance/retrieval"
	"github.com/poiesic/parlance/session"
	"github.com/poiesic/parlance/storage"
	"github.com/poiesic/parlance/storage/postgres"
)

// System bundles every backend the chatbot needs: Postgres session storage,
// the pgvector index, and the AI provider. Construct one with NewSystem and
// derive pipelines and engines from it.
type System struct {
	backend  *postgres.Backend
	sessions storage.SessionRepository
	messages storage.MessageRepository
	vectors  *pgvector.Index
	provider ai.AIProvider
	renderer *browser.Renderer
	logger   *slog.Logger
}

// SystemOption configures a System.
type SystemOption func(*systemOptions)

type systemOptions struct {
	aiConfig   *ai.Config
	useBrowser bool
}

// WithAIConfig sets the AI service configuration.
func WithAIConfig(cfg *ai.Config) SystemOption {
	return func(o *systemOptions) {
		o.aiConfig = cfg
	}
}

// WithBrowserRenderer enables the headless-browser fallback for pages that
// serve an empty shell to plain HTTP clients.
func WithBrowserRenderer() SystemOption {
	return func(o *systemOptions) {
		o.useBrowser = true
	}
}

// NewSystem connects to Postgres and the AI services. databaseURL backs
// both the session store and the vector index; the pgvector extension must
// be available.
func NewSystem(ctx context.Context, databaseURL string, opts ...SystemOption) (*System, error) {
	options := &systemOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := postgres.OpenBackend(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	sessions, err := postgres.NewSessionRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	messages, err := postgres.NewMessageRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	vectors, err := pgvector.OpenIndex(ctx, databaseURL)
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		vectors.Close()
		backend.Close()
		return nil, err
	}

	var renderer *browser.Renderer
	if options.useBrowser {
		renderer, err = browser.NewRenderer(ctx)
		if err != nil {
			provider.Close()
			vectors.Close()
			backend.Close()
			return nil, err
		}
	}

	return &System{
		backend:  backend,
		sessions: sessions,
		messages: messages,
		vectors:  vectors,
		provider: provider,
		renderer: renderer,
		logger:   slog.Default(),
	}, nil
}

// Close releases every backend.
func (s *System) Close() error {
	if s.renderer != nil {
		if err := s.renderer.Close(); err != nil {
			s.logger.Error("error closing browser renderer", "err", err)
		}
	}
	if err := s.provider.Close(); err != nil {
		s.logger.Error("error closing AI provider", "err", err)
	}
	if err := s.vectors.Close(); err != nil {
		s.logger.Error("error closing vector index", "err", err)
		return err
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Error("error closing session storage", "err", err)
		return err
	}
	return nil
}

// SessionRepository returns the session storage backend.
func (s *System) SessionRepository() storage.SessionRepository {
	return s.sessions
}

// MessageRepository returns the message storage backend.
func (s *System) MessageRepository() storage.MessageRepository {
	return s.messages
}

// VectorIndex returns the pgvector index.
func (s *System) VectorIndex() *pgvector.Index {
	return s.vectors
}

// Provider returns the AI provider.
func (s *System) Provider() ai.AIProvider {
	return s.provider
}

// NewSessionManager creates a session lifecycle manager over the system's
// storage.
func (s *System) NewSessionManager(opts ...session.ManagerOption) *session.Manager {
	return session.NewManager(s.sessions, s.messages, opts...)
}

// NewHistory creates a conversation history accessor over the system's
// storage.
func (s *System) NewHistory(opts ...session.HistoryOption) *session.History {
	return session.NewHistory(s.messages, opts...)
}

// NewIngestionPipeline creates an ingestion pipeline over the system's
// index and AI services.
func (s *System) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	fetchOpts := []fetch.Option{}
	if s.renderer != nil {
		fetchOpts = append(fetchOpts, fetch.WithRenderer(s.renderer))
	}
	fetcher := fetch.NewFetcher(fetchOpts...)

	normalizer, err := normalize.NewNormalizer()
	if err != nil {
		return nil, err
	}

	indexer := index.NewIndexer(s.vectors, s.provider.Embedder())
	return ingestion.NewPipeline(fetcher, normalizer, indexer, opts...)
}

// NewRetrievalEngine creates a chat engine over the system's index, AI
// services, and session storage.
func (s *System) NewRetrievalEngine(opts ...retrieval.Option) *retrieval.Engine {
	return retrieval.NewEngine(s.provider, s.vectors, s.NewSessionManager(), s.NewHistory(), opts...)
}

// NewReindexer creates a reindexer over the system's index and embedder.
// progress: where to write progress output (typically os.Stderr)
func (s *System) NewReindexer(config *reindex.Config, progress io.Writer) (*reindex.Reindexer, error) {
	return reindex.NewReindexer(s.vectors, s.provider.Embedder(), config, progress)
}
