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


package retrieval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/poiesic/parlance/ai"
	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/index"
	"github.com/poiesic/parlance/session"
)

const systemPrompt = "You are a helpful assistant. Answer using the provided context " +
	"passages when they are relevant; when they are not, answer from the conversation alone. " +
	"Be concise and do not invent facts."

// Source identifies one retrieved passage that informed an answer.
type Source struct {
	Title     string  `json:"title"`
	Reference string  `json:"reference,omitempty"`
	Score     float32 `json:"score"`
}

// Answer is the engine's response to one user query.
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources,omitempty"`
}

// Engine answers user queries with retrieval-augmented generation: it loads
// and compacts the session history, retrieves the closest passages from the
// collection, and asks the LLM. History is appended only after the LLM
// answers, so a failed call leaves the conversation exactly as it was.
type Engine struct {
	provider ai.AIProvider
	index    index.VectorIndex
	sessions *session.Manager
	history  *session.History
	logger   *slog.Logger

	topK        int
	keepTurns   int
	tokenBudget int
	maxAge      time.Duration
	estimator   *tokenEstimator
}

// Option configures an Engine.
type Option func(*Engine)

// WithTopK sets how many passages a query retrieves.
func WithTopK(k int) Option {
	return func(e *Engine) {
		e.topK = k
	}
}

// WithKeepTurns sets how many of the latest exchanges stay verbatim when
// history is compacted.
func WithKeepTurns(turns int) Option {
	return func(e *Engine) {
		e.keepTurns = turns
	}
}

// WithTokenBudget sets the estimated token budget for the history portion
// of the prompt.
func WithTokenBudget(tokens int) Option {
	return func(e *Engine) {
		e.tokenBudget = tokens
	}
}

// WithMaxSessionAge sets how old a session may grow before answers flag it
// as stale.
func WithMaxSessionAge(max time.Duration) Option {
	return func(e *Engine) {
		e.maxAge = max
	}
}

// WithLogger sets the logger used by the Engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a retrieval engine.
func NewEngine(provider ai.AIProvider, ix index.VectorIndex, sessions *session.Manager, history *session.History, opts ...Option) *Engine {
	e := &Engine{
		provider:    provider,
		index:       ix,
		sessions:    sessions,
		history:     history,
		logger:      slog.Default().With("component", "retrieval"),
		topK:        4,
		keepTurns:   5,
		tokenBudget: 3000,
		maxAge:      time.Hour,
		estimator:   newTokenEstimator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Answer runs one retrieval-augmented exchange in the given session against
// the named collection. A missing collection or an empty result set
// degrades to plain conversation; only an LLM failure is an error, and it
// leaves the history untouched.
func (e *Engine) Answer(ctx context.Context, sessionID uuid.UUID, query, collection string) (*Answer, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}

	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if ok, err := e.sessions.WithinDuration(ctx, sessionID, e.maxAge); err == nil && !ok {
		e.logger.Warn("session older than its expected lifetime",
			"session_id", sessionID,
			"max_age", e.maxAge)
	}

	forceCompact := false
	if ok, err := e.sessions.WithinTokenBudget(ctx, sessionID, e.tokenBudget); err == nil && !ok {
		forceCompact = true
		e.logger.Info("session history over token budget, compacting",
			"session_id", sessionID,
			"token_budget", e.tokenBudget)
	}

	messages, err := e.history.List(ctx, sessionID, "")
	if err != nil {
		return nil, err
	}
	historyTurns := e.compactHistory(ctx, messages, forceCompact)

	matches, sources := e.retrieve(ctx, collection, query)

	turns := e.assemblePrompt(historyTurns, matches, query)
	text, err := e.provider.Generator().Generate(ctx, turns)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	if _, err := e.history.Append(ctx, sessionID, sess.UserID, core.MessageUser, query); err != nil {
		return nil, err
	}
	if _, err := e.history.Append(ctx, sessionID, sess.ChatbotID, core.MessageAI, text); err != nil {
		return nil, err
	}

	e.logger.Info("query answered",
		"session_id", sessionID,
		"collection", collection,
		"sources", len(sources))
	return &Answer{Text: text, Sources: sources}, nil
}

// retrieve embeds the query and searches the collection. Every failure
// path degrades to an empty context; retrieval never sinks the exchange.
func (e *Engine) retrieve(ctx context.Context, collection, query string) ([]index.Match, []Source) {
	if collection == "" {
		return nil, nil
	}

	vector, err := e.provider.Embedder().EmbedText(ctx, query)
	if err != nil {
		e.logger.Warn("query embedding failed, answering without context", "error", err)
		return nil, nil
	}

	matches, err := e.index.SimilaritySearch(ctx, collection, vector, e.topK)
	if err != nil {
		if errors.Is(err, index.ErrCollectionNotFound) {
			e.logger.Warn("collection missing, answering without context", "collection", collection)
		} else {
			e.logger.Warn("similarity search failed, answering without context", "error", err)
		}
		return nil, nil
	}

	sources := make([]Source, 0, len(matches))
	for _, match := range matches {
		sources = append(sources, Source{
			Title:     match.Metadata["title"],
			Reference: match.Metadata["source"],
			Score:     match.Score,
		})
	}
	return matches, sources
}

// assemblePrompt builds the turn sequence: system instructions with context
// passages, compacted history, then the user's query.
func (e *Engine) assemblePrompt(history []ai.ChatTurn, matches []index.Match, query string) []ai.ChatTurn {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	if len(matches) > 0 {
		sb.WriteString("\n\nContext passages:")
		for i, match := range matches {
			sb.WriteString(fmt.Sprintf("\n\n[%d] %s\n%s", i+1, match.Metadata["title"], match.Content))
		}
	}

	turns := make([]ai.ChatTurn, 0, len(history)+2)
	turns = append(turns, ai.SystemTurn(sb.String()))
	turns = append(turns, history...)
	turns = append(turns, ai.HumanTurn(query))
	return turns
}
