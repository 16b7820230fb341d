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


package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/poiesic/parlance/core"
)

// Fetcher retrieves raw content for web pages, PDFs, and videos. Web pages
// are crawled breadth-first from the root reference; pages that come back
// empty over plain HTTP are retried through the headless renderer when one
// is configured.
type Fetcher struct {
	client    *http.Client
	renderer  Renderer
	logger    *slog.Logger
	maxDepth  int
	maxPages  int
	attempts  int
	retryWait time.Duration

	// pages shorter than this over plain HTTP are assumed to be a JS shell
	// and routed through the renderer
	minDocumentBytes int
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets the HTTP client used for all plain fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithRenderer sets the headless browser fallback for JS-heavy pages.
func WithRenderer(renderer Renderer) Option {
	return func(f *Fetcher) {
		f.renderer = renderer
	}
}

// WithLogger sets the logger used by the Fetcher.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithMaxDepth bounds how many link levels the crawler follows from the
// root page.
func WithMaxDepth(depth int) Option {
	return func(f *Fetcher) {
		f.maxDepth = depth
	}
}

// WithMaxPages bounds the total number of pages one crawl may visit.
func WithMaxPages(pages int) Option {
	return func(f *Fetcher) {
		f.maxPages = pages
	}
}

// WithRetries sets the attempt count and the fixed wait between attempts
// for transient failures.
func WithRetries(attempts int, wait time.Duration) Option {
	return func(f *Fetcher) {
		f.attempts = attempts
		f.retryWait = wait
	}
}

// NewFetcher creates a content fetcher with crawl depth 3, a 60 second
// request timeout, and 3 attempts with a 3 second fixed wait.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:           &http.Client{Timeout: 60 * time.Second},
		logger:           slog.Default().With("component", "fetcher"),
		maxDepth:         3,
		maxPages:         50,
		attempts:         defaultAttempts,
		retryWait:        defaultRetryWait,
		minDocumentBytes: 512,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves raw content for reference according to its kind.
func (f *Fetcher) Fetch(ctx context.Context, kind core.SourceKind, reference string) (*Result, error) {
	if reference == "" {
		return nil, ErrEmptyReference
	}

	switch kind {
	case core.SourceKindURL:
		return f.crawl(ctx, reference)
	case core.SourceKindPDF:
		return f.fetchPDF(ctx, reference)
	case core.SourceKindVideo:
		return f.fetchVideo(ctx, reference)
	default:
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedReference, kind)
	}
}
