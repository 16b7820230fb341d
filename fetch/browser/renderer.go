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


package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

// Renderer loads pages in headless Chrome and returns the rendered DOM.
// Each Render call runs in a fresh tab off a shared allocator.
type Renderer struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	logger   *slog.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithTimeout bounds a single page render.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Renderer) {
		r.timeout = timeout
	}
}

// WithLogger sets the logger used by the Renderer.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// NewRenderer starts a headless Chrome allocator. Close must be called to
// release the browser.
func NewRenderer(ctx context.Context, opts ...Option) (*Renderer, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, cancel := chromedp.NewExecAllocator(ctx, allocOpts...)

	r := &Renderer{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  60 * time.Second,
		logger:   slog.Default().With("component", "browser"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Render navigates to url in a fresh tab, waits for the body to be ready,
// and returns the rendered HTML.
func (r *Renderer) Render(ctx context.Context, url string) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(r.allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, r.timeout)
	defer cancelTimeout()

	// honor the caller's cancellation as well as the render timeout
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancelTab()
		case <-done:
		}
	}()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}

	r.logger.Debug("page rendered", "url", url, "bytes", len(html))
	return html, nil
}

// Close shuts down the browser allocator.
func (r *Renderer) Close() error {
	r.cancel()
	return nil
}
