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
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/poiesic/parlance/core"
)

// crawl walks the site breadth-first from root, staying on the same host
// and descending at most maxDepth link levels. Pages that fail permanently
// are skipped; the crawl only fails outright if the root page itself cannot
// be fetched.
func (f *Fetcher) crawl(ctx context.Context, root string) (*Result, error) {
	rootURL, err := url.Parse(root)
	if err != nil || rootURL.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedReference, root)
	}
	if rootURL.Scheme != "http" && rootURL.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsupportedReference, rootURL.Scheme)
	}

	type target struct {
		url   string
		depth int
	}

	visited := map[string]bool{}
	queue := []target{{url: normalizeURL(rootURL), depth: 0}}
	result := &Result{Kind: core.SourceKindURL, Reference: root}

	for len(queue) > 0 && len(result.Pages) < f.maxPages {
		next := queue[0]
		queue = queue[1:]
		if visited[next.url] {
			continue
		}
		visited[next.url] = true

		var body string
		err := withRetry(ctx, f.logger, f.attempts, f.retryWait, func() error {
			var opErr error
			body, opErr = f.fetchPage(ctx, next.url)
			return opErr
		})
		if err != nil {
			if next.depth == 0 {
				return nil, err
			}
			f.logger.Warn("skipping page", "url", next.url, "error", err)
			continue
		}

		result.Pages = append(result.Pages, Page{
			Source:  next.url,
			Title:   pageTitle(body),
			Content: body,
			HTML:    true,
		})

		if next.depth >= f.maxDepth {
			continue
		}
		for _, link := range extractLinks(body, rootURL) {
			if !visited[link] {
				queue = append(queue, target{url: link, depth: next.depth + 1})
			}
		}
	}

	if len(result.Pages) == 0 {
		return nil, permanentErr(root, ErrNoContent)
	}
	f.logger.Info("crawl finished", "root", root, "pages", len(result.Pages))
	return result, nil
}

// fetchPage retrieves one URL over plain HTTP, falling back to the headless
// renderer when the response looks like an empty JS shell.
func (f *Fetcher) fetchPage(ctx context.Context, pageURL string) (string, error) {
	body, err := f.get(ctx, pageURL)
	if err == nil && len(body) >= f.minDocumentBytes {
		return body, nil
	}

	if f.renderer != nil {
		f.logger.Debug("falling back to headless renderer", "url", pageURL)
		rendered, renderErr := f.renderer.Render(ctx, pageURL)
		if renderErr == nil && rendered != "" {
			return rendered, nil
		}
		if renderErr != nil {
			f.logger.Warn("headless render failed", "url", pageURL, "error", renderErr)
		}
	}

	if err != nil {
		return "", err
	}
	if body == "" {
		return "", permanentErr(pageURL, ErrNoContent)
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", permanentErr(pageURL, err)
	}
	req.Header.Set("User-Agent", "parlance/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", transientErr(pageURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", transientErr(pageURL, fmt.Errorf("status %d", resp.StatusCode))
	default:
		return "", permanentErr(pageURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", transientErr(pageURL, err)
	}
	return string(data), nil
}

// extractLinks returns absolute same-host links found in the document,
// with fragments stripped.
func extractLinks(body string, base *url.URL) []string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}

	seen := map[string]bool{}
	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				ref, err := url.Parse(strings.TrimSpace(attr.Val))
				if err != nil {
					continue
				}
				abs := base.ResolveReference(ref)
				if abs.Host != base.Host || (abs.Scheme != "http" && abs.Scheme != "https") {
					continue
				}
				link := normalizeURL(abs)
				if !seen[link] {
					seen[link] = true
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links
}

// pageTitle extracts the document title, or "" when there is none.
func pageTitle(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func normalizeURL(u *url.URL) string {
	clean := *u
	clean.Fragment = ""
	return strings.TrimSuffix(clean.String(), "/")
}
