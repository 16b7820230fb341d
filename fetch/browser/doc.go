// Package browser renders JS-heavy pages in headless Chrome as the
// fallback path for the content fetcher.
package browser
