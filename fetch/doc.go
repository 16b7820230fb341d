// Package fetch retrieves raw source content for ingestion: crawled web
// pages, PDF text, and video transcripts. Transient failures are retried a
// fixed number of times; permanent ones surface immediately.
package fetch
