// Package ingestion orchestrates the content pipeline: fetch source
// references, normalize and chunk their content, and embed the result into
// a write-once collection. Batches degrade per item; only batch-level
// failures surface as errors.
package ingestion
