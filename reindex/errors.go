package reindex

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")

	// ErrIndexRequired is returned when a Reindexer is built without an index.
	ErrIndexRequired = errors.New("index is required")

	// ErrEmbedderRequired is returned when a Reindexer is built without an embedder.
	ErrEmbedderRequired = errors.New("embedder is required")
)
