// Package index defines the vector index abstraction and the Indexer that
// embeds normalized documents into write-once collections.
//
// Implementations live in subpackages: pgvector provides the
// Postgres-backed index used in production, memory a brute-force
// in-process index for tests.
package index
