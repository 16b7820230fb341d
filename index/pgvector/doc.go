// Package pgvector implements the vector index on Postgres with the
// pgvector extension. Searches use exact cosine distance; collections with
// differing embedding dimensions share one untyped vector column.
package pgvector
