// Package retrieval answers conversational queries by combining compacted
// session history, passages retrieved from a vector collection, and an LLM
// backend. Retrieval degrades gracefully; only LLM failures surface, and
// they never leave a half-written history.
package retrieval
