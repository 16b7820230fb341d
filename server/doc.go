// Package server assembles the HTTP application: Postgres-backed session
// storage and vector index, OpenAI-compatible AI services, the ingestion
// pipeline, and the chat engine, all mounted behind one fiber app.
package server
