// Package api exposes the HTTP surface: content ingestion, session
// lifecycle, and the chat endpoint. Handlers validate requests and map
// domain errors onto HTTP statuses; all logic lives in the domain packages.
package api
