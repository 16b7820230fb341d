// Package mock provides test doubles for the ai package interfaces.
//
// The mocks default to deterministic behavior (hash-derived embedding vectors,
// canned chat answers) so tests are repeatable without external AI services.
// Custom behavior, including failures, is injected via exported function
// fields.
package mock
