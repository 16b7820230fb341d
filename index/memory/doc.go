// Package memory provides a brute-force in-memory vector index for tests.
package memory
