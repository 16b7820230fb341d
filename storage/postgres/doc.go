// Package postgres implements the storage repositories on PostgreSQL using
// pgx connection pools.
//
// Per-session serialization relies on row-level locks: callers compose
// GetSessionForUpdate with a conditional write inside WithTransaction.
// Message integrity is enforced with a foreign key to the sessions table, and
// a BIGSERIAL seq column provides the stable ordering tiebreaker for messages
// created within the same timestamp.
package postgres
