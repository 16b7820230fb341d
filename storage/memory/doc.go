// Package memory provides a mutex-guarded in-memory implementation of the
// storage repositories, primarily for tests.
//
// WithTransaction provides mutual exclusion equivalent to a row lock, not
// rollback; tests never rely on partial-failure atomicity.
package memory
