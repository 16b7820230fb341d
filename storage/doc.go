// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage defines persistence interfaces for conversation sessions
// and chat messages.
//
// Two implementations are provided:
//
//   - storage/postgres: durable storage on PostgreSQL with row-level locking
//     for per-session serialization and foreign keys for message integrity
//   - storage/memory: a mutex-guarded in-memory implementation for tests
//
// All mutations are scoped per session id. Repositories expose
// WithTransaction so callers can compose a locked read with a conditional
// write (the session status transition path).
package storage
