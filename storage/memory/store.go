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


package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/storage"
)

// Store is the shared in-memory state behind the repositories.
// A single mutex guards all state; WithTransaction holds it for the duration
// of fn, giving callers the same mutual exclusion a row lock provides.
type Store struct {
	mu     sync.Mutex
	closed bool

	sessions map[uuid.UUID]*core.ConversationSession

	messagesByID map[uuid.UUID]*core.ChatMessage
	bySession    map[uuid.UUID][]uuid.UUID
	nextSeq      int64
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		sessions:     make(map[uuid.UUID]*core.ConversationSession),
		messagesByID: make(map[uuid.UUID]*core.ChatMessage),
		bySession:    make(map[uuid.UUID][]uuid.UUID),
	}
}

// Close marks the store closed. Subsequent operations fail with
// storage.ErrStorageClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// lockedKey marks a context whose caller already holds the store mutex.
type lockedKey struct{}

// lock acquires the store mutex unless ctx indicates it is already held.
// The returned function releases whatever was acquired.
func (s *Store) lock(ctx context.Context) func() {
	if held, ok := ctx.Value(lockedKey{}).(bool); ok && held {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// withTransaction runs fn while holding the store mutex. The in-memory store
// provides mutual exclusion, not rollback; it exists for tests, which never
// rely on partial-failure atomicity.
func (s *Store) withTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if held, ok := ctx.Value(lockedKey{}).(bool); ok && held {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return storage.ErrStorageClosed
	}
	return fn(context.WithValue(ctx, lockedKey{}, true))
}
