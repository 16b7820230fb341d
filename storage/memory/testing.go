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

import "github.com/poiesic/parlance/storage"

// NewRepositories creates in-memory session and message repositories sharing
// one store, for testing. Returns sessionRepo, messageRepo, store, and error.
// Caller must close both repos and the store when done.
func NewRepositories() (storage.SessionRepository, storage.MessageRepository, *Store, error) {
	store := NewStore()

	sessionRepo, err := NewSessionRepository(store)
	if err != nil {
		store.Close()
		return nil, nil, nil, err
	}

	messageRepo, err := NewMessageRepository(store)
	if err != nil {
		sessionRepo.Close()
		store.Close()
		return nil, nil, nil, err
	}

	return sessionRepo, messageRepo, store, nil
}
