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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidSession indicates a ConversationSession failed validation.
	ErrInvalidSession = errors.New("invalid conversation session")

	// ErrInvalidMessage indicates a ChatMessage failed validation.
	ErrInvalidMessage = errors.New("invalid chat message")

	// ErrEmptyContent indicates the content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingTitle indicates document metadata lacks a title entry.
	ErrMissingTitle = errors.New("document metadata must contain a title")

	// ErrInvalidMessageType indicates an unknown MessageType value.
	ErrInvalidMessageType = errors.New("invalid message type")

	// ErrInvalidStatus indicates an unknown SessionStatus value.
	ErrInvalidStatus = errors.New("invalid session status")

	// ErrInvalidTransition indicates a session status change not permitted
	// by the lifecycle graph. The session is left unchanged.
	ErrInvalidTransition = errors.New("invalid session status transition")

	// ErrEmptyCollectionName indicates a collection name is empty.
	ErrEmptyCollectionName = errors.New("collection name cannot be empty")
)
