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

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Metadata must contain a non-empty "title" entry
//
// NOT validated:
//   - LemmatizedText (may equal Content when lemmatization is skipped)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyContent)
	}

	if doc.Metadata == nil || doc.Metadata["title"] == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrMissingTitle)
	}

	return nil
}

// ValidateSession validates a ConversationSession according to domain rules.
//
// Validation rules:
//   - UserID and ChatbotID must not be empty
//   - Status must be a known lifecycle state
func ValidateSession(session *ConversationSession) error {
	if session == nil {
		return fmt.Errorf("%w: session is nil", ErrInvalidSession)
	}

	if session.UserID == "" {
		return fmt.Errorf("%w: user id cannot be empty", ErrInvalidSession)
	}

	if session.ChatbotID == "" {
		return fmt.Errorf("%w: chatbot id cannot be empty", ErrInvalidSession)
	}

	if err := ValidateStatus(session.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	return nil
}

// ValidateMessage validates a ChatMessage according to domain rules.
//
// Validation rules:
//   - Content must not be empty
//   - Type must be a known message type
//   - SessionID must be set
func ValidateMessage(message *ChatMessage) error {
	if message == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if message.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}

	if err := ValidateMessageType(message.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if message.SessionID == uuid.Nil {
		return fmt.Errorf("%w: session id cannot be empty", ErrInvalidMessage)
	}

	return nil
}

// ValidateMessageType validates that a MessageType has a known value.
func ValidateMessageType(t MessageType) error {
	switch t {
	case MessageUser, MessageAI, MessageSystem:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMessageType, t)
	}
}

// ValidateStatus validates that a SessionStatus has a known value.
func ValidateStatus(s SessionStatus) error {
	switch s {
	case StatusActive, StatusPaused, StatusArchived:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
}
