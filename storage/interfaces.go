package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/poiesic/parlance/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn carries transaction state; repository calls
	// made with that context join the transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// SessionRepository provides operations for managing conversation sessions.
type SessionRepository interface {
	Repository

	// AddSession persists a new session.
	// Generates an ID if unset and populates CreatedAt.
	// Returns the stored session.
	AddSession(ctx context.Context, session *core.ConversationSession) (*core.ConversationSession, error)

	// GetSession retrieves a session by ID.
	// Returns ErrSessionNotFound if the session doesn't exist.
	GetSession(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error)

	// GetSessionForUpdate retrieves a session and locks its row for the
	// duration of the surrounding transaction. Concurrent writers to the
	// same session serialize on this lock; no cross-session locking occurs.
	// Returns ErrSessionNotFound if the session doesn't exist.
	GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error)

	// ListSessions retrieves sessions for a user and chatbot, newest first.
	// A nil status returns sessions in every lifecycle state.
	ListSessions(ctx context.Context, userID, chatbotID string, status *core.SessionStatus) ([]*core.ConversationSession, error)

	// UpdateSessionStatus sets the lifecycle status of a session.
	// Legality of the transition is the caller's concern; the repository
	// only persists it. Returns ErrSessionNotFound if the session doesn't exist.
	UpdateSessionStatus(ctx context.Context, id uuid.UUID, status core.SessionStatus) (*core.ConversationSession, error)

	// DeleteSession removes a session and its messages.
	// Returns ErrSessionNotFound if the session doesn't exist.
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// MessageRepository provides operations for managing chat messages.
type MessageRepository interface {
	Repository

	// AddMessage appends a message to its session.
	// Generates an ID if unset and populates CreatedAt and Seq; Seq is a
	// monotonically increasing insertion sequence used as the ordering
	// tiebreaker for equal timestamps.
	// Returns ErrSessionNotFound if the referenced session doesn't exist.
	AddMessage(ctx context.Context, message *core.ChatMessage) (*core.ChatMessage, error)

	// GetMessage retrieves a single message by ID.
	// Returns ErrMessageNotFound if the message doesn't exist.
	GetMessage(ctx context.Context, id uuid.UUID) (*core.ChatMessage, error)

	// ListMessages retrieves messages for a session in non-decreasing
	// creation order, stable for equal timestamps by insertion sequence.
	// A non-empty senderID restricts the result to that sender.
	ListMessages(ctx context.Context, sessionID uuid.UUID, senderID string) ([]*core.ChatMessage, error)

	// UpdateMessage replaces the content of a message.
	// Returns ErrMessageNotFound if the message doesn't exist.
	UpdateMessage(ctx context.Context, id uuid.UUID, content string) (*core.ChatMessage, error)

	// DeleteMessage removes a message.
	// Returns ErrMessageNotFound if the message doesn't exist.
	DeleteMessage(ctx context.Context, id uuid.UUID) error
}
