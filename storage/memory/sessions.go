package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/storage"
)

// SessionRepository implements storage.SessionRepository in memory.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository creates a session repository over a shared store.
func NewSessionRepository(store *Store) (storage.SessionRepository, error) {
	if store == nil {
		return nil, storage.ErrStorageClosed
	}
	return &SessionRepository{store: store}, nil
}

func cloneSession(s *core.ConversationSession) *core.ConversationSession {
	c := *s
	if s.Metadata != nil {
		c.Metadata = make(map[string]string, len(s.Metadata))
		for k, v := range s.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// AddSession persists a new session.
func (r *SessionRepository) AddSession(ctx context.Context, session *core.ConversationSession) (*core.ConversationSession, error) {
	if err := core.ValidateSession(session); err != nil {
		return nil, err
	}

	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	stored := cloneSession(session)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	if stored.Metadata == nil {
		stored.Metadata = map[string]string{}
	}

	if _, exists := r.store.sessions[stored.ID]; exists {
		return nil, storage.ErrDuplicateKey
	}

	r.store.sessions[stored.ID] = stored
	return cloneSession(stored), nil
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error) {
	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	s, ok := r.store.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	return cloneSession(s), nil
}

// GetSessionForUpdate retrieves a session. Exclusion is provided by the
// store mutex held for the surrounding transaction.
func (r *SessionRepository) GetSessionForUpdate(ctx context.Context, id uuid.UUID) (*core.ConversationSession, error) {
	return r.GetSession(ctx, id)
}

// ListSessions retrieves sessions for a user and chatbot, newest first.
func (r *SessionRepository) ListSessions(ctx context.Context, userID, chatbotID string, status *core.SessionStatus) ([]*core.ConversationSession, error) {
	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	var sessions []*core.ConversationSession
	for _, s := range r.store.sessions {
		if s.UserID != userID || s.ChatbotID != chatbotID {
			continue
		}
		if status != nil && s.Status != *status {
			continue
		}
		sessions = append(sessions, cloneSession(s))
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions, nil
}

// UpdateSessionStatus sets the lifecycle status of a session.
func (r *SessionRepository) UpdateSessionStatus(ctx context.Context, id uuid.UUID, status core.SessionStatus) (*core.ConversationSession, error) {
	if err := core.ValidateStatus(status); err != nil {
		return nil, err
	}

	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	s, ok := r.store.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}
	s.Status = status
	return cloneSession(s), nil
}

// DeleteSession removes a session and its messages.
func (r *SessionRepository) DeleteSession(ctx context.Context, id uuid.UUID) error {
	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return storage.ErrStorageClosed
	}

	if _, ok := r.store.sessions[id]; !ok {
		return storage.ErrSessionNotFound
	}
	delete(r.store.sessions, id)
	for _, msgID := range r.store.bySession[id] {
		delete(r.store.messagesByID, msgID)
	}
	delete(r.store.bySession, id)
	return nil
}

// WithTransaction executes fn while holding the store mutex.
func (r *SessionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.withTransaction(ctx, fn)
}

// Close is a no-op; the shared store owns the state.
func (r *SessionRepository) Close() error {
	return nil
}
