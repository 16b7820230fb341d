package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/storage"
)

// MessageRepository implements storage.MessageRepository in memory.
type MessageRepository struct {
	store *Store
}

// NewMessageRepository creates a message repository over a shared store.
func NewMessageRepository(store *Store) (storage.MessageRepository, error) {
	if store == nil {
		return nil, storage.ErrStorageClosed
	}
	return &MessageRepository{store: store}, nil
}

func cloneMessage(m *core.ChatMessage) *core.ChatMessage {
	c := *m
	return &c
}

// AddMessage appends a message to its session, enforcing the session
// foreign key and assigning the insertion sequence.
func (r *MessageRepository) AddMessage(ctx context.Context, message *core.ChatMessage) (*core.ChatMessage, error) {
	if err := core.ValidateMessage(message); err != nil {
		return nil, err
	}

	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	if _, ok := r.store.sessions[message.SessionID]; !ok {
		return nil, storage.ErrSessionNotFound
	}

	stored := cloneMessage(message)
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.store.nextSeq++
	stored.Seq = r.store.nextSeq

	r.store.messagesByID[stored.ID] = stored
	r.store.bySession[stored.SessionID] = append(r.store.bySession[stored.SessionID], stored.ID)
	return cloneMessage(stored), nil
}

// GetMessage retrieves a single message by ID.
func (r *MessageRepository) GetMessage(ctx context.Context, id uuid.UUID) (*core.ChatMessage, error) {
	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	m, ok := r.store.messagesByID[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	return cloneMessage(m), nil
}

// ListMessages retrieves messages in (created_at, seq) order.
func (r *MessageRepository) ListMessages(ctx context.Context, sessionID uuid.UUID, senderID string) ([]*core.ChatMessage, error) {
	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	var messages []*core.ChatMessage
	for _, msgID := range r.store.bySession[sessionID] {
		m := r.store.messagesByID[msgID]
		if m == nil {
			continue
		}
		if senderID != "" && m.SenderID != senderID {
			continue
		}
		messages = append(messages, cloneMessage(m))
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].CreatedAt.Equal(messages[j].CreatedAt) {
			return messages[i].Seq < messages[j].Seq
		}
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	return messages, nil
}

// UpdateMessage replaces the content of a message.
func (r *MessageRepository) UpdateMessage(ctx context.Context, id uuid.UUID, content string) (*core.ChatMessage, error) {
	if content == "" {
		return nil, core.ErrEmptyContent
	}

	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return nil, storage.ErrStorageClosed
	}

	m, ok := r.store.messagesByID[id]
	if !ok {
		return nil, storage.ErrMessageNotFound
	}
	m.Content = content
	return cloneMessage(m), nil
}

// DeleteMessage removes a message.
func (r *MessageRepository) DeleteMessage(ctx context.Context, id uuid.UUID) error {
	unlock := r.store.lock(ctx)
	defer unlock()
	if r.store.closed {
		return storage.ErrStorageClosed
	}

	m, ok := r.store.messagesByID[id]
	if !ok {
		return storage.ErrMessageNotFound
	}
	delete(r.store.messagesByID, id)

	ids := r.store.bySession[m.SessionID]
	for i, msgID := range ids {
		if msgID == id {
			r.store.bySession[m.SessionID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// WithTransaction executes fn while holding the store mutex.
func (r *MessageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.store.withTransaction(ctx, fn)
}

// Close is a no-op; the shared store owns the state.
func (r *MessageRepository) Close() error {
	return nil
}
