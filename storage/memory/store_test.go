package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/parlance/core"
	"github.com/poiesic/parlance/storage"
)

func newTestRepos(t *testing.T) (storage.SessionRepository, storage.MessageRepository) {
	t.Helper()
	sessionRepo, messageRepo, store, err := NewRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		messageRepo.Close()
		sessionRepo.Close()
		store.Close()
	})
	return sessionRepo, messageRepo
}

func newTestSession(userID string) *core.ConversationSession {
	return &core.ConversationSession{
		UserID:    userID,
		ChatbotID: "support-bot",
		TopicName: "Warranty questions",
		Status:    core.StatusActive,
	}
}

func TestSessionRepository_AddAndGet(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := sessions.AddSession(ctx, newTestSession("user-1"))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.NotNil(t, created.Metadata)

	got, err := sessions.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, core.StatusActive, got.Status)
}

func TestSessionRepository_GetMissing(t *testing.T) {
	sessions, _ := newTestRepos(t)

	_, err := sessions.GetSession(context.Background(), uuid.New())
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestSessionRepository_AddDuplicateID(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	s := newTestSession("user-1")
	s.ID = uuid.New()
	_, err := sessions.AddSession(ctx, s)
	require.NoError(t, err)

	_, err = sessions.AddSession(ctx, s)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSessionRepository_AddInvalid(t *testing.T) {
	sessions, _ := newTestRepos(t)

	_, err := sessions.AddSession(context.Background(), &core.ConversationSession{
		ChatbotID: "support-bot",
		Status:    core.StatusActive,
	})
	assert.ErrorIs(t, err, core.ErrInvalidSession)
}

func TestSessionRepository_ListFilters(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i, status := range []core.SessionStatus{core.StatusActive, core.StatusPaused, core.StatusArchived} {
		s := newTestSession("user-1")
		s.Status = status
		s.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_, err := sessions.AddSession(ctx, s)
		require.NoError(t, err)
	}
	_, err := sessions.AddSession(ctx, newTestSession("user-2"))
	require.NoError(t, err)

	t.Run("all for user", func(t *testing.T) {
		got, err := sessions.ListSessions(ctx, "user-1", "support-bot", nil)
		require.NoError(t, err)
		assert.Len(t, got, 3)
		// newest first
		assert.Equal(t, core.StatusArchived, got[0].Status)
		assert.Equal(t, core.StatusActive, got[2].Status)
	})

	t.Run("status filter", func(t *testing.T) {
		paused := core.StatusPaused
		got, err := sessions.ListSessions(ctx, "user-1", "support-bot", &paused)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, core.StatusPaused, got[0].Status)
	})

	t.Run("wrong chatbot", func(t *testing.T) {
		got, err := sessions.ListSessions(ctx, "user-1", "other-bot", nil)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestSessionRepository_UpdateStatus(t *testing.T) {
	sessions, _ := newTestRepos(t)
	ctx := context.Background()

	created, err := sessions.AddSession(ctx, newTestSession("user-1"))
	require.NoError(t, err)

	updated, err := sessions.UpdateSessionStatus(ctx, created.ID, core.StatusPaused)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaused, updated.Status)

	got, err := sessions.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaused, got.Status)
}

func TestSessionRepository_DeleteCascades(t *testing.T) {
	sessions, messages := newTestRepos(t)
	ctx := context.Background()

	created, err := sessions.AddSession(ctx, newTestSession("user-1"))
	require.NoError(t, err)

	msg, err := messages.AddMessage(ctx, &core.ChatMessage{
		SessionID: created.ID,
		SenderID:  "user-1",
		Type:      core.MessageUser,
		Content:   "hello",
	})
	require.NoError(t, err)

	require.NoError(t, sessions.DeleteSession(ctx, created.ID))

	_, err = sessions.GetSession(ctx, created.ID)
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	_, err = messages.GetMessage(ctx, msg.ID)
	assert.ErrorIs(t, err, storage.ErrMessageNotFound)
}

func TestMessageRepository_AddRequiresSession(t *testing.T) {
	_, messages := newTestRepos(t)

	_, err := messages.AddMessage(context.Background(), &core.ChatMessage{
		SessionID: uuid.New(),
		SenderID:  "user-1",
		Type:      core.MessageUser,
		Content:   "orphan",
	})
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}

func TestMessageRepository_ListOrdering(t *testing.T) {
	sessions, messages := newTestRepos(t)
	ctx := context.Background()

	created, err := sessions.AddSession(ctx, newTestSession("user-1"))
	require.NoError(t, err)

	// identical timestamps force the seq tiebreaker
	at := time.Now().UTC().Truncate(time.Second)
	contents := []string{"first", "second", "third", "fourth"}
	for _, c := range contents {
		_, err := messages.AddMessage(ctx, &core.ChatMessage{
			SessionID: created.ID,
			SenderID:  "user-1",
			Type:      core.MessageUser,
			Content:   c,
			CreatedAt: at,
		})
		require.NoError(t, err)
	}

	got, err := messages.ListMessages(ctx, created.ID, "")
	require.NoError(t, err)
	require.Len(t, got, len(contents))
	for i, c := range contents {
		assert.Equal(t, c, got[i].Content)
	}

	// repeated reads are stable
	again, err := messages.ListMessages(ctx, created.ID, "")
	require.NoError(t, err)
	for i := range got {
		assert.Equal(t, got[i].ID, again[i].ID)
	}
}

func TestMessageRepository_ListSenderFilter(t *testing.T) {
	sessions, messages := newTestRepos(t)
	ctx := context.Background()

	created, err := sessions.AddSession(ctx, newTestSession("user-1"))
	require.NoError(t, err)

	for _, m := range []struct {
		sender string
		typ    core.MessageType
	}{
		{"user-1", core.MessageUser},
		{"support-bot", core.MessageAI},
		{"user-1", core.MessageUser},
	} {
		_, err := messages.AddMessage(ctx, &core.ChatMessage{
			SessionID: created.ID,
			SenderID:  m.sender,
			Type:      m.typ,
			Content:   "text",
		})
		require.NoError(t, err)
	}

	got, err := messages.ListMessages(ctx, created.ID, "user-1")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMessageRepository_UpdateAndDelete(t *testing.T) {
	sessions, messages := newTestRepos(t)
	ctx := context.Background()

	created, err := sessions.AddSession(ctx, newTestSession("user-1"))
	require.NoError(t, err)

	msg, err := messages.AddMessage(ctx, &core.ChatMessage{
		SessionID: created.ID,
		SenderID:  "user-1",
		Type:      core.MessageUser,
		Content:   "draft",
	})
	require.NoError(t, err)

	t.Run("update", func(t *testing.T) {
		updated, err := messages.UpdateMessage(ctx, msg.ID, "final")
		require.NoError(t, err)
		assert.Equal(t, "final", updated.Content)
	})

	t.Run("update empty content", func(t *testing.T) {
		_, err := messages.UpdateMessage(ctx, msg.ID, "")
		assert.ErrorIs(t, err, core.ErrEmptyContent)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, messages.DeleteMessage(ctx, msg.ID))
		_, err := messages.GetMessage(ctx, msg.ID)
		assert.ErrorIs(t, err, storage.ErrMessageNotFound)

		got, err := messages.ListMessages(ctx, created.ID, "")
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestWithTransaction_NestedCalls(t *testing.T) {
	sessions, messages := newTestRepos(t)
	ctx := context.Background()

	created, err := sessions.AddSession(ctx, newTestSession("user-1"))
	require.NoError(t, err)

	err = sessions.WithTransaction(ctx, func(txCtx context.Context) error {
		locked, err := sessions.GetSessionForUpdate(txCtx, created.ID)
		if err != nil {
			return err
		}
		if _, err := sessions.UpdateSessionStatus(txCtx, locked.ID, core.StatusPaused); err != nil {
			return err
		}
		_, err = messages.AddMessage(txCtx, &core.ChatMessage{
			SessionID: locked.ID,
			SenderID:  "system",
			Type:      core.MessageSystem,
			Content:   "session paused",
		})
		return err
	})
	require.NoError(t, err)

	got, err := sessions.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, core.StatusPaused, got.Status)
}

func TestStore_Closed(t *testing.T) {
	sessionRepo, messageRepo, store, err := NewRepositories()
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = sessionRepo.AddSession(context.Background(), newTestSession("user-1"))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)

	_, err = messageRepo.ListMessages(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
