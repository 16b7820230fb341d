package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := &Document{
			Content:        "some content",
			Metadata:       map[string]string{"title": "A Title"},
			LemmatizedText: "some content",
		}
		require.NoError(t, ValidateDocument(doc))
	})

	t.Run("nil document", func(t *testing.T) {
		err := ValidateDocument(nil)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("empty content", func(t *testing.T) {
		doc := &Document{Metadata: map[string]string{"title": "A Title"}}
		err := ValidateDocument(doc)
		assert.ErrorIs(t, err, ErrEmptyContent)
	})

	t.Run("missing title", func(t *testing.T) {
		doc := &Document{Content: "x", Metadata: map[string]string{}}
		err := ValidateDocument(doc)
		assert.ErrorIs(t, err, ErrMissingTitle)
	})

	t.Run("nil metadata", func(t *testing.T) {
		doc := &Document{Content: "x"}
		err := ValidateDocument(doc)
		assert.ErrorIs(t, err, ErrMissingTitle)
	})
}

func TestValidateSession(t *testing.T) {
	valid := func() *ConversationSession {
		return &ConversationSession{
			ID:        uuid.New(),
			UserID:    "user-1",
			ChatbotID: "bot-1",
			Status:    StatusActive,
		}
	}

	t.Run("valid session", func(t *testing.T) {
		require.NoError(t, ValidateSession(valid()))
	})

	t.Run("nil session", func(t *testing.T) {
		assert.ErrorIs(t, ValidateSession(nil), ErrInvalidSession)
	})

	t.Run("empty user id", func(t *testing.T) {
		s := valid()
		s.UserID = ""
		assert.ErrorIs(t, ValidateSession(s), ErrInvalidSession)
	})

	t.Run("empty chatbot id", func(t *testing.T) {
		s := valid()
		s.ChatbotID = ""
		assert.ErrorIs(t, ValidateSession(s), ErrInvalidSession)
	})

	t.Run("unknown status", func(t *testing.T) {
		s := valid()
		s.Status = SessionStatus("SLEEPING")
		assert.ErrorIs(t, ValidateSession(s), ErrInvalidStatus)
	})
}

func TestValidateMessage(t *testing.T) {
	valid := func() *ChatMessage {
		return &ChatMessage{
			ID:        uuid.New(),
			SessionID: uuid.New(),
			SenderID:  "user-1",
			Type:      MessageUser,
			Content:   "hello",
		}
	}

	t.Run("valid message", func(t *testing.T) {
		require.NoError(t, ValidateMessage(valid()))
	})

	t.Run("nil message", func(t *testing.T) {
		assert.ErrorIs(t, ValidateMessage(nil), ErrInvalidMessage)
	})

	t.Run("empty content", func(t *testing.T) {
		m := valid()
		m.Content = ""
		assert.ErrorIs(t, ValidateMessage(m), ErrEmptyContent)
	})

	t.Run("unknown type", func(t *testing.T) {
		m := valid()
		m.Type = MessageType("robot")
		assert.ErrorIs(t, ValidateMessage(m), ErrInvalidMessageType)
	})

	t.Run("missing session id", func(t *testing.T) {
		m := valid()
		m.SessionID = uuid.Nil
		assert.ErrorIs(t, ValidateMessage(m), ErrInvalidMessage)
	})
}

func TestValidateMessageType(t *testing.T) {
	for _, mt := range []MessageType{MessageUser, MessageAI, MessageSystem} {
		assert.NoError(t, ValidateMessageType(mt))
	}
	assert.ErrorIs(t, ValidateMessageType("human"), ErrInvalidMessageType)
}
