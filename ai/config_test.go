package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cfg.EmbeddingHost, cfg.ChatHost)
	assert.Equal(t, 0.3, cfg.Temperature)
}

func TestNewConfig(t *testing.T) {
	t.Run("options override defaults", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://ai.internal:9100"),
			WithEmbeddingModel("embeddinggemma"),
			WithChatModel("qwen2.5:3b"),
			WithAPIKey("secret"),
			WithTemperature(0.7),
		)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://ai.internal:9100/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://ai.internal:9100/v1", cfg.ChatHost)
		assert.Equal(t, "embeddinggemma", cfg.EmbeddingModel)
		assert.Equal(t, "qwen2.5:3b", cfg.ChatModel)
		assert.Equal(t, "secret", cfg.APIKey)
		assert.Equal(t, 0.7, cfg.Temperature)
	})

	t.Run("split hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed.internal"),
			WithChatHost("http://chat.internal"),
		)
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://embed.internal/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://chat.internal/v1", cfg.ChatHost)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"bare host", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"already normalized", "http://localhost:11434/v1", "http://localhost:11434/v1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig(WithHost(tt.host))
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, tt.want, cfg.ChatHost)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Run("missing embedding model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing chat model", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.ChatModel = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing hosts", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.EmbeddingHost = ""
		assert.Error(t, cfg.Validate())

		cfg = DefaultConfig()
		cfg.ChatHost = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("temperature out of range", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Temperature = 2.5
		assert.Error(t, cfg.Validate())

		cfg = DefaultConfig()
		cfg.Temperature = -0.1
		assert.Error(t, cfg.Validate())
	})
}
