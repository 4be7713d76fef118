package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "WORKER_CONCURRENCY", "EMBEDDING_DIMENSION", "EMBED_THROTTLE", "OTEL_ENABLED", "RETRIEVAL_TOP_K"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg := Load()
	assert.Equal(t, "3000", cfg.App.Port)
	assert.Equal(t, 5, cfg.Queue.Concurrency)
	assert.Equal(t, 768, cfg.Ai.EmbeddingDimension)
	assert.Equal(t, 200*time.Millisecond, cfg.Rag.EmbedThrottle)
	assert.Equal(t, 3, cfg.Rag.TopK)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "12")
	t.Setenv("WS_TOKEN_TTL", "90s")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("QUEUE_DRIVER", "memory")
	t.Setenv("EMBEDDING_DIMENSION", "not-a-number")
	t.Setenv("LLM_TEMPERATURE", "0.7")
	t.Setenv("LLM_MAX_TOKENS", "512")

	cfg := Load()
	assert.Equal(t, 12, cfg.Queue.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Auth.WSTokenTTL)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "memory", cfg.Queue.Driver)
	assert.Equal(t, 768, cfg.Ai.EmbeddingDimension)
	assert.Equal(t, 0.7, cfg.Ai.LLMTemperature)
	assert.Equal(t, 512, cfg.Ai.LLMMaxTokens)
}
