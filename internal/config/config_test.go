package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ReadsEnvAndSecretFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SERVER_PORT=9191\nSEMANTIC_BACKEND=pgvector\n"), 0o600))
	require.NoError(t, os.WriteFile(envFile+".secret", []byte("OPENAI_API_KEY=sk-test\n"), 0o600))

	t.Setenv("MNEMO_ENV", envFile)
	// godotenv never overrides variables that are already set, so register
	// them with t.Setenv first and clear them for Load to fill in.
	for _, k := range []string{"SERVER_PORT", "SEMANTIC_BACKEND", "OPENAI_API_KEY", "EMBEDDING_PROVIDER"} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	require.NoError(t, Load())
	assert.Equal(t, ":9191", ServerAddr())
	assert.Equal(t, "pgvector", SemanticBackend())

	t.Setenv("EMBEDDING_PROVIDER", "openai")
	assert.Equal(t, "sk-test", EmbeddingAPIKey())
	assert.Equal(t, 1536, EmbeddingDimensions())
}

func TestLoad_MissingFilesAreFine(t *testing.T) {
	t.Setenv("MNEMO_ENV", filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, Load())
}

func TestNumericFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		got   func() any
		want  any
	}{
		{"port default", "SERVER_PORT", "", func() any { return ServerPort() }, 8080},
		{"port garbage", "SERVER_PORT", "http", func() any { return ServerPort() }, 8080},
		{"port negative", "SERVER_PORT", "-1", func() any { return ServerPort() }, 8080},
		{"rps", "RATE_LIMIT_RPS", "2.5", func() any { return RateLimitRPS() }, 2.5},
		{"rps zero", "RATE_LIMIT_RPS", "0", func() any { return RateLimitRPS() }, 100.0},
		{"cache disabled", "EMBEDDING_CACHE_SIZE", "0", func() any { return EmbeddingCacheSize() }, 0},
		{"cache negative", "EMBEDDING_CACHE_SIZE", "-5", func() any { return EmbeddingCacheSize() }, 10000},
		{"threshold capped", "AUTO_PROMOTE_THRESHOLD", "9", func() any { return AutoPromoteThreshold() }, 5},
		{"threshold", "AUTO_PROMOTE_THRESHOLD", "2", func() any { return AutoPromoteThreshold() }, 2},
		{"sensory ttl", "SENSORY_TTL_SEC", "5", func() any { return SensoryTTL() }, 5 * time.Second},
		{"short-term ttl default", "SHORTTERM_TTL_SEC", "", func() any { return ShortTermTTL() }, time.Hour},
		{"half life", "DECAY_HALF_LIFE_DAYS", "7", func() any { return DecayHalfLifeDays() }, 7.0},
		{"link threshold", "LINK_THRESHOLD", "0.5", func() any { return LinkThreshold() }, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			assert.Equal(t, tt.want, tt.got())
		})
	}
}

func TestMemoryModelV2(t *testing.T) {
	for value, want := range map[string]bool{"": true, "true": true, "YES": true, "1": true, "false": false, "0": false, "off": false} {
		t.Setenv("MEMORY_MODEL_V2", value)
		assert.Equal(t, want, MemoryModelV2(), "MEMORY_MODEL_V2=%q", value)
	}
}

func TestMemoryDBPath(t *testing.T) {
	t.Setenv("MEMORY_DB_PATH", "/data/mnemo")
	assert.Equal(t, "/data/mnemo", MemoryDBPath())

	t.Setenv("MEMORY_DB_PATH", "")
	assert.Equal(t, "", MemoryDBPath(), "explicit empty keeps the store in memory")

	require.NoError(t, os.Unsetenv("MEMORY_DB_PATH"))
	assert.Equal(t, filepath.Join(".mnemo", "chromem"), filepath.Join(filepath.Base(filepath.Dir(MemoryDBPath())), filepath.Base(MemoryDBPath())))
}
