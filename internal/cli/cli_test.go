package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points every command at a private in-memory store.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("MNEMO_ENV", t.TempDir()+"/missing.env")
	t.Setenv("SEMANTIC_BACKEND", "chromem")
	t.Setenv("MEMORY_DB_PATH", t.TempDir())
	t.Setenv("EMBEDDING_PROVIDER", "mock")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	isolate(t)
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "mnemo dev")
}

func TestRememberRecallStats(t *testing.T) {
	isolate(t)

	out, err := run(t, "remember", "--emotion", "happy", "--importance", "4", "watched", "the", "meteor", "shower")
	require.NoError(t, err)
	var m domain.Memory
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, "watched the meteor shower", m.Content)
	assert.Equal(t, domain.EmotionHappy, m.Emotion)
	assert.Equal(t, 4, m.Importance)

	out, err = run(t, "recall", "meteor")
	require.NoError(t, err)
	var scored []domain.ScoredMemory
	require.NoError(t, json.Unmarshal([]byte(out), &scored))
	require.Len(t, scored, 1)
	assert.Equal(t, m.ID, scored[0].Memory.ID)

	out, err = run(t, "stats")
	require.NoError(t, err)
	var stats domain.MemoryStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 1, stats.TotalCount)
}

func TestRemember_RejectsUnknownEmotion(t *testing.T) {
	isolate(t)
	_, err := run(t, "remember", "--emotion", "furious", "hello")
	assert.Error(t, err)
}

func TestUnknownBackend(t *testing.T) {
	isolate(t)
	t.Setenv("SEMANTIC_BACKEND", "cassandra")
	_, err := run(t, "stats")
	assert.ErrorContains(t, err, "unknown semantic backend")
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		l, err := newLogger(level)
		require.NoError(t, err, level)
		require.NotNil(t, l)
	}
	_, err := newLogger("loud")
	assert.Error(t, err)
}
