package store

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChromem(t *testing.T) *ChromemStore {
	t.Helper()
	db, err := OpenChromemDB("")
	require.NoError(t, err)
	s, err := NewChromemStore(db, "memories", embedding.NewMockClient())
	require.NoError(t, err)
	return s
}

func seed(t *testing.T, s domain.SemanticStore, recs ...domain.Record) {
	t.Helper()
	for _, r := range recs {
		require.NoError(t, s.Add(context.Background(), r))
	}
}

func ids(recs []domain.Record) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	sort.Strings(out)
	return out
}

func TestChromemStore_QueryRanksByDistance(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	seed(t, s,
		domain.Record{ID: "a", Text: "the sky at dawn was orange", Metadata: map[string]string{"emotion": "moved"}},
		domain.Record{ID: "b", Text: "fixing a flaky integration test", Metadata: map[string]string{"emotion": "neutral"}},
		domain.Record{ID: "c", Text: "the sky at dusk was purple", Metadata: map[string]string{"emotion": "happy"}},
	)

	got, err := s.Query(ctx, "the sky at dawn was orange", 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.InDelta(t, 0.0, got[0].Distance, 1e-4)
	assert.Equal(t, "c", got[1].ID)
	assert.LessOrEqual(t, got[0].Distance, got[1].Distance)
}

func TestChromemStore_QueryMoreThanCount(t *testing.T) {
	s := newTestChromem(t)
	seed(t, s, domain.Record{ID: "only", Text: "single memory"})

	got, err := s.Query(context.Background(), "memory", 50, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestChromemStore_QueryEmptyCollection(t *testing.T) {
	s := newTestChromem(t)
	got, err := s.Query(context.Background(), "anything", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestChromemStore_QueryWithFilters(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	seed(t, s,
		domain.Record{ID: "1", Text: "tea in the garden", Metadata: map[string]string{"emotion": "happy", "importance": "2", "timestamp": "2025-01-01T00:00:00.000000Z"}},
		domain.Record{ID: "2", Text: "tea with grandmother", Metadata: map[string]string{"emotion": "happy", "importance": "5", "timestamp": "2025-02-01T00:00:00.000000Z"}},
		domain.Record{ID: "3", Text: "tea spilled on laptop", Metadata: map[string]string{"emotion": "sad", "importance": "4", "timestamp": "2025-03-01T00:00:00.000000Z"}},
	)

	got, err := s.Query(ctx, "tea", 5, domain.Filter{domain.Eq("emotion", "happy")})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(got))

	got, err = s.Query(ctx, "tea", 5, domain.Filter{domain.Gte("timestamp", "2025-01-15"), domain.Lte("timestamp", "2025-02-15")})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(got))

	got, err = s.Query(ctx, "tea", 1, domain.Filter{domain.GteInt("importance", 4)})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestChromemStore_GetSkipsUnknown(t *testing.T) {
	s := newTestChromem(t)
	seed(t, s,
		domain.Record{ID: "x", Text: "first", Metadata: map[string]string{"k": "v"}},
		domain.Record{ID: "y", Text: "second"},
	)

	got, err := s.Get(context.Background(), []string{"x", "missing", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, ids(got))
}

func TestChromemStore_FindListsMatching(t *testing.T) {
	s := newTestChromem(t)
	seed(t, s,
		domain.Record{ID: "1", Text: "alpha", Metadata: map[string]string{"category": "daily", "access_count": "9"}},
		domain.Record{ID: "2", Text: "beta", Metadata: map[string]string{"category": "technical", "access_count": "1"}},
		domain.Record{ID: "3", Text: "gamma", Metadata: map[string]string{"category": "daily", "access_count": "3"}},
	)

	all, err := s.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, ids(all))

	daily, err := s.Find(context.Background(), domain.Filter{domain.Eq("category", "daily"), domain.GteInt("access_count", 5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(daily))
}

func TestChromemStore_UpdateReplacesMetadata(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	seed(t, s, domain.Record{ID: "m", Text: "keep this text", Metadata: map[string]string{"a": "1", "b": "2"}})

	require.NoError(t, s.Update(ctx, "m", map[string]string{"a": "3"}))

	got, err := s.Get(ctx, []string{"m"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "keep this text", got[0].Text)
	assert.Equal(t, map[string]string{"a": "3"}, got[0].Metadata)

	// The embedding survives the update.
	ranked, err := s.Query(ctx, "keep this text", 1, nil)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.InDelta(t, 0.0, ranked[0].Distance, 1e-4)
}

func TestChromemStore_UpdateMissing(t *testing.T) {
	s := newTestChromem(t)
	err := s.Update(context.Background(), "ghost", map[string]string{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestChromemStore_Delete(t *testing.T) {
	s := newTestChromem(t)
	ctx := context.Background()
	seed(t, s,
		domain.Record{ID: "1", Text: "one"},
		domain.Record{ID: "2", Text: "two"},
	)

	require.NoError(t, s.Delete(ctx, []string{"1", "never-existed"}))
	require.NoError(t, s.Delete(ctx, nil))
	assert.Equal(t, 1, s.Count())

	got, err := s.Get(ctx, []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(got))
}

func TestChromemStore_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := OpenChromemDB(dir)
	require.NoError(t, err)
	s, err := NewChromemStore(db, "memories", embedding.NewMockClient())
	require.NoError(t, err)
	seed(t, s, domain.Record{ID: "p", Text: "persisted memory", Metadata: map[string]string{"emotion": "happy"}})

	reopened, err := OpenChromemDB(dir)
	require.NoError(t, err)
	s2, err := NewChromemStore(reopened, "memories", embedding.NewMockClient())
	require.NoError(t, err)

	got, err := s2.Get(ctx, []string{"p"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "happy", got[0].Metadata["emotion"])
}
