package service

import (
	"context"
	"strings"
	"testing"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEpisodeService(t *testing.T) (*EpisodeService, *MemoryService, *fakeSemanticStore) {
	t.Helper()
	memories, _ := newTestMemoryService(t)
	episodes := newFakeSemanticStore()
	return NewEpisodeService(episodes, memories, zap.NewNop()), memories, episodes
}

func TestEpisodeService_CreateDerivesFields(t *testing.T) {
	svc, memories, _ := newTestEpisodeService(t)
	ctx := context.Background()

	m1, _ := memories.Save(ctx, SaveInput{Content: "left home early", Emotion: domain.EmotionCurious, Importance: 3})
	m2, _ := memories.Save(ctx, SaveInput{Content: "herons on the river", Emotion: domain.EmotionMoved, Importance: 5})
	m3, _ := memories.Save(ctx, SaveInput{Content: "coffee at the kiosk", Emotion: domain.EmotionHappy, Importance: 3})

	e, err := svc.Create(ctx, CreateEpisodeInput{
		Title:        "Morning walk",
		MemoryIDs:    []uuid.UUID{m3.ID, m1.ID, m2.ID},
		Participants: []string{"Alice"},
	})
	require.NoError(t, err)

	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID, m3.ID}, e.MemoryIDs)
	assert.Equal(t, domain.EmotionMoved, e.Emotion)
	assert.Equal(t, 5, e.Importance)
	assert.True(t, m1.Timestamp.Equal(e.StartTime))
	require.NotNil(t, e.EndTime)
	assert.True(t, m3.Timestamp.Equal(*e.EndTime))
	assert.Equal(t, "left home early → herons on the river → coffee at the kiosk", e.Summary)

	for _, id := range e.MemoryIDs {
		m, err := memories.GetByID(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, m.EpisodeID)
		assert.Equal(t, e.ID, *m.EpisodeID)
	}

	stored, err := svc.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, e.Summary, stored.Summary)
	assert.Equal(t, []string{"Alice"}, stored.Participants)
}

func TestEpisodeService_TieBreaksOnFirstMemory(t *testing.T) {
	svc, memories, _ := newTestEpisodeService(t)
	ctx := context.Background()
	m1, _ := memories.Save(ctx, SaveInput{Content: "first", Emotion: domain.EmotionSad, Importance: 4})
	m2, _ := memories.Save(ctx, SaveInput{Content: "second", Emotion: domain.EmotionHappy, Importance: 4})

	e, err := svc.Create(ctx, CreateEpisodeInput{Title: "Tie", MemoryIDs: []uuid.UUID{m2.ID, m1.ID}})
	require.NoError(t, err)
	assert.Equal(t, domain.EmotionSad, e.Emotion)
}

func TestEpisodeService_SingleMemoryHasNoEnd(t *testing.T) {
	svc, memories, _ := newTestEpisodeService(t)
	ctx := context.Background()
	long := strings.Repeat("あ", 60)
	m, _ := memories.Save(ctx, SaveInput{Content: long, Importance: 2})

	e, err := svc.Create(ctx, CreateEpisodeInput{Title: "Alone", MemoryIDs: []uuid.UUID{m.ID, uuid.New()}})
	require.NoError(t, err)
	assert.Nil(t, e.EndTime)
	assert.Equal(t, []uuid.UUID{m.ID}, e.MemoryIDs)
	assert.Equal(t, strings.Repeat("あ", 50), e.Summary)
}

func TestEpisodeService_SkipSummaryIndexesTitle(t *testing.T) {
	svc, memories, episodes := newTestEpisodeService(t)
	ctx := context.Background()
	m, _ := memories.Save(ctx, SaveInput{Content: "content", Importance: 3})

	e, err := svc.Create(ctx, CreateEpisodeInput{Title: "Untold", MemoryIDs: []uuid.UUID{m.ID}, SkipSummary: true})
	require.NoError(t, err)
	assert.Empty(t, e.Summary)

	recs, _ := episodes.Get(ctx, []string{e.ID.String()})
	require.Len(t, recs, 1)
	assert.Equal(t, "Untold", recs[0].Text)

	stored, err := svc.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Summary)
}

func TestEpisodeService_CreateValidation(t *testing.T) {
	svc, memories, episodes := newTestEpisodeService(t)
	ctx := context.Background()
	m, _ := memories.Save(ctx, SaveInput{Content: "x", Importance: 3})

	_, err := svc.Create(ctx, CreateEpisodeInput{Title: "", MemoryIDs: []uuid.UUID{m.ID}})
	assert.ErrorIs(t, err, ErrEpisodeTitleEmpty)
	_, err = svc.Create(ctx, CreateEpisodeInput{Title: "Empty"})
	assert.ErrorIs(t, err, ErrEpisodeNoMemories)
	_, err = svc.Create(ctx, CreateEpisodeInput{Title: "Ghosts", MemoryIDs: []uuid.UUID{uuid.New()}})
	assert.ErrorIs(t, err, ErrEpisodeMemoriesNotFound)
	assert.Equal(t, 0, episodes.count())
}

func TestEpisodeService_SearchAndList(t *testing.T) {
	svc, memories, _ := newTestEpisodeService(t)
	ctx := context.Background()
	m1, _ := memories.Save(ctx, SaveInput{Content: "beach picnic", Importance: 3})
	m2, _ := memories.Save(ctx, SaveInput{Content: "museum visit", Importance: 3})

	older, err := svc.Create(ctx, CreateEpisodeInput{Title: "Beach", MemoryIDs: []uuid.UUID{m1.ID}})
	require.NoError(t, err)
	newer, err := svc.Create(ctx, CreateEpisodeInput{Title: "Museum", MemoryIDs: []uuid.UUID{m2.ID}})
	require.NoError(t, err)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, newer.ID, all[0].ID)
	assert.Equal(t, older.ID, all[1].ID)

	found, err := svc.Search(ctx, "beach picnic", 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, older.ID, found[0].Episode.ID)
	assert.InDelta(t, 0.0, found[0].Distance, 1e-9)
}

func TestEpisodeService_GetMemories(t *testing.T) {
	svc, memories, _ := newTestEpisodeService(t)
	ctx := context.Background()
	m1, _ := memories.Save(ctx, SaveInput{Content: "one", Importance: 3})
	m2, _ := memories.Save(ctx, SaveInput{Content: "two", Importance: 3})
	e, err := svc.Create(ctx, CreateEpisodeInput{Title: "Pair", MemoryIDs: []uuid.UUID{m2.ID, m1.ID}})
	require.NoError(t, err)

	got, err := svc.GetMemories(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID}, memoryIDs(got))

	_, err = svc.GetMemories(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrEpisodeNotFound)
}

func TestEpisodeService_DeleteClearsBackReferences(t *testing.T) {
	svc, memories, _ := newTestEpisodeService(t)
	ctx := context.Background()
	m1, _ := memories.Save(ctx, SaveInput{Content: "kept", Importance: 3})
	m2, _ := memories.Save(ctx, SaveInput{Content: "vanishes", Importance: 3})
	e, err := svc.Create(ctx, CreateEpisodeInput{Title: "Short lived", MemoryIDs: []uuid.UUID{m1.ID, m2.ID}})
	require.NoError(t, err)

	// A member removed behind the service's back is skipped.
	require.NoError(t, memories.store.Delete(ctx, []string{m2.ID.String()}))

	require.NoError(t, svc.Delete(ctx, e.ID))

	m, err := memories.GetByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.Nil(t, m.EpisodeID)

	_, err = svc.GetByID(ctx, e.ID)
	assert.ErrorIs(t, err, ErrEpisodeNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, e.ID), ErrEpisodeNotFound)
}
