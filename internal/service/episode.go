package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEpisodeNotFound         = errors.New("episode not found")
	ErrEpisodeTitleEmpty       = errors.New("title is required")
	ErrEpisodeNoMemories       = errors.New("memory_ids cannot be empty")
	ErrEpisodeMemoriesNotFound = errors.New("no memories found for the given ids")
)

const (
	// summaryPrefixRunes is how much of each memory goes into an episode summary.
	summaryPrefixRunes = 50
	summarySeparator   = " → "
)

// EpisodeService groups memories into episodes kept in their own semantic collection.
type EpisodeService struct {
	store    domain.SemanticStore
	memories *MemoryService
	logger   *zap.Logger
}

func NewEpisodeService(st domain.SemanticStore, memories *MemoryService, logger *zap.Logger) *EpisodeService {
	return &EpisodeService{
		store:    st,
		memories: memories,
		logger:   logger,
	}
}

type CreateEpisodeInput struct {
	Title           string
	MemoryIDs       []uuid.UUID
	Participants    []string
	LocationContext string
	// SkipSummary leaves the summary empty; the title is indexed instead.
	SkipSummary bool
}

// Create builds an episode from the memories that resolve, ordered by timestamp,
// and points each of them back at it.
func (s *EpisodeService) Create(ctx context.Context, in CreateEpisodeInput) (*domain.Episode, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ErrEpisodeTitleEmpty
	}
	if len(in.MemoryIDs) == 0 {
		return nil, ErrEpisodeNoMemories
	}

	memories, err := s.memories.GetByIDs(ctx, in.MemoryIDs)
	if err != nil {
		return nil, err
	}
	if len(memories) == 0 {
		return nil, ErrEpisodeMemoriesNotFound
	}

	e := deriveEpisode(in, memories)

	rec := domain.Record{ID: e.ID.String(), Text: store.EpisodeText(&e), Metadata: store.EncodeEpisode(&e)}
	if err := s.store.Add(ctx, rec); err != nil {
		return nil, fmt.Errorf("save episode: %w", err)
	}

	for _, id := range e.MemoryIDs {
		if err := s.memories.UpdateEpisodeID(ctx, id, &e.ID); err != nil {
			return nil, fmt.Errorf("link memory %s to episode: %w", id, err)
		}
	}
	return &e, nil
}

// deriveEpisode expects memories sorted by timestamp.
func deriveEpisode(in CreateEpisodeInput, memories []domain.Memory) domain.Episode {
	ids := make([]uuid.UUID, len(memories))
	prefixes := make([]string, len(memories))
	top := memories[0]
	for i, m := range memories {
		ids[i] = m.ID
		prefixes[i] = truncateRunes(m.Content, summaryPrefixRunes)
		if m.Importance > top.Importance {
			top = m
		}
	}

	e := domain.Episode{
		ID:              uuid.New(),
		Title:           in.Title,
		StartTime:       memories[0].Timestamp,
		MemoryIDs:       ids,
		Participants:    in.Participants,
		LocationContext: in.LocationContext,
		Emotion:         top.Emotion,
		Importance:      top.Importance,
	}
	if len(memories) > 1 {
		end := memories[len(memories)-1].Timestamp
		e.EndTime = &end
	}
	if !in.SkipSummary {
		e.Summary = strings.Join(prefixes, summarySeparator)
	}
	return e
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Search ranks episodes by the semantic distance of their summaries.
func (s *EpisodeService) Search(ctx context.Context, query string, k int) ([]domain.EpisodeSearchResult, error) {
	if query == "" {
		return nil, ErrQueryEmpty
	}
	if k <= 0 {
		k = DefaultSearchResults
	}
	recs, err := s.store.Query(ctx, query, k, nil)
	if err != nil {
		return nil, fmt.Errorf("search episodes: %w", err)
	}
	results := make([]domain.EpisodeSearchResult, 0, len(recs))
	for _, rec := range recs {
		e, err := store.DecodeEpisode(rec)
		if err != nil {
			s.logger.Warn("skipping undecodable episode", zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		results = append(results, domain.EpisodeSearchResult{Episode: e, Distance: rec.Distance})
	}
	return results, nil
}

func (s *EpisodeService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Episode, error) {
	recs, err := s.store.Get(ctx, []string{id.String()})
	if err != nil {
		return nil, fmt.Errorf("get episode %s: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, ErrEpisodeNotFound
	}
	e, err := store.DecodeEpisode(recs[0])
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// ListAll returns every episode, latest start first.
func (s *EpisodeService) ListAll(ctx context.Context) ([]domain.Episode, error) {
	recs, err := s.store.Find(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	episodes := make([]domain.Episode, 0, len(recs))
	for _, rec := range recs {
		e, err := store.DecodeEpisode(rec)
		if err != nil {
			s.logger.Warn("skipping undecodable episode", zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		episodes = append(episodes, e)
	}
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].StartTime.After(episodes[j].StartTime)
	})
	return episodes, nil
}

// GetMemories resolves an episode's memories, oldest first.
func (s *EpisodeService) GetMemories(ctx context.Context, id uuid.UUID) ([]domain.Memory, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.memories.GetByIDs(ctx, e.MemoryIDs)
}

// Delete clears the back-reference on every member still present, then removes
// the episode. The memories themselves are kept.
func (s *EpisodeService) Delete(ctx context.Context, id uuid.UUID) error {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for _, mid := range e.MemoryIDs {
		err := s.memories.UpdateEpisodeID(ctx, mid, nil)
		if errors.Is(err, ErrMemoryNotFound) {
			continue
		}
		if err != nil {
			s.logger.Warn("failed to clear episode reference",
				zap.String("episode_id", id.String()),
				zap.String("memory_id", mid.String()),
				zap.Error(err))
		}
	}
	if err := s.store.Delete(ctx, []string{id.String()}); err != nil {
		return fmt.Errorf("delete episode %s: %w", id, err)
	}
	return nil
}
