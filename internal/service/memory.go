package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/buffer"
	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMemoryNotFound        = errors.New("memory not found")
	ErrMemoryContentEmpty    = errors.New("content is required")
	ErrQueryEmpty            = errors.New("query is required")
	ErrInvalidEmotion        = errors.New("invalid emotion")
	ErrInvalidCategory       = errors.New("invalid category")
	ErrInvalidSensoryType    = errors.New("invalid sensory type")
	ErrInvalidCameraPosition = errors.New("camera angles must be within [-90, 90]")
)

const (
	DefaultSearchResults = 5
	DefaultRecallResults = 3
	DefaultListLimit     = 10
	// maxScoringFetch caps the over-fetch of SearchWithScoring.
	maxScoringFetch = 50
)

var timeNow = time.Now

// now returns the current time at the precision the stores keep.
func now() time.Time {
	return timeNow().UTC().Truncate(time.Microsecond)
}

// MemoryService owns long-term memories held in a semantic store.
type MemoryService struct {
	store        domain.SemanticStore
	workingSet   *buffer.WorkingSet
	halfLifeDays float64
	locks        *keyLock
	logger       *zap.Logger
}

func NewMemoryService(st domain.SemanticStore, logger *zap.Logger) *MemoryService {
	return &MemoryService{
		store:        st,
		halfLifeDays: DefaultHalfLifeDays,
		locks:        newKeyLock(),
		logger:       logger,
	}
}

// SetWorkingSet makes every saved memory also land in ws.
func (s *MemoryService) SetWorkingSet(ws *buffer.WorkingSet) {
	s.workingSet = ws
}

func (s *MemoryService) SetHalfLifeDays(days float64) {
	if days > 0 {
		s.halfLifeDays = days
	}
}

// SaveInput describes a new memory. Empty emotion and category take their defaults;
// importance is clamped to [1,5].
type SaveInput struct {
	Content        string
	Emotion        domain.Emotion
	Importance     int
	Category       domain.Category
	SensoryData    []domain.SensoryData
	CameraPosition *domain.CameraPosition
	Tags           []string
	LinkedIDs      []uuid.UUID
}

func (in *SaveInput) normalize() error {
	if in.Content == "" {
		return ErrMemoryContentEmpty
	}
	if in.Emotion == "" {
		in.Emotion = domain.EmotionNeutral
	} else if !domain.ValidEmotion(string(in.Emotion)) {
		return ErrInvalidEmotion
	}
	if in.Category == "" {
		in.Category = domain.CategoryDaily
	} else if !domain.ValidCategory(string(in.Category)) {
		return ErrInvalidCategory
	}
	for _, sd := range in.SensoryData {
		if !domain.ValidSensoryType(string(sd.SensoryType)) {
			return ErrInvalidSensoryType
		}
	}
	if in.CameraPosition != nil && !in.CameraPosition.Valid() {
		return ErrInvalidCameraPosition
	}
	in.Importance = domain.ClampImportance(in.Importance)
	return nil
}

func (s *MemoryService) Save(ctx context.Context, in SaveInput) (*domain.Memory, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	return s.save(ctx, in)
}

func (s *MemoryService) save(ctx context.Context, in SaveInput) (*domain.Memory, error) {
	m := domain.Memory{
		ID:             uuid.New(),
		Content:        in.Content,
		Timestamp:      now(),
		Emotion:        in.Emotion,
		Importance:     in.Importance,
		Category:       in.Category,
		LinkedIDs:      dedupeIDs(in.LinkedIDs),
		SensoryData:    in.SensoryData,
		CameraPosition: in.CameraPosition,
		Tags:           in.Tags,
	}

	rec := domain.Record{ID: m.ID.String(), Text: m.Content, Metadata: store.EncodeMemory(&m)}
	if err := s.store.Add(ctx, rec); err != nil {
		return nil, fmt.Errorf("save memory: %w", err)
	}

	if s.workingSet != nil {
		s.workingSet.Add(m)
	}
	return &m, nil
}

// SearchOptions are ANDed together. Zero values mean no filter.
type SearchOptions struct {
	Emotion  domain.Emotion
	Category domain.Category
	From     time.Time
	To       time.Time
}

func (o SearchOptions) filter() (domain.Filter, error) {
	var f domain.Filter
	if o.Emotion != "" {
		if !domain.ValidEmotion(string(o.Emotion)) {
			return nil, ErrInvalidEmotion
		}
		f = append(f, domain.Eq(store.KeyEmotion, string(o.Emotion)))
	}
	if o.Category != "" {
		if !domain.ValidCategory(string(o.Category)) {
			return nil, ErrInvalidCategory
		}
		f = append(f, domain.Eq(store.KeyCategory, string(o.Category)))
	}
	if !o.From.IsZero() {
		f = append(f, domain.Gte(store.KeyTimestamp, store.FormatTime(o.From)))
	}
	if !o.To.IsZero() {
		f = append(f, domain.Lte(store.KeyTimestamp, store.FormatTime(o.To)))
	}
	return f, nil
}

// Search ranks memories by raw semantic distance, closest first.
func (s *MemoryService) Search(ctx context.Context, query string, k int, opts SearchOptions) ([]domain.MemorySearchResult, error) {
	if query == "" {
		return nil, ErrQueryEmpty
	}
	if k <= 0 {
		k = DefaultSearchResults
	}
	filter, err := opts.filter()
	if err != nil {
		return nil, err
	}
	return s.query(ctx, query, k, filter)
}

func (s *MemoryService) query(ctx context.Context, query string, k int, filter domain.Filter) ([]domain.MemorySearchResult, error) {
	recs, err := s.store.Query(ctx, query, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search memories: %w", err)
	}
	results := make([]domain.MemorySearchResult, 0, len(recs))
	for _, rec := range recs {
		m, err := store.DecodeMemory(rec)
		if err != nil {
			s.logger.Warn("skipping undecodable memory", zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		results = append(results, domain.MemorySearchResult{Memory: m, Distance: rec.Distance})
	}
	return results, nil
}

// ScoringOptions extend SearchOptions for SearchWithScoring. A disabled term is
// held at its neutral value (decay 1.0, emotion boost 0).
type ScoringOptions struct {
	SearchOptions
	DisableTimeDecay    bool
	DisableEmotionBoost bool
	HalfLifeDays        float64
}

// SearchWithScoring over-fetches candidates, scores them and returns the k with
// the lowest final score.
func (s *MemoryService) SearchWithScoring(ctx context.Context, query string, k int, opts ScoringOptions) ([]domain.ScoredMemory, error) {
	if query == "" {
		return nil, ErrQueryEmpty
	}
	if k <= 0 {
		k = DefaultSearchResults
	}
	filter, err := opts.filter()
	if err != nil {
		return nil, err
	}

	fetch := k * 3
	if fetch > maxScoringFetch {
		fetch = maxScoringFetch
	}
	candidates, err := s.query(ctx, query, fetch, filter)
	if err != nil {
		return nil, err
	}

	scorer := NewRelevanceScorer()
	scorer.HalfLifeDays = s.halfLifeDays
	if opts.HalfLifeDays > 0 {
		scorer.HalfLifeDays = opts.HalfLifeDays
	}
	scorer.UseTimeDecay = !opts.DisableTimeDecay
	scorer.UseEmotionBoost = !opts.DisableEmotionBoost

	scored := scorer.ScoreAndRank(candidates, timeNow())
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Recall is SearchWithScoring with every term enabled and no filters.
func (s *MemoryService) Recall(ctx context.Context, cue string, k int) ([]domain.ScoredMemory, error) {
	if k <= 0 {
		k = DefaultRecallResults
	}
	return s.SearchWithScoring(ctx, cue, k, ScoringOptions{})
}

// mutate loads id, applies fn and writes the metadata back if fn reports a change.
// Calls for the same id are serialized.
func (s *MemoryService) mutate(ctx context.Context, id uuid.UUID, fn func(m *domain.Memory) (bool, error)) (*domain.Memory, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	m, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	changed, err := fn(m)
	if err != nil {
		return nil, err
	}
	if !changed {
		return m, nil
	}
	if err := s.store.Update(ctx, id.String(), store.EncodeMemory(m)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, fmt.Errorf("update memory %s: %w", id, err)
	}
	return m, nil
}

// UpdateAccess bumps the access counter and stamps last_accessed. An unknown id
// is a no-op and returns a nil memory.
func (s *MemoryService) UpdateAccess(ctx context.Context, id uuid.UUID) (*domain.Memory, error) {
	m, err := s.mutate(ctx, id, func(m *domain.Memory) (bool, error) {
		t := now()
		m.AccessCount++
		m.LastAccessed = &t
		return true, nil
	})
	if errors.Is(err, ErrMemoryNotFound) {
		return nil, nil
	}
	return m, err
}

// UpdateEpisodeID sets or, with a nil episodeID, clears the episode back-reference.
func (s *MemoryService) UpdateEpisodeID(ctx context.Context, id uuid.UUID, episodeID *uuid.UUID) error {
	_, err := s.mutate(ctx, id, func(m *domain.Memory) (bool, error) {
		m.EpisodeID = episodeID
		return true, nil
	})
	return err
}

func (s *MemoryService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Memory, error) {
	recs, err := s.store.Get(ctx, []string{id.String()})
	if err != nil {
		return nil, fmt.Errorf("get memory %s: %w", id, err)
	}
	if len(recs) == 0 {
		return nil, ErrMemoryNotFound
	}
	m, err := store.DecodeMemory(recs[0])
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// getMany fetches ids and returns them keyed by id. Missing ids are absent.
func (s *MemoryService) getMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]domain.Memory, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]domain.Memory{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	recs, err := s.store.Get(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("get memories: %w", err)
	}
	out := make(map[uuid.UUID]domain.Memory, len(recs))
	for _, m := range s.decodeAll(recs) {
		out[m.ID] = m
	}
	return out, nil
}

// GetByIDs returns the memories that exist, oldest first.
func (s *MemoryService) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Memory, error) {
	found, err := s.getMany(ctx, dedupeIDs(ids))
	if err != nil {
		return nil, err
	}
	memories := make([]domain.Memory, 0, len(found))
	for _, m := range found {
		memories = append(memories, m)
	}
	sortByTimestamp(memories)
	return memories, nil
}

// GetAll returns every memory, oldest first.
func (s *MemoryService) GetAll(ctx context.Context) ([]domain.Memory, error) {
	return s.find(ctx, nil)
}

func (s *MemoryService) find(ctx context.Context, filter domain.Filter) ([]domain.Memory, error) {
	recs, err := s.store.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list memories: %w", err)
	}
	memories := s.decodeAll(recs)
	sortByTimestamp(memories)
	return memories, nil
}

// ListRecent returns up to limit memories, newest first, optionally in one category.
func (s *MemoryService) ListRecent(ctx context.Context, limit int, category domain.Category) ([]domain.Memory, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	var filter domain.Filter
	if category != "" {
		if !domain.ValidCategory(string(category)) {
			return nil, ErrInvalidCategory
		}
		filter = domain.Filter{domain.Eq(store.KeyCategory, string(category))}
	}
	memories, err := s.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	reverse(memories)
	if len(memories) > limit {
		memories = memories[:limit]
	}
	return memories, nil
}

func (s *MemoryService) GetStats(ctx context.Context) (*domain.MemoryStats, error) {
	memories, err := s.find(ctx, nil)
	if err != nil {
		return nil, err
	}
	stats := &domain.MemoryStats{
		TotalCount: len(memories),
		ByCategory: make(map[domain.Category]int),
		ByEmotion:  make(map[domain.Emotion]int),
	}
	for i := range memories {
		m := &memories[i]
		stats.ByCategory[m.Category]++
		stats.ByEmotion[m.Emotion]++
		if m.Timestamp.IsZero() {
			continue
		}
		if stats.OldestTimestamp == nil || m.Timestamp.Before(*stats.OldestTimestamp) {
			t := m.Timestamp
			stats.OldestTimestamp = &t
		}
		if stats.NewestTimestamp == nil || m.Timestamp.After(*stats.NewestTimestamp) {
			t := m.Timestamp
			stats.NewestTimestamp = &t
		}
	}
	return stats, nil
}

// SearchImportantMemories lists memories with at least minImportance and
// minAccessCount that were accessed at or after since (zero means any time),
// most recently accessed first.
func (s *MemoryService) SearchImportantMemories(ctx context.Context, minImportance, minAccessCount int, since time.Time, k int) ([]domain.Memory, error) {
	if k <= 0 {
		k = DefaultListLimit
	}
	filter := domain.Filter{
		domain.GteInt(store.KeyImportance, minImportance),
		domain.GteInt(store.KeyAccessCount, minAccessCount),
	}
	if !since.IsZero() {
		filter = append(filter, domain.Gte(store.KeyLastAccessed, store.FormatTime(since)))
	}
	memories, err := s.find(ctx, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(memories, func(i, j int) bool {
		return lastAccessed(memories[i]).After(lastAccessed(memories[j]))
	})
	if len(memories) > k {
		memories = memories[:k]
	}
	return memories, nil
}

func (s *MemoryService) decodeAll(recs []domain.Record) []domain.Memory {
	memories := make([]domain.Memory, 0, len(recs))
	for _, rec := range recs {
		m, err := store.DecodeMemory(rec)
		if err != nil {
			s.logger.Warn("skipping undecodable memory", zap.String("record_id", rec.ID), zap.Error(err))
			continue
		}
		memories = append(memories, m)
	}
	return memories
}

func lastAccessed(m domain.Memory) time.Time {
	if m.LastAccessed == nil {
		return time.Time{}
	}
	return *m.LastAccessed
}

func sortByTimestamp(memories []domain.Memory) {
	sort.SliceStable(memories, func(i, j int) bool {
		return memories[i].Timestamp.Before(memories[j].Timestamp)
	})
}

func reverse(memories []domain.Memory) {
	for i, j := 0, len(memories)-1; i < j; i, j = i+1, j-1 {
		memories[i], memories[j] = memories[j], memories[i]
	}
}

func dedupeIDs(ids []uuid.UUID) []uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
