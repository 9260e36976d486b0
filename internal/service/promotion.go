package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/mnemo/internal/buffer"
	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

var ErrEntryNotFound = errors.New("buffer entry not found or expired")

// PromotionService moves experiences from the sensory buffer through the
// short-term buffer into long-term memory.
type PromotionService struct {
	sensory    *buffer.SensoryBuffer
	shortTerm  *buffer.ShortTermBuffer
	workingSet *buffer.WorkingSet
	memories   *MemoryService
	// v2 routes sensory promotions through the short-term buffer.
	v2     bool
	logger *zap.Logger
}

func NewPromotionService(
	sensory *buffer.SensoryBuffer,
	shortTerm *buffer.ShortTermBuffer,
	workingSet *buffer.WorkingSet,
	memories *MemoryService,
	v2 bool,
	logger *zap.Logger,
) *PromotionService {
	return &PromotionService{
		sensory:    sensory,
		shortTerm:  shortTerm,
		workingSet: workingSet,
		memories:   memories,
		v2:         v2,
		logger:     logger,
	}
}

// PromotionResult reports where a promoted experience ended up. Memory is set
// once it reached long-term memory.
type PromotionResult struct {
	ShortTerm    *domain.ShortTermEntry `json:"short_term,omitempty"`
	Memory       *domain.Memory         `json:"memory,omitempty"`
	AutoPromoted bool                   `json:"auto_promoted"`
}

// PromoteInput tags a sensory entry on its way up. Zero values take the
// defaults: neutral, importance 3, daily.
type PromoteInput struct {
	Emotion    domain.Emotion
	Importance int
	Category   domain.Category
}

func (in *PromoteInput) normalize() error {
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
	if in.Importance == 0 {
		in.Importance = domain.DefaultImportance
	}
	in.Importance = domain.ClampImportance(in.Importance)
	return nil
}

func (s *PromotionService) IngestSensory(content string, sensoryType domain.SensoryType, metadata map[string]any) (domain.SensoryEntry, error) {
	if content == "" {
		return domain.SensoryEntry{}, ErrMemoryContentEmpty
	}
	if !domain.ValidSensoryType(string(sensoryType)) {
		return domain.SensoryEntry{}, ErrInvalidSensoryType
	}
	return s.sensory.Add(content, sensoryType, copyAny(metadata)), nil
}

// PromoteSensory lifts a live sensory entry. With the tiered model it becomes a
// short-term entry, continuing straight to long-term memory when important
// enough; otherwise it is saved to long-term memory directly. The sensory entry
// is removed on success.
func (s *PromotionService) PromoteSensory(ctx context.Context, id ulid.ULID, in PromoteInput) (*PromotionResult, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	entry, ok := s.sensory.GetByID(id)
	if !ok {
		return nil, ErrEntryNotFound
	}

	var result *PromotionResult
	if s.v2 {
		st := s.shortTerm.Add(buffer.ShortTermInput{
			Content:    fmt.Sprintf("[%s] %s", entry.SensoryType, entry.Content),
			Emotion:    in.Emotion,
			Importance: in.Importance,
			Category:   in.Category,
			Origin:     domain.OriginSensoryBuffer,
			Metadata:   copyAny(entry.Metadata),
		})
		result = s.maybeAutoPromote(ctx, st)
	} else {
		m, err := s.memories.Save(ctx, SaveInput{
			Content:    entry.Content,
			Emotion:    in.Emotion,
			Importance: in.Importance,
			Category:   in.Category,
			SensoryData: []domain.SensoryData{{
				SensoryType: entry.SensoryType,
				Metadata:    copyAny(entry.Metadata),
				Timestamp:   entry.CreatedAt,
			}},
		})
		if err != nil {
			return nil, err
		}
		result = &PromotionResult{Memory: m}
	}

	s.sensory.Remove(id)
	return result, nil
}

// HoldShortTerm adds an experience straight to the short-term buffer, promoting
// it at once when it meets the auto-promote threshold.
func (s *PromotionService) HoldShortTerm(ctx context.Context, in buffer.ShortTermInput) (*PromotionResult, error) {
	if in.Content == "" {
		return nil, ErrMemoryContentEmpty
	}
	if in.Emotion != "" && !domain.ValidEmotion(string(in.Emotion)) {
		return nil, ErrInvalidEmotion
	}
	if in.Category != "" && !domain.ValidCategory(string(in.Category)) {
		return nil, ErrInvalidCategory
	}
	in.Origin = domain.OriginDirect
	in.Metadata = copyAny(in.Metadata)
	return s.maybeAutoPromote(ctx, s.shortTerm.Add(in)), nil
}

// maybeAutoPromote promotes st when it qualifies. A failed save leaves the entry
// in the short-term buffer for a later attempt.
func (s *PromotionService) maybeAutoPromote(ctx context.Context, st domain.ShortTermEntry) *PromotionResult {
	result := &PromotionResult{ShortTerm: &st}
	if !s.shortTerm.ShouldAutoPromote(st) {
		return result
	}
	m, err := s.promoteEntry(ctx, st)
	if err != nil {
		s.logger.Warn("auto-promotion failed, entry kept in short-term buffer",
			zap.String("entry_id", st.ID.String()), zap.Error(err))
		return result
	}
	result.Memory = m
	result.AutoPromoted = true
	return result
}

func (s *PromotionService) promoteEntry(ctx context.Context, e domain.ShortTermEntry) (*domain.Memory, error) {
	m, err := s.memories.Save(ctx, SaveInput{
		Content:    e.Content,
		Emotion:    e.Emotion,
		Importance: e.Importance,
		Category:   e.Category,
	})
	if err != nil {
		return nil, err
	}
	s.shortTerm.Remove(e.ID)
	return m, nil
}

// PromoteShortTerm saves a live short-term entry to long-term memory and drops it
// from the buffer.
func (s *PromotionService) PromoteShortTerm(ctx context.Context, id ulid.ULID) (*domain.Memory, error) {
	entry, ok := s.shortTerm.GetByID(id)
	if !ok {
		return nil, ErrEntryNotFound
	}
	return s.promoteEntry(ctx, entry)
}

// PromoteCandidates promotes every entry currently at or above the threshold,
// oldest first. On failure the memories promoted so far are returned with the error.
func (s *PromotionService) PromoteCandidates(ctx context.Context) ([]domain.Memory, error) {
	promoted := []domain.Memory{}
	for _, e := range s.shortTerm.AutoPromoteCandidates() {
		m, err := s.promoteEntry(ctx, e)
		if err != nil {
			return promoted, fmt.Errorf("promote entry %s: %w", e.ID, err)
		}
		promoted = append(promoted, *m)
	}
	return promoted, nil
}

// RefreshWorkingSet warms the working set from long-term memory and returns how
// many memories were added.
func (s *PromotionService) RefreshWorkingSet(ctx context.Context) (int, error) {
	added, err := s.workingSet.RefreshImportant(ctx, s.memories, timeNow())
	if err != nil {
		s.logger.Warn("working set refresh failed", zap.Error(err))
		return 0, err
	}
	return added, nil
}

func copyAny(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
