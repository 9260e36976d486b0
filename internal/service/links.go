package service

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidLinkType  = errors.New("invalid link type")
	ErrInvalidDirection = errors.New("direction must be backward or forward")
	ErrSelfLink         = errors.New("a memory cannot link to itself")
)

const (
	DefaultLinkThreshold = 0.8
	DefaultMaxAutoLinks  = 5
)

// SaveWithAutoLink saves a memory linked to up to maxLinks existing memories whose
// semantic distance is at most threshold. Every link is written on both ends.
func (s *MemoryService) SaveWithAutoLink(ctx context.Context, in SaveInput, threshold float64, maxLinks int) (*domain.Memory, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = DefaultLinkThreshold
	}
	if maxLinks <= 0 {
		maxLinks = DefaultMaxAutoLinks
	}

	similar, err := s.query(ctx, in.Content, maxLinks, nil)
	if err != nil {
		return nil, err
	}
	for _, r := range similar {
		if r.Distance <= threshold {
			in.LinkedIDs = append(in.LinkedIDs, r.Memory.ID)
		}
	}

	m, err := s.save(ctx, in)
	if err != nil {
		return nil, err
	}

	var orphaned []uuid.UUID
	for _, other := range m.LinkedIDs {
		if err := s.addLinkedID(ctx, other, m.ID); err != nil {
			s.logger.Warn("reverse link failed, dropping link",
				zap.String("memory_id", m.ID.String()),
				zap.String("linked_id", other.String()),
				zap.Error(err))
			orphaned = append(orphaned, other)
		}
	}
	if len(orphaned) > 0 {
		updated, err := s.removeLinkedIDs(ctx, m.ID, orphaned)
		if err != nil {
			return nil, err
		}
		m = updated
	}
	return m, nil
}

func (s *MemoryService) addLinkedID(ctx context.Context, id, linked uuid.UUID) error {
	_, err := s.mutate(ctx, id, func(m *domain.Memory) (bool, error) {
		if m.HasLinkedID(linked) {
			return false, nil
		}
		m.LinkedIDs = append(m.LinkedIDs, linked)
		return true, nil
	})
	return err
}

func (s *MemoryService) removeLinkedIDs(ctx context.Context, id uuid.UUID, drop []uuid.UUID) (*domain.Memory, error) {
	return s.mutate(ctx, id, func(m *domain.Memory) (bool, error) {
		kept := m.LinkedIDs[:0]
		for _, l := range m.LinkedIDs {
			if !containsID(drop, l) {
				kept = append(kept, l)
			}
		}
		changed := len(kept) != len(m.LinkedIDs)
		m.LinkedIDs = kept
		return changed, nil
	})
}

// GetLinkedMemories walks the similarity graph breadth first from id, up to depth
// hops (clamped to [1,5]). The start memory is not included; each memory appears once.
func (s *MemoryService) GetLinkedMemories(ctx context.Context, id uuid.UUID, depth int) ([]domain.Memory, error) {
	start, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	depth = domain.ClampDepth(depth)

	visited := map[uuid.UUID]bool{id: true}
	frontier := unvisited(start.LinkedIDs, visited)

	var result []domain.Memory
	for level := 1; level <= depth && len(frontier) > 0; level++ {
		found, err := s.getMany(ctx, frontier)
		if err != nil {
			return nil, err
		}
		var next []uuid.UUID
		for _, fid := range frontier {
			m, ok := found[fid]
			if !ok {
				continue
			}
			result = append(result, m)
			next = append(next, unvisited(m.LinkedIDs, visited)...)
		}
		frontier = next
	}
	return result, nil
}

// unvisited returns the ids not yet in visited and marks them.
func unvisited(ids []uuid.UUID, visited map[uuid.UUID]bool) []uuid.UUID {
	var out []uuid.UUID
	for _, id := range ids {
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, id)
	}
	return out
}

// ChainedRecall holds the scored recall results followed by the memories reached
// through their similarity links.
type ChainedRecall struct {
	Results []domain.ScoredMemory `json:"results"`
	Linked  []domain.Memory       `json:"linked"`
}

// RecallWithChain runs Recall and then expands every result through its links,
// keeping discovery order and skipping anything already returned.
func (s *MemoryService) RecallWithChain(ctx context.Context, cue string, k, chainDepth int) (*ChainedRecall, error) {
	results, err := s.Recall(ctx, cue, k)
	if err != nil {
		return nil, err
	}

	out := &ChainedRecall{Results: results, Linked: []domain.Memory{}}
	seen := make(map[uuid.UUID]bool, len(results))
	for _, r := range results {
		seen[r.Memory.ID] = true
	}
	for _, r := range results {
		linked, err := s.GetLinkedMemories(ctx, r.Memory.ID, chainDepth)
		if errors.Is(err, ErrMemoryNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, m := range linked {
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			out.Linked = append(out.Linked, m)
		}
	}
	return out, nil
}

// AddCausalLink records a directed link from source to target. Both must exist.
// Adding a (target, type) pair the source already has is a no-op.
func (s *MemoryService) AddCausalLink(ctx context.Context, source, target uuid.UUID, linkType domain.LinkType, note string) (*domain.Memory, error) {
	if !domain.ValidLinkType(string(linkType)) {
		return nil, ErrInvalidLinkType
	}
	if source == target {
		return nil, ErrSelfLink
	}
	if _, err := s.GetByID(ctx, target); err != nil {
		return nil, err
	}
	return s.mutate(ctx, source, func(m *domain.Memory) (bool, error) {
		if m.HasLink(target, linkType) {
			return false, nil
		}
		m.Links = append(m.Links, domain.MemoryLink{
			TargetID:  target,
			LinkType:  linkType,
			CreatedAt: now(),
			Note:      note,
		})
		return true, nil
	})
}

// GetCausalChain follows caused_by edges (backward) or leads_to edges (forward)
// from id, level by level, up to maxDepth (clamped to [1,5]). Each memory is
// reached at most once, so cycles terminate.
func (s *MemoryService) GetCausalChain(ctx context.Context, id uuid.UUID, direction domain.ChainDirection, maxDepth int) ([]domain.ChainLink, error) {
	if !domain.ValidChainDirection(string(direction)) {
		return nil, ErrInvalidDirection
	}
	start, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	maxDepth = domain.ClampDepth(maxDepth)
	follow := direction.LinkType()

	visited := map[uuid.UUID]bool{id: true}
	frontier := unvisited(linkTargets(start, follow), visited)

	chain := []domain.ChainLink{}
	for level := 1; level <= maxDepth && len(frontier) > 0; level++ {
		found, err := s.getMany(ctx, frontier)
		if err != nil {
			return nil, err
		}
		var next []uuid.UUID
		for _, fid := range frontier {
			m, ok := found[fid]
			if !ok {
				continue
			}
			chain = append(chain, domain.ChainLink{Memory: m, LinkType: follow, Depth: level})
			next = append(next, unvisited(linkTargets(&m, follow), visited)...)
		}
		frontier = next
	}
	return chain, nil
}

func linkTargets(m *domain.Memory, t domain.LinkType) []uuid.UUID {
	var out []uuid.UUID
	for _, l := range m.Links {
		if l.LinkType == t {
			out = append(out, l.TargetID)
		}
	}
	return out
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
