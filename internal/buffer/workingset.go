package buffer

import (
	"context"
	"sync"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
)

const (
	DefaultWorkingSetCapacity = 20

	refreshMinImportance  = 4
	refreshMinAccessCount = 5
	refreshWindow         = 7 * 24 * time.Hour
	refreshLimit          = 10
)

// ImportantMemorySource is the long-term query used to warm the working set.
type ImportantMemorySource interface {
	SearchImportantMemories(ctx context.Context, minImportance, minAccessCount int, since time.Time, n int) ([]domain.Memory, error)
}

// WorkingSet caches recently touched long-term memories. It is never authoritative
// and may drift from the store until the next refresh.
type WorkingSet struct {
	mu       sync.Mutex
	memories []domain.Memory
	capacity int
}

func NewWorkingSet(capacity int) *WorkingSet {
	if capacity <= 0 {
		capacity = DefaultWorkingSetCapacity
	}
	return &WorkingSet{
		memories: make([]domain.Memory, 0, capacity),
		capacity: capacity,
	}
}

func (w *WorkingSet) Add(m domain.Memory) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.appendLocked(m)
}

func (w *WorkingSet) appendLocked(m domain.Memory) {
	if len(w.memories) >= w.capacity {
		w.memories[0] = domain.Memory{}
		w.memories = w.memories[1:]
	}
	w.memories = append(w.memories, m)
}

// GetRecent returns up to n memories, newest first.
func (w *WorkingSet) GetRecent(n int) []domain.Memory {
	w.mu.Lock()
	defer w.mu.Unlock()

	if n < 0 {
		n = 0
	}
	if n > len(w.memories) {
		n = len(w.memories)
	}
	out := make([]domain.Memory, 0, n)
	for i := len(w.memories) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, w.memories[i])
	}
	return out
}

func (w *WorkingSet) GetAll() []domain.Memory {
	return w.GetRecent(w.Size())
}

func (w *WorkingSet) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.memories = w.memories[:0]
}

func (w *WorkingSet) Size() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.memories)
}

// RefreshImportant pulls memories with importance >= 4, at least 5 accesses and a
// last access within the past week, appending those not already cached.
// It returns how many memories were added.
func (w *WorkingSet) RefreshImportant(ctx context.Context, src ImportantMemorySource, now time.Time) (int, error) {
	important, err := src.SearchImportantMemories(ctx, refreshMinImportance, refreshMinAccessCount, now.Add(-refreshWindow), refreshLimit)
	if err != nil {
		return 0, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	present := make(map[string]struct{}, len(w.memories))
	for _, m := range w.memories {
		present[m.ID.String()] = struct{}{}
	}
	added := 0
	for _, m := range important {
		if _, ok := present[m.ID.String()]; ok {
			continue
		}
		w.appendLocked(m)
		present[m.ID.String()] = struct{}{}
		added++
	}
	return added, nil
}
