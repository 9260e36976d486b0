package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/store"
	"go.uber.org/zap"
)

var errUpdateRejected = errors.New("update rejected")

// fakeSemanticStore is an in-memory domain.SemanticStore. Distances default to the
// Jaccard distance between word sets; tests may override them per record text.
type fakeSemanticStore struct {
	mu        sync.Mutex
	order     []string
	records   map[string]domain.Record
	distances map[string]float64

	lastQueryK int
	queryErr   error
	// failUpdate makes Update fail for one record id.
	failUpdate string
	updates    int
}

func newFakeSemanticStore() *fakeSemanticStore {
	return &fakeSemanticStore{
		records:   make(map[string]domain.Record),
		distances: make(map[string]float64),
	}
}

func copyMeta(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func jaccardDistance(a, b string) float64 {
	wa := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(a)) {
		wa[w] = true
	}
	wb := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(b)) {
		wb[w] = true
	}
	union := map[string]bool{}
	common := 0
	for w := range wa {
		union[w] = true
		if wb[w] {
			common++
		}
	}
	for w := range wb {
		union[w] = true
	}
	if len(union) == 0 {
		return 1
	}
	return 1 - float64(common)/float64(len(union))
}

func (f *fakeSemanticStore) Add(_ context.Context, rec domain.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[rec.ID]; !ok {
		f.order = append(f.order, rec.ID)
	}
	rec.Metadata = copyMeta(rec.Metadata)
	f.records[rec.ID] = rec
	return nil
}

func (f *fakeSemanticStore) Query(_ context.Context, text string, k int, filter domain.Filter) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQueryK = k
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []domain.Record
	for _, id := range f.order {
		rec := f.records[id]
		if !filter.Match(rec.Metadata) {
			continue
		}
		d, ok := f.distances[rec.Text]
		if !ok {
			d = jaccardDistance(text, rec.Text)
		}
		rec.Metadata = copyMeta(rec.Metadata)
		rec.Distance = d
		out = append(out, rec)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (f *fakeSemanticStore) Get(_ context.Context, ids []string) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Record
	for _, id := range ids {
		if rec, ok := f.records[id]; ok {
			rec.Metadata = copyMeta(rec.Metadata)
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeSemanticStore) Find(_ context.Context, filter domain.Filter) ([]domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Record
	for _, id := range f.order {
		rec := f.records[id]
		if filter.Match(rec.Metadata) {
			rec.Metadata = copyMeta(rec.Metadata)
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeSemanticStore) Update(_ context.Context, id string, metadata map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id == f.failUpdate {
		return errUpdateRejected
	}
	rec, ok := f.records[id]
	if !ok {
		return store.ErrNotFound
	}
	rec.Metadata = copyMeta(metadata)
	f.records[id] = rec
	f.updates++
	return nil
}

func (f *fakeSemanticStore) Delete(_ context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		if _, ok := f.records[id]; !ok {
			continue
		}
		delete(f.records, id)
		for i, o := range f.order {
			if o == id {
				f.order = append(f.order[:i], f.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

func (f *fakeSemanticStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

// stubClock makes timeNow start at start and advance by step on every call.
func stubClock(t *testing.T, start time.Time, step time.Duration) {
	t.Helper()
	var mu sync.Mutex
	cur := start
	orig := timeNow
	timeNow = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		cur = cur.Add(step)
		return cur
	}
	t.Cleanup(func() { timeNow = orig })
}

var testEpoch = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestMemoryService(t *testing.T) (*MemoryService, *fakeSemanticStore) {
	t.Helper()
	stubClock(t, testEpoch, time.Second)
	st := newFakeSemanticStore()
	return NewMemoryService(st, zap.NewNop()), st
}
