package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	chromem "github.com/philippgille/chromem-go"
)

// listProbeText is embedded once to obtain a query vector for full listings.
const listProbeText = "mnemo collection listing"

// OpenChromemDB opens a persistent chromem database at path, or an in-memory one
// when path is empty.
func OpenChromemDB(path string) (*chromem.DB, error) {
	if path == "" {
		return chromem.NewDB(), nil
	}
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open chromem db at %s: %w", path, err)
	}
	return db, nil
}

// ChromemStore is a SemanticStore over one chromem-go collection.
// Distances are cosine distances (1 - similarity).
type ChromemStore struct {
	col      *chromem.Collection
	embedder domain.EmbeddingClient

	// mu keeps readers from observing the delete+add window of Update.
	mu sync.RWMutex

	probeMu sync.Mutex
	probe   []float32
}

func NewChromemStore(db *chromem.DB, name string, embedder domain.EmbeddingClient) (*ChromemStore, error) {
	col, err := db.GetOrCreateCollection(name, nil, chromem.EmbeddingFunc(embedder.Embed))
	if err != nil {
		return nil, fmt.Errorf("create collection %s: %w", name, err)
	}
	return &ChromemStore{col: col, embedder: embedder}, nil
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *ChromemStore) Add(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.col.AddDocument(ctx, chromem.Document{
		ID:       rec.ID,
		Content:  rec.Text,
		Metadata: copyMetadata(rec.Metadata),
	})
	if err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

func (s *ChromemStore) Query(ctx context.Context, text string, k int, filter domain.Filter) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.col.Count()
	if k <= 0 || count == 0 {
		return nil, nil
	}

	// chromem only filters on equality and rejects nResults above the collection
	// size, so filtered queries rank the whole collection and filter afterwards.
	n := k
	if len(filter) > 0 || n > count {
		n = count
	}
	results, err := s.col.Query(ctx, text, n, filter.Equalities(), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	return resultsToRecords(results, filter, k), nil
}

func resultsToRecords(results []chromem.Result, filter domain.Filter, limit int) []domain.Record {
	records := make([]domain.Record, 0, len(results))
	for _, r := range results {
		if !filter.Match(r.Metadata) {
			continue
		}
		records = append(records, domain.Record{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: copyMetadata(r.Metadata),
			Distance: 1 - float64(r.Similarity),
		})
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records
}

func (s *ChromemStore) Get(ctx context.Context, ids []string) ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		doc, err := s.col.GetByID(ctx, id)
		if err != nil {
			continue
		}
		records = append(records, domain.Record{
			ID:       doc.ID,
			Text:     doc.Content,
			Metadata: copyMetadata(doc.Metadata),
		})
	}
	return records, nil
}

func (s *ChromemStore) probeVector(ctx context.Context) ([]float32, error) {
	s.probeMu.Lock()
	defer s.probeMu.Unlock()

	if s.probe != nil {
		return s.probe, nil
	}
	v, err := s.embedder.Embed(ctx, listProbeText)
	if err != nil {
		return nil, fmt.Errorf("embed listing probe: %w", err)
	}
	s.probe = v
	return v, nil
}

// Find lists matching documents. chromem has no listing call, so this runs a
// full-width query against a fixed probe vector and discards the ranking.
func (s *ChromemStore) Find(ctx context.Context, filter domain.Filter) ([]domain.Record, error) {
	probe, err := s.probeVector(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}
	results, err := s.col.QueryEmbedding(ctx, probe, count, filter.Equalities(), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem list: %w", err)
	}
	records := resultsToRecords(results, filter, 0)
	for i := range records {
		records[i].Distance = 0
	}
	return records, nil
}

func (s *ChromemStore) Update(ctx context.Context, id string, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.col.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	if err := s.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("replace document %s: %w", id, err)
	}
	err = s.col.AddDocument(ctx, chromem.Document{
		ID:        doc.ID,
		Content:   doc.Content,
		Embedding: doc.Embedding,
		Metadata:  copyMetadata(metadata),
	})
	if err != nil {
		return fmt.Errorf("replace document %s: %w", id, err)
	}
	return nil
}

func (s *ChromemStore) Delete(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	present := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := s.col.GetByID(ctx, id); err == nil {
			present = append(present, id)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := s.col.Delete(ctx, nil, nil, present...); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}

func (s *ChromemStore) Ping(context.Context) error {
	return nil
}

// Count returns the number of documents in the collection.
func (s *ChromemStore) Count() int {
	return s.col.Count()
}
