package embedding

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/dgraph-io/ristretto"
)

// CachedClient memoizes embeddings by exact text. Admission is probabilistic, so a
// miss only costs a call to the wrapped client.
type CachedClient struct {
	next  domain.EmbeddingClient
	cache *ristretto.Cache
}

// NewCachedClient caches up to maxEntries embeddings in front of next.
func NewCachedClient(next domain.EmbeddingClient, maxEntries int) (*CachedClient, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("embedding cache size must be positive, got %d", maxEntries)
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(maxEntries) * 10,
		MaxCost:     int64(maxEntries),
		BufferItems: 64,
		// Cost is an entry count, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedClient{next: next, cache: cache}, nil
}

func (c *CachedClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := c.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return append([]float32(nil), vec...), nil
		}
	}
	vec, err := c.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(text, append([]float32(nil), vec...), 1)
	return vec, nil
}

func (c *CachedClient) Close() {
	c.cache.Close()
}
