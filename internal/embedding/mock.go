package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const MockDimensions = 384

// MockClient produces deterministic embeddings without a network call. Each word
// contributes a fixed pseudo-random direction, so texts sharing words land close
// together and identical texts embed identically.
type MockClient struct {
	dimensions int
}

func NewMockClient() *MockClient {
	return &MockClient{dimensions: MockDimensions}
}

func (m *MockClient) Dimensions() int {
	return m.dimensions
}

func (m *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, m.dimensions)

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		words = []string{text}
	}
	for _, w := range words {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		seed := h.Sum64()
		for i := range vec {
			seed = seed*6364136223846793005 + 1442695040888963407
			vec[i] += float32(int64(seed)) / float32(math.MaxInt64)
		}
	}
	return normalize(vec), nil
}

func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		vec[i] = float32(float64(v) / norm)
	}
	return vec
}
