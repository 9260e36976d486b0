package domain

import (
	"context"
	"strconv"
)

// Record is the delegate's view of a stored item: searchable text plus flat metadata.
// Distance is only populated by Query; lower means more similar.
type Record struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata"`
	Distance float64           `json:"distance,omitempty"`
}

// FilterOp is a comparison applied to a single metadata field.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpGte FilterOp = "gte"
	OpLte FilterOp = "lte"
)

// Condition compares one metadata field. Numeric conditions compare as integers,
// all others lexically.
type Condition struct {
	Field   string
	Op      FilterOp
	Value   string
	Numeric bool
}

// Filter is a conjunction of conditions. An empty filter matches everything.
type Filter []Condition

func Eq(field, value string) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

func Gte(field, value string) Condition {
	return Condition{Field: field, Op: OpGte, Value: value}
}

func Lte(field, value string) Condition {
	return Condition{Field: field, Op: OpLte, Value: value}
}

func GteInt(field string, value int) Condition {
	return Condition{Field: field, Op: OpGte, Value: strconv.Itoa(value), Numeric: true}
}

// Match reports whether metadata satisfies the condition. A missing field never matches.
func (c Condition) Match(metadata map[string]string) bool {
	raw, ok := metadata[c.Field]
	if !ok {
		return false
	}
	var cmp int
	if c.Numeric {
		got, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false
		}
		want, err := strconv.ParseInt(c.Value, 10, 64)
		if err != nil {
			return false
		}
		switch {
		case got < want:
			cmp = -1
		case got > want:
			cmp = 1
		}
	} else {
		switch {
		case raw < c.Value:
			cmp = -1
		case raw > c.Value:
			cmp = 1
		}
	}
	switch c.Op {
	case OpEq:
		return cmp == 0
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

func (f Filter) Match(metadata map[string]string) bool {
	for _, c := range f {
		if !c.Match(metadata) {
			return false
		}
	}
	return true
}

// Equalities returns the equality conditions as a plain map, or nil if there are none.
func (f Filter) Equalities() map[string]string {
	var out map[string]string
	for _, c := range f {
		if c.Op != OpEq {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[c.Field] = c.Value
	}
	return out
}

// SemanticStore is the external collaborator that ranks text and keeps metadata.
// The engine treats it as the single source of truth for durable records.
type SemanticStore interface {
	Add(ctx context.Context, rec Record) error
	// Query returns up to k records ordered by ascending distance.
	Query(ctx context.Context, text string, k int, filter Filter) ([]Record, error)
	// Get fetches records by id. Unknown ids are skipped; order is not guaranteed.
	Get(ctx context.Context, ids []string) ([]Record, error)
	// Find lists every record matching filter, unranked.
	Find(ctx context.Context, filter Filter) ([]Record, error)
	// Update replaces the metadata of an existing record.
	Update(ctx context.Context, id string, metadata map[string]string) error
	Delete(ctx context.Context, ids []string) error
}

type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
