package store

import (
	"context"

	"github.com/Harshitk-cp/mnemo/internal/domain"
	"golang.org/x/sync/semaphore"
)

const DefaultGateConcurrency = 8

// Gate runs every call to the wrapped store on its own goroutine, at most n at a
// time. A caller whose context ends stops waiting; the call itself finishes in the
// background and keeps its slot until then.
type Gate struct {
	next domain.SemanticStore
	sem  *semaphore.Weighted
}

func NewGate(next domain.SemanticStore, n int) *Gate {
	if n <= 0 {
		n = DefaultGateConcurrency
	}
	return &Gate{next: next, sem: semaphore.NewWeighted(int64(n))}
}

func (g *Gate) do(ctx context.Context, fn func(context.Context) error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() {
		defer g.sem.Release(1)
		done <- fn(ctx)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *Gate) Add(ctx context.Context, rec domain.Record) error {
	return g.do(ctx, func(ctx context.Context) error {
		return g.next.Add(ctx, rec)
	})
}

func (g *Gate) Query(ctx context.Context, text string, k int, filter domain.Filter) ([]domain.Record, error) {
	var out []domain.Record
	err := g.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.next.Query(ctx, text, k, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gate) Get(ctx context.Context, ids []string) ([]domain.Record, error) {
	var out []domain.Record
	err := g.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.next.Get(ctx, ids)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gate) Find(ctx context.Context, filter domain.Filter) ([]domain.Record, error) {
	var out []domain.Record
	err := g.do(ctx, func(ctx context.Context) error {
		var err error
		out, err = g.next.Find(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gate) Update(ctx context.Context, id string, metadata map[string]string) error {
	return g.do(ctx, func(ctx context.Context) error {
		return g.next.Update(ctx, id, metadata)
	})
}

func (g *Gate) Delete(ctx context.Context, ids []string) error {
	return g.do(ctx, func(ctx context.Context) error {
		return g.next.Delete(ctx, ids)
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks the wrapped store when it supports health checks.
func (g *Gate) Ping(ctx context.Context) error {
	p, ok := g.next.(pinger)
	if !ok {
		return nil
	}
	return g.do(ctx, p.Ping)
}
