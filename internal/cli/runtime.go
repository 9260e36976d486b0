package cli

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/mnemo/internal/api"
	"github.com/Harshitk-cp/mnemo/internal/buffer"
	"github.com/Harshitk-cp/mnemo/internal/config"
	"github.com/Harshitk-cp/mnemo/internal/domain"
	"github.com/Harshitk-cp/mnemo/internal/embedding"
	"github.com/Harshitk-cp/mnemo/internal/service"
	"github.com/Harshitk-cp/mnemo/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	backendChromem  = "chromem"
	backendPGVector = "pgvector"
)

// engine is everything a command needs, wired from the environment.
type engine struct {
	deps    api.Deps
	closers []func()
}

func (e *engine) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
}

func newEmbedder(logger *zap.Logger) (domain.EmbeddingClient, func(), error) {
	provider := config.EmbeddingProvider()
	client, err := embedding.NewClient(provider, embedding.Options{
		APIKey:     config.EmbeddingAPIKey(),
		Dimensions: config.EmbeddingDimensions(),
		BaseURL:    config.EmbeddingBaseURL(),
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("embedding client initialized",
		zap.String("provider", provider),
		zap.Int("dimensions", config.EmbeddingDimensions()))

	size := config.EmbeddingCacheSize()
	if size == 0 {
		return client, func() {}, nil
	}
	cached, err := embedding.NewCachedClient(client, size)
	if err != nil {
		return nil, nil, err
	}
	return cached, cached.Close, nil
}

// openStores returns the memory and episode collections of the configured backend.
func openStores(ctx context.Context, embedder domain.EmbeddingClient, logger *zap.Logger) (memories, episodes domain.SemanticStore, closeFn func(), err error) {
	switch backend := config.SemanticBackend(); backend {
	case backendChromem:
		path := config.MemoryDBPath()
		db, err := store.OpenChromemDB(path)
		if err != nil {
			return nil, nil, nil, err
		}
		mem, err := store.NewChromemStore(db, config.MemoryCollectionName(), embedder)
		if err != nil {
			return nil, nil, nil, err
		}
		ep, err := store.NewChromemStore(db, config.EpisodeCollectionName(), embedder)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("opened chromem store", zap.String("path", path), zap.Int("memories", mem.Count()))
		return mem, ep, func() {}, nil

	case backendPGVector:
		url := config.DatabaseURL()
		if url == "" {
			return nil, nil, nil, fmt.Errorf("DATABASE_URL is required for the %s backend", backend)
		}
		pool, err := pgxpool.New(ctx, url)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ping database: %w", err)
		}
		dims := config.EmbeddingDimensions()
		mem, err := store.NewPGVectorStore(ctx, pool, config.MemoryCollectionName(), dims, embedder)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		ep, err := store.NewPGVectorStore(ctx, pool, config.EpisodeCollectionName(), dims, embedder)
		if err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		logger.Info("connected to pgvector store", zap.Int("dimensions", dims))
		return mem, ep, pool.Close, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown semantic backend %q (valid options: chromem, pgvector)", backend)
	}
}

func newEngine(ctx context.Context, logger *zap.Logger) (*engine, error) {
	e := &engine{}

	embedder, closeEmbedder, err := newEmbedder(logger)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}
	e.closers = append(e.closers, closeEmbedder)

	memStore, epStore, closeStores, err := openStores(ctx, embedder, logger)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("semantic store: %w", err)
	}
	e.closers = append(e.closers, closeStores)

	n := config.DelegateConcurrency()
	memGate := store.NewGate(memStore, n)
	epGate := store.NewGate(epStore, n)

	ws := buffer.NewWorkingSet(config.WorkingSetCapacity())
	memories := service.NewMemoryService(memGate, logger)
	memories.SetWorkingSet(ws)
	memories.SetHalfLifeDays(config.DecayHalfLifeDays())

	sensoryBuf := buffer.NewSensoryBuffer(buffer.SensoryConfig{
		TTL:        config.SensoryTTL(),
		MaxEntries: config.SensoryMaxEntries(),
	})
	shortTerm := buffer.NewShortTermBuffer(buffer.ShortTermConfig{
		TTL:                  config.ShortTermTTL(),
		MaxEntries:           config.ShortTermMaxEntries(),
		AutoPromoteThreshold: config.AutoPromoteThreshold(),
	})

	e.deps = api.Deps{
		Memories:   memories,
		Episodes:   service.NewEpisodeService(epGate, memories, logger),
		Sensory:    service.NewSensoryService(memories),
		Promotion:  service.NewPromotionService(sensoryBuf, shortTerm, ws, memories, config.MemoryModelV2(), logger),
		SensoryBuf: sensoryBuf,
		ShortTerm:  shortTerm,
		WorkingSet: ws,
		Store:      memGate,
	}
	return e, nil
}
