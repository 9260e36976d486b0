package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/api/handlers"
	mw "github.com/Harshitk-cp/mnemo/internal/api/middleware"
	"github.com/Harshitk-cp/mnemo/internal/buffer"
	"github.com/Harshitk-cp/mnemo/internal/buildconfig"
	"github.com/Harshitk-cp/mnemo/internal/config"
	"github.com/Harshitk-cp/mnemo/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports whether the backing semantic store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the long-lived services the HTTP surface is built on.
type Deps struct {
	Memories   *service.MemoryService
	Episodes   *service.EpisodeService
	Sensory    *service.SensoryService
	Promotion  *service.PromotionService
	SensoryBuf *buffer.SensoryBuffer
	ShortTerm  *buffer.ShortTermBuffer
	WorkingSet *buffer.WorkingSet
	Store      Pinger
}

// App holds the router and the pieces that need lifecycle management.
type App struct {
	Router      *chi.Mux
	RateLimiter *mw.RateLimiter
	deps        Deps
	metrics     *mw.MetricsCollector
	startTime   time.Time
}

func NewApp(deps Deps, logger *zap.Logger) *App {
	memoryHandler := handlers.NewMemoryHandler(deps.Memories, config.LinkThreshold(), config.MaxAutoLinks())
	episodeHandler := handlers.NewEpisodeHandler(deps.Episodes)
	sensoryHandler := handlers.NewSensoryHandler(deps.Sensory)
	bufferHandler := handlers.NewBufferHandler(deps.Promotion, deps.SensoryBuf, deps.ShortTerm)
	wsHandler := handlers.NewWorkingSetHandler(deps.WorkingSet, deps.Promotion)

	r := chi.NewRouter()
	app := &App{
		Router:      r,
		RateLimiter: mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()),
		deps:        deps,
		metrics:     mw.NewMetricsCollector(),
		startTime:   time.Now(),
	}

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiter.Middleware)

	r.Get("/health", app.healthHandler())
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		// Long-term memories
		r.Route("/memories", func(r chi.Router) {
			r.Post("/", memoryHandler.Create)
			r.Get("/", memoryHandler.ListRecent)
			r.Get("/stats", memoryHandler.Stats)
			r.Get("/search", memoryHandler.Search)
			r.Post("/search/scored", memoryHandler.SearchScored)
			r.Get("/recall", memoryHandler.Recall)
			r.Get("/important", memoryHandler.Important)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", memoryHandler.GetByID)
				r.Post("/access", memoryHandler.Access)
				r.Get("/linked", memoryHandler.Linked)
				r.Post("/links", memoryHandler.AddLink)
				r.Get("/chain", memoryHandler.Chain)
			})
		})

		// Episodes
		r.Route("/episodes", func(r chi.Router) {
			r.Post("/", episodeHandler.Create)
			r.Get("/", episodeHandler.List)
			r.Get("/search", episodeHandler.Search)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", episodeHandler.GetByID)
				r.Get("/memories", episodeHandler.Memories)
				r.Delete("/", episodeHandler.Delete)
			})
		})

		// Sensory memories
		r.Route("/sensory", func(r chi.Router) {
			r.Post("/visual", sensoryHandler.SaveVisual)
			r.Post("/audio", sensoryHandler.SaveAudio)
			r.Get("/camera", sensoryHandler.RecallByCamera)
			r.Get("/memories", sensoryHandler.WithSensoryData)
		})

		// Sensory and short-term buffers
		r.Route("/buffers", func(r chi.Router) {
			r.Route("/sensory", func(r chi.Router) {
				r.Post("/", bufferHandler.IngestSensory)
				r.Get("/", bufferHandler.ListSensory)
				r.Post("/cleanup", bufferHandler.CleanupSensory)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", bufferHandler.GetSensory)
					r.Delete("/", bufferHandler.RemoveSensory)
					r.Post("/promote", bufferHandler.PromoteSensory)
				})
			})
			r.Route("/short-term", func(r chi.Router) {
				r.Post("/", bufferHandler.HoldShortTerm)
				r.Get("/", bufferHandler.ListShortTerm)
				r.Get("/candidates", bufferHandler.Candidates)
				r.Post("/promote", bufferHandler.PromoteCandidates)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", bufferHandler.GetShortTerm)
					r.Delete("/", bufferHandler.RemoveShortTerm)
					r.Post("/promote", bufferHandler.PromoteShortTerm)
				})
			})
		})

		// Working set
		r.Route("/working-set", func(r chi.Router) {
			r.Get("/", wsHandler.Recent)
			r.Post("/refresh", wsHandler.Refresh)
			r.Delete("/", wsHandler.Clear)
		})
	})

	return app
}

func (app *App) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if app.deps.Store != nil {
			if err := app.deps.Store.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		requests := app.metrics.Snapshot()

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"requests":       requests,
			"buffers": map[string]int{
				"sensory":     app.deps.SensoryBuf.Size(),
				"short_term":  app.deps.ShortTerm.Size(),
				"working_set": app.deps.WorkingSet.Size(),
			},
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.Get(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
