package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/mnemo/internal/api"
	"github.com/Harshitk-cp/mnemo/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	shutdownTimeout      = 10 * time.Second
	rateLimitSweepPeriod = 10 * time.Minute
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := opts.logger
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := newEngine(ctx, logger)
			if err != nil {
				return err
			}
			defer eng.Close()

			if addr == "" {
				addr = config.ServerAddr()
			}
			app := api.NewApp(eng.deps, logger)
			go app.RateLimiter.Run(ctx, rateLimitSweepPeriod)

			// Warm the working set so recall has context from the first request.
			if added, err := eng.deps.Promotion.RefreshWorkingSet(ctx); err == nil {
				logger.Info("working set warmed", zap.Int("added", added))
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           app.Router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Info("server starting", zap.String("addr", addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				if err != nil {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$SERVER_PORT)")
	return cmd
}
