// Package cli implements the mnemo command line: the HTTP server plus a few
// one-shot commands against the same memory store.
package cli

import (
	"fmt"
	"os"

	"github.com/Harshitk-cp/mnemo/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type rootOptions struct {
	envFile  string
	logLevel string
	logger   *zap.Logger
}

// NewRootCmd builds the mnemo command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "mnemo",
		Short:         "Long-term memory engine with episodic, sensory and buffered recall",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.envFile != "" {
				if err := os.Setenv("MNEMO_ENV", opts.envFile); err != nil {
					return err
				}
			}
			if err := config.Load(); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level := opts.logLevel
			if level == "" {
				level = config.LogLevel()
			}
			logger, err := newLogger(level)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env", "", "env file to load (default $MNEMO_ENV or .env)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default $LOG_LEVEL)")

	cmd.AddCommand(
		newServeCmd(opts),
		newRememberCmd(opts),
		newRecallCmd(opts),
		newStatsCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// Execute runs the root command and reports any error on stderr.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mnemo:", err)
		return 1
	}
	return 0
}

// newLogger returns a development logger for debug and a JSON production
// logger at the requested level otherwise.
func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
