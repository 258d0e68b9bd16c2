package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvandessel/chunkgraph/internal/analysis"
	"github.com/nvandessel/chunkgraph/internal/config"
	"github.com/nvandessel/chunkgraph/internal/logging"
	"github.com/nvandessel/chunkgraph/internal/report"
	"github.com/nvandessel/chunkgraph/internal/store"
	"github.com/nvandessel/chunkgraph/internal/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cmdEnv is everything a command needs once flags and config are resolved.
type cmdEnv struct {
	root    string
	cfg     config.Config
	jsonOut bool
	logger  *zap.Logger
	metrics *telemetry.Metrics
	store   store.GraphStore
	service *analysis.Service
}

// loadSettings resolves the config file and applies flag overrides.
func loadSettings(cmd *cobra.Command) (string, config.Config, error) {
	root, _ := cmd.Flags().GetString("root")
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.Path(store.LocalPath(root))
	}

	cfg, err := config.Load(path)
	if err != nil {
		return "", config.Config{}, err
	}
	if backend, _ := cmd.Flags().GetString("store"); backend != "" {
		cfg.Store.Backend = backend
		cfg.Store.Path = ""
		if err := cfg.Validate(); err != nil {
			return "", config.Config{}, err
		}
	}
	return root, cfg, nil
}

// openEnv loads settings, builds the logger and opens the configured store.
// Callers must Close the result.
func openEnv(cmd *cobra.Command) (*cmdEnv, error) {
	root, cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	jsonOut, _ := cmd.Flags().GetBool("json")

	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}

	path := cfg.Store.Path
	if path == "" && cfg.Store.Backend != store.BackendMemory {
		if _, err := store.EnsureDir(root); err != nil {
			return nil, err
		}
		path = store.DefaultPath(root, cfg.Store.Backend)
	}
	gs, err := store.Open(cfg.Store.Backend, path, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	m := telemetry.New()
	return &cmdEnv{
		root:    root,
		cfg:     cfg,
		jsonOut: jsonOut,
		logger:  logger,
		metrics: m,
		store:   gs,
		service: analysis.NewService(gs, cfg.Query, logger, m),
	}, nil
}

// Close flushes metrics, closes the store and syncs the logger.
func (e *cmdEnv) Close() error {
	var errs []error
	if e.cfg.Metrics.Textfile != "" {
		errs = append(errs, e.metrics.WriteTextfile(e.cfg.Metrics.Textfile))
	}
	errs = append(errs, e.store.Close())
	_ = e.logger.Sync()
	return errors.Join(errs...)
}

// commandContext applies the --timeout flag.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// emit writes v as JSON when --json is set, otherwise calls text.
func (e *cmdEnv) emit(cmd *cobra.Command, v any, text func(p *report.Printer) error) error {
	if e.jsonOut {
		return report.WriteJSON(cmd.OutOrStdout(), v)
	}
	return text(report.NewPrinter(cmd.OutOrStdout()))
}

// withEnv runs fn with an opened environment and a deadline-bound context.
func withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *cmdEnv) error) (err error) {
	env, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := env.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ctx, cancel := commandContext(cmd)
	defer cancel()
	return fn(ctx, env)
}
