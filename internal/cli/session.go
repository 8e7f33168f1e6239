package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/ledger/internal/config"
	"github.com/roach88/ledger/internal/engine"
	"github.com/roach88/ledger/internal/store"
)

// session is everything one command invocation needs: the engine over the
// configured store, the output formatter and the cleanup to run afterwards.
type session struct {
	ctx    context.Context
	cfg    *config.Config
	engine *engine.Engine
	out    *OutputFormatter
	logger *slog.Logger

	registry    *prometheus.Registry
	metricsFile string
	closeStore  func() error
}

// newLogger returns the CLI's stderr logger. --verbose enables debug output.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.MaxAttempts > 0 {
		cfg.MaxAttempts = opts.MaxAttempts
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	open := opts.OpenStore
	if open == nil {
		open = openStore
	}
	st, closeStore, err := open(ctx, cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("failed to open %s store", cfg.Backend), err)
	}
	logger.Debug("store opened", "backend", cfg.Backend, "path", cfg.Path, "max_attempts", cfg.MaxAttempts)

	registry := prometheus.NewRegistry()
	engOpts := []engine.Option{
		engine.WithPath(cfg.Path),
		engine.WithMaxAttempts(cfg.MaxAttempts),
		engine.WithLogger(logger),
		engine.WithMetrics(engine.NewMetrics(registry)),
	}
	if opts.Clock != nil {
		engOpts = append(engOpts, engine.WithClock(opts.Clock))
	}

	return &session{
		ctx:         ctx,
		cfg:         cfg,
		engine:      engine.New(st, engOpts...),
		out:         out,
		logger:      logger,
		registry:    registry,
		metricsFile: opts.MetricsFile,
		closeStore:  closeStore,
	}, nil
}

// Close writes the metrics file, if requested, and releases the store.
func (s *session) Close() error {
	var errs []error
	if s.metricsFile != "" {
		if err := prometheus.WriteToTextfile(s.metricsFile, s.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if s.closeStore != nil {
		if err := s.closeStore(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// withSession runs fn inside a session and reports cleanup failures.
func withSession(cmd *cobra.Command, opts *RootOptions, fn func(s *session) error) error {
	s, err := openSession(cmd, opts)
	if err != nil {
		return err
	}
	err = fn(s)
	if closeErr := s.Close(); closeErr != nil {
		s.logger.Error("cleanup failed", "error", closeErr)
	}
	return err
}

// fetch loads the current ledger, reporting failures through the formatter.
func (s *session) fetch() (*engine.State, error) {
	st, err := s.engine.Fetch(s.ctx)
	if err != nil {
		return nil, s.out.Fail("failed to load ledger", err)
	}
	return st, nil
}

// openStore opens the backend named in cfg.
func openStore(ctx context.Context, cfg *config.Config) (store.DocumentStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), noop, nil
	case config.BackendSQLite:
		s, err := store.Open(cfg.SQLite.Database)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendGCS:
		s, err := store.NewGCSStore(ctx, cfg.GCS.Bucket, cfg.GCS.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendGitHub:
		s := store.NewGitHubStore(cfg.GitHubToken(), cfg.GitHub.Owner, cfg.GitHub.Repo, cfg.GitHub.Branch)
		return s, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
