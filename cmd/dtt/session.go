package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/musher-dev/dtt/internal/aliases"
	"github.com/musher-dev/dtt/internal/config"
	"github.com/musher-dev/dtt/internal/engine"
	clierrors "github.com/musher-dev/dtt/internal/errors"
	"github.com/musher-dev/dtt/internal/gitstatus"
	"github.com/musher-dev/dtt/internal/history"
	"github.com/musher-dev/dtt/internal/paths"
	"github.com/musher-dev/dtt/internal/terminal"
)

const closeTimeout = 5 * time.Second

// session bundles an engine with the stores it was built from.
type session struct {
	cfg     *config.Config
	engine  *engine.Engine
	status  *gitstatus.Cache
	history *history.Store
	aliases *aliases.Store
	logger  *slog.Logger
}

type sessionOptions struct {
	Dir string
	// Status starts the repository status cache when enabled in config.
	Status bool
	// TTY is nil for non-interactive sessions.
	TTY *terminal.Owner

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// openSession wires config, aliases, history and the status cache into a
// new engine.
func openSession(logger *slog.Logger, opts sessionOptions) (*session, error) {
	cfg := config.Load()
	if err := cfg.Warning(); err != nil {
		logger.Warn("Config file ignored",
			slog.String("event.type", "config.read.failed"),
			slog.String("error", err.Error()),
		)
	}

	s := &session{cfg: cfg, logger: logger}

	s.aliases = loadAliases(logger)
	s.history = openHistory(cfg, logger)

	if opts.Status && cfg.StatusEnabled() {
		s.status = gitstatus.New(gitstatus.Options{
			Staleness: cfg.StatusStaleness(),
			Watch:     cfg.StatusWatch(),
			Logger:    logger,
		})
	}

	e, err := engine.New(engine.Options{
		Logger:    logger,
		ShellName: cfg.ShellName(),
		Dir:       opts.Dir,
		Aliases:   s.aliases.Map(),
		TTY:       opts.TTY,
		Stdin:     opts.Stdin,
		Stdout:    opts.Stdout,
		Stderr:    opts.Stderr,
		Status:    s.status,
		History:   s.history,
		KillGrace: cfg.KillGrace(),
	})
	if err != nil {
		if s.status != nil {
			_ = s.status.Close(context.Background())
		}

		if opts.Dir != "" {
			return nil, clierrors.StartDirectoryInvalid(opts.Dir, err)
		}

		return nil, fmt.Errorf("start engine: %w", err)
	}

	s.engine = e

	return s, nil
}

// loadAliases falls back to an empty in-memory table when the alias file
// cannot be read.
func loadAliases(logger *slog.Logger) *aliases.Store {
	path, err := paths.AliasesFile()
	if err == nil {
		store, loadErr := aliases.Load(path)
		if loadErr == nil {
			return store
		}

		err = loadErr
	}

	logger.Warn("Aliases unavailable",
		slog.String("event.type", "aliases.load.failed"),
		slog.String("error", err.Error()),
	)

	return aliases.New()
}

func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	limit := cfg.HistoryLimit()

	if !cfg.HistoryEnabled() {
		return history.New(limit)
	}

	path, err := paths.HistoryFile()
	if err == nil {
		store, openErr := history.Open(path, limit)
		if openErr == nil {
			return store
		}

		err = openErr
	}

	logger.Warn("History not persisted",
		slog.String("event.type", "history.load.failed"),
		slog.String("error", err.Error()),
	)

	return history.New(limit)
}

// refreshAliases re-reads the alias file so edits made by 'dtt alias' in
// another terminal apply to the next command.
func (s *session) refreshAliases() {
	if s.aliases.Path() == "" {
		return
	}

	store, err := aliases.Load(s.aliases.Path())
	if err != nil {
		s.logger.Debug("Alias reload failed", slog.String("error", err.Error()))
		return
	}

	s.aliases = store
	s.engine.SetAliases(store.Map())
}

// close terminates remaining jobs and stops background work.
func (s *session) close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	err := s.engine.Close(ctx)
	if errors.Is(err, engine.ErrClosed) {
		return nil
	}

	return err
}
