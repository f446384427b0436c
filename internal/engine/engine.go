// Package engine executes input lines: it splits them into units, resolves
// aliases and built-in verbs, launches processes and drives job control.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/musher-dev/dtt/internal/cmdline"
	"github.com/musher-dev/dtt/internal/gitstatus"
	"github.com/musher-dev/dtt/internal/history"
	"github.com/musher-dev/dtt/internal/jobs"
	"github.com/musher-dev/dtt/internal/launcher"
	"github.com/musher-dev/dtt/internal/observability"
	"github.com/musher-dev/dtt/internal/resolver"
	"github.com/musher-dev/dtt/internal/terminal"
	"github.com/musher-dev/dtt/internal/worker"
)

// ErrClosed is returned for lines submitted after Close.
var ErrClosed = errors.New("engine closed")

// DefaultShellName prefixes launch failure messages.
const DefaultShellName = "dtt"

// Options configures an Engine. Every field is optional.
type Options struct {
	Logger *slog.Logger
	// ShellName prefixes "command not found" style messages.
	ShellName string
	// Dir is the starting directory. The process working directory is used
	// when empty.
	Dir     string
	Aliases map[string]string
	// TTY is the controlling terminal. Foreground jobs are handed the
	// terminal only when it is interactive.
	TTY *terminal.Owner

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Status is warmed after every dispatch and closed with the engine.
	Status  *gitstatus.Cache
	History *history.Store
	// KillGrace is the delay between SIGTERM and SIGKILL.
	KillGrace time.Duration
}

// Engine is safe for concurrent use. Lines are dispatched one at a time.
type Engine struct {
	logger    *slog.Logger
	tracer    trace.Tracer
	shellName string

	dir      *resolver.Directory
	launcher *launcher.Launcher
	jobs     *jobs.Manager
	group    *worker.Group
	status   *gitstatus.Cache
	history  *history.Store

	stdin, stdout, stderr *os.File

	// mu serializes dispatch.
	mu sync.Mutex

	// state guards the fields below; it is never held across a wait.
	state      sync.Mutex
	aliases    map[string]string
	env        overrides
	lastInput  string
	lastOutput string

	closed atomic.Bool
}

// New creates an engine.
func New(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var dir *resolver.Directory

	if opts.Dir != "" {
		info, err := os.Stat(opts.Dir)
		if err != nil {
			return nil, fmt.Errorf("start directory: %w", err)
		}

		if !info.IsDir() {
			return nil, fmt.Errorf("start directory: %s is not a directory", opts.Dir)
		}

		dir = resolver.NewDirectoryAt(opts.Dir)
	} else {
		var err error

		dir, err = resolver.NewDirectory()
		if err != nil {
			return nil, err
		}
	}

	shellName := opts.ShellName
	if shellName == "" {
		shellName = DefaultShellName
	}

	return &Engine{
		logger:    logger.With(slog.String("component", "engine")),
		tracer:    observability.Tracer("dtt.engine"),
		shellName: shellName,
		dir:       dir,
		launcher:  launcher.New(opts.TTY, logger),
		jobs:      jobs.NewManager(jobs.NewTable(), opts.TTY, logger, opts.KillGrace),
		group:     worker.NewGroup(logger),
		status:    opts.Status,
		history:   opts.History,
		stdin:     opts.Stdin,
		stdout:    opts.Stdout,
		stderr:    opts.Stderr,
		aliases:   maps.Clone(opts.Aliases),
		env:       overrides{},
	}, nil
}

// Execute dispatches line on its own task and returns a handle to the
// result. Cancelling ctx does not interrupt a running foreground job; use
// kill for that.
func (e *Engine) Execute(ctx context.Context, line string) *worker.Future[Result] {
	if e.closed.Load() {
		return worker.Failed[Result](ErrClosed)
	}

	ctx = context.WithoutCancel(ctx)

	return worker.Submit(e.group, "execute", func() (Result, error) {
		return e.dispatch(ctx, line)
	})
}

// Run executes line and waits for the result.
func (e *Engine) Run(ctx context.Context, line string) (Result, error) {
	return e.Execute(ctx, line).Wait(ctx)
}

func (e *Engine) dispatch(ctx context.Context, line string) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx, span := e.tracer.Start(ctx, "engine.execute")
	defer span.End()

	e.remember(line)
	e.reap()

	units, err := e.runLine(ctx, line, true)

	res := Result{Line: line, Units: units, Output: joinOutput(units)}

	if res.Output != "" {
		e.state.Lock()
		e.lastOutput = res.Output
		e.state.Unlock()
	}

	e.warmStatus()

	span.SetAttributes(
		attribute.Int("units", len(units)),
		attribute.Bool("ok", res.OK()),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		e.logger.Error("Command dispatch failed",
			slog.String("event.type", "command.failed"),
			slog.String("error", err.Error()),
		)

		return res, err
	}

	return res, nil
}

// warmStatus keys the cache by repository root, the same key the prompt
// uses. Outside a repository nothing is queried.
func (e *Engine) warmStatus() {
	if e.status == nil {
		return
	}

	if root, ok := gitstatus.FindRoot(e.dir.Path()); ok {
		e.status.Lookup(root)
	}
}

func (e *Engine) remember(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	e.state.Lock()
	e.lastInput = trimmed
	e.state.Unlock()

	if e.history == nil {
		return
	}

	if _, err := e.history.Add(trimmed); err != nil {
		e.logger.Warn("History write failed",
			slog.String("event.type", "history.write.failed"),
			slog.String("error", err.Error()),
		)
	}
}

// runLine runs every ';' chain of line. A failed unit skips the rest of its
// && chain only. A fatal error stops the line.
func (e *Engine) runLine(ctx context.Context, line string, useAliases bool) ([]UnitResult, error) {
	var out []UnitResult

	for _, chain := range cmdline.Split(line) {
		failed := false

		for _, unit := range chain {
			if failed {
				out = append(out, UnitResult{Command: unit.Text, Skipped: true})
				continue
			}

			results, err := e.runUnit(ctx, unit, useAliases)
			out = append(out, results...)

			if err != nil {
				return out, err
			}

			for _, r := range results {
				if !r.OK && !r.Skipped {
					failed = true
				}
			}
		}
	}

	return out, nil
}

func (e *Engine) runUnit(ctx context.Context, unit cmdline.Unit, useAliases bool) ([]UnitResult, error) {
	if unit.Empty() {
		return nil, nil
	}

	if useAliases {
		if rewritten, ok := resolver.Rewrite(unit.Text, e.aliasMap()); ok {
			chains := cmdline.Split(rewritten)

			if len(chains) != 1 || len(chains[0]) != 1 {
				if unit.Background {
					rewritten += " &"
				}

				return e.runLine(ctx, rewritten, false)
			}

			unit = cmdline.Unit{
				Text:       chains[0][0].Text,
				Background: unit.Background || chains[0][0].Background,
			}
		}
	}

	expanded, err := resolver.Expand(unit.Text, e.lookupEnv)
	if err != nil {
		r := fail(1, "%s: %v", e.shellName, err)
		r.Command = unit.Text

		return []UnitResult{r}, nil
	}

	argv := cmdline.Tokenize(expanded)
	if len(argv) == 0 {
		return nil, nil
	}

	verb := ParseVerb(argv[0])

	ctx, span := e.tracer.Start(ctx, "engine.unit", trace.WithAttributes(
		attribute.String("verb", verb.String()),
		attribute.Bool("background", unit.Background),
	))
	defer span.End()

	var r UnitResult

	switch verb {
	case VerbCD:
		r = e.changeDir(argv[1:])
	case VerbJobs:
		r = e.listJobs()
	case VerbFG:
		r = e.foreground(argv[1:])
	case VerbBG:
		r = e.background(argv[1:])
	case VerbKill:
		r, err = e.kill(ctx, argv, unit.Background)
	case VerbExport:
		r = e.export(argv[1:])
	case VerbUnset:
		r = e.unset(argv[1:])
	case VerbExternal:
		r, err = e.launch(ctx, argv, unit.Background)
	}

	r.Command = unit.Text
	r.Verb = verb

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(attribute.Int("exit_code", r.ExitCode))

	return []UnitResult{r}, err
}

// reap sweeps finished background jobs. The caller holds mu.
func (e *Engine) reap() {
	for _, job := range e.jobs.Reap() {
		e.logger.Info("Background job finished",
			slog.String("event.type", "job.finished"),
			slog.Int("job", job.Number),
			slog.String("command", job.Command),
			slog.String("status", job.Status.String()),
		)
	}
}

// Reap sweeps finished background jobs unless a line is being dispatched,
// in which case the dispatch sweeps instead.
func (e *Engine) Reap() {
	if !e.mu.TryLock() {
		return
	}
	defer e.mu.Unlock()

	e.reap()
}

// SetAliases replaces the alias table used from the next dispatch on.
func (e *Engine) SetAliases(aliases map[string]string) {
	e.state.Lock()
	defer e.state.Unlock()

	e.aliases = maps.Clone(aliases)
}

func (e *Engine) aliasMap() map[string]string {
	e.state.Lock()
	defer e.state.Unlock()

	return e.aliases
}

// Dir returns the current directory.
func (e *Engine) Dir() string {
	return e.dir.Path()
}

// Jobs returns a snapshot of the job table.
func (e *Engine) Jobs() []jobs.Job {
	return e.jobs.Table().Snapshot()
}

// LastInput returns the most recent non-empty line.
func (e *Engine) LastInput() string {
	e.state.Lock()
	defer e.state.Unlock()

	return e.lastInput
}

// LastOutput returns the most recent non-empty output.
func (e *Engine) LastOutput() string {
	e.state.Lock()
	defer e.state.Unlock()

	return e.lastOutput
}

// PreviousCommand steps back through history.
func (e *Engine) PreviousCommand() string {
	if e.history == nil {
		return ""
	}

	return e.history.Previous()
}

// NextCommand steps forward through history.
func (e *Engine) NextCommand() string {
	if e.history == nil {
		return ""
	}

	return e.history.Next()
}

// RecentCommands returns up to n commands, newest first.
func (e *Engine) RecentCommands(n int) []string {
	if e.history == nil {
		return nil
	}

	return e.history.Recent(n)
}

// ClearHistory forgets every remembered command.
func (e *Engine) ClearHistory() error {
	if e.history == nil {
		return nil
	}

	return e.history.Clear()
}

// Close terminates every job, stops the status cache and waits for running
// tasks or ctx.
func (e *Engine) Close(ctx context.Context) error {
	if !e.closed.CompareAndSwap(false, true) {
		return nil
	}

	e.jobs.TerminateAll(ctx)

	var errs []error

	if e.status != nil {
		if err := e.status.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if err := e.group.Close(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
