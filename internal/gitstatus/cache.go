// Package gitstatus keeps a single, time-bounded cache entry describing
// whether a repository's working tree is clean. Lookups never block: a
// refresh runs on a worker task and stale data is served meanwhile.
package gitstatus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/musher-dev/dtt/internal/worker"
)

// DefaultStaleness is the maximum age of an entry before a refresh.
const DefaultStaleness = 30 * time.Second

// Symbols shown for a clean or dirty working tree.
const (
	CleanSymbol = "✓"
	DirtySymbol = "*"
)

// Entry is the cached status of one repository.
type Entry struct {
	Dir       string
	Symbols   string
	Clean     bool
	CheckedAt time.Time
}

// Valid reports whether the entry holds a completed check.
func (e Entry) Valid() bool {
	return !e.CheckedAt.IsZero()
}

// Symbol returns the indicator for the entry.
func (e Entry) Symbol() string {
	if !e.Valid() {
		return ""
	}

	if e.Clean {
		return CleanSymbol
	}

	return DirtySymbol
}

// QueryFunc reports whether the working tree at dir is clean.
type QueryFunc func(ctx context.Context, dir string, shuttingDown func() bool) (bool, error)

// Options configures a Cache.
type Options struct {
	Staleness time.Duration
	// Watch invalidates the entry when files under .git change.
	Watch  bool
	Logger *slog.Logger
	// Group runs refresh tasks. A private group is used when nil.
	Group *worker.Group
	Query QueryFunc
	Now   func() time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	staleness time.Duration
	watchGit  bool
	logger    *slog.Logger
	group     *worker.Group
	ownGroup  bool
	query     QueryFunc
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	entry Entry
	stale bool

	inFlight     atomic.Bool
	shuttingDown atomic.Bool
	refreshes    atomic.Int64

	watchMu    sync.Mutex
	watcher    *fsnotify.Watcher
	watchedDir string
}

// New creates a cache.
func New(opts Options) *Cache {
	if opts.Staleness <= 0 {
		opts.Staleness = DefaultStaleness
	}

	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	if opts.Query == nil {
		opts.Query = QueryGit
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	ownGroup := opts.Group == nil
	if ownGroup {
		opts.Group = worker.NewGroup(opts.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Cache{
		staleness: opts.Staleness,
		watchGit:  opts.Watch,
		logger:    opts.Logger.With(slog.String("component", "gitstatus")),
		group:     opts.Group,
		ownGroup:  ownGroup,
		query:     opts.Query,
		now:       opts.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Lookup returns the cached entry as-is and starts a refresh for dir when
// the entry is older than the staleness window, belongs to another
// directory or was invalidated, and no refresh is already running.
func (c *Cache) Lookup(dir string) Entry {
	c.mu.Lock()
	entry := c.entry
	need := !entry.Valid() || entry.Dir != dir || c.stale || c.now().Sub(entry.CheckedAt) > c.staleness
	c.mu.Unlock()

	if need && !c.shuttingDown.Load() && c.inFlight.CompareAndSwap(false, true) {
		started := c.group.Go("gitstatus.refresh", func() {
			defer c.inFlight.Store(false)
			c.refresh(dir)
		})
		if !started {
			c.inFlight.Store(false)
		}
	}

	return entry
}

// Refreshing reports whether a refresh is in flight.
func (c *Cache) Refreshing() bool {
	return c.inFlight.Load()
}

// Refreshes returns how many refreshes have started.
func (c *Cache) Refreshes() int64 {
	return c.refreshes.Load()
}

func (c *Cache) refresh(dir string) {
	c.refreshes.Add(1)

	if c.shuttingDown.Load() {
		return
	}

	clean, err := c.query(c.ctx, dir, c.shuttingDown.Load)
	if err != nil {
		if !c.shuttingDown.Load() {
			c.logger.Warn("Status refresh failed",
				slog.String("event.type", "gitstatus.refresh.failed"),
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
		}

		return
	}

	if c.shuttingDown.Load() {
		return
	}

	symbols := ""
	if !clean {
		symbols = DirtySymbol
	}

	c.mu.Lock()
	c.entry = Entry{Dir: dir, Symbols: symbols, Clean: clean, CheckedAt: c.now()}
	c.stale = false
	c.mu.Unlock()

	if c.watchGit {
		c.watch(dir)
	}
}

// Invalidate forces the next Lookup to refresh.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

func (c *Cache) watch(dir string) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()

	if c.watchedDir == dir || c.shuttingDown.Load() {
		return
	}

	if c.watcher != nil {
		_ = c.watcher.Close()
		c.watcher = nil
		c.watchedDir = ""
	}

	gitDir := filepath.Join(dir, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Debug("Watcher unavailable", slog.String("error", err.Error()))
		return
	}

	if err := w.Add(gitDir); err != nil {
		_ = w.Close()
		c.logger.Debug("Watch failed", slog.String("dir", gitDir), slog.String("error", err.Error()))

		return
	}

	c.watcher = w
	c.watchedDir = dir

	c.group.Go("gitstatus.watch", func() { c.watchLoop(w) })
}

func (c *Cache) watchLoop(w *fsnotify.Watcher) {
	for {
		select {
		case <-c.ctx.Done():
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}

			if strings.HasSuffix(ev.Name, ".lock") {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				c.Invalidate()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}

			c.logger.Debug("Watcher error", slog.String("error", err.Error()))
		}
	}
}

// Close raises the shutdown flag, cancels an in-flight query and stops the
// watcher. It waits for refresh tasks only when the cache owns its group.
func (c *Cache) Close(ctx context.Context) error {
	c.shuttingDown.Store(true)
	c.cancel()

	c.watchMu.Lock()
	if c.watcher != nil {
		_ = c.watcher.Close()
		c.watcher = nil
	}
	c.watchMu.Unlock()

	if c.ownGroup {
		return c.group.Close(ctx)
	}

	return nil
}

// QueryGit runs `git status --porcelain` in dir and reads at most one line.
// Credential prompts and optional index writes are disabled.
func QueryGit(ctx context.Context, dir string, shuttingDown func() bool) (bool, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0", "GIT_OPTIONAL_LOCKS=0")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return false, fmt.Errorf("git status pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return false, fmt.Errorf("start git status: %w", err)
	}

	reader := bufio.NewReader(stdout)

	var line []byte

	for {
		if shuttingDown != nil && shuttingDown() {
			cancel()
			_ = cmd.Wait()

			return false, context.Canceled
		}

		chunk, isPrefix, readErr := reader.ReadLine()
		line = append(line, chunk...)

		if readErr != nil || !isPrefix {
			break
		}
	}

	dirty := len(line) > 0

	// Only the first line matters; stop git rather than drain it.
	if dirty {
		cancel()
		_, _ = io.Copy(io.Discard, stdout)
		_ = cmd.Wait()

		return false, nil
	}

	if err := cmd.Wait(); err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}

	return true, nil
}
