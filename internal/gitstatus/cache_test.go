package gitstatus

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func waitIdle(t *testing.T, c *Cache) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for c.Refreshing() {
		if time.Now().After(deadline) {
			t.Fatal("refresh did not finish")
		}

		time.Sleep(time.Millisecond)
	}
}

func TestLookupRefreshesOncePerWindow(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}

	var calls atomic.Int32

	c := New(Options{
		Now: clock.Now,
		Query: func(context.Context, string, func() bool) (bool, error) {
			calls.Add(1)
			return true, nil
		},
	})
	defer c.Close(context.Background())

	if got := c.Lookup("/repo"); got.Valid() {
		t.Fatalf("first Lookup() = %+v, want empty entry", got)
	}

	waitIdle(t, c)

	for range 5 {
		got := c.Lookup("/repo")
		if !got.Clean || got.Symbol() != CleanSymbol {
			t.Fatalf("Lookup() = %+v, want clean", got)
		}
	}

	waitIdle(t, c)

	if n := calls.Load(); n != 1 {
		t.Fatalf("queries within window = %d, want 1", n)
	}

	clock.Advance(DefaultStaleness + time.Second)
	c.Lookup("/repo")
	waitIdle(t, c)

	if n := calls.Load(); n != 2 {
		t.Errorf("queries after window = %d, want 2", n)
	}
}

func TestLookupNeverRunsConcurrentRefreshes(t *testing.T) {
	release := make(chan struct{})

	var active, peak, calls atomic.Int32

	c := New(Options{
		Staleness: time.Nanosecond,
		Query: func(context.Context, string, func() bool) (bool, error) {
			calls.Add(1)

			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}

			<-release
			active.Add(-1)

			return false, nil
		},
	})
	defer c.Close(context.Background())

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			c.Lookup("/repo")
		}()
	}

	wg.Wait()
	close(release)
	waitIdle(t, c)

	if peak.Load() != 1 || calls.Load() != 1 {
		t.Errorf("peak concurrent = %d, calls = %d; want 1, 1", peak.Load(), calls.Load())
	}

	if got := c.Lookup("/repo"); got.Clean || got.Symbol() != DirtySymbol || got.Symbols != DirtySymbol {
		t.Errorf("Lookup() = %+v, want dirty", got)
	}
}

func TestLookupDirectoryChangeTriggersRefresh(t *testing.T) {
	var dirs []string

	var mu sync.Mutex

	c := New(Options{
		Query: func(_ context.Context, dir string, _ func() bool) (bool, error) {
			mu.Lock()
			dirs = append(dirs, dir)
			mu.Unlock()

			return true, nil
		},
	})
	defer c.Close(context.Background())

	c.Lookup("/a")
	waitIdle(t, c)

	stale := c.Lookup("/b")
	if stale.Dir != "/a" {
		t.Errorf("Lookup(/b) during refresh = %+v, want the /a entry as-is", stale)
	}

	waitIdle(t, c)

	if got := c.Lookup("/b"); got.Dir != "/b" {
		t.Errorf("entry dir = %q, want /b", got.Dir)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(dirs) != 2 || dirs[0] != "/a" || dirs[1] != "/b" {
		t.Errorf("queried dirs = %v", dirs)
	}
}

func TestRefreshFailureKeepsEntry(t *testing.T) {
	fail := atomic.Bool{}

	c := New(Options{
		Staleness: time.Nanosecond,
		Query: func(context.Context, string, func() bool) (bool, error) {
			if fail.Load() {
				return false, errors.New("not a repository")
			}

			return true, nil
		},
	})
	defer c.Close(context.Background())

	c.Lookup("/repo")
	waitIdle(t, c)

	fail.Store(true)
	c.Lookup("/repo")
	waitIdle(t, c)

	if got := c.Lookup("/repo"); !got.Clean || !got.Valid() {
		t.Errorf("entry after failed refresh = %+v, want previous clean entry", got)
	}
}

func TestCloseCancelsRefresh(t *testing.T) {
	started := make(chan struct{})

	c := New(Options{
		Query: func(ctx context.Context, _ string, _ func() bool) (bool, error) {
			close(started)
			<-ctx.Done()

			return false, ctx.Err()
		},
	})

	c.Lookup("/repo")
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := c.Lookup("/repo"); got.Valid() {
		t.Errorf("entry written after shutdown: %+v", got)
	}

	if c.Refreshing() {
		t.Error("refresh started after Close")
	}
}

func TestInvalidate(t *testing.T) {
	var calls atomic.Int32

	c := New(Options{
		Query: func(context.Context, string, func() bool) (bool, error) {
			calls.Add(1)
			return true, nil
		},
	})
	defer c.Close(context.Background())

	c.Lookup("/repo")
	waitIdle(t, c)

	c.Invalidate()
	c.Lookup("/repo")
	waitIdle(t, c)

	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2 after Invalidate", calls.Load())
	}
}

func gitRepo(t *testing.T) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()

	cmd := exec.Command("git", "init", "-q", dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Skipf("git init failed: %v: %s", err, out)
	}

	return dir
}

func TestQueryGit(t *testing.T) {
	dir := gitRepo(t)

	clean, err := QueryGit(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("QueryGit() error = %v", err)
	}

	if !clean {
		t.Error("fresh repository reported dirty")
	}

	if err := os.WriteFile(filepath.Join(dir, "new.txt"), []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	clean, err = QueryGit(context.Background(), dir, nil)
	if err != nil {
		t.Fatalf("QueryGit() error = %v", err)
	}

	if clean {
		t.Error("repository with untracked file reported clean")
	}
}

func TestQueryGitOutsideRepository(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	t.Setenv("GIT_CEILING_DIRECTORIES", os.TempDir())

	dir := t.TempDir()

	if _, err := QueryGit(context.Background(), dir, nil); err == nil {
		t.Error("QueryGit() outside a repository returned no error")
	}
}

func TestWatchInvalidatesOnGitChange(t *testing.T) {
	dir := gitRepo(t)

	var calls atomic.Int32

	c := New(Options{
		Watch: true,
		Query: func(context.Context, string, func() bool) (bool, error) {
			calls.Add(1)
			return true, nil
		},
	})
	defer c.Close(context.Background())

	c.Lookup(dir)
	waitIdle(t, c)

	if err := os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/feature\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		c.Lookup(dir)
		waitIdle(t, c)
		time.Sleep(10 * time.Millisecond)
	}

	if calls.Load() < 2 {
		t.Error("change under .git did not trigger a refresh")
	}
}
