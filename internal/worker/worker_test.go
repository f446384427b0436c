package worker

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitWait(t *testing.T) {
	g := NewGroup(nil)

	f := Submit(g, "answer", func() (int, error) { return 42, nil })

	got, err := f.Wait(context.Background())
	if err != nil || got != 42 {
		t.Fatalf("Wait() = %d, %v; want 42, nil", got, err)
	}

	if f.ID() == "" {
		t.Error("ID() is empty")
	}
}

func TestSubmitError(t *testing.T) {
	g := NewGroup(nil)
	want := errors.New("boom")

	_, err := Submit(g, "fail", func() (string, error) { return "", want }).Wait(context.Background())
	if !errors.Is(err, want) {
		t.Fatalf("Wait() error = %v, want %v", err, want)
	}
}

func TestSubmitPanicBecomesError(t *testing.T) {
	g := NewGroup(nil)

	_, err := Submit(g, "panics", func() (int, error) { panic("bad") }).Wait(context.Background())
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("Wait() error = %v, want panic error", err)
	}
}

func TestWaitContextAbandonsWithoutCancel(t *testing.T) {
	g := NewGroup(nil)
	release := make(chan struct{})

	f := Submit(g, "slow", func() (int, error) {
		<-release
		return 1, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := f.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}

	close(release)

	if got, err := f.Wait(context.Background()); err != nil || got != 1 {
		t.Fatalf("second Wait() = %d, %v", got, err)
	}
}

func TestCloseWaitsAndRejects(t *testing.T) {
	g := NewGroup(nil)

	var ran atomic.Bool

	g.Go("work", func() {
		time.Sleep(20 * time.Millisecond)
		ran.Store(true)
	})

	if err := g.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !ran.Load() {
		t.Error("Close() returned before the task finished")
	}

	_, err := Submit(g, "late", func() (int, error) { return 0, nil }).Wait(context.Background())
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Submit after Close error = %v, want ErrClosed", err)
	}

	if g.Go("late", func() {}) {
		t.Error("Go after Close = true")
	}
}

func TestEvery(t *testing.T) {
	g := NewGroup(nil)
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32

	g.Every(ctx, "tick", 5*time.Millisecond, func() { calls.Add(1) })

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	cancel()

	if err := g.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if calls.Load() < 2 {
		t.Errorf("calls = %d, want at least 2", calls.Load())
	}
}
