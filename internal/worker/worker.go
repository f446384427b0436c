// Package worker runs engine tasks on their own goroutines. Submit returns a
// Future the caller may join or abandon; a Group tracks every task so
// shutdown can wait for them.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrClosed is returned by futures submitted after the group was closed.
var ErrClosed = errors.New("worker group closed")

// Future is the handle to a task's eventual result.
type Future[T any] struct {
	id   string
	done chan struct{}
	val  T
	err  error
}

// ID identifies the task in logs.
func (f *Future[T]) ID() string {
	return f.id
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task finishes or ctx is done. Abandoning the wait
// does not cancel the task.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) resolve(val T, err error) {
	f.val = val
	f.err = err
	close(f.done)
}

// Failed returns an already-resolved future carrying err.
func Failed[T any](err error) *Future[T] {
	f := &Future[T]{id: uuid.NewString(), done: make(chan struct{})}

	var zero T
	f.resolve(zero, err)

	return f
}

// Group tracks running tasks.
type Group struct {
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewGroup creates an empty group.
func NewGroup(logger *slog.Logger) *Group {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Group{logger: logger.With(slog.String("component", "worker"))}
}

func (g *Group) add() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return false
	}

	g.wg.Add(1)

	return true
}

// Submit runs fn on a new goroutine. A panic in fn resolves the future with
// an error instead of crashing the process.
func Submit[T any](g *Group, name string, fn func() (T, error)) *Future[T] {
	if !g.add() {
		return Failed[T](ErrClosed)
	}

	f := &Future[T]{id: uuid.NewString(), done: make(chan struct{})}

	go func() {
		defer g.wg.Done()

		var (
			val T
			err error
		)

		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("Task panicked",
					slog.String("event.type", "task.panic"),
					slog.String("task", name),
					slog.String("task.id", f.id),
					slog.Any("panic", r),
				)

				err = fmt.Errorf("task %s panicked: %v", name, r)
			}

			f.resolve(val, err)
		}()

		val, err = fn()
	}()

	return f
}

// Go runs fn as a detached, tracked task.
func (g *Group) Go(name string, fn func()) bool {
	f := Submit(g, name, func() (struct{}, error) {
		fn()
		return struct{}{}, nil
	})

	select {
	case <-f.Done():
		return !errors.Is(f.err, ErrClosed)
	default:
		return true
	}
}

// Every calls fn at each interval until ctx is canceled.
func (g *Group) Every(ctx context.Context, name string, interval time.Duration, fn func()) {
	g.Go(name, func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	})
}

// Close stops accepting tasks and waits for running ones or ctx.
func (g *Group) Close(ctx context.Context) error {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	done := make(chan struct{})

	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("wait for tasks: %w", ctx.Err())
	}
}
