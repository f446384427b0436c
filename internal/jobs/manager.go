package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/musher-dev/dtt/internal/terminal"
)

// DefaultKillGrace is how long kill waits after SIGTERM before SIGKILL.
const DefaultKillGrace = 100 * time.Millisecond

var errStillAlive = errors.New("process still alive")

// Manager implements job-control verbs over a Table.
type Manager struct {
	table  *Table
	tty    *terminal.Owner
	logger *slog.Logger
	grace  time.Duration
}

// NewManager creates a manager. tty may be nil when no terminal is attached.
func NewManager(table *Table, tty *terminal.Owner, logger *slog.Logger, grace time.Duration) *Manager {
	if table == nil {
		table = NewTable()
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if grace <= 0 {
		grace = DefaultKillGrace
	}

	return &Manager{
		table:  table,
		tty:    tty,
		logger: logger.With(slog.String("component", "jobs")),
		grace:  grace,
	}
}

// Table returns the underlying job table.
func (m *Manager) Table() *Table {
	return m.table
}

// Track registers a started process.
func (m *Manager) Track(pid, pgid int, command string, background bool) Job {
	state := RunningForeground
	if background {
		state = RunningBackground
	}

	job := m.table.Add(pid, pgid, command, state)

	m.logger.Info("Job launched",
		slog.String("event.type", "job.launched"),
		slog.Int("job", job.Number),
		slog.Int("pid", pid),
		slog.Bool("background", background),
	)

	return job
}

// Wait blocks until the foreground job n exits or stops, then reclaims the
// terminal. An exited job is removed; a stopped one stays as Stopped.
// The table lock is not held while waiting.
func (m *Manager) Wait(n int) (Job, error) {
	job, err := m.table.Get(n)
	if err != nil {
		return Job{}, err
	}

	status, waitErr := waitForeground(job.Pid)

	if err := m.tty.Reclaim(); err != nil {
		m.logger.Error("Terminal reclaim failed",
			slog.String("event.type", "terminal.reclaim.failed"),
			slog.String("error", err.Error()),
		)
	}

	if waitErr != nil {
		return job, fmt.Errorf("wait for pid %d: %w", job.Pid, waitErr)
	}

	job.Status = status

	if status.Stopped {
		updated, err := m.table.Update(job.Number, func(j *Job) {
			j.State = Stopped
			j.Status = status
		})
		if err == nil {
			job = updated
		}

		m.logger.Info("Job stopped",
			slog.String("event.type", "job.stopped"),
			slog.Int("job", job.Number),
			slog.Int("pid", job.Pid),
		)

		return job, nil
	}

	m.table.Remove(job.Number)

	m.logger.Debug("Job finished",
		slog.String("event.type", "job.reaped"),
		slog.Int("job", job.Number),
		slog.Int("pid", job.Pid),
		slog.String("status", status.String()),
	)

	return job, nil
}

// Foreground continues job n if it is stopped, gives it the terminal and
// waits for it like a freshly launched foreground job.
func (m *Manager) Foreground(n int) (Job, error) {
	job, err := m.table.Get(n)
	if err != nil {
		return Job{}, err
	}

	wasStopped := job.State == Stopped

	if wasStopped {
		if err := send(job, sigCont); err != nil {
			m.logger.Warn("Continue signal failed", slog.Int("pid", job.Pid), slog.String("error", err.Error()))
		}
	}

	if _, err := m.table.SetState(job.Number, RunningForeground); err != nil {
		return Job{}, err
	}

	// Background jobs run in their own session and cannot take this
	// terminal; they are still waited on.
	if err := m.tty.Handoff(job.Pgid); err != nil {
		m.logger.Warn("Terminal handoff failed",
			slog.String("event.type", "terminal.handoff.failed"),
			slog.Int("job", job.Number),
			slog.String("error", err.Error()),
		)
	}

	return m.Wait(job.Number)
}

// Background continues stopped job n without giving it the terminal.
func (m *Manager) Background(n int) (Job, error) {
	job, err := m.table.Get(n)
	if err != nil {
		return Job{}, err
	}

	if job.State != Stopped {
		return job, nil
	}

	if err := send(job, sigCont); err != nil {
		return job, fmt.Errorf("continue job %d: %w", job.Number, err)
	}

	return m.table.SetState(job.Number, RunningBackground)
}

// Kill terminates job n: SIGTERM to its group, SIGCONT when stopped so the
// signal is delivered, then SIGKILL if it outlives the grace delay. The job
// is removed from the table in every case.
func (m *Manager) Kill(ctx context.Context, n int) (Job, error) {
	job, err := m.table.Get(n)
	if err != nil {
		return Job{}, err
	}

	m.terminate(ctx, job)
	m.table.Remove(job.Number)

	return job, nil
}

// TerminateAll kills every tracked job and empties the table.
func (m *Manager) TerminateAll(ctx context.Context) {
	for _, job := range m.table.Snapshot() {
		m.terminate(ctx, job)
		m.table.Remove(job.Number)
	}
}

func (m *Manager) terminate(ctx context.Context, job Job) {
	if err := send(job, sigTerm); err != nil {
		m.logger.Debug("Terminate signal failed", slog.Int("pid", job.Pid), slog.String("error", err.Error()))
	}

	if job.State == Stopped {
		_ = send(job, sigCont)
	}

	if m.awaitExit(ctx, job.Pid) {
		m.logger.Info("Job killed",
			slog.String("event.type", "job.killed"),
			slog.Int("job", job.Number),
			slog.Int("pid", job.Pid),
		)

		return
	}

	if err := send(job, sigKill); err != nil {
		m.logger.Warn("Kill signal failed", slog.Int("pid", job.Pid), slog.String("error", err.Error()))
		return
	}

	m.logger.Info("Job killed after grace delay",
		slog.String("event.type", "job.killed"),
		slog.Int("job", job.Number),
		slog.Int("pid", job.Pid),
		slog.Bool("escalated", true),
	)

	go waitExit(job.Pid)
}

// awaitExit polls pid until it is gone or the grace delay elapses.
func (m *Manager) awaitExit(ctx context.Context, pid int) bool {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 5 * time.Millisecond
	policy.MaxInterval = 25 * time.Millisecond
	policy.MaxElapsedTime = m.grace

	err := backoff.Retry(func() error {
		if exited(pid) {
			return nil
		}

		return errStillAlive
	}, backoff.WithContext(policy, ctx))

	return err == nil
}

// Reap polls every job that is not being waited on in the foreground.
// Finished or vanished jobs are removed and returned; stopped and continued
// jobs are updated in place.
func (m *Manager) Reap() []Job {
	var finished []Job

	for _, job := range m.table.Snapshot() {
		if job.State == RunningForeground {
			continue
		}

		status, changed, err := poll(job.Pid)

		switch {
		case errors.Is(err, errGone):
			m.table.Remove(job.Number)

			finished = append(finished, job)
		case err != nil:
			m.logger.Warn("Job poll failed", slog.Int("pid", job.Pid), slog.String("error", err.Error()))
		case !changed:
		case status.Done():
			m.table.Remove(job.Number)

			job.Status = status
			finished = append(finished, job)
		case status.Stopped:
			_, _ = m.table.Update(job.Number, func(j *Job) {
				j.State = Stopped
				j.Status = status
			})
		case status.Continued:
			_, _ = m.table.Update(job.Number, func(j *Job) {
				j.State = RunningBackground
				j.Status = status
			})
		}
	}

	for _, job := range finished {
		m.logger.Debug("Job reaped",
			slog.String("event.type", "job.reaped"),
			slog.Int("job", job.Number),
			slog.Int("pid", job.Pid),
			slog.String("status", job.Status.String()),
		)
	}

	return finished
}
