// Package jobs tracks launched processes and implements fg, bg, kill and
// the reap sweep.
package jobs

import (
	"errors"
	"sync"
)

// ErrNoSuchJob is returned for a job number not present in the table.
var ErrNoSuchJob = errors.New("no such job")

// State is a job's position in the job-control state machine.
type State int

// Job states. A reaped job is removed from the table rather than kept in a
// terminal state.
const (
	RunningForeground State = iota
	RunningBackground
	Stopped
)

func (s State) String() string {
	switch s {
	case RunningForeground:
		return "Running"
	case RunningBackground:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Job is a snapshot of one tracked process.
type Job struct {
	// Number is stable for the job's lifetime. Numbers restart at 1 once
	// the table is empty.
	Number  int
	Pid     int
	Pgid    int
	Command string
	State   State
	// Status is the last wait status observed for the process.
	Status Status
}

// Foreground reports whether the job is the terminal's foreground job.
func (j Job) Foreground() bool {
	return j.State == RunningForeground
}

// Table is the mutex-guarded registry of jobs. Every accessor returns
// copies; callers never see a partially updated Job.
type Table struct {
	mu   sync.Mutex
	jobs []Job
	next int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{next: 1}
}

// Add registers a process and returns the new job.
func (t *Table) Add(pid, pgid int, command string, state State) Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.jobs) == 0 {
		t.next = 1
	}

	job := Job{
		Number:  t.next,
		Pid:     pid,
		Pgid:    pgid,
		Command: command,
		State:   state,
	}

	t.next++
	t.jobs = append(t.jobs, job)

	return job
}

// Get returns job n. Zero selects the first job in the table.
func (t *Table) Get(n int) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(n)
	if i < 0 {
		return Job{}, ErrNoSuchJob
	}

	return t.jobs[i], nil
}

// Update applies fn to job n under the lock and returns the result.
func (t *Table) Update(n int, fn func(*Job)) (Job, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(n)
	if i < 0 {
		return Job{}, ErrNoSuchJob
	}

	fn(&t.jobs[i])

	return t.jobs[i], nil
}

// SetState changes the state of job n.
func (t *Table) SetState(n int, state State) (Job, error) {
	return t.Update(n, func(j *Job) { j.State = state })
}

// Remove deletes job n and reports whether it was present.
func (t *Table) Remove(n int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	i := t.index(n)
	if i < 0 {
		return false
	}

	t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)

	return true
}

// Snapshot returns a copy of every job in table order.
func (t *Table) Snapshot() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Job, len(t.jobs))
	copy(out, t.jobs)

	return out
}

// Len returns the number of tracked jobs.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.jobs)
}

func (t *Table) index(n int) int {
	if len(t.jobs) == 0 {
		return -1
	}

	if n == 0 {
		return 0
	}

	for i := range t.jobs {
		if t.jobs[i].Number == n {
			return i
		}
	}

	return -1
}
