package engine

import (
	"fmt"
	"strings"

	"github.com/musher-dev/dtt/internal/jobs"
)

// UnitResult is the outcome of one execution unit.
type UnitResult struct {
	Command string
	Verb    Verb
	OK      bool
	// Message is the human-readable line shown for the unit. It may be empty.
	Message  string
	ExitCode int
	// Skipped is set for units after a failure in the same && chain.
	Skipped bool
}

// Result is the outcome of a whole input line.
type Result struct {
	Line  string
	Units []UnitResult
	// Output is every non-empty unit message joined by newlines.
	Output string
}

// OK reports whether every unit that ran succeeded.
func (r Result) OK() bool {
	for _, u := range r.Units {
		if !u.Skipped && !u.OK {
			return false
		}
	}

	return true
}

// ExitCode is the exit code of the last unit that ran.
func (r Result) ExitCode() int {
	for i := len(r.Units) - 1; i >= 0; i-- {
		if !r.Units[i].Skipped {
			return r.Units[i].ExitCode
		}
	}

	return 0
}

func joinOutput(units []UnitResult) string {
	lines := make([]string, 0, len(units))

	for _, u := range units {
		if u.Message != "" {
			lines = append(lines, u.Message)
		}
	}

	return strings.Join(lines, "\n")
}

func ok(msg string) UnitResult {
	return UnitResult{OK: true, Message: msg}
}

func fail(code int, format string, args ...any) UnitResult {
	return UnitResult{ExitCode: code, Message: fmt.Sprintf(format, args...)}
}

// completion describes how a waited-on foreground job ended.
func completion(job jobs.Job) UnitResult {
	s := job.Status

	switch {
	case s.Stopped:
		return UnitResult{
			ExitCode: 128 + s.Signal,
			Message:  fmt.Sprintf("Process stopped [%d] (PID: %d)", job.Number, job.Pid),
		}
	case s.Signaled:
		return UnitResult{
			ExitCode: 128 + s.Signal,
			Message:  fmt.Sprintf("Command terminated by signal %d (%s)", s.Signal, jobs.SignalName(s.Signal)),
		}
	case s.Code != 0:
		return fail(s.Code, "Command failed with exit status %d", s.Code)
	default:
		return ok("Command completed")
	}
}
