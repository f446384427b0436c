package jobs

import "fmt"

// Status is a decoded wait status.
type Status struct {
	Exited    bool
	Code      int
	Signaled  bool
	Signal    int
	Stopped   bool
	Continued bool
}

// Done reports whether the process has terminated.
func (s Status) Done() bool {
	return s.Exited || s.Signaled
}

// Success reports a zero exit.
func (s Status) Success() bool {
	return s.Exited && s.Code == 0
}

func (s Status) String() string {
	switch {
	case s.Exited:
		return fmt.Sprintf("exit status %d", s.Code)
	case s.Signaled:
		return fmt.Sprintf("signal %d (%s)", s.Signal, SignalName(s.Signal))
	case s.Stopped:
		return fmt.Sprintf("stopped by signal %d (%s)", s.Signal, SignalName(s.Signal))
	case s.Continued:
		return "continued"
	default:
		return "running"
	}
}

// sig names the signals the manager sends.
type sig int

const (
	sigTerm sig = iota
	sigKill
	sigCont
)
