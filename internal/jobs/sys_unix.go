//go:build unix

package jobs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// errGone reports a pid the kernel no longer knows as our child.
var errGone = errors.New("process no longer exists")

func decode(ws unix.WaitStatus) Status {
	switch {
	case ws.Exited():
		return Status{Exited: true, Code: ws.ExitStatus()}
	case ws.Signaled():
		return Status{Signaled: true, Signal: int(ws.Signal())}
	case ws.Stopped():
		return Status{Stopped: true, Signal: int(ws.StopSignal())}
	case ws.Continued():
		return Status{Continued: true}
	default:
		return Status{}
	}
}

// waitForeground blocks until pid exits or stops. A pid that is no longer
// our child counts as exited.
func waitForeground(pid int) (Status, error) {
	var ws unix.WaitStatus

	for {
		_, err := unix.Wait4(pid, &ws, unix.WUNTRACED, nil)

		switch {
		case err == nil:
			return decode(ws), nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return Status{Exited: true}, nil
		default:
			return Status{}, err
		}
	}
}

// waitExit blocks until pid terminates, ignoring stops.
func waitExit(pid int) {
	var ws unix.WaitStatus

	for {
		_, err := unix.Wait4(pid, &ws, 0, nil)
		if !errors.Is(err, unix.EINTR) {
			return
		}
	}
}

// poll reports a state change for pid without blocking.
func poll(pid int) (Status, bool, error) {
	var ws unix.WaitStatus

	for {
		wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)

		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return Status{}, false, errGone
		case err != nil:
			return Status{}, false, err
		case wpid == 0:
			return Status{}, false, nil
		default:
			return decode(ws), true, nil
		}
	}
}

// exited reports whether pid is gone, reaping it when it is our child.
func exited(pid int) bool {
	st, changed, err := poll(pid)

	switch {
	case errors.Is(err, errGone):
		return errors.Is(unix.Kill(pid, 0), unix.ESRCH)
	case err != nil:
		return false
	default:
		return changed && st.Done()
	}
}

func (s sig) sys() unix.Signal {
	switch s {
	case sigKill:
		return unix.SIGKILL
	case sigCont:
		return unix.SIGCONT
	default:
		return unix.SIGTERM
	}
}

// send delivers s to the job's process group, falling back to the pid
// alone when group signaling is refused.
func send(j Job, s sig) error {
	pgid := j.Pgid
	if pgid <= 0 {
		pgid = j.Pid
	}

	if err := unix.Kill(-pgid, s.sys()); err == nil {
		return nil
	}

	return unix.Kill(j.Pid, s.sys())
}

// SignalName returns the conventional name of signal n, such as SIGTERM.
func SignalName(n int) string {
	if name := unix.SignalName(unix.Signal(n)); name != "" {
		return name
	}

	return "unknown"
}
