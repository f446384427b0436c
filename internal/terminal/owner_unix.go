//go:build unix

package terminal

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/sys/unix"
)

func setForeground(fd, pgid int) error {
	if err := unix.IoctlSetPointerInt(fd, unix.TIOCSPGRP, pgid); err != nil {
		return fmt.Errorf("set foreground process group %d: %w", pgid, err)
	}

	return nil
}

func foreground(fd int) (int, error) {
	pgid, err := unix.IoctlGetInt(fd, unix.TIOCGPGRP)
	if err != nil {
		return 0, fmt.Errorf("get foreground process group: %w", err)
	}

	return pgid, nil
}

func processGroup() int {
	return unix.Getpgrp()
}

// jobControlSignals stop or suspend a shell that is not in the foreground.
var jobControlSignals = []os.Signal{syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU}

// CatchJobControlSignals keeps the calling process from being stopped by
// terminal-generated job-control signals. Signals are caught rather than
// ignored so that launched children start with default dispositions. The
// returned function restores default handling.
func CatchJobControlSignals() (stop func()) {
	ch := make(chan os.Signal, 8)
	signal.Notify(ch, jobControlSignals...)

	caught.Lock()
	caught.ch = ch
	caught.Unlock()

	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ch:
			case <-done:
				return
			}
		}
	}()

	return func() {
		caught.Lock()
		caught.ch = nil
		caught.Unlock()

		signal.Stop(ch)
		close(done)
	}
}

// caught holds the channel installed by CatchJobControlSignals so a
// temporary Ignore can be undone without losing the handler.
var caught struct {
	sync.Mutex
	ch chan os.Signal
}

func rearm(sig os.Signal) {
	caught.Lock()
	defer caught.Unlock()

	if caught.ch != nil {
		signal.Notify(caught.ch, sig)
		return
	}

	signal.Reset(sig)
}
