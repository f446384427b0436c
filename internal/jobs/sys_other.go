//go:build !unix

package jobs

import (
	"errors"
	"fmt"
)

var (
	errGone        = errors.New("process no longer exists")
	errUnsupported = errors.New("job control requires a unix system")
)

func waitForeground(int) (Status, error) { return Status{}, errUnsupported }

func waitExit(int) {}

func poll(int) (Status, bool, error) { return Status{}, false, errGone }

func exited(int) bool { return true }

func send(Job, sig) error { return errUnsupported }

// SignalName returns a numeric signal label.
func SignalName(n int) string { return fmt.Sprintf("signal %d", n) }
