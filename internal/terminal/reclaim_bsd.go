//go:build unix && !linux

package terminal

import (
	"os/signal"
	"syscall"
)

// reclaim moves the terminal back to the calling process group with
// SIGTTOU ignored for the duration of the ioctl.
func reclaim(fd int) error {
	signal.Ignore(syscall.SIGTTOU)
	defer rearm(syscall.SIGTTOU)

	return setForeground(fd, processGroup())
}
