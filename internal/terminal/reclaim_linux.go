//go:build linux

package terminal

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// reclaim moves the terminal back to the calling process group. The kernel
// sends SIGTTOU to a background caller of TIOCSPGRP unless the signal is
// blocked, so the ioctl runs on a locked thread with SIGTTOU masked.
func reclaim(fd int) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var set, old unix.Sigset_t

	bits := int(8 * unsafe.Sizeof(set.Val[0]))
	n := int(unix.SIGTTOU) - 1
	set.Val[n/bits] |= 1 << (n % bits)

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &old); err != nil {
		return setForeground(fd, processGroup())
	}

	defer func() { _ = unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil) }()

	return setForeground(fd, processGroup())
}
