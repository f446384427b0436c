//go:build unix

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Start creates the process described by req. A foreground process is
// placed in its own group and, when a terminal is attached, made the
// terminal's foreground group before it executes. A background process
// gets a new session so terminal-generated signals never reach it.
//
// Missing or non-executable programs yield ErrNotFound or ErrPermission.
// Any other failure wraps ErrSpawn.
func (l *Launcher) Start(ctx context.Context, req Request) (*Process, error) {
	if len(req.Args) == 0 {
		return nil, fmt.Errorf("%w: empty argument vector", ErrSpawn)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := req.Args[0]
	path := Resolve(name, req.Dir, lookupPath(req.Env))

	cmd := &exec.Cmd{
		Path:   path,
		Args:   req.Args,
		Dir:    req.Dir,
		Env:    Environ(req.Env, req.Dir),
		Stdout: fileOr(req.Stdout, os.Stdout),
		Stderr: fileOr(req.Stderr, os.Stderr),
	}

	interactive := l.tty.Interactive()

	switch {
	case req.Background:
		devNull, err := os.Open(os.DevNull)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrSpawn, os.DevNull, err)
		}
		defer devNull.Close()

		cmd.Stdin = devNull
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	case interactive:
		// The child takes the terminal between fork and exec. With
		// Foreground set, Ctty names the terminal in this process, not in
		// the child.
		cmd.Stdin = l.tty.File()
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true, Foreground: true, Ctty: l.tty.FD()}

		l.tty.Save()
	default:
		cmd.Stdin = fileOr(req.Stdin, os.Stdin)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	if err := cmd.Start(); err != nil {
		if interactive && !req.Background {
			if reclaimErr := l.tty.Reclaim(); reclaimErr != nil {
				l.logger.Warn("Terminal reclaim failed after launch error", slog.String("error", reclaimErr.Error()))
			}
		}

		return nil, classify(name, err)
	}

	proc := &Process{
		Pid:  cmd.Process.Pid,
		Pgid: cmd.Process.Pid,
		Path: path,
		Args: req.Args,
	}

	// The caller reaps with wait4; os.Process bookkeeping is not needed.
	if err := cmd.Process.Release(); err != nil {
		l.logger.Debug("Process release failed", slog.Int("pid", proc.Pid), slog.String("error", err.Error()))
	}

	l.logger.Debug("Process started",
		slog.String("event.type", "process.started"),
		slog.Int("pid", proc.Pid),
		slog.String("path", path),
		slog.Bool("background", req.Background),
	)

	return proc, nil
}

func classify(name string, err error) error {
	switch {
	case errors.Is(err, exec.ErrNotFound),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, unix.ENOENT),
		errors.Is(err, unix.ENOTDIR):
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	case errors.Is(err, fs.ErrPermission),
		errors.Is(err, unix.EACCES),
		errors.Is(err, unix.ENOEXEC):
		return fmt.Errorf("%w: %s", ErrPermission, name)
	default:
		return fmt.Errorf("%w: %s: %w", ErrSpawn, name, err)
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}

	return unix.Access(path, unix.X_OK) == nil
}

func fileOr(f, fallback *os.File) *os.File {
	if f != nil {
		return f
	}

	return fallback
}
