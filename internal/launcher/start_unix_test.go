//go:build unix

package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/musher-dev/dtt/internal/terminal"
)

const launcherHelperEnv = "DTT_LAUNCHER_TTY_HELPER"

func reap(t *testing.T, pid int) unix.WaitStatus {
	t.Helper()

	var ws unix.WaitStatus

	for {
		_, err := unix.Wait4(pid, &ws, 0, nil)
		if errors.Is(err, unix.EINTR) {
			continue
		}

		if err != nil {
			t.Fatalf("Wait4(%d) error = %v", pid, err)
		}

		return ws
	}
}

func TestStartForegroundWithoutTerminal(t *testing.T) {
	dir := t.TempDir()
	out, err := os.Create(filepath.Join(dir, "out"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	defer out.Close()

	l := New(nil, nil)

	proc, err := l.Start(context.Background(), Request{
		Args:   []string{"sh", "-c", `echo "$PWD"`},
		Dir:    dir,
		Env:    os.Environ(),
		Stdout: out,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if pgid, err := unix.Getpgid(proc.Pid); err == nil && pgid != proc.Pid {
		t.Errorf("pgid = %d, want %d", pgid, proc.Pid)
	}

	if ws := reap(t, proc.Pid); !ws.Exited() || ws.ExitStatus() != 0 {
		t.Fatalf("wait status = %v, want exit 0", ws)
	}

	data, err := os.ReadFile(out.Name())
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	if got := strings.TrimSpace(string(data)); got != dir {
		t.Errorf("child PWD = %q, want %q", got, dir)
	}
}

func TestStartBackgroundNewSession(t *testing.T) {
	l := New(nil, nil)

	proc, err := l.Start(context.Background(), Request{
		Args:       []string{"sleep", "5"},
		Dir:        t.TempDir(),
		Env:        os.Environ(),
		Background: true,
	})
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	sid, err := unix.Getsid(proc.Pid)
	if err != nil {
		t.Fatalf("Getsid() error = %v", err)
	}

	if sid != proc.Pid {
		t.Errorf("sid = %d, want %d", sid, proc.Pid)
	}

	if err := unix.Kill(proc.Pid, unix.SIGKILL); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	if ws := reap(t, proc.Pid); !ws.Signaled() {
		t.Errorf("wait status = %v, want signaled", ws)
	}
}

func TestStartMissingExecutable(t *testing.T) {
	l := New(nil, nil)

	_, err := l.Start(context.Background(), Request{
		Args: []string{"dtt-no-such-command-xyz"},
		Dir:  t.TempDir(),
		Env:  []string{"PATH=" + t.TempDir()},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Start() error = %v, want ErrNotFound", err)
	}

	if errors.Is(err, ErrSpawn) {
		t.Error("missing executable must not be reported as a spawn failure")
	}
}

func TestStartNotExecutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "script"), []byte("#!/bin/sh\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	l := New(nil, nil)

	_, err := l.Start(context.Background(), Request{Args: []string{"./script"}, Dir: dir, Env: os.Environ()})
	if !errors.Is(err, ErrPermission) {
		t.Fatalf("Start() error = %v, want ErrPermission", err)
	}
}

func TestStartEmptyArgs(t *testing.T) {
	_, err := New(nil, nil).Start(context.Background(), Request{})
	if !errors.Is(err, ErrSpawn) {
		t.Fatalf("Start() error = %v, want ErrSpawn", err)
	}
}

func TestStartForegroundUsesOwnerDescriptor(t *testing.T) {
	cmd := exec.Command(os.Args[0], "-test.run=^TestLauncherTTYHelperProcess$")
	cmd.Env = append(os.Environ(), launcherHelperEnv+"=1")

	ptmx, err := pty.Start(cmd)
	if err != nil {
		t.Skipf("pty unavailable: %v", err)
	}

	defer ptmx.Close()

	out, _ := io.ReadAll(ptmx)
	_ = cmd.Wait()

	if !strings.Contains(string(out), "foreground launch ok") {
		t.Fatalf("helper output:\n%s", out)
	}
}

// TestLauncherTTYHelperProcess runs under a pty with the terminal opened on
// a descriptor other than stdin, and stdin pointed at /dev/null.
func TestLauncherTTYHelperProcess(t *testing.T) {
	if os.Getenv(launcherHelperEnv) != "1" {
		t.Skip("helper process")
	}

	fail := func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
		os.Exit(1)
	}

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		fail("open /dev/tty: %v", err)
	}

	devNull, err := os.Open(os.DevNull)
	if err != nil {
		fail("open %s: %v", os.DevNull, err)
	}

	if err := unix.Dup2(int(devNull.Fd()), 0); err != nil {
		fail("dup2: %v", err)
	}

	stop := terminal.CatchJobControlSignals()
	defer stop()

	owner := terminal.NewOwner(tty, nil)
	if !owner.Interactive() || owner.FD() == 0 {
		fail("owner fd = %d, interactive = %v", owner.FD(), owner.Interactive())
	}

	proc, err := New(owner, nil).Start(context.Background(), Request{
		Args:   []string{"sh", "-c", "exit 0"},
		Env:    os.Environ(),
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		fail("start: %v", err)
	}

	ws := reap(t, proc.Pid)

	if err := owner.Reclaim(); err != nil {
		fail("reclaim: %v", err)
	}

	if !ws.Exited() || ws.ExitStatus() != 0 {
		fail("wait status = %v", ws)
	}

	fmt.Println("foreground launch ok")
	os.Exit(0)
}
