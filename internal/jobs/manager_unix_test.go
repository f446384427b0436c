//go:build unix

package jobs

import (
	"context"
	"errors"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// start launches args in a new process group and releases it so the
// manager does the reaping.
func start(t *testing.T, session bool, args ...string) int {
	t.Helper()

	cmd := exec.Command(args[0], args[1:]...)
	if session {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	} else {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	}

	if err := cmd.Start(); err != nil {
		t.Fatalf("Start(%v) error = %v", args, err)
	}

	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	t.Cleanup(func() {
		_ = unix.Kill(-pid, unix.SIGKILL)
		_ = unix.Kill(pid, unix.SIGKILL)

		var ws unix.WaitStatus
		_, _ = unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	})

	return pid
}

func gone(pid int) bool {
	return errors.Is(unix.Kill(pid, 0), unix.ESRCH)
}

func eventually(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}

		time.Sleep(10 * time.Millisecond)
	}

	return cond()
}

func TestManagerWaitForegroundExit(t *testing.T) {
	m := NewManager(nil, nil, nil, 0)

	pid := start(t, false, "sh", "-c", "exit 3")
	job := m.Track(pid, pid, "sh -c 'exit 3'", false)

	if job.State != RunningForeground {
		t.Fatalf("state = %v, want RunningForeground", job.State)
	}

	done, err := m.Wait(job.Number)
	if err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if !done.Status.Exited || done.Status.Code != 3 {
		t.Errorf("status = %+v, want exit 3", done.Status)
	}

	if m.Table().Len() != 0 {
		t.Errorf("exited job still tracked: %+v", m.Table().Snapshot())
	}
}

func TestManagerBackgroundReap(t *testing.T) {
	m := NewManager(nil, nil, nil, 0)

	pid := start(t, true, "true")
	m.Track(pid, pid, "true", true)

	var reaped []Job

	ok := eventually(t, 5*time.Second, func() bool {
		reaped = append(reaped, m.Reap()...)
		return m.Table().Len() == 0
	})
	if !ok {
		t.Fatalf("background job not reaped: %+v", m.Table().Snapshot())
	}

	if len(reaped) != 1 || reaped[0].Pid != pid || !reaped[0].Status.Success() {
		t.Errorf("reaped = %+v, want one successful job for pid %d", reaped, pid)
	}
}

func TestManagerReapSkipsForeground(t *testing.T) {
	m := NewManager(nil, nil, nil, 0)

	pid := start(t, false, "true")
	job := m.Track(pid, pid, "true", false)

	time.Sleep(100 * time.Millisecond)

	if got := m.Reap(); len(got) != 0 {
		t.Fatalf("Reap() touched a foreground job: %+v", got)
	}

	if _, err := m.Wait(job.Number); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestManagerStopBackgroundKill(t *testing.T) {
	m := NewManager(nil, nil, nil, 50*time.Millisecond)

	pid := start(t, true, "sleep", "30")
	job := m.Track(pid, pid, "sleep 30", true)

	if err := unix.Kill(pid, unix.SIGSTOP); err != nil {
		t.Fatalf("SIGSTOP error = %v", err)
	}

	ok := eventually(t, 5*time.Second, func() bool {
		m.Reap()

		got, err := m.Table().Get(job.Number)

		return err == nil && got.State == Stopped
	})
	if !ok {
		t.Fatal("stopped job was not observed as Stopped")
	}

	resumed, err := m.Background(job.Number)
	if err != nil {
		t.Fatalf("Background() error = %v", err)
	}

	if resumed.State != RunningBackground {
		t.Errorf("state after bg = %v, want RunningBackground", resumed.State)
	}

	if _, err := m.Kill(context.Background(), job.Number); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	if m.Table().Len() != 0 {
		t.Errorf("killed job still tracked")
	}

	if !eventually(t, 5*time.Second, func() bool { return gone(pid) }) {
		t.Errorf("pid %d still alive after kill", pid)
	}
}

func TestManagerKillEscalates(t *testing.T) {
	m := NewManager(nil, nil, nil, 50*time.Millisecond)

	pid := start(t, true, "sh", "-c", `trap "" TERM; while :; do sleep 1; done`)
	job := m.Track(pid, pid, "stubborn", true)

	// Let the shell install its trap.
	time.Sleep(100 * time.Millisecond)

	begin := time.Now()

	if _, err := m.Kill(context.Background(), job.Number); err != nil {
		t.Fatalf("Kill() error = %v", err)
	}

	if elapsed := time.Since(begin); elapsed > 2*time.Second {
		t.Errorf("Kill() took %v", elapsed)
	}

	if m.Table().Len() != 0 {
		t.Errorf("killed job still tracked")
	}

	if !eventually(t, 5*time.Second, func() bool { return gone(pid) }) {
		t.Errorf("pid %d survived escalation", pid)
	}
}

func TestManagerForegroundResumesStoppedJob(t *testing.T) {
	m := NewManager(nil, nil, nil, 0)

	pid := start(t, false, "sleep", "1")
	job := m.Track(pid, pid, "sleep 1", true)

	if err := unix.Kill(pid, unix.SIGSTOP); err != nil {
		t.Fatalf("SIGSTOP error = %v", err)
	}

	if !eventually(t, 5*time.Second, func() bool {
		m.Reap()
		got, err := m.Table().Get(job.Number)

		return err == nil && got.State == Stopped
	}) {
		t.Fatal("job never observed as stopped")
	}

	done, err := m.Foreground(job.Number)
	if err != nil {
		t.Fatalf("Foreground() error = %v", err)
	}

	if !done.Status.Success() {
		t.Errorf("status = %+v, want clean exit", done.Status)
	}

	if m.Table().Len() != 0 {
		t.Errorf("finished job still tracked")
	}
}

func TestManagerNoSuchJob(t *testing.T) {
	m := NewManager(nil, nil, nil, 0)

	if _, err := m.Foreground(1); !errors.Is(err, ErrNoSuchJob) {
		t.Errorf("Foreground() error = %v", err)
	}

	if _, err := m.Background(0); !errors.Is(err, ErrNoSuchJob) {
		t.Errorf("Background() error = %v", err)
	}

	if _, err := m.Kill(context.Background(), 7); !errors.Is(err, ErrNoSuchJob) {
		t.Errorf("Kill() error = %v", err)
	}
}

func TestManagerTerminateAll(t *testing.T) {
	m := NewManager(nil, nil, nil, 50*time.Millisecond)

	pids := []int{start(t, true, "sleep", "30"), start(t, true, "sleep", "30")}
	for _, pid := range pids {
		m.Track(pid, pid, "sleep 30", true)
	}

	m.TerminateAll(context.Background())

	if m.Table().Len() != 0 {
		t.Fatalf("table not empty after TerminateAll")
	}

	for _, pid := range pids {
		if !eventually(t, 5*time.Second, func() bool { return gone(pid) }) {
			t.Errorf("pid %d still alive", pid)
		}
	}
}
