package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/musher-dev/dtt/internal/jobs"
	"github.com/musher-dev/dtt/internal/launcher"
)

const (
	exitNotFound   = 127
	exitPermission = 126
)

func (e *Engine) changeDir(args []string) UnitResult {
	target := ""
	if len(args) > 0 {
		target = args[0]
	}

	prev := e.dir.Path()

	dir, err := e.dir.Change(target)
	if err != nil {
		return fail(1, "%s", err.Error())
	}

	if err := os.Setenv("OLDPWD", prev); err != nil {
		e.logger.Debug("OLDPWD update failed", slog.String("error", err.Error()))
	}

	if err := os.Setenv("PWD", dir); err != nil {
		e.logger.Debug("PWD update failed", slog.String("error", err.Error()))
	}

	return ok("Changed directory to: " + dir)
}

func (e *Engine) listJobs() UnitResult {
	e.reap()

	snapshot := e.jobs.Table().Snapshot()
	if len(snapshot) == 0 {
		return ok("No active jobs")
	}

	lines := make([]string, 0, len(snapshot))
	for _, job := range snapshot {
		lines = append(lines, fmt.Sprintf("[%d] %s %s (PID: %d)", job.Number, job.State, job.Command, job.Pid))
	}

	return ok(strings.Join(lines, "\n"))
}

// jobNumber parses an optional "n" or "%n" argument. No argument yields 0,
// which the job table resolves to the lowest live job.
func jobNumber(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, true
	}

	n, err := strconv.Atoi(strings.TrimPrefix(args[0], "%"))
	if err != nil || n < 1 {
		return 0, false
	}

	return n, true
}

func noSuchJob() UnitResult {
	return fail(1, "No such job")
}

func (e *Engine) foreground(args []string) UnitResult {
	n, valid := jobNumber(args)
	if !valid {
		return noSuchJob()
	}

	job, err := e.jobs.Foreground(n)

	switch {
	case errors.Is(err, jobs.ErrNoSuchJob):
		return noSuchJob()
	case err != nil:
		return fail(1, "fg: %v", err)
	}

	r := completion(job)
	r.Message = "Job brought to foreground\n" + r.Message

	return r
}

func (e *Engine) background(args []string) UnitResult {
	n, valid := jobNumber(args)
	if !valid {
		return noSuchJob()
	}

	_, err := e.jobs.Background(n)

	switch {
	case errors.Is(err, jobs.ErrNoSuchJob):
		return noSuchJob()
	case err != nil:
		return fail(1, "bg: %v", err)
	}

	return ok("Job sent to background")
}

// kill handles "kill", "kill n" and "kill %n" as job control. Anything
// else, such as signal flags or raw pids, goes to the external kill.
func (e *Engine) kill(ctx context.Context, argv []string, background bool) (UnitResult, error) {
	args := argv[1:]

	if len(args) > 1 || (len(args) == 1 && strings.HasPrefix(args[0], "-")) {
		return e.launch(ctx, argv, background)
	}

	n, valid := jobNumber(args)
	if !valid {
		return noSuchJob(), nil
	}

	if _, err := e.jobs.Kill(ctx, n); err != nil {
		if errors.Is(err, jobs.ErrNoSuchJob) {
			return noSuchJob(), nil
		}

		return fail(1, "kill: %v", err), nil
	}

	return ok("Job killed"), nil
}

func (e *Engine) export(args []string) UnitResult {
	if len(args) == 0 {
		return ok(strings.Join(e.exported(), "\n"))
	}

	for _, arg := range args {
		name, value, found := strings.Cut(arg, "=")
		if !found {
			if v, set := os.LookupEnv(name); set {
				value = v
			}
		}

		if !e.SetEnv(name, value) {
			return fail(1, "export: not a valid identifier: %s", name)
		}
	}

	return ok("")
}

func (e *Engine) unset(args []string) UnitResult {
	for _, name := range args {
		if !envName.MatchString(name) {
			return fail(1, "unset: not a valid identifier: %s", name)
		}

		e.UnsetEnv(name)
	}

	return ok("")
}

// launch starts an external command. Only a process-creation failure is
// returned as an error; everything else is reported in the result.
func (e *Engine) launch(ctx context.Context, argv []string, background bool) (UnitResult, error) {
	proc, err := e.launcher.Start(ctx, launcher.Request{
		Args:       argv,
		Dir:        e.dir.Path(),
		Env:        e.Environ(),
		Background: background,
		Stdin:      e.stdin,
		Stdout:     e.stdout,
		Stderr:     e.stderr,
	})

	switch {
	case errors.Is(err, launcher.ErrNotFound):
		return fail(exitNotFound, "%s: command not found: %s", e.shellName, argv[0]), nil
	case errors.Is(err, launcher.ErrPermission):
		return fail(exitPermission, "%s: permission denied: %s", e.shellName, argv[0]), nil
	case err != nil:
		return fail(1, "%s: %v", e.shellName, err), err
	}

	job := e.jobs.Track(proc.Pid, proc.Pgid, strings.Join(argv, " "), background)

	if background {
		return ok(fmt.Sprintf("Started background process [%d] (PID: %d)", job.Number, proc.Pid)), nil
	}

	done, err := e.jobs.Wait(job.Number)
	if err != nil {
		e.jobs.Table().Remove(job.Number)

		return fail(1, "%s: %v", e.shellName, err), nil
	}

	return completion(done), nil
}
