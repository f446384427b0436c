package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/musher-dev/dtt/internal/engine"
	clierrors "github.com/musher-dev/dtt/internal/errors"
	"github.com/musher-dev/dtt/internal/observability"
	"github.com/musher-dev/dtt/internal/output"
	"github.com/musher-dev/dtt/internal/terminal"
)

// ExecUnit is one unit of an exec result in JSON output.
type ExecUnit struct {
	Command  string `json:"command"`
	Verb     string `json:"verb"`
	OK       bool   `json:"ok"`
	Skipped  bool   `json:"skipped,omitempty"`
	ExitCode int    `json:"exit_code"`
	Message  string `json:"message,omitempty"`
}

// ExecResult is the JSON form of a completed line.
type ExecResult struct {
	Line     string     `json:"line"`
	OK       bool       `json:"ok"`
	ExitCode int        `json:"exit_code"`
	Units    []ExecUnit `json:"units"`
}

func newExecResult(res engine.Result) ExecResult {
	units := make([]ExecUnit, 0, len(res.Units))

	for _, u := range res.Units {
		units = append(units, ExecUnit{
			Command:  u.Command,
			Verb:     u.Verb.String(),
			OK:       u.OK,
			Skipped:  u.Skipped,
			ExitCode: u.ExitCode,
			Message:  u.Message,
		})
	}

	return ExecResult{
		Line:     res.Line,
		OK:       res.OK(),
		ExitCode: res.ExitCode(),
		Units:    units,
	}
}

func newExecCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "exec <line>...",
		Short: "Run one command line and exit",
		Long: `Run a single command line through the shell engine and print the result of
every unit. Arguments are joined with spaces, so quote the line to keep
';' and '&&' away from your outer shell. Background jobs started by the
line are terminated before dtt exits. Exits non-zero when any unit that
ran failed.`,
		Example: `  dtt exec 'make build && ./bin/app --version'
  dtt exec --json 'cd /tmp; ls'
  dtt exec --dir ~/src/project git status`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)
			logger := observability.FromContext(ctx)

			owner := terminal.NewOwner(os.Stdin, logger)
			if owner.Interactive() {
				stop := terminal.CatchJobControlSignals()
				defer stop()
			}

			s, err := openSession(logger, sessionOptions{
				Dir:    dir,
				TTY:    owner,
				Stdin:  os.Stdin,
				Stdout: os.Stdout,
				Stderr: os.Stderr,
			})
			if err != nil {
				return err
			}

			defer func() { _ = s.close() }()

			res, err := s.engine.Run(ctx, strings.Join(args, " "))
			if err != nil {
				return clierrors.EngineFailed(err)
			}

			if out.JSON {
				if err := out.PrintJSON(newExecResult(res)); err != nil {
					return err
				}

				if !res.OK() {
					return &exitStatus{code: clierrors.ExitExecution}
				}

				return nil
			}

			if res.Output != "" {
				out.Println(res.Output)
			}

			if !res.OK() {
				return clierrors.CommandFailed(failedExitCode(res))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Run the line in this directory")
	cmd.Flags().SetInterspersed(false)

	return cmd
}

// failedExitCode is the exit code of the last unit that ran and failed.
func failedExitCode(res engine.Result) int {
	for i := len(res.Units) - 1; i >= 0; i-- {
		if u := res.Units[i]; !u.Skipped && !u.OK {
			return u.ExitCode
		}
	}

	return 0
}
