package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	clierrors "github.com/musher-dev/dtt/internal/errors"
	"github.com/musher-dev/dtt/internal/observability"
	"github.com/musher-dev/dtt/internal/output"
	"github.com/musher-dev/dtt/internal/statusline"
	"github.com/musher-dev/dtt/internal/terminal"
	"github.com/musher-dev/dtt/internal/worker"
)

// reapInterval is how often finished background jobs are collected while
// the shell waits at the prompt.
const reapInterval = time.Second

type shellOptions struct {
	Dir string
}

func addShellFlags(cmd *cobra.Command, opts *shellOptions) {
	cmd.Flags().StringVar(&opts.Dir, "dir", "", "Start in this directory instead of the current one")
}

func newShellCmd() *cobra.Command {
	var opts shellOptions

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell",
		Long: `Start an interactive session. Each line is split on ';' and '&&', aliases
are applied, and every command runs in its own process group. Foreground
commands own the terminal until they exit or stop; a trailing '&' runs a
command in the background. Type 'exit' or press Ctrl-D to leave; remaining
jobs are terminated.`,
		Example: `  dtt shell
  dtt shell --dir ~/src/project`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShellCmd(cmd, opts)
		},
	}

	addShellFlags(cmd, &opts)

	return cmd
}

// exitStatus ends the process with code and no further output.
type exitStatus struct {
	code int
}

func (e *exitStatus) Error() string {
	return fmt.Sprintf("exit %d", e.code)
}

func runShellCmd(cmd *cobra.Command, opts shellOptions) error {
	ctx := cmd.Context()
	out := output.FromContext(ctx)
	logger := observability.FromContext(ctx)

	if !out.Terminal().InteractiveEnabled() {
		return clierrors.TerminalRequired()
	}

	stopJobSignals := terminal.CatchJobControlSignals()
	defer stopJobSignals()

	s, err := openSession(logger, sessionOptions{
		Dir:    opts.Dir,
		Status: true,
		TTY:    terminal.NewOwner(os.Stdin, logger),
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	})
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := s.close(); closeErr != nil {
			logger.Warn("Shell shutdown incomplete", slog.String("error", closeErr.Error()))
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	background := worker.NewGroup(logger)
	background.Every(ctx, "reap", reapInterval, s.engine.Reap)

	defer func() {
		cancel()
		_ = background.Close(context.Background())
	}()

	r := newREPL(s, out, os.Stdin)

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)

	defer signal.Stop(interrupts)

	background.Go("interrupts", func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-interrupts:
				r.interrupted()
			}
		}
	})

	logger.Info("Shell started",
		slog.String("event.type", "shell.started"),
		slog.String("dir", s.engine.Dir()),
	)

	code := r.run(ctx)
	if code != 0 {
		return &exitStatus{code: code}
	}

	return nil
}

// repl reads lines, runs them and prints each result under a status-line
// prompt.
type repl struct {
	s   *session
	out *output.Writer
	in  *bufio.Reader

	colors   statusline.Colors
	fullPath bool
	width    int

	mu     sync.Mutex
	prompt string
}

func newREPL(s *session, out *output.Writer, in io.Reader) *repl {
	r := &repl{
		s:        s,
		out:      out,
		in:       bufio.NewReader(in),
		fullPath: s.cfg.FullPath(),
		width:    out.Terminal().Width / 2,
	}

	if out.Terminal().ColorEnabled() {
		c := s.cfg.Colors()
		r.colors = statusline.Colors{
			Shell:     c.Shell,
			Directory: c.Directory,
			Branch:    c.Branch,
			Git:       c.Git,
			Reset:     "\x1b[0m",
		}
	}

	return r
}

// run returns the exit code requested with 'exit', or 0 at end of input.
func (r *repl) run(ctx context.Context) int {
	for {
		r.showPrompt()

		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			r.s.logger.Error("Input read failed", slog.String("error", err.Error()))
			return clierrors.ExitGeneral
		}

		eof := err != nil

		if code, ok := parseExit(line); ok {
			return code
		}

		if strings.TrimSpace(line) != "" {
			r.execute(ctx, line)
		}

		if eof {
			r.out.Println()
			return 0
		}
	}
}

func (r *repl) execute(ctx context.Context, line string) {
	r.s.refreshAliases()

	res, err := r.s.engine.Run(ctx, strings.TrimRight(line, "\r\n"))
	if res.Output != "" {
		r.out.Println(res.Output)
	}

	if err != nil {
		cliErr := clierrors.EngineFailed(err)
		r.out.Failure("%s", cliErr.Error())
		r.out.Muted("%s", cliErr.Hint)
	}
}

func (r *repl) render() string {
	dir := r.s.engine.Dir()

	prompt, _ := statusline.Render(statusline.Input{
		ShellName: r.s.cfg.ShellName(),
		Dir:       dir,
		FullPath:  r.fullPath,
		Colors:    r.colors,
		Git:       statusline.Probe(dir, r.s.status),
		MaxWidth:  r.width,
	})

	return prompt
}

func (r *repl) showPrompt() {
	prompt := r.render()

	r.mu.Lock()
	r.prompt = prompt
	r.mu.Unlock()

	r.out.Print("%s", prompt)
}

// interrupted redraws the prompt after Ctrl-C at the prompt. The terminal
// has already discarded the partial line.
func (r *repl) interrupted() {
	r.mu.Lock()
	prompt := r.prompt
	r.mu.Unlock()

	r.out.Print("\n%s", prompt)
}

// parseExit recognizes "exit" and "exit N".
func parseExit(line string) (int, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || fields[0] != "exit" || len(fields) > 2 {
		return 0, false
	}

	if len(fields) == 1 {
		return 0, true
	}

	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 0 || code > 255 {
		return 0, false
	}

	return code, true
}
