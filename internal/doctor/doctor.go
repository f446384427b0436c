// Package doctor provides diagnostic checks for dtt.
//
// This package implements a check framework that validates:
//   - Terminal capabilities and job control
//   - Git availability for the prompt status
//   - PATH sanity for command lookup
//   - Config file readability
//   - Log directory writability
package doctor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/musher-dev/dtt/internal/config"
	"github.com/musher-dev/dtt/internal/paths"
	"github.com/musher-dev/dtt/internal/terminal"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// String returns the lower-case status name used in JSON output.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Result holds the outcome of a single check.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"-"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"` // Optional additional detail
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck

	// OnCheck, when set, is called with each check's name before it runs.
	OnCheck func(name string)
}

type namedCheck struct {
	name  string
	check Check
}

// gitTimeout bounds the git --version probe.
const gitTimeout = 5 * time.Second

// New creates a new diagnostic runner.
func New() *Runner {
	r := &Runner{}

	// Register default checks
	r.AddCheck("Terminal", func(context.Context) Result { return checkTerminal(terminal.Detect()) })
	r.AddCheck("Git", checkGit)
	r.AddCheck("PATH", func(context.Context) Result { return checkPath(os.Getenv("PATH")) })
	r.AddCheck("Config File", func(context.Context) Result { return checkConfig(config.Load()) })
	r.AddCheck("Log Directory", func(context.Context) Result { return checkLogDir(paths.LogsDir) })

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		if r.OnCheck != nil {
			r.OnCheck(nc.name)
		}

		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

func checkTerminal(info *terminal.Info) Result {
	if !info.JobControlEnabled() {
		return Result{
			Status:  StatusWarn,
			Message: "stdin is not a terminal",
			Detail:  "Job control is off: foreground commands cannot be given the terminal",
		}
	}

	if !info.IsTTY {
		return Result{
			Status:  StatusWarn,
			Message: "stdout is not a terminal (job control available)",
			Detail:  "The prompt and colors are disabled",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%dx%d, job control available", info.Width, info.Height),
	}
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

func checkGit(ctx context.Context) Result {
	path, err := lookPath("git")
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: "Not found in PATH",
			Detail:  "The prompt shows branches but no clean/dirty status without git",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: "Found but version unknown",
			Detail:  err.Error(),
		}
	}

	version, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s at %s", version, path),
	}
}

func checkPath(pathEnv string) Result {
	if strings.TrimSpace(pathEnv) == "" {
		return Result{
			Status:  StatusFail,
			Message: "PATH is empty",
			Detail:  "Only commands given with a '/' can be run",
		}
	}

	dirs := filepath.SplitList(pathEnv)

	var missing []string

	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			missing = append(missing, dir)
		}
	}

	if len(missing) > 0 {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%d entries, %d missing", len(dirs), len(missing)),
			Detail:  strings.Join(missing, ", "),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%d entries", len(dirs)),
	}
}

func checkConfig(cfg *config.Config) Result {
	file := cfg.File()

	if err := cfg.Warning(); err != nil {
		return Result{
			Status:  StatusFail,
			Message: file,
			Detail:  err.Error(),
		}
	}

	if file == "" {
		return Result{
			Status:  StatusWarn,
			Message: "No config directory",
			Detail:  "Set HOME or XDG_CONFIG_HOME",
		}
	}

	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		return Result{
			Status:  StatusPass,
			Message: fmt.Sprintf("%s (not created, using defaults)", file),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: file,
	}
}

func checkLogDir(dirFn func() (string, error)) Result {
	dir, err := dirFn()
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Cannot resolve log directory",
			Detail:  err.Error(),
		}
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Result{
			Status:  StatusFail,
			Message: dir,
			Detail:  err.Error(),
		}
	}

	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s (not writable)", dir),
			Detail:  "Pass --log-file to log elsewhere",
		}
	}

	_ = probe.Close()
	_ = os.Remove(probe.Name())

	return Result{
		Status:  StatusPass,
		Message: dir,
	}
}

// RenderResults formats diagnostic results to the given output writer.
func RenderResults(results []Result, printFn, successFn, warningFn, failureFn, mutedFn func(format string, args ...any)) {
	maxNameLen := 0
	for _, r := range results {
		if len(r.Name) > maxNameLen {
			maxNameLen = len(r.Name)
		}
	}

	for _, r := range results {
		symbol := r.Status.Symbol()
		padding := maxNameLen - len(r.Name) + 4

		switch r.Status {
		case StatusPass:
			successFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusWarn:
			warningFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		case StatusFail:
			failureFn("%-*s%s", len(r.Name)+padding, r.Name, r.Message)
		default:
			printFn("%s %-*s%s\n", symbol, len(r.Name)+padding, r.Name, r.Message)
		}

		if r.Detail != "" {
			mutedFn("    %s", r.Detail)
		}
	}
}

// Symbol returns the status symbol for display.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return checkMark
	case StatusWarn:
		return warningMark
	case StatusFail:
		return xMark
	default:
		return "?"
	}
}

const (
	checkMark   = "✓" // ✓
	xMark       = "✗" // ✗
	warningMark = "⚠" // ⚠
)
