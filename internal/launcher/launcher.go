// Package launcher resolves executables and starts child processes in their
// own process groups. Started processes are released to the caller, which
// is responsible for reaping them.
package launcher

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/musher-dev/dtt/internal/terminal"
)

var (
	// ErrSpawn wraps an operating-system failure to create a process.
	ErrSpawn = errors.New("process creation failed")

	// ErrNotFound is returned when the executable does not exist.
	ErrNotFound = errors.New("command not found")

	// ErrPermission is returned when the executable cannot be run.
	ErrPermission = errors.New("permission denied")
)

// Request describes one process to start.
type Request struct {
	// Args is the argument vector; Args[0] is the command name.
	Args []string
	// Dir is the working directory and the value of PWD in the child.
	Dir string
	// Env is the base environment. PWD is overridden from Dir.
	Env []string
	// Background starts the process in a new session with stdin at /dev/null.
	Background bool

	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// Process is a started, released child.
type Process struct {
	Pid  int
	Pgid int
	Path string
	Args []string
}

// Launcher starts processes, handing the terminal to foreground ones.
type Launcher struct {
	tty    *terminal.Owner
	logger *slog.Logger
}

// New creates a launcher. tty may be nil or non-interactive, in which case
// foreground processes still get their own group but no terminal.
func New(tty *terminal.Owner, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Launcher{
		tty:    tty,
		logger: logger.With(slog.String("component", "launcher")),
	}
}

// Resolve finds the executable for name. A name containing a path separator
// is used literally. Otherwise dir is tried first, then every entry of
// pathList in order. When nothing matches the bare name is returned and
// the failure surfaces at launch.
func Resolve(name, dir, pathList string) string {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) {
		return name
	}

	if dir != "" {
		if candidate := filepath.Join(dir, name); isExecutable(candidate) {
			return candidate
		}
	}

	for _, entry := range filepath.SplitList(pathList) {
		if entry == "" {
			entry = "."
		}

		if candidate := filepath.Join(entry, name); isExecutable(candidate) {
			return candidate
		}
	}

	return name
}

// Environ returns base with PWD set to dir.
func Environ(base []string, dir string) []string {
	env := make([]string, 0, len(base)+1)

	for _, kv := range base {
		if strings.HasPrefix(kv, "PWD=") {
			continue
		}

		env = append(env, kv)
	}

	if dir != "" {
		env = append(env, "PWD="+dir)
	}

	return env
}

func lookupPath(env []string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(env[i], "PATH="); ok {
			return v
		}
	}

	return os.Getenv("PATH")
}
