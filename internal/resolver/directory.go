package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoHome is returned when cd needs $HOME and it is not set.
var ErrNoHome = errors.New("could not determine home directory")

var osGetenv = os.Getenv

// Directory is the engine's notion of the current directory. The process
// working directory is kept in sync on every successful change.
type Directory struct {
	mu   sync.Mutex
	path string
	prev string

	// chdir is swapped in tests that must not touch the process cwd.
	chdir func(string) error
}

// NewDirectory starts at the process working directory.
func NewDirectory() (*Directory, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	return &Directory{path: wd, chdir: os.Chdir}, nil
}

// NewDirectoryAt starts at dir without changing the process working
// directory until the first Change.
func NewDirectoryAt(dir string) *Directory {
	return &Directory{path: filepath.Clean(dir), chdir: os.Chdir}
}

// Path returns the current directory.
func (d *Directory) Path() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.path
}

// CDError describes a cd failure with the message shown to the user.
type CDError struct {
	Target string
	Reason string
	Err    error
}

func (e *CDError) Error() string {
	if e.Target == "" {
		return "cd: " + e.Reason
	}

	return fmt.Sprintf("cd: %s: %s", e.Target, e.Reason)
}

func (e *CDError) Unwrap() error { return e.Err }

// Change moves to target. An empty target or "~" goes to $HOME, "-" goes to
// the previous directory, and relative paths resolve against the current
// directory. On success it returns the new canonical path; on failure the
// state is left untouched.
func (d *Directory) Change(target string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dest, err := d.resolve(target)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dest)

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", &CDError{Target: target, Reason: "No such file or directory", Err: err}
	case errors.Is(err, fs.ErrPermission):
		return "", &CDError{Target: target, Reason: "Permission denied", Err: err}
	case err != nil:
		return "", &CDError{Target: target, Reason: err.Error(), Err: err}
	case !info.IsDir():
		return "", &CDError{Target: target, Reason: "Not a directory"}
	}

	canonical, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return "", &CDError{Target: target, Reason: err.Error(), Err: err}
	}

	if d.chdir != nil {
		if err := d.chdir(canonical); err != nil {
			return "", &CDError{Reason: reason(err), Err: err}
		}
	}

	d.prev = d.path
	d.path = canonical

	return canonical, nil
}

func (d *Directory) resolve(target string) (string, error) {
	switch {
	case target == "" || target == "~":
		return home()
	case target == "-":
		if d.prev == "" {
			return "", &CDError{Reason: "OLDPWD not set"}
		}

		return d.prev, nil
	case target == "/":
		return "/", nil
	case target == "..":
		return filepath.Dir(d.path), nil
	case strings.HasPrefix(target, "~/"):
		h, err := home()
		if err != nil {
			return "", err
		}

		return filepath.Join(h, target[2:]), nil
	case filepath.IsAbs(target):
		return filepath.Clean(target), nil
	default:
		return filepath.Join(d.path, target), nil
	}
}

func home() (string, error) {
	h := osGetenv("HOME")
	if h == "" {
		return "", &CDError{Reason: "Could not determine home directory", Err: ErrNoHome}
	}

	return h, nil
}

func reason(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}

	return err.Error()
}
