package terminal

import (
	"errors"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"
)

// ErrNotTerminal is returned by ownership operations on a descriptor that
// is not a terminal.
var ErrNotTerminal = errors.New("not a terminal")

// Owner hands a terminal's foreground process group to launched jobs and
// takes it back afterwards. The zero value is not usable; use NewOwner.
type Owner struct {
	file   *os.File
	fd     int
	tty    bool
	logger *slog.Logger

	mu    sync.Mutex
	saved *term.State
}

// NewOwner wraps f, normally os.Stdin. When f is not a terminal every
// ownership operation is a no-op.
func NewOwner(f *os.File, logger *slog.Logger) *Owner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fd := int(f.Fd())

	return &Owner{
		file:   f,
		fd:     fd,
		tty:    term.IsTerminal(fd),
		logger: logger.With(slog.String("component", "terminal")),
	}
}

// Interactive reports whether the wrapped descriptor is a terminal.
func (o *Owner) Interactive() bool {
	return o != nil && o.tty
}

// File returns the wrapped terminal file.
func (o *Owner) File() *os.File {
	return o.file
}

// FD returns the wrapped descriptor number in this process.
func (o *Owner) FD() int {
	return o.fd
}

// Save captures the current terminal modes for the next Reclaim. It is
// used on its own when the child takes the terminal itself at launch.
func (o *Owner) Save() {
	if !o.Interactive() {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.save()
}

func (o *Owner) save() {
	state, err := term.GetState(o.fd)
	if err != nil {
		o.logger.Debug("Terminal state capture failed", slog.String("error", err.Error()))
		return
	}

	o.saved = state
}

// Handoff saves the current terminal modes and makes pgid the terminal's
// foreground process group. The caller must own the terminal.
func (o *Owner) Handoff(pgid int) error {
	if !o.Interactive() {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.save()

	return setForeground(o.fd, pgid)
}

// Reclaim makes the calling process's group the terminal's foreground
// group again and restores the modes saved by the last Handoff. It must
// run after every foreground wait, on every path.
func (o *Owner) Reclaim() error {
	if !o.Interactive() {
		return nil
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	err := reclaim(o.fd)

	if o.saved != nil {
		if restoreErr := term.Restore(o.fd, o.saved); restoreErr != nil {
			o.logger.Debug("Terminal state restore failed", slog.String("error", restoreErr.Error()))
		}

		o.saved = nil
	}

	return err
}

// Foreground returns the terminal's current foreground process group.
func (o *Owner) Foreground() (int, error) {
	if !o.Interactive() {
		return 0, ErrNotTerminal
	}

	return foreground(o.fd)
}

// Owned reports whether the calling process's group owns the terminal.
// It is always true for a non-terminal descriptor.
func (o *Owner) Owned() bool {
	if !o.Interactive() {
		return true
	}

	pgid, err := foreground(o.fd)
	if err != nil {
		return false
	}

	return pgid == processGroup()
}
