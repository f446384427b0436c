//go:build !unix

package terminal

func setForeground(int, int) error { return ErrNotTerminal }

func foreground(int) (int, error) { return 0, ErrNotTerminal }

func processGroup() int { return 0 }

func reclaim(int) error { return nil }

// CatchJobControlSignals is a no-op without POSIX job control.
func CatchJobControlSignals() (stop func()) { return func() {} }
