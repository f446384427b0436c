// Package terminal detects what the attached terminal can do and hands the
// controlling terminal to foreground jobs.
//
// Info answers presentation questions (color, spinners, prompts). Owner
// moves the foreground process group between the shell and its jobs and
// restores the saved terminal modes when the shell takes it back.
package terminal

import (
	"os"

	"golang.org/x/term"
)

const (
	fallbackWidth  = 80
	fallbackHeight = 24
)

// Info holds terminal capability information.
type Info struct {
	// IsTTY reports whether stdout is a terminal.
	IsTTY      bool
	StdinIsTTY bool
	NoColor    bool
	Width      int
	Height     int
	// ForceFlag is set by --no-color and wins over everything else.
	ForceFlag bool
}

// probe abstracts the descriptor and environment checks Detect relies on.
type probe struct {
	isTerminal func(fd int) bool
	size       func(fd int) (int, int, error)
	lookupEnv  func(key string) (string, bool)
}

var systemProbe = probe{
	isTerminal: term.IsTerminal,
	size:       term.GetSize,
	lookupEnv:  os.LookupEnv,
}

// Detect returns terminal information for the process's stdin and stdout.
func Detect() *Info {
	return systemProbe.detect(int(os.Stdin.Fd()), int(os.Stdout.Fd()))
}

func (p probe) detect(stdinFD, stdoutFD int) *Info {
	info := &Info{
		IsTTY:      p.isTerminal(stdoutFD),
		StdinIsTTY: p.isTerminal(stdinFD),
		Width:      fallbackWidth,
		Height:     fallbackHeight,
	}

	if info.IsTTY {
		if w, h, err := p.size(stdoutFD); err == nil && w > 0 && h > 0 {
			info.Width, info.Height = w, h
		}
	}

	// https://no-color.org/ ; any value, even empty, disables color.
	_, info.NoColor = p.lookupEnv("NO_COLOR")

	if value, ok := p.lookupEnv("TERM"); ok && value == "dumb" {
		info.NoColor = true
	}

	return info
}

// ColorEnabled returns true if colored output should be used.
func (t *Info) ColorEnabled() bool {
	return !t.ForceFlag && t.IsTTY && !t.NoColor
}

// InteractiveEnabled reports whether both ends are a terminal, which the
// interactive shell and confirmation prompts need.
func (t *Info) InteractiveEnabled() bool {
	return t.IsTTY && t.StdinIsTTY
}

// SpinnersEnabled returns true if spinners should be animated.
func (t *Info) SpinnersEnabled() bool {
	return t.IsTTY && !t.NoColor
}

// JobControlEnabled returns true if foreground jobs can be handed the terminal.
func (t *Info) JobControlEnabled() bool {
	return t.StdinIsTTY
}
