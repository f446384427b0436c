// Package statusline composes the prompt decoration shown before input:
// the shell name followed by either the repository view or the directory.
package statusline

import (
	"path/filepath"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/musher-dev/dtt/internal/gitstatus"
)

const ellipsis = "..."

// Colors are opaque escape strings; they are concatenated, never parsed.
type Colors struct {
	Shell     string
	Directory string
	Branch    string
	Git       string
	Reset     string
}

// DefaultColors returns the built-in palette.
func DefaultColors() Colors {
	return Colors{
		Shell:     "\x1b[1;31m",
		Directory: "\x1b[1;34m",
		Branch:    "\x1b[1;33m",
		Git:       "\x1b[1;32m",
		Reset:     "\x1b[0m",
	}
}

// GitInfo describes the repository containing the current directory.
type GitInfo struct {
	Root   string
	Branch string
	Status gitstatus.Entry
}

// Input is everything Render needs.
type Input struct {
	ShellName string
	Dir       string
	FullPath  bool
	Colors    Colors
	// Git is nil outside a repository.
	Git *GitInfo
	// MaxWidth truncates the path from the left when positive.
	MaxWidth int
}

// Probe finds the repository containing dir and reads its cached status.
// The cached entry is only reported when it belongs to that repository.
func Probe(dir string, cache *gitstatus.Cache) *GitInfo {
	root, ok := gitstatus.FindRoot(dir)
	if !ok {
		return nil
	}

	info := &GitInfo{Root: root, Branch: gitstatus.Branch(root)}

	if cache != nil {
		if entry := cache.Lookup(root); entry.Dir == root {
			info.Status = entry
		}
	}

	return info
}

// Render returns the decorated prompt and its visible width in columns.
func Render(in Input) (string, int) {
	c := in.Colors
	name := displayName(in)

	var fixed string
	if in.Git != nil {
		fixed = in.ShellName + " " + " git:(" + in.Git.Branch + statusText(in.Git.Status) + ") "
	} else {
		fixed = in.ShellName + "  "
	}

	if in.MaxWidth > 0 {
		name = fit(name, in.MaxWidth-runewidth.StringWidth(fixed))
	}

	var out string
	if in.Git != nil {
		out = c.Shell + in.ShellName + c.Reset + " " +
			c.Git + name + c.Reset +
			c.Directory + " git:(" + c.Reset +
			c.Branch + in.Git.Branch + c.Reset

		if status := statusText(in.Git.Status); status != "" {
			out += c.Directory + status + c.Reset
		}

		out += c.Directory + ")" + c.Reset + " "
	} else {
		out = c.Shell + in.ShellName + c.Reset + " " + c.Directory + name + c.Reset + " "
	}

	return out, ansi.StringWidth(out)
}

func displayName(in Input) string {
	if in.FullPath {
		return in.Dir
	}

	base := filepath.Base(in.Dir)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return "/"
	}

	return base
}

func statusText(e gitstatus.Entry) string {
	if sym := e.Symbol(); sym != "" {
		return " " + sym
	}

	return ""
}

// fit shortens s from the left to at most budget columns.
func fit(s string, budget int) string {
	width := runewidth.StringWidth(s)
	if width <= budget {
		return s
	}

	if budget <= len(ellipsis) {
		return runewidth.Truncate(ellipsis, max(budget, 0), "")
	}

	return runewidth.TruncateLeft(s, width-budget+len(ellipsis), ellipsis)
}
