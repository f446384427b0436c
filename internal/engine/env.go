package engine

import (
	"os"
	"regexp"
	"slices"
	"strings"
)

var envName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// overrides layers engine-local variables over the process environment.
// A nil value hides an inherited variable.
type overrides map[string]*string

// SetEnv sets name for expansion and for every child launched afterwards.
// The process environment is not modified.
func (e *Engine) SetEnv(name, value string) bool {
	if !envName.MatchString(name) {
		return false
	}

	e.state.Lock()
	defer e.state.Unlock()

	e.env[name] = &value

	return true
}

// UnsetEnv hides name from expansion and from children.
func (e *Engine) UnsetEnv(name string) {
	e.state.Lock()
	defer e.state.Unlock()

	e.env[name] = nil
}

// GetEnv returns the value of name as children would see it.
func (e *Engine) GetEnv(name string) (string, bool) {
	e.state.Lock()
	v, ok := e.env[name]
	e.state.Unlock()

	if !ok {
		return os.LookupEnv(name)
	}

	if v == nil {
		return "", false
	}

	return *v, true
}

// lookupEnv reports engine overrides only; unset names resolve to "".
func (e *Engine) lookupEnv(name string) (string, bool) {
	e.state.Lock()
	defer e.state.Unlock()

	v, ok := e.env[name]
	if !ok {
		return "", false
	}

	if v == nil {
		return "", true
	}

	return *v, true
}

// Environ returns the environment handed to children, without PWD.
func (e *Engine) Environ() []string {
	e.state.Lock()
	defer e.state.Unlock()

	base := os.Environ()
	out := make([]string, 0, len(base)+len(e.env))

	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if _, overridden := e.env[name]; overridden {
			continue
		}

		out = append(out, kv)
	}

	names := make([]string, 0, len(e.env))
	for name := range e.env {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		if v := e.env[name]; v != nil {
			out = append(out, name+"="+*v)
		}
	}

	return out
}

// exported lists overrides as NAME=VALUE lines, sorted by name.
func (e *Engine) exported() []string {
	e.state.Lock()
	defer e.state.Unlock()

	lines := make([]string, 0, len(e.env))

	for name, v := range e.env {
		if v != nil {
			lines = append(lines, name+"="+*v)
		}
	}

	slices.Sort(lines)

	return lines
}
