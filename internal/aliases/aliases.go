// Package aliases persists the alias table consulted before each command.
package aliases

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/musher-dev/dtt/internal/paths"
)

// ErrInvalidName is returned for names that cannot be a command word.
var ErrInvalidName = errors.New("invalid alias name")

type document struct {
	Aliases map[string]string `yaml:"aliases"`
}

// Store is a file-backed alias table.
type Store struct {
	path string

	mu      sync.RWMutex
	aliases map[string]string
}

// New returns an empty table that is never saved.
func New() *Store {
	return &Store{aliases: map[string]string{}}
}

// Load reads path. A missing file yields an empty table.
func Load(path string) (*Store, error) {
	s := &Store{path: path, aliases: map[string]string{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read aliases: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse aliases %s: %w", path, err)
	}

	for name, value := range doc.Aliases {
		if ValidName(name) {
			s.aliases[name] = value
		}
	}

	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.path
}

// Map returns a copy of the table.
func (s *Store) Map() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return maps.Clone(s.aliases)
}

// Names returns alias names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Sorted(maps.Keys(s.aliases))
}

// Get returns the replacement for name.
func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.aliases[name]

	return v, ok
}

// Set adds or replaces an alias and saves the table.
func (s *Store) Set(name, value string) error {
	if !ValidName(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.aliases[name] = strings.TrimSpace(value)

	return s.save()
}

// Remove deletes an alias and reports whether it existed.
func (s *Store) Remove(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.aliases[name]; !ok {
		return false, nil
	}

	delete(s.aliases, name)

	return true, s.save()
}

// Clear removes every alias.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clear(s.aliases)

	return s.save()
}

func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(document{Aliases: s.aliases})
	if err != nil {
		return fmt.Errorf("encode aliases: %w", err)
	}

	if err := paths.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return fmt.Errorf("save aliases: %w", err)
	}

	return nil
}

// ValidName reports whether name can be used as an alias: a single word
// without quotes, separators or '='.
func ValidName(name string) bool {
	if name == "" {
		return false
	}

	return !strings.ContainsAny(name, " \t\n;&|'\"\\=$")
}
