// Package history keeps the de-duplicated list of entered commands.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/musher-dev/dtt/internal/paths"
)

// DefaultLimit bounds the number of remembered commands.
const DefaultLimit = 1000

// Store is an ordered, de-duplicated command list with a navigation cursor.
// When path is set every change is persisted, one command per line.
type Store struct {
	mu      sync.Mutex
	entries []string
	cursor  int
	limit   int
	path    string
}

// New returns an in-memory store.
func New(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Store{limit: limit}
}

// Open loads path into a store that persists back to it. A missing file
// yields an empty store.
func Open(path string, limit int) (*Store, error) {
	s := New(limit)
	s.path = path

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}

	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		s.add(scanner.Text())
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	s.cursor = len(s.entries)

	return s, nil
}

func (s *Store) add(command string) bool {
	command = strings.TrimSpace(command)
	if command == "" || strings.ContainsAny(command, "\r\n") {
		return false
	}

	for _, e := range s.entries {
		if e == command {
			return false
		}
	}

	s.entries = append(s.entries, command)
	if over := len(s.entries) - s.limit; over > 0 {
		s.entries = append([]string(nil), s.entries[over:]...)
	}

	return true
}

// Add records command unless it is blank or already present, and resets
// the navigation cursor past the newest entry.
func (s *Store) Add(command string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := s.add(command)
	s.cursor = len(s.entries)

	if !added {
		return false, nil
	}

	return true, s.persist()
}

// Previous steps to the next older command, wrapping from the oldest to
// the newest. It returns "" when the store is empty.
func (s *Store) Previous() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return ""
	}

	if s.cursor <= 0 {
		s.cursor = len(s.entries)
	}

	s.cursor--

	return s.entries[s.cursor]
}

// Next steps to the next newer command, wrapping from the newest to the
// oldest. It returns "" when the store is empty.
func (s *Store) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return ""
	}

	s.cursor++
	if s.cursor >= len(s.entries) {
		s.cursor = 0
	}

	return s.entries[s.cursor]
}

// Recent returns up to n commands, newest first.
func (s *Store) Recent(n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	n = min(n, len(s.entries))
	out := make([]string, 0, n)

	for i := len(s.entries) - 1; i >= len(s.entries)-n; i-- {
		out = append(out, s.entries[i])
	}

	return out
}

// Last returns the newest command.
func (s *Store) Last() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return ""
	}

	return s.entries[len(s.entries)-1]
}

// Len returns the number of stored commands.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// Clear forgets every command, including the persisted copy.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.cursor = 0

	return s.persist()
}

func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	var b strings.Builder
	for _, e := range s.entries {
		b.WriteString(e)
		b.WriteByte('\n')
	}

	if err := paths.WriteFileAtomic(s.path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	return nil
}
