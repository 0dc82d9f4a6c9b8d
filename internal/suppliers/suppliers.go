// Package suppliers maintains the excluded-supplier set applied to every
// purchase-order run. Matching is case-insensitive; persistence is a flat
// text file with one supplier name per line, replaced atomically on save.
package suppliers

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Store is the mutable exclusion set. It implements engine.SupplierFilter;
// reads during a run take the read lock only, mutations happen between runs.
type Store struct {
	path string

	mu    sync.RWMutex
	names map[string]string // lowercased -> as entered
}

// Load reads the exclusion file at path. A missing file is an empty set, not
// an error: the store creates it on first save.
func Load(path string) (*Store, error) {
	s := &Store{path: path, names: make(map[string]string)}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to open excluded suppliers file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		s.names[strings.ToLower(name)] = name
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read excluded suppliers file: %w", err)
	}
	return s, nil
}

// Excluded reports whether a supplier name is on the exclusion list.
func (s *Store) Excluded(name string) bool {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[key]
	return ok
}

// List returns the excluded supplier names sorted case-insensitively.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.names))
	for _, name := range s.names {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Len returns the number of excluded suppliers.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}

// Add puts a supplier on the exclusion list and persists the set. Adding an
// existing name (in any case) is a no-op.
func (s *Store) Add(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("supplier name is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(name)
	if _, ok := s.names[key]; ok {
		return nil
	}
	s.names[key] = name
	return s.saveLocked()
}

// Remove takes a supplier off the exclusion list and persists the set. It
// reports whether the name was present.
func (s *Store) Remove(name string) (bool, error) {
	key := strings.ToLower(strings.TrimSpace(name))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.names[key]; !ok {
		return false, nil
	}
	delete(s.names, key)
	return true, s.saveLocked()
}

// Replace swaps the whole set for the given names and persists it.
func (s *Store) Replace(names []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.names = make(map[string]string, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		s.names[strings.ToLower(name)] = name
	}
	return s.saveLocked()
}

// saveLocked writes the set to a temp file next to the target and renames it
// into place. Caller holds the write lock.
func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create suppliers directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".excluded-*")
	if err != nil {
		return fmt.Errorf("failed to create temp suppliers file: %w", err)
	}
	defer os.Remove(tmp.Name())

	keys := make([]string, 0, len(s.names))
	for key := range s.names {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	w := bufio.NewWriter(tmp)
	for _, key := range keys {
		if _, err := fmt.Fprintln(w, s.names[key]); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace suppliers file: %w", err)
	}
	return nil
}
