package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
)

// Store is the persisted mapping of one bucket.
type Store struct {
	path      string
	entries   map[string]string
	completed bool
}

// Open returns the store of bucket under root. Nothing is read until Load.
func Open(root, bucket string) *Store {
	return &Store{
		path:    filepath.Join(Layout{Root: root}.MappingsDir(bucket), MappingsFile),
		entries: map[string]string{},
	}
}

// Path returns the mappings.json path.
func (s *Store) Path() string { return s.path }

// markerPath is written once a reconciliation pass of the bucket finished.
func (s *Store) markerPath() string {
	return filepath.Join(filepath.Dir(s.path), CompletedFile)
}

// Load reads the mapping file and reports whether an earlier pass over the
// bucket completed. A missing file is a first run, not an error. Decisions
// saved by an interrupted pass are loaded but do not count as completed.
func (s *Store) Load() (map[string]string, bool, error) {
	entries := map[string]string{}

	data, err := os.ReadFile(s.path)

	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, false, fmt.Errorf("failed to read mapping file %s: %w", s.path, err)
	default:
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, false, fmt.Errorf("failed to parse mapping file %s: %w", s.path, err)
		}
	}

	_, err = os.Stat(s.markerPath())

	switch {
	case err == nil:
		s.completed = true
	case errors.Is(err, os.ErrNotExist):
		s.completed = false
	default:
		return nil, false, fmt.Errorf("failed to check %s: %w", s.markerPath(), err)
	}

	s.entries = entries

	return maps.Clone(entries), s.completed, nil
}

// Completed reports whether the last Load found a finished pass.
func (s *Store) Completed() bool { return s.completed }

// Complete saves the mapping file, empty or not, and marks the bucket as
// reconciled.
func (s *Store) Complete() error {
	if err := s.Save(); err != nil {
		return err
	}

	if err := os.WriteFile(s.markerPath(), nil, 0o644); err != nil {
		return fmt.Errorf("failed to mark %s complete: %w", s.path, err)
	}

	s.completed = true

	return nil
}

// Get returns the stored resolution of column.
func (s *Store) Get(column string) (string, bool) {
	v, ok := s.entries[column]
	return v, ok
}

// Len returns the number of stored decisions.
func (s *Store) Len() int { return len(s.entries) }

// Set records a decision and rewrites the whole file.
func (s *Store) Set(column, resolved string) error {
	s.entries[column] = resolved

	return s.Save()
}

// Save writes the mapping file, creating its directory.
func (s *Store) Save() error {
	return writeJSON(s.path, s.entries)
}

// writeJSON replaces path with v encoded as indented JSON. The data goes to a
// temporary file first so a crash never leaves a truncated file behind.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
