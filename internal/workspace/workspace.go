// Package workspace tracks the files a run creates so that scratch files are
// removed on every exit path.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"app-reconciler/internal/logging"
)

type entry struct {
	path    string
	file    *os.File
	scratch bool
}

// Workspace is the set of files owned by one run.
type Workspace struct {
	dir    string
	logger *zap.Logger

	mu      sync.Mutex
	entries []*entry
}

// New returns a workspace rooted at dir. Relative names passed to Create
// resolve against dir.
func New(dir string, logger *zap.Logger) *Workspace {
	return &Workspace{dir: dir, logger: logging.OrNop(logger)}
}

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// Create creates (or truncates) name and tracks it. Scratch files are
// deleted by Cleanup; the others are only closed.
func (w *Workspace) Create(name string, scratch bool) (*os.File, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(w.dir, name)
	}

	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	w.mu.Lock()
	w.entries = append(w.entries, &entry{path: path, file: f, scratch: scratch})
	w.mu.Unlock()

	w.logger.Debug("tracking file", zap.String("path", path), zap.Bool("scratch", scratch))

	return f, nil
}

// Track registers a file written by someone else.
func (w *Workspace) Track(path string, scratch bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = append(w.entries, &entry{path: path, scratch: scratch})
}

// Files returns every tracked path in creation order.
func (w *Workspace) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, len(w.entries))
	for i, e := range w.entries {
		out[i] = e.path
	}

	return out
}

// Cleanup closes every tracked file and removes the scratch ones. It is safe
// to call more than once.
func (w *Workspace) Cleanup() error {
	w.mu.Lock()
	entries := w.entries
	w.entries = nil
	w.mu.Unlock()

	var errs []error

	for _, e := range entries {
		if e.file != nil {
			if err := e.file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
				errs = append(errs, fmt.Errorf("close %s: %w", e.path, err))
			}
		}

		if !e.scratch {
			continue
		}

		if err := os.Remove(e.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", e.path, err))
			continue
		}

		w.logger.Debug("removed scratch file", zap.String("path", e.path))
	}

	return errors.Join(errs...)
}

// EnsureDir creates dir and its parents.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	return nil
}

// ClearDir removes dir with its contents and recreates it empty.
func ClearDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear directory %s: %w", dir, err)
	}

	return EnsureDir(dir)
}
