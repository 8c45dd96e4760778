package mapping

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// IDMap is the persisted map from source record id to created record id.
type IDMap struct {
	path string
	ids  map[string]string
}

// LoadIDMap reads the id map at path. A missing file is an empty map.
func LoadIDMap(path string) (*IDMap, error) {
	m := &IDMap{path: path, ids: map[string]string{}}

	data, err := os.ReadFile(path)

	switch {
	case errors.Is(err, os.ErrNotExist):
		return m, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read id map %s: %w", path, err)
	}

	if len(data) == 0 {
		return m, nil
	}

	if err := json.Unmarshal(data, &m.ids); err != nil {
		return nil, fmt.Errorf("failed to parse id map %s: %w", path, err)
	}

	return m, nil
}

// Lookup returns the created id of a source record.
func (m *IDMap) Lookup(sourceID string) (string, bool) {
	id, ok := m.ids[sourceID]
	return id, ok
}

// Put records a created id and rewrites the file.
func (m *IDMap) Put(sourceID, newID string) error {
	m.ids[sourceID] = newID

	return writeJSON(m.path, m.ids)
}

// Len returns the number of recorded ids.
func (m *IDMap) Len() int { return len(m.ids) }

// Path returns the file backing the map.
func (m *IDMap) Path() string { return m.path }
