// Package transform rewrites legacy export rows into the shape of the new
// app: resolved renames, merged and copied fields, derived columns.
package transform

import (
	"errors"
	"fmt"
	"strings"

	"app-reconciler/internal/config"
	"app-reconciler/internal/csvio"
	"app-reconciler/internal/match"
)

var (
	// ErrMissingField is returned when a row lacks a field a step needs.
	ErrMissingField = errors.New("field not found")
	// ErrUnknownValue is returned when a derived lookup has no entry.
	ErrUnknownValue = errors.New("no mapping for value")
	// ErrDuplicateColumn is returned when a rename collides with a column.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Renames builds the rename table from resolved differences. Rows resolved
// to nothing or to N/A keep their name.
func Renames(diffs []match.Difference) map[string]string {
	out := make(map[string]string, len(diffs))

	for _, d := range diffs {
		to := strings.TrimSpace(d.Resolution)
		if to == "" || to == match.NoMatch || to == d.Column {
			continue
		}

		out[d.Column] = to
	}

	return out
}

// ApplyRenames renames header columns and the keys of every row in place.
func ApplyRenames(header []string, rows []csvio.Row, renames map[string]string) ([]string, error) {
	out := make([]string, len(header))
	seen := make(map[string]bool, len(header))

	for i, h := range header {
		name := h
		if to, ok := renames[h]; ok {
			name = to
		}

		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateColumn, name)
		}

		seen[name] = true
		out[i] = name
	}

	for _, row := range rows {
		renamed := make(map[string]string, len(renames))

		for from, to := range renames {
			if v, ok := row[from]; ok {
				renamed[to] = v
				delete(row, from)
			}
		}

		for k, v := range renamed {
			row[k] = v
		}
	}

	return out, nil
}

// MergeFields fills into from from when into is empty. With allowMultiple,
// a non-empty into gets from appended after a comma. It reports whether the
// row changed.
func MergeFields(row csvio.Row, into, from string, allowMultiple bool) (bool, error) {
	if !row.Has(into) || !row.Has(from) {
		return false, fmt.Errorf("%w: %s or %s", ErrMissingField, into, from)
	}

	switch {
	case row[into] == "":
		row[into] = row[from]
		return row[from] != "", nil
	case allowMultiple && row[from] != "":
		row[into] += "," + row[from]
		return true, nil
	default:
		return false, nil
	}
}

// MapFields copies each source field into its destination field.
func MapFields(row csvio.Row, fields map[string]string) error {
	for from, to := range fields {
		if !row.Has(from) {
			return fmt.Errorf("%w: %s", ErrMissingField, from)
		}

		row[to] = row[from]
	}

	return nil
}

// Derived sets the configured derived columns on every row and returns the
// header extended with the columns it did not already have.
func Derived(header []string, rows []csvio.Row, derived []config.DerivedConfig) ([]string, error) {
	for i, row := range rows {
		for _, d := range derived {
			v, err := derive(row, d)
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", i+1, d.Column, err)
			}

			row[d.Column] = v
		}
	}

	for _, d := range derived {
		header = appendMissing(header, d.Column)
	}

	return header, nil
}

func derive(row csvio.Row, d config.DerivedConfig) (string, error) {
	if d.From == "" {
		return d.Value, nil
	}

	key, ok := row[d.From]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrMissingField, d.From)
	}

	if d.Map == nil {
		return key, nil
	}

	v, ok := d.Map[key]
	if !ok {
		return "", fmt.Errorf("%w %q in %s", ErrUnknownValue, key, d.From)
	}

	return v, nil
}
