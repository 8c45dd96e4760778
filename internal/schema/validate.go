package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrDuplicateDataName is returned when two fields of a form share a data name.
	ErrDuplicateDataName = errors.New("duplicate data name")
	// ErrDuplicateKey is returned when two fields of a form share a key.
	ErrDuplicateKey = errors.New("duplicate field key")
)

// CheckDuplicates verifies that data names and keys are unique across the
// whole flattened form. It must pass before any row is projected.
func CheckDuplicates(fields []Field) error {
	flat := Flatten(fields)

	names := make(map[string]int, len(flat))
	keys := make(map[string]int, len(flat))

	for _, f := range flat {
		names[f.DataName]++
		if f.Key != "" {
			keys[f.Key]++
		}
	}

	var errs []error
	if dup := repeated(names); len(dup) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateDataName, strings.Join(dup, ", ")))
	}

	if dup := repeated(keys); len(dup) > 0 {
		errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateKey, strings.Join(dup, ", ")))
	}

	return errors.Join(errs...)
}

func repeated(counts map[string]int) []string {
	var out []string

	for k, n := range counts {
		if n > 1 {
			out = append(out, k)
		}
	}

	sort.Strings(out)

	return out
}
