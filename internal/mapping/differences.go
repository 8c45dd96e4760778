package mapping

import (
	"fmt"

	"app-reconciler/internal/csvio"
	"app-reconciler/internal/match"
)

// Headers of the reconciliation tables.
const (
	ColumnHeader       = "Column"
	ClosestMatchHeader = "Closest Match"
	UpdatedHeader      = "Updated"
	MissingHeader      = "Missing Columns"
)

var differencesHeader = []string{ColumnHeader, ClosestMatchHeader, UpdatedHeader}

// WriteDifferences writes the full differences table to path.
func WriteDifferences(path string, rows []match.Difference) error {
	out := make([]csvio.Row, len(rows))
	for i, d := range rows {
		out[i] = csvio.Row{
			ColumnHeader:       d.Column,
			ClosestMatchHeader: d.ClosestMatch,
			UpdatedHeader:      d.Resolution,
		}
	}

	return csvio.Write(path, differencesHeader, out)
}

// ReadDifferences reads a differences table written by WriteDifferences or
// edited by hand.
func ReadDifferences(path string) ([]match.Difference, error) {
	t, err := csvio.Read(path)
	if err != nil {
		return nil, err
	}

	if len(t.Header) > 0 && !t.HasColumn(ColumnHeader) {
		return nil, fmt.Errorf("%s: missing %q column", path, ColumnHeader)
	}

	out := make([]match.Difference, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = match.Difference{
			Column:       r[ColumnHeader],
			ClosestMatch: r[ClosestMatchHeader],
			Resolution:   r[UpdatedHeader],
		}
	}

	return out, nil
}

// WriteUnmatched writes the columns nobody claimed to path.
func WriteUnmatched(path string, columns []string) error {
	out := make([]csvio.Row, len(columns))
	for i, c := range columns {
		out[i] = csvio.Row{MissingHeader: c}
	}

	return csvio.Write(path, []string{MissingHeader}, out)
}
