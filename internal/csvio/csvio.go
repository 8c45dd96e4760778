package csvio

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Row is one CSV record keyed by column name.
type Row map[string]string

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}

	return out
}

// Has reports whether the row has the column at all.
func (r Row) Has(column string) bool {
	_, ok := r[column]
	return ok
}

// Warning is a non-fatal problem found while reading a file.
type Warning struct {
	Row     int
	Message string
}

// Table is a decoded CSV file.
type Table struct {
	Header   []string
	Rows     []Row
	Encoding string
	Warnings []Warning
}

// Column returns the values of one column, in row order.
func (t *Table) Column(name string) []string {
	out := make([]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}

	return out
}

// HasColumn reports whether the header contains name.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Header {
		if h == name {
			return true
		}
	}

	return false
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Read loads and decodes a CSV file.
func Read(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return t, nil
}

// Parse decodes CSV bytes. Rows with too few fields are padded with empty
// values and rows with too many are truncated; both produce a warning. An
// empty input yields an empty table.
func Parse(data []byte) (*Table, error) {
	decoded, enc, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", enc, err)
	}

	t := &Table{Encoding: enc}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return t, nil
	}

	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	for i, h := range header {
		header[i] = norm.NFC.String(strings.TrimSpace(h))
	}

	t.Header = header

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		switch {
		case len(record) < len(header):
			t.Warnings = append(t.Warnings, Warning{Row: line, Message: fmt.Sprintf(
				"row has %d columns, expected %d; padding with empty values", len(record), len(header))})
			record = append(record, make([]string, len(header)-len(record))...)
		case len(record) > len(header):
			t.Warnings = append(t.Warnings, Warning{Row: line, Message: fmt.Sprintf(
				"row has %d columns, expected %d; truncating extra columns", len(record), len(header))})
			record = record[:len(header)]
		}

		row := make(Row, len(header))
		for i, h := range header {
			row[h] = record[i]
		}

		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

// decode converts data to UTF-8 and names the encoding it found.
func decode(data []byte) ([]byte, string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return data[len(bomUTF8):], "utf-8-bom", nil
	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
		return out, "utf-16", err
	case utf8.Valid(data):
		return data, "utf-8", nil
	default:
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		return out, "windows-1252", err
	}
}

// Write writes rows to path under header, creating the directory. Columns a
// row does not have are written empty.
func Write(path string, header []string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if err := Encode(f, header, rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	return f.Close()
}

// Encode writes header and rows as CSV to w.
func Encode(w io.Writer, header []string, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))

	for _, r := range rows {
		for i, h := range header {
			record[i] = r[h]
		}

		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// Exists reports whether path names a regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
