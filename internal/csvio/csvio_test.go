package csvio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Encodings(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		encoding string
	}{
		{"utf-8", []byte("name,town\nAnn,Bury\n"), "utf-8"},
		{"utf-8 bom", append([]byte{0xEF, 0xBB, 0xBF}, "name,town\nAnn,Bury\n"...), "utf-8-bom"},
		{
			"utf-16le bom",
			[]byte{0xFF, 0xFE, 'n', 0, 'a', 0, 'm', 0, 'e', 0, ',', 0, 't', 0, 'o', 0, 'w', 0, 'n', 0, '\n', 0,
				'A', 0, 'n', 0, 'n', 0, ',', 0, 'B', 0, 'u', 0, 'r', 0, 'y', 0, '\n', 0},
			"utf-16",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Parse(tt.data)
			require.NoError(t, err)

			assert.Equal(t, tt.encoding, table.Encoding)
			assert.Equal(t, []string{"name", "town"}, table.Header)
			require.Len(t, table.Rows, 1)
			assert.Equal(t, Row{"name": "Ann", "town": "Bury"}, table.Rows[0])
		})
	}
}

func TestParse_Windows1252(t *testing.T) {
	table, err := Parse([]byte("name\nCaf\xe9\n"))
	require.NoError(t, err)

	assert.Equal(t, "windows-1252", table.Encoding)
	assert.Equal(t, "Café", table.Rows[0]["name"])
}

func TestParse_RaggedRows(t *testing.T) {
	table, err := Parse([]byte(" a , b\n1\n1,2,3\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, table.Header)
	assert.Equal(t, []Row{{"a": "1", "b": ""}, {"a": "1", "b": "2"}}, table.Rows)
	require.Len(t, table.Warnings, 2)
	assert.Equal(t, 2, table.Warnings[0].Row)
	assert.Equal(t, 3, table.Warnings[1].Row)
}

func TestParse_Empty(t *testing.T) {
	table, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, table.Header)
	assert.Empty(t, table.Rows)
}

func TestWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "records.csv")

	rows := []Row{
		{"id": "1", "notes": "has, comma"},
		{"id": "2"},
	}
	require.NoError(t, Write(path, []string{"id", "notes"}, rows))
	assert.True(t, Exists(path))
	assert.False(t, Exists(filepath.Dir(path)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,notes\n1,\"has, comma\"\n2,\n", string(data))

	table, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, table.Column("id"))
	assert.True(t, table.HasColumn("notes"))
	assert.False(t, table.HasColumn("other"))
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestRowHelpers(t *testing.T) {
	r := Row{"a": ""}
	c := r.Clone()
	c["b"] = "x"

	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("b"))
	assert.True(t, c.Has("b"))
}
