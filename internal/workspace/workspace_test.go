package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanup_RemovesScratchOnly(t *testing.T) {
	dir := t.TempDir()
	ws := New(dir, nil)

	scratch, err := ws.Create("dump/form.json", true)
	require.NoError(t, err)
	_, err = scratch.WriteString("{}")
	require.NoError(t, err)

	kept, err := ws.Create("out.csv", false)
	require.NoError(t, err)

	external := filepath.Join(dir, "external.tmp")
	require.NoError(t, os.WriteFile(external, nil, 0o644))
	ws.Track(external, true)

	assert.Equal(t, []string{
		filepath.Join(dir, "dump", "form.json"),
		filepath.Join(dir, "out.csv"),
		external,
	}, ws.Files())

	require.NoError(t, ws.Cleanup())

	assert.NoFileExists(t, filepath.Join(dir, "dump", "form.json"))
	assert.NoFileExists(t, external)
	assert.FileExists(t, kept.Name())
	assert.Empty(t, ws.Files())

	require.NoError(t, ws.Cleanup(), "second cleanup is a no-op")
}

func TestCleanup_AlreadyClosedAndRemoved(t *testing.T) {
	ws := New(t.TempDir(), nil)

	f, err := ws.Create("x.json", true)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, os.Remove(f.Name()))

	assert.NoError(t, ws.Cleanup())
}

func TestClearDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "differences", "base")
	require.NoError(t, EnsureDir(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.csv"), nil, 0o644))

	require.NoError(t, ClearDir(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
