package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempHomeForDelete(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDeleteMovesFilesToTrash(t *testing.T) {
	home := withTempHomeForDelete(t)
	a := filepath.Join(home, "a.tmp")
	b := filepath.Join(home, "sub", "b.tmp")
	require.NoError(t, os.WriteFile(a, []byte("12345"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Dir(b), 0o755))
	require.NoError(t, os.WriteFile(b, []byte("1234567890"), 0o644))

	cache := NewSizeCache()
	result := Delete(nil, cache, []string{a, b}, nil)

	assert.Equal(t, 2, result.DeletedCount)
	assert.Zero(t, result.FailedCount)
	assert.EqualValues(t, 15, result.TotalFreed)
	assert.ElementsMatch(t, []string{a, b}, result.DeletedFiles)

	_, err := os.Stat(a)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteReportsProgressPerParentGroup(t *testing.T) {
	home := withTempHomeForDelete(t)
	a := filepath.Join(home, "dirA", "a.tmp")
	b := filepath.Join(home, "dirB", "b.tmp")
	require.NoError(t, os.MkdirAll(filepath.Dir(a), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(b), 0o755))
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("y"), 0o644))

	var updates []DeleteProgress
	Delete(nil, NewSizeCache(), []string{a, b}, func(p DeleteProgress) { updates = append(updates, p) })

	require.Len(t, updates, 2)
	assert.Equal(t, DeleteProgress{Current: 1, Total: 2}, updates[0])
	assert.Equal(t, DeleteProgress{Current: 2, Total: 2}, updates[1])
}

func TestEmptyTrashRemovesAllEntries(t *testing.T) {
	home := withTempHomeForDelete(t)
	trashDir := filepath.Join(home, ".Trash")
	require.NoError(t, os.MkdirAll(trashDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(trashDir, "item.tmp"), []byte("12345"), 0o644))

	freed, items, canceled := EmptyTrash(nil, NewSizeCache())

	assert.False(t, canceled)
	assert.Equal(t, 1, items)
	assert.EqualValues(t, 5, freed)

	entries, err := os.ReadDir(trashDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
