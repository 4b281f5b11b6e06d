package cleaner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

func TestGroupDuplicatesHashesLargeFilesByContent(t *testing.T) {
	dir := t.TempDir()
	content := make([]byte, duplicateHashThreshold+1)
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "b.bin")
	c := filepath.Join(dir, "c.bin")
	require.NoError(t, os.WriteFile(a, content, 0o644))
	require.NoError(t, os.WriteFile(b, content, 0o644))
	content2 := append([]byte(nil), content...)
	content2[0]++
	require.NoError(t, os.WriteFile(c, content2, 0o644))

	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	files := []models.EnhancedFile{
		{CleanableFile: models.CleanableFile{Path: a, Size: int64(len(content)), LastModified: older}},
		{CleanableFile: models.CleanableFile{Path: b, Size: int64(len(content)), LastModified: newer}},
		{CleanableFile: models.CleanableFile{Path: c, Size: int64(len(content2)), LastModified: newer}},
	}

	groups, recoverable := GroupDuplicates(files)

	require.Len(t, groups, 1)
	assert.Equal(t, a, groups[0].Original, "the older file should be kept as the original")
	assert.Equal(t, []string{b}, groups[0].Duplicates)
	assert.EqualValues(t, len(content), recoverable)
}

func TestGroupDuplicatesGroupsSmallFilesBySizeAndMtime(t *testing.T) {
	mtime := time.Now()
	files := []models.EnhancedFile{
		{CleanableFile: models.CleanableFile{Path: "/a", Size: 100, LastModified: mtime}},
		{CleanableFile: models.CleanableFile{Path: "/b", Size: 100, LastModified: mtime}},
		{CleanableFile: models.CleanableFile{Path: "/c", Size: 200, LastModified: mtime}},
	}

	groups, _ := GroupDuplicates(files)
	require.Len(t, groups, 1)
	assert.ElementsMatch(t, []string{"/a", "/b"}, append([]string{groups[0].Original}, groups[0].Duplicates...))
}

func TestGroupDuplicatesSkipsSingletons(t *testing.T) {
	files := []models.EnhancedFile{
		{CleanableFile: models.CleanableFile{Path: "/unique", Size: 50, LastModified: time.Now()}},
	}
	groups, recoverable := GroupDuplicates(files)
	assert.Empty(t, groups)
	assert.Zero(t, recoverable)
}
