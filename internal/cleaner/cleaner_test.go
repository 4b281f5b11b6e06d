package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

func TestScanEnhancedPopulatesCatalogAndReport(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.log")
	require.NoError(t, os.WriteFile(old, []byte("data"), 0o644))

	c := New([]models.CategoryRule{{Name: "Logs", Paths: []string{dir}, Extensions: []string{".log"}}})
	report, canceled := c.ScanEnhanced(nil, nil)

	require.False(t, canceled)
	require.Len(t, report.EnhancedFiles, 1)
	assert.Len(t, c.CleanableFiles(), 1)
}

func TestPrepareDeletionThenCleanFilesRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	target := filepath.Join(home, "cache.tmp")
	require.NoError(t, os.WriteFile(target, []byte("data"), 0o644))

	c := New([]models.CategoryRule{{Name: "UserCaches", Paths: []string{home}, Safe: true}})
	_, canceled := c.ScanEnhanced(nil, nil)
	require.False(t, canceled)

	validation, accepted := c.PrepareDeletion([]string{target}, true)
	require.Empty(t, validation.Errors)
	require.Equal(t, []string{target}, accepted)
	require.NotEmpty(t, validation.RecoveryPointID)

	result := c.CleanFiles(nil, []string{target}, true, nil)
	assert.Equal(t, 1, result.DeletedCount)
	assert.NotEmpty(t, result.RecoveryPointID)
}

func TestCleanFilesSurfacesBlockedReasonAndPathSeparately(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	protected := filepath.Join(home, "keep.tmp")
	require.NoError(t, os.WriteFile(protected, []byte("data"), 0o644))

	c := New([]models.CategoryRule{{Name: "UserCaches", Paths: []string{home}, Safe: true}})
	_, canceled := c.ScanEnhanced(nil, nil)
	require.False(t, canceled)

	// Force the scored entry into InProtectedLocation so PrepareDeletion
	// rejects it with ErrBlockedSystemCritical, per spec §8 Scenario 3.
	c.mu.Lock()
	ef := c.catalog[protected]
	ef.SafetyMetrics.InProtectedLocation = true
	c.catalog[protected] = ef
	c.mu.Unlock()

	result := c.CleanFiles(nil, []string{protected}, true, nil)

	require.Len(t, result.FailedFiles, 1)
	assert.Equal(t, protected, result.FailedFiles[0].Path)
	assert.Equal(t, "blocked:SystemCritical", result.FailedFiles[0].Reason)
	assert.Equal(t, 1, result.FailedCount)
	assert.Equal(t, 0, result.DeletedCount)
}

func TestRecordFeedbackStoresActionByPath(t *testing.T) {
	c := New(nil)
	assert.NotPanics(t, func() { c.RecordFeedback("/some/path", FeedbackIgnored) })
	assert.Equal(t, FeedbackIgnored, c.feedback["/some/path"])
}
