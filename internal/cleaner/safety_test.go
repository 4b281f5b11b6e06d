package cleaner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

func TestScoreFileProtectedPathIsAlwaysDoNotDelete(t *testing.T) {
	f := models.CleanableFile{
		Path:         "/System/Library/Caches/something",
		Category:     "UserCaches",
		LastModified: time.Now().Add(-72 * time.Hour),
	}
	ef := ScoreFile(f)

	assert.Equal(t, 0, ef.SafetyScore)
	assert.Equal(t, models.DoNotDelete, ef.Recommendation)
	assert.False(t, ef.SafeToDelete)
	assert.False(t, ef.AutoSelect)
	assert.Equal(t, "protected", ef.MacOSStatus)
}

func TestScoreFileSystemComponentIsAlwaysDoNotDelete(t *testing.T) {
	f := models.CleanableFile{
		Path:         "/Users/me/Library/Caches/com.apple.something",
		Category:     "UserCaches",
		LastModified: time.Now().Add(-72 * time.Hour),
	}
	ef := ScoreFile(f)

	assert.Equal(t, 0, ef.SafetyScore)
	assert.Equal(t, models.DoNotDelete, ef.Recommendation)
}

func TestScoreFileRecentlyModifiedIsPenalized(t *testing.T) {
	old := models.CleanableFile{Path: "/Users/me/Library/Caches/app/old", Category: "UserCaches", LastModified: time.Now().Add(-72 * time.Hour)}
	recent := models.CleanableFile{Path: "/Users/me/Library/Caches/app/recent", Category: "UserCaches", LastModified: time.Now()}

	oldEf := ScoreFile(old)
	recentEf := ScoreFile(recent)

	assert.Less(t, recentEf.SafetyScore, oldEf.SafetyScore)
}

func TestScoreFileSensitiveNamePatternIsPenalized(t *testing.T) {
	f := models.CleanableFile{Path: "/Users/me/.ssh/known_hosts.cache", Category: "UserCaches", LastModified: time.Now().Add(-72 * time.Hour)}
	ef := ScoreFile(f)

	assert.Less(t, ef.SafetyScore, categoryBaseScores["UserCaches"])
}

// TestScoreFileOldUserCacheFileIsAutoSelectable covers spec §8 Scenario 1:
// a small, long-untouched UserCaches file must reach auto_select=true end
// to end through ScoreFile, not just through a hand-built EnhancedFile.
func TestScoreFileOldUserCacheFileIsAutoSelectable(t *testing.T) {
	f := models.CleanableFile{
		Path:         "/Users/me/Library/Caches/app/old.bin",
		Category:     "UserCaches",
		Size:         1024,
		LastModified: time.Now().Add(-30 * 24 * time.Hour),
	}
	ef := ScoreFile(f)

	assert.GreaterOrEqual(t, ef.SafetyScore, 95)
	assert.True(t, ef.AutoSelect)
}

func TestScoreFileUnknownCategoryUsesDefaultBaseScore(t *testing.T) {
	f := models.CleanableFile{Path: "/Users/me/Library/Caches/unknown/file", Category: "SomethingNew", LastModified: time.Now().Add(-72 * time.Hour)}
	ef := ScoreFile(f)

	assert.Equal(t, defaultCategoryBaseScore, ef.SafetyMetrics.CategoryBaseScore)
}

func TestAutoSelectRequiresHighScoreSmallSizeAndAge(t *testing.T) {
	base := models.EnhancedFile{
		CleanableFile: models.CleanableFile{
			Size:           10 * 1024 * 1024,
			LastModified:   time.Now().Add(-48 * time.Hour),
			Recommendation: models.SafeToAutoDelete,
			SafetyScore:    97,
		},
	}
	assert.True(t, autoSelect(base))

	tooRecent := base
	tooRecent.LastModified = time.Now()
	assert.False(t, autoSelect(tooRecent))

	lowScore := base
	lowScore.SafetyScore = 80
	assert.False(t, autoSelect(lowScore))

	tooBig := base
	tooBig.Size = 200 * 1024 * 1024
	assert.False(t, autoSelect(tooBig))

	midSizeNotBackedUp := base
	midSizeNotBackedUp.Size = 60 * 1024 * 1024
	midSizeNotBackedUp.BackupStatus = models.BackupUnknown
	assert.False(t, autoSelect(midSizeNotBackedUp))

	midSizeBackedUp := midSizeNotBackedUp
	midSizeBackedUp.BackupStatus = models.BackedUp
	assert.True(t, autoSelect(midSizeBackedUp))
}

func TestAutoSelectReasonsExplainsFailures(t *testing.T) {
	ef := models.EnhancedFile{
		CleanableFile: models.CleanableFile{
			Size:           200 * 1024 * 1024,
			LastModified:   time.Now(),
			Recommendation: models.ReviewRecommended,
			SafetyScore:    40,
		},
	}
	reasons := AutoSelectReasons(ef)

	assert.Contains(t, reasons, "recommendation not safe enough")
	assert.Contains(t, reasons, "safety_score below 95")
	assert.Contains(t, reasons, "size exceeds 100MB")
	assert.Contains(t, reasons, "modified within 24h")
}
