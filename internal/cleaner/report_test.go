package cleaner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

func TestBuildReportAggregatesTotalsAndSummaries(t *testing.T) {
	scan := ScanResult{Categories: []string{"UserCaches"}, AdvancedCategories: []string{"Hidden"}}
	enhanced := []models.EnhancedFile{
		{CleanableFile: models.CleanableFile{Category: "UserCaches", Size: 100, Recommendation: models.SafeToAutoDelete}},
		{CleanableFile: models.CleanableFile{Category: "UserCaches", Size: 50, Recommendation: models.ReviewRecommended}},
		{CleanableFile: models.CleanableFile{Category: "Logs", Size: 10, Recommendation: models.SafeToAutoDelete}},
	}

	report := BuildReport(scan, enhanced)

	assert.EqualValues(t, 160, report.TotalSize)
	assert.Equal(t, 3, report.FilesCount)
	assert.Equal(t, 2, report.SafetySummary[models.SafeToAutoDelete])
	assert.Equal(t, 1, report.SafetySummary[models.ReviewRecommended])
	require.Len(t, report.CategorySummaries, 2)
}

func TestAutoSelectableFiltersByFlag(t *testing.T) {
	enhanced := []models.EnhancedFile{
		{CleanableFile: models.CleanableFile{Path: "/a", AutoSelect: true}},
		{CleanableFile: models.CleanableFile{Path: "/b", AutoSelect: false}},
	}
	out := AutoSelectable(enhanced)
	require.Len(t, out, 1)
	assert.Equal(t, "/a", out[0].Path)
}

func TestBySafetyFiltersByMinimumScore(t *testing.T) {
	enhanced := []models.EnhancedFile{
		{CleanableFile: models.CleanableFile{Path: "/high", SafetyScore: 90}},
		{CleanableFile: models.CleanableFile{Path: "/low", SafetyScore: 40}},
	}
	out := BySafety(enhanced, 60)
	require.Len(t, out, 1)
	assert.Equal(t, "/high", out[0].Path)
}
