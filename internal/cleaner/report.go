package cleaner

import "github.com/LuciferMornens/macos-optimizer-beta/internal/models"

// BuildReport assembles the EnhancedCleaningReport from a scored file set,
// per spec.md §3/§4.3.
func BuildReport(scan ScanResult, enhanced []models.EnhancedFile) models.EnhancedCleaningReport {
	report := models.EnhancedCleaningReport{
		Categories:         scan.Categories,
		AdvancedCategories: scan.AdvancedCategories,
		EnhancedFiles:      enhanced,
		SafetySummary:      map[models.SafetyRecommendation]int{},
	}

	bySummary := map[string]*models.CategorySummary{}
	for _, f := range enhanced {
		report.TotalSize += f.Size
		report.FilesCount++
		report.SafetySummary[f.Recommendation]++

		sum, ok := bySummary[f.Category]
		if !ok {
			sum = &models.CategorySummary{Category: f.Category}
			bySummary[f.Category] = sum
		}
		sum.Count++
		sum.Size += f.Size
	}
	for _, s := range bySummary {
		report.CategorySummaries = append(report.CategorySummaries, *s)
	}

	groups, recoverable := GroupDuplicates(enhanced)
	report.DuplicateGroups = groups
	report.DuplicateSpaceRecoverable = recoverable

	return report
}

// AutoSelectable filters enhanced files down to those with AutoSelect set.
func AutoSelectable(enhanced []models.EnhancedFile) []models.CleanableFile {
	var out []models.CleanableFile
	for _, f := range enhanced {
		if f.AutoSelect {
			out = append(out, f.CleanableFile)
		}
	}
	return out
}

// BySafety filters enhanced files down to those at or above minSafety.
func BySafety(enhanced []models.EnhancedFile, minSafety int) []models.CleanableFile {
	var out []models.CleanableFile
	for _, f := range enhanced {
		if f.SafetyScore >= minSafety {
			out = append(out, f.CleanableFile)
		}
	}
	return out
}
