package cleaner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

// protectedPathPrefixes are never deletable regardless of user selection,
// per spec.md Invariant (iv).
var protectedPathPrefixes = []string{
	"/System", "/Library/Apple", "/usr", "/bin", "/sbin", "/private/var/db",
}

// sensitiveNamePatterns mark user-protected paths that reduce safety but
// are not automatically system-protected.
var sensitiveNamePatterns = []string{".ssh", ".gnupg", "Keychains", ".aws", ".kube"}

// categoryBaseScores give each rule category a starting point for layer 5
// of the safety scoring algorithm.
var categoryBaseScores = map[string]int{
	"UserCaches":  90,
	"Logs":        85,
	"Downloads":   60,
	"Desktop":     50,
	"Trash":       95,
	"SystemCache": 70,
}

const defaultCategoryBaseScore = 50

// magicSignatures is a tiny set of binary/doc magic-byte prefixes used for
// the lightweight content-cue layer (layer 3).
var magicSignatures = [][]byte{
	{0x25, 0x50, 0x44, 0x46}, // %PDF
	{0x50, 0x4B, 0x03, 0x04}, // ZIP/Office OOXML
	{0x89, 0x50, 0x4E, 0x47}, // PNG
}

// ScoreFile computes the layered safety score and recommendation for a
// single CleanableFile, producing the full EnhancedFile. Grounded on
// spec.md §4.3's five-layer algorithm; XPC-service detection defaults to
// "unknown → do not penalize" per the Open Question in §9.
func ScoreFile(f models.CleanableFile) models.EnhancedFile {
	metrics := models.SafetyMetrics{CategoryBaseScore: categoryBaseScore(f.Category)}

	metrics.InProtectedLocation = isProtectedPath(f.Path)
	metrics.IsSystemComponent = isSystemComponent(f.Path)

	metrics.StaticPatternScore = staticPatternScore(f.Path)
	metrics.UsageScore = usageScore(f.LastModified)
	metrics.ContentCueScore = contentCueScore(f.Path)
	metrics.SystemIntegration = inspectSystemIntegration(f.Path)

	score := clampScore(metrics.CategoryBaseScore + metrics.StaticPatternScore + metrics.UsageScore + metrics.ContentCueScore)
	if metrics.InProtectedLocation || metrics.IsSystemComponent {
		score = 0
	}

	rec := recommendationFor(score, metrics)
	safe := !metrics.InProtectedLocation && !metrics.IsSystemComponent && rec != models.DoNotDelete

	ef := models.EnhancedFile{
		CleanableFile:   f,
		SafetyMetrics:   metrics,
		CacheValidation: metrics.SystemIntegration,
		MacOSStatus:     macOSStatusLabel(metrics),
		ValidationState: "scored",
		BackupStatus:    backupStatusFor(f, metrics),
	}
	ef.SafetyScore = score
	ef.SafeToDelete = safe
	ef.Recommendation = rec
	ef.AutoSelect = autoSelect(ef)
	ef.AutoSelectScore = score
	return ef
}

func categoryBaseScore(category string) int {
	if v, ok := categoryBaseScores[category]; ok {
		return v
	}
	return defaultCategoryBaseScore
}

func isProtectedPath(path string) bool {
	for _, prefix := range protectedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isSystemComponent(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "com.apple.") || strings.HasSuffix(base, ".kext")
}

func staticPatternScore(path string) int {
	lower := strings.ToLower(path)
	for _, pattern := range sensitiveNamePatterns {
		if strings.Contains(lower, strings.ToLower(pattern)) {
			return -40
		}
	}
	return 0
}

// usageScore penalizes files modified within the last 24h and rewards
// files that have sat untouched long enough to be confidently stale (layer
// 2 of the scoring; age is the positive signal that lets an old cache file
// reach auto_select). Only the modification time is used; access time is
// not read.
func usageScore(lastModified time.Time) int {
	age := time.Since(lastModified)
	switch {
	case age < 24*time.Hour:
		return -20
	case age < 7*24*time.Hour:
		return 0
	case age < 30*24*time.Hour:
		return 5
	default:
		return 10
	}
}

func contentCueScore(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	buf := make([]byte, 8)
	n, _ := f.Read(buf)
	buf = buf[:n]
	for _, sig := range magicSignatures {
		if bytes.HasPrefix(buf, sig) {
			return -5 // recognizable document/binary formats are treated with slightly more caution
		}
	}
	return 0
}

// inspectSystemIntegration fills the system-integration layer without
// running any OS probe: Spotlight, Time Machine, iCloud and Launch Services
// are all reported false, and ActiveXPCService is left nil ("unknown") so
// it never penalizes safety. The layer does not change the safety score.
func inspectSystemIntegration(path string) models.CacheValidationState {
	return models.CacheValidationState{
		SpotlightIndexed:         false,
		TimeMachineCovered:       false,
		ICloudSynced:             false,
		LaunchServicesRegistered: false,
		ActiveXPCService:         nil,
	}
}

func recommendationFor(score int, m models.SafetyMetrics) models.SafetyRecommendation {
	switch {
	case m.InProtectedLocation || m.IsSystemComponent:
		return models.DoNotDelete
	case score >= 90:
		return models.SafeToAutoDelete
	case score >= 75:
		return models.SafeWithUserConfirmation
	case score >= 50:
		return models.ReviewRecommended
	case score >= 25:
		return models.CautionAdvised
	default:
		return models.DoNotDelete
	}
}

func macOSStatusLabel(m models.SafetyMetrics) string {
	if m.InProtectedLocation {
		return "protected"
	}
	if m.IsSystemComponent {
		return "system_component"
	}
	return "user_data"
}

func backupStatusFor(f models.CleanableFile, m models.SafetyMetrics) models.BackupStatus {
	if m.SystemIntegration.TimeMachineCovered {
		return models.BackedUp
	}
	return models.BackupUnknown
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// autoSelect enforces spec.md §4.3's auto-selection criteria: all of
// recommendation ∈ {SafeToAutoDelete, SafeWithUserConfirmation},
// safety_score ≥ 95, size ≤ 100MB, age ≥ 24h, and if size > 50MB,
// backup_status == BackedUp.
func autoSelect(ef models.EnhancedFile) bool {
	if ef.Recommendation != models.SafeToAutoDelete && ef.Recommendation != models.SafeWithUserConfirmation {
		return false
	}
	if ef.SafetyScore < 95 {
		return false
	}
	const hundredMB = 100 * 1024 * 1024
	if ef.Size > hundredMB {
		return false
	}
	if time.Since(ef.LastModified) < 24*time.Hour {
		return false
	}
	const fiftyMB = 50 * 1024 * 1024
	if ef.Size > fiftyMB && ef.BackupStatus != models.BackedUp {
		return false
	}
	return true
}

// AutoSelectReasons explains why a candidate failed auto-selection, for
// surfacing human-readable reasons per spec.md §4.3.
func AutoSelectReasons(ef models.EnhancedFile) []string {
	var reasons []string
	if ef.Recommendation != models.SafeToAutoDelete && ef.Recommendation != models.SafeWithUserConfirmation {
		reasons = append(reasons, "recommendation not safe enough")
	}
	if ef.SafetyScore < 95 {
		reasons = append(reasons, "safety_score below 95")
	}
	if ef.Size > 100*1024*1024 {
		reasons = append(reasons, "size exceeds 100MB")
	}
	if time.Since(ef.LastModified) < 24*time.Hour {
		reasons = append(reasons, "modified within 24h")
	}
	if ef.Size > 50*1024*1024 && ef.BackupStatus != models.BackedUp {
		reasons = append(reasons, "not backed up and over 50MB")
	}
	return reasons
}
