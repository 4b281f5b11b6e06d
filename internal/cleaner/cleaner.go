package cleaner

import (
	"os"
	"sync"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/cleaner/trash"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// FeedbackAction is the user action recorded by record_user_feedback.
type FeedbackAction string

const (
	FeedbackSelected   FeedbackAction = "selected"
	FeedbackDeselected FeedbackAction = "deselected"
	FeedbackIgnored    FeedbackAction = "ignored"
)

// Cleaner is the Storage Cleaner facade: it owns the rule set, the
// directory-size cache, the last scan's catalog (for validate/clean
// round-trips keyed by path), and outstanding recovery points.
type Cleaner struct {
	rules   *RuleSet
	cache   *SizeCache
	scanner *Scanner

	mu       sync.RWMutex
	catalog  map[string]models.EnhancedFile
	recovery map[string]models.RecoveryPoint
	feedback map[string]FeedbackAction
}

// New builds a Cleaner over the given initial rules.
func New(rules []models.CategoryRule) *Cleaner {
	cache := NewSizeCache()
	return &Cleaner{
		rules:    NewRuleSet(rules),
		cache:    cache,
		scanner:  NewScanner(cache),
		catalog:  make(map[string]models.EnhancedFile),
		recovery: make(map[string]models.RecoveryPoint),
		feedback: make(map[string]FeedbackAction),
	}
}

// Rules exposes the RuleSet for hot-reload wiring by the daemon.
func (c *Cleaner) Rules() *RuleSet { return c.rules }

// ScanEnhanced runs scan_cleanable_files_enhanced: parallel traversal,
// layered safety scoring, and report assembly, keeping the result catalog
// available for subsequent prepare_deletion_enhanced/clean_files_enhanced
// calls by path.
func (c *Cleaner) ScanEnhanced(token *registry.Token, onProgress func(filesSeen int64)) (models.EnhancedCleaningReport, bool) {
	result := c.scanner.Scan(token, c.rules.Current(), onProgress)
	if result.Canceled {
		return models.EnhancedCleaningReport{}, true
	}

	enhanced := make([]models.EnhancedFile, 0, len(result.Files))
	catalog := make(map[string]models.EnhancedFile, len(result.Files))
	for _, f := range result.Files {
		ef := ScoreFile(f)
		enhanced = append(enhanced, ef)
		catalog[ef.Path] = ef
	}

	c.mu.Lock()
	c.catalog = catalog
	c.mu.Unlock()

	return BuildReport(result, enhanced), false
}

// CleanableFiles satisfies get_cleanable_files: the base view of the last
// scan's catalog.
func (c *Cleaner) CleanableFiles() []models.CleanableFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.CleanableFile, 0, len(c.catalog))
	for _, f := range c.catalog {
		out = append(out, f.CleanableFile)
	}
	return out
}

// AutoSelectableFiles satisfies get_auto_selectable_files.
func (c *Cleaner) AutoSelectableFiles() []models.CleanableFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	enhanced := make([]models.EnhancedFile, 0, len(c.catalog))
	for _, f := range c.catalog {
		enhanced = append(enhanced, f)
	}
	return AutoSelectable(enhanced)
}

// FilesBySafety satisfies get_files_by_safety.
func (c *Cleaner) FilesBySafety(minSafety int) []models.CleanableFile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	enhanced := make([]models.EnhancedFile, 0, len(c.catalog))
	for _, f := range c.catalog {
		enhanced = append(enhanced, f)
	}
	return BySafety(enhanced, minSafety)
}

// PrepareDeletion satisfies prepare_deletion_enhanced: validates paths
// against the current catalog and records a RecoveryPoint for the
// accepted subset.
func (c *Cleaner) PrepareDeletion(paths []string, allowLowSafety bool) (models.ValidationResult, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	result, rp, accepted := Validate(c.catalog, paths, allowLowSafety)
	if result.RecoveryPointID != "" {
		c.recovery[rp.ID] = rp
	}
	return result, accepted
}

// CleanFiles satisfies clean_files_enhanced: validates then deletes the
// accepted subset, always returning a recovery point id alongside a
// successful destructive operation.
func (c *Cleaner) CleanFiles(token *registry.Token, paths []string, allowLowSafety bool, onProgress func(DeleteProgress)) models.CleaningResult {
	validation, accepted := c.PrepareDeletion(paths, allowLowSafety)
	result := Delete(token, c.cache, accepted, onProgress)
	for _, rejected := range validation.Rejected {
		result.FailedFiles = append(result.FailedFiles, rejected)
		result.FailedCount++
	}
	result.RecoveryPointID = validation.RecoveryPointID
	return result
}

// EmptyTrash satisfies empty_trash.
func (c *Cleaner) EmptyTrash(token *registry.Token) (freed int64, items int, canceled bool) {
	return EmptyTrash(token, c.cache)
}

// RestoreFromTrash satisfies restore_from_trash: moves each named item
// from Trash back to the user's home directory, returning how many
// succeeded.
func (c *Cleaner) RestoreFromTrash(fileNames []string) int {
	home, err := os.UserHomeDir()
	if err != nil {
		return 0
	}
	restored := 0
	for _, name := range fileNames {
		if err := trash.Restore(name, home); err == nil {
			restored++
		}
	}
	return restored
}

// RecordFeedback satisfies record_user_feedback.
func (c *Cleaner) RecordFeedback(path string, action FeedbackAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedback[path] = action
}
