package cleaner

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/cleaner/trash"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// DeleteProgress is reported to the caller after each sub-batch (one
// parent-directory group), mirroring rosia-cli's CleanProgress shape.
type DeleteProgress struct {
	Current int
	Total   int
}

// Delete performs Trash-first deletion over paths, grouped by parent
// directory, falling back to direct removal only within the user's home.
// Grounded on rosia-cli's internal/cleaner/cleaner.go Clean/CleanAsync:
// per-item canDelete pre-check, Trash-then-fallback ordering, accumulation
// into deleted/failed lists, and sub-batch progress reporting.
func Delete(token *registry.Token, cache *SizeCache, paths []string, onProgress func(DeleteProgress)) models.CleaningResult {
	groups := groupByParent(paths)
	home, _ := os.UserHomeDir()

	var result models.CleaningResult
	total := len(groups)
	for i, group := range groups {
		if token != nil && token.Canceled() {
			for _, p := range group {
				result.FailedFiles = append(result.FailedFiles, models.FailedFile{Path: p, Reason: "canceled"})
				result.FailedCount++
			}
			continue
		}
		for _, p := range group {
			size := fileSize(p)
			if _, err := trash.Move(p); err != nil {
				if errors.Is(err, trash.ErrCrossVolume) && withinHome(p, home) {
					if rmErr := os.RemoveAll(p); rmErr != nil {
						result.FailedFiles = append(result.FailedFiles, models.FailedFile{Path: p, Reason: "direct_remove_failed"})
						result.FailedCount++
						continue
					}
				} else {
					result.FailedFiles = append(result.FailedFiles, models.FailedFile{Path: p, Reason: "trash_failed"})
					result.FailedCount++
					continue
				}
			}
			result.DeletedFiles = append(result.DeletedFiles, p)
			result.DeletedCount++
			result.TotalFreed += size
			if cache != nil {
				cache.Invalidate(p)
			}
		}
		if onProgress != nil {
			onProgress(DeleteProgress{Current: i + 1, Total: total})
		}
	}
	return result
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

func withinHome(path, home string) bool {
	if home == "" {
		return false
	}
	rel, err := filepath.Rel(home, path)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}

func groupByParent(paths []string) [][]string {
	byParent := map[string][]string{}
	for _, p := range paths {
		parent := filepath.Dir(p)
		byParent[parent] = append(byParent[parent], p)
	}
	parents := make([]string, 0, len(byParent))
	for p := range byParent {
		parents = append(parents, p)
	}
	sort.Strings(parents)
	groups := make([][]string, 0, len(parents))
	for _, p := range parents {
		files := byParent[p]
		sort.Strings(files)
		groups = append(groups, files)
	}
	return groups
}

// EmptyTrash enumerates the user's Trash directory, totals sizes, and
// removes contents under cooperative cancellation (spec.md §4.3). Parent
// directory sizes are invalidated in cache.
func EmptyTrash(token *registry.Token, cache *SizeCache) (freedBytes int64, itemsRemoved int, canceled bool) {
	dir, err := trash.Dir()
	if err != nil {
		return 0, 0, false
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, false
	}
	for i, entry := range entries {
		if i%batchSize == 0 && token != nil && token.Canceled() {
			return freedBytes, itemsRemoved, true
		}
		full := filepath.Join(dir, entry.Name())
		var size int64
		if info, ierr := entry.Info(); ierr == nil {
			size = dirOrFileSize(full, info)
		}
		if err := os.RemoveAll(full); err == nil {
			freedBytes += size
			itemsRemoved++
			if cache != nil {
				cache.Invalidate(full)
			}
		}
	}
	return freedBytes, itemsRemoved, false
}

func dirOrFileSize(path string, info os.FileInfo) int64 {
	if !info.IsDir() {
		return info.Size()
	}
	var total int64
	_ = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err == nil && !fi.IsDir() {
			total += fi.Size()
		}
		return nil
	})
	return total
}
