package cleaner

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// batchSize is the cooperative cancellation check boundary from spec.md
// §4.3/§5: "A cooperative cancellation check runs at each 100-entry batch
// boundary."
const batchSize = 100

// ageBasisCategories use creation (birth) time instead of modification
// time for age comparisons, per spec.md §4.3.
var ageBasisCategories = map[string]bool{"desktop": true, "downloads": true}

// Scanner performs rule-driven parallel filesystem discovery. Grounded on
// the engine's internal/pipeline/pipeline.go multi-stage worker-pool
// pattern (per-stage channels, WaitGroup, context-derived cancellation),
// narrowed here to a single fan-out stage over top-level rule paths.
type Scanner struct {
	cache *SizeCache
}

// NewScanner builds a Scanner backed by cache for directory-size lookups.
func NewScanner(cache *SizeCache) *Scanner { return &Scanner{cache: cache} }

// ScanResult is what Scan returns: matched files from every rule (advanced
// rules included), the non-advanced category names, and the category names
// that are "advanced" (hidden by default, always reported even with zero
// hits).
type ScanResult struct {
	Files              []models.CleanableFile
	Categories         []string
	AdvancedCategories []string
	Canceled           bool
}

// progressFn is called each time a worker finishes walking one top-level
// rule path, with the running total of entries processed so far, so the
// caller can drive registry.ReportProgress/EmitProgress.
type progressFn func(filesSeen int64)

// Scan walks every active path of every rule in rules, matching entries per
// the rule-evaluation algorithm in spec.md §4.3, de-duplicating by
// canonical path across rules, and checking token at each 100-entry batch
// boundary.
func (s *Scanner) Scan(token *registry.Token, rules []models.CategoryRule, onProgress progressFn) ScanResult {
	var seen sync.Map // canonical path -> struct{}
	var mu sync.Mutex
	var files []models.CleanableFile
	categorySet := map[string]bool{}
	advancedSet := map[string]bool{}

	type job struct {
		rule models.CategoryRule
		path string
	}
	var jobs []job
	for _, r := range rules {
		if r.Advanced {
			advancedSet[r.Name] = true
		} else {
			categorySet[r.Name] = true
		}
		for _, p := range ActivePaths(r) {
			jobs = append(jobs, job{rule: r, path: p})
		}
	}

	workers := runtime.NumCPU()
	if workers > len(jobs) && len(jobs) > 0 {
		workers = len(jobs)
	}
	if workers < 1 {
		workers = 1
	}

	jobCh := make(chan job, len(jobs))
	for _, j := range jobs {
		jobCh <- j
	}
	close(jobCh)

	var processed atomic.Int64
	var canceled atomic.Bool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				if canceled.Load() {
					return
				}
				s.walkPath(token, j.rule, j.path, &seen, &processed, &canceled, func(f models.CleanableFile) {
					mu.Lock()
					files = append(files, f)
					mu.Unlock()
				})
				if onProgress != nil {
					onProgress(processed.Load())
				}
			}
		}()
	}
	wg.Wait()

	result := ScanResult{Canceled: canceled.Load()}
	if result.Canceled {
		return result // partial results discarded on cancel, per spec.md §4.3
	}
	result.Files = files
	for c := range categorySet {
		result.Categories = append(result.Categories, c)
	}
	for c := range advancedSet {
		result.AdvancedCategories = append(result.AdvancedCategories, c)
	}
	return result
}

func (s *Scanner) walkPath(token *registry.Token, rule models.CategoryRule, root string, seen *sync.Map, processed *atomic.Int64, canceled *atomic.Bool, emit func(models.CleanableFile)) {
	depth0 := strings.Count(filepath.Clean(root), string(filepath.Separator))
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if canceled.Load() {
			return fs.SkipAll
		}
		n := processed.Add(1)
		if n%batchSize == 0 && token != nil && token.Canceled() {
			canceled.Store(true)
			return fs.SkipAll
		}
		if err != nil {
			return nil // skip unreadable entries, never abort the whole walk
		}
		if rule.MaxDepth > 0 {
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - depth0
			if depth > rule.MaxDepth {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
		}
		if d.IsDir() {
			return nil
		}
		canon, cerr := filepath.Abs(path)
		if cerr != nil {
			canon = path
		}
		if _, loaded := seen.LoadOrStore(canon, struct{}{}); loaded {
			return nil
		}
		info, ierr := d.Info()
		if ierr != nil {
			return nil
		}
		if !matchesRule(rule, path, info) {
			return nil
		}
		size := info.Size()
		emit(models.CleanableFile{
			Path:         path,
			Size:         size,
			Category:     rule.Name,
			LastModified: info.ModTime(),
			SafeToDelete: rule.Safe,
		})
		return nil
	})
}

func matchesRule(rule models.CategoryRule, path string, info os.FileInfo) bool {
	lower := strings.ToLower(path)

	if len(rule.Extensions) > 0 {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		ok := false
		for _, e := range rule.Extensions {
			if strings.ToLower(strings.TrimPrefix(e, ".")) == ext {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if len(rule.RequireSubpaths) > 0 {
		ok := false
		for _, sp := range rule.RequireSubpaths {
			if strings.Contains(lower, strings.ToLower(sp)) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	for _, ex := range rule.Excludes {
		if strings.Contains(lower, strings.ToLower(ex)) {
			return false
		}
	}

	if rule.MinAgeDays > 0 {
		ref := info.ModTime()
		if ageBasisCategories[strings.ToLower(rule.Name)] {
			ref = birthTime(info)
		}
		minAge := time.Duration(rule.MinAgeDays) * 24 * time.Hour
		if time.Since(ref) < minAge {
			return false
		}
	}

	if rule.MinSizeKB > 0 {
		if info.Size() < rule.MinSizeKB*1024 {
			return false
		}
	}

	return true
}

// directorySize computes (with caching) the recursive size of dir.
func (s *Scanner) directorySize(dir string) (int64, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, err
	}
	if cached, ok := s.cache.Get(dir, info.ModTime()); ok {
		return cached, nil
	}
	var total int64
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		fi, ferr := d.Info()
		if ferr != nil {
			return nil
		}
		total += fi.Size()
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.cache.Put(dir, info.ModTime(), total)
	return total, nil
}

// formatBytesMB formats a byte count as megabytes with two decimals.
func formatBytesMB(size int64) string {
	return strconv.FormatFloat(float64(size)/(1024*1024), 'f', 2, 64) + "MB"
}
