// Package cleaner implements the Storage Cleaner: rule-driven parallel
// scanning, layered safety scoring, duplicate detection, pre-deletion
// validation and Trash-first deletion.
package cleaner

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

// RuleSet holds the currently loaded CategoryRules. Whether a rule is
// "active" (at least one configured path exists on disk) is not stored
// here; ActivePaths and IsActive compute it on demand.
type RuleSet struct {
	rules atomic.Pointer[[]models.CategoryRule]
}

// LoadRules parses a JSON array of CategoryRule from path.
func LoadRules(path string) ([]models.CategoryRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rules []models.CategoryRule
	if err := json.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// NewRuleSet builds a RuleSet from an initial load.
func NewRuleSet(initial []models.CategoryRule) *RuleSet {
	rs := &RuleSet{}
	cp := append([]models.CategoryRule(nil), initial...)
	rs.rules.Store(&cp)
	return rs
}

// Current returns the active rule slice.
func (rs *RuleSet) Current() []models.CategoryRule {
	p := rs.rules.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Watch hot-reloads the rule file on change via fsnotify, atomically
// swapping the rule slice after re-validating it parses. Grounded on the
// engine's direct fsnotify dependency, repurposed here from crawl-config
// hot-reload to the CategoryRule JSON file, per SPEC_FULL.md §6.
func (rs *RuleSet) Watch(path string, onErr func(error)) (io interface{ Close() error }, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				rules, err := LoadRules(path)
				if err != nil {
					if onErr != nil {
						onErr(err)
					}
					continue
				}
				cp := append([]models.CategoryRule(nil), rules...)
				rs.rules.Store(&cp)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if onErr != nil {
					onErr(err)
				}
			}
		}
	}()
	return watcher, nil
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return home
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ActivePaths returns the subset of r.Paths (expanded) that exist on disk.
// A rule is active iff at least one configured path exists at runtime.
func ActivePaths(r models.CategoryRule) []string {
	var active []string
	for _, p := range r.Paths {
		ep := ExpandHome(p)
		if _, err := os.Stat(ep); err == nil {
			active = append(active, ep)
		}
	}
	return active
}

// IsActive reports whether r has at least one extant configured path.
func IsActive(r models.CategoryRule) bool { return len(ActivePaths(r)) > 0 }
