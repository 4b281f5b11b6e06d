package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

func TestLoadRulesParsesJSONArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"UserCaches","paths":["/tmp"],"safe":true}]`), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "UserCaches", rules[0].Name)
	assert.True(t, rules[0].Safe)
}

func TestLoadRulesMissingFileErrors(t *testing.T) {
	_, err := LoadRules(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRuleSetCurrentReturnsInitial(t *testing.T) {
	rules := []models.CategoryRule{{Name: "Logs", Paths: []string{"/tmp"}}}
	rs := NewRuleSet(rules)

	assert.Equal(t, rules, rs.Current())
}

func TestExpandHomeExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, ExpandHome("~"))
	assert.Equal(t, filepath.Join(home, "Library/Caches"), ExpandHome("~/Library/Caches"))
	assert.Equal(t, "/absolute/path", ExpandHome("/absolute/path"))
}

func TestActivePathsFiltersToExtantPaths(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "exists")
	require.NoError(t, os.Mkdir(existing, 0o755))
	missing := filepath.Join(dir, "missing")

	rule := models.CategoryRule{Name: "Test", Paths: []string{existing, missing}}
	active := ActivePaths(rule)

	assert.Equal(t, []string{existing}, active)
	assert.True(t, IsActive(rule))
}

func TestIsActiveFalseWhenNoPathExists(t *testing.T) {
	rule := models.CategoryRule{Name: "Test", Paths: []string{filepath.Join(t.TempDir(), "nope")}}
	assert.False(t, IsActive(rule))
}
