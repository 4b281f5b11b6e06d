package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
}

func TestLoadMergesOntoDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metrics_backend: otel\nhealth_addr: \":9999\"\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "otel", cfg.MetricsBackend)
	assert.Equal(t, ":9999", cfg.HealthAddr)
	// everything untouched by the override file stays at its default.
	assert.Equal(t, Defaults().Permits[models.ClassScan], cfg.Permits[models.ClassScan])
	assert.Equal(t, Defaults().AdminHelperPath, cfg.AdminHelperPath)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLogLevelFromEnvOverridesConfig(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "info"

	t.Setenv("OPTIMIZERD_LOG", "debug")
	assert.Equal(t, "debug", LogLevelFromEnv(cfg))
}

func TestLogLevelFromEnvFallsBackToConfig(t *testing.T) {
	cfg := Defaults()
	cfg.LogLevel = "warn"

	t.Setenv("OPTIMIZERD_LOG", "")
	assert.Equal(t, "warn", LogLevelFromEnv(cfg))
}
