// Package config is the daemon's single configuration surface: one struct,
// one Defaults() constructor, loaded from YAML with a JSON rule-file
// side-channel. Grounded on the teacher's engine.Config/Defaults() pattern
// (engine/config.go): a flat struct narrowing every subsystem's knobs into
// one facade-owned value, with a single builder rather than scattered
// package-level defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

// Config is the daemon-wide configuration surface.
type Config struct {
	// Operation Registry & Scheduler
	Permits map[models.OperationClass]int `yaml:"permits"`

	// Telemetry Sampler cadences
	CPUUptimeCadence time.Duration `yaml:"cpu_uptime_cadence"`
	MemoryCadence    time.Duration `yaml:"memory_cadence"`
	DiskCadence      time.Duration `yaml:"disk_cadence"`

	// Storage Cleaner
	RuleFilePath       string        `yaml:"rule_file_path"`
	SizeCacheCapacity  int           `yaml:"size_cache_capacity"`
	SizeCacheTTL       time.Duration `yaml:"size_cache_ttl"`
	RecoveryPointTTL   time.Duration `yaml:"recovery_point_ttl"`

	// Memory Optimizer
	AdminHelperPath    string        `yaml:"admin_helper_path"`
	AdminDeepCleanCeiling time.Duration `yaml:"admin_deep_clean_ceiling"`

	// Ambient stack
	MetricsBackend string `yaml:"metrics_backend"` // "prom" | "otel" | "noop"
	MetricsAddr    string `yaml:"metrics_addr"`
	HealthAddr     string `yaml:"health_addr"`
	LogLevel       string `yaml:"log_level"` // overridden by the RUST_LOG-style env var, spec.md §6
}

// Defaults returns a Config populated with every subsystem's documented
// default, per SPEC_FULL.md §10.
func Defaults() Config {
	return Config{
		Permits: map[models.OperationClass]int{
			models.ClassScan:             1,
			models.ClassClean:            2,
			models.ClassMemOptimize:      1,
			models.ClassMemOptimizeAdmin: 1,
			models.ClassEmptyTrash:       1,
			models.ClassDashboardRefresh: 4,
		},
		CPUUptimeCadence: time.Second,
		MemoryCadence:    5 * time.Second,
		DiskCadence:      30 * time.Second,

		RuleFilePath:      "~/Library/Application Support/optimizerd/rules.json",
		SizeCacheCapacity: 1000,
		SizeCacheTTL:      5 * time.Minute,
		RecoveryPointTTL:  7 * 24 * time.Hour,

		AdminHelperPath:       "/usr/local/libexec/optimizerd-helper",
		AdminDeepCleanCeiling: 20 * time.Minute,

		MetricsBackend: "prom",
		MetricsAddr:    ":2112",
		HealthAddr:     ":8080",
		LogLevel:       "info",
	}
}

// Load reads a YAML file at path, merging it onto Defaults(); a missing
// file is not an error (the daemon runs on defaults alone).
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// LogLevelFromEnv reads the RUST_LOG-style verbosity override named by
// spec.md §6 ("Verbose logging via a RUST_LOG-style variable"), falling
// back to cfg.LogLevel when unset.
func LogLevelFromEnv(cfg Config) string {
	if v := os.Getenv("OPTIMIZERD_LOG"); v != "" {
		return v
	}
	return cfg.LogLevel
}
