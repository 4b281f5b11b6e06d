// Package models holds the shared data types that flow between the
// registry, cleaner, memory optimizer and telemetry sampler.
package models

import "time"

// OperationClass selects which semaphore gates an operation.
type OperationClass string

const (
	ClassScan              OperationClass = "Scan"
	ClassClean             OperationClass = "Clean"
	ClassEmptyTrash        OperationClass = "EmptyTrash"
	ClassMemOptimize       OperationClass = "MemOptimize"
	ClassMemOptimizeAdmin  OperationClass = "MemOptimizeAdmin"
	ClassDashboardRefresh  OperationClass = "DashboardRefresh"
)

// OperationStatus is the terminal/non-terminal status of an operation.
type OperationStatus string

const (
	StatusPending   OperationStatus = "Pending"
	StatusRunning   OperationStatus = "Running"
	StatusCompleted OperationStatus = "Completed"
	StatusCanceled  OperationStatus = "Canceled"
	StatusFailed    OperationStatus = "Failed"
)

// Throughput reports optional rate measurements for an in-flight operation.
type Throughput struct {
	FilesPerSecond float64 `json:"files_per_s,omitempty"`
	MBPerSecond    float64 `json:"mb_per_s,omitempty"`
}

// OperationState is the externally-readable view of a registered operation.
// It is mutated only by the owning worker.
type OperationState struct {
	ID          string          `json:"id"`
	Class       OperationClass  `json:"class"`
	StartedAt   time.Time       `json:"started_at"`
	Stage       string          `json:"stage"`
	Progress    float64         `json:"progress"`
	ETAMillis   *int64          `json:"eta_ms,omitempty"`
	Throughput  *Throughput     `json:"throughput,omitempty"`
	Status      OperationStatus `json:"status"`
	Cancellable bool            `json:"cancellable"`
}

// SafetyRecommendation is the outcome of the cleaner's layered safety scoring.
type SafetyRecommendation string

const (
	SafeToAutoDelete         SafetyRecommendation = "SafeToAutoDelete"
	SafeWithUserConfirmation SafetyRecommendation = "SafeWithUserConfirmation"
	ReviewRecommended        SafetyRecommendation = "ReviewRecommended"
	CautionAdvised           SafetyRecommendation = "CautionAdvised"
	DoNotDelete              SafetyRecommendation = "DoNotDelete"
)

// BackupStatus records whether a file is known to be covered by Time
// Machine (or an equivalent) backup. Supplements spec.md's auto-select
// criterion, which references backup_status without defining its shape.
type BackupStatus string

const (
	BackupUnknown   BackupStatus = "Unknown"
	BackedUp        BackupStatus = "BackedUp"
	BackupNotCovered BackupStatus = "NotBackedUp"
)

// CleanableFile is a single scan result.
type CleanableFile struct {
	Path         string               `json:"path"`
	Size         int64                `json:"size"`
	Category     string               `json:"category"`
	Description  string               `json:"description"`
	LastModified time.Time            `json:"last_modified"`
	SafeToDelete bool                 `json:"safe_to_delete"`
	SafetyScore  int                  `json:"safety_score"`
	AutoSelect   bool                 `json:"auto_select"`
	Recommendation SafetyRecommendation `json:"recommendation"`
}

// CategoryRule is a JSON-loaded classification rule.
type CategoryRule struct {
	Name            string   `json:"name" yaml:"name"`
	Paths           []string `json:"paths" yaml:"paths"`
	Safe            bool     `json:"safe" yaml:"safe"`
	Advanced        bool     `json:"advanced,omitempty" yaml:"advanced,omitempty"`
	MaxDepth        int      `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	MinAgeDays      int      `json:"min_age_days,omitempty" yaml:"min_age_days,omitempty"`
	MinSizeKB       int64    `json:"min_size_kb,omitempty" yaml:"min_size_kb,omitempty"`
	Excludes        []string `json:"excludes,omitempty" yaml:"excludes,omitempty"`
	Extensions      []string `json:"extensions,omitempty" yaml:"extensions,omitempty"`
	RequireSubpaths []string `json:"require_subpaths,omitempty" yaml:"require_subpaths,omitempty"`
}

// CacheValidationState captures the system-integration layer of safety
// scoring. ActiveXPCService is a pointer so "unknown" (nil) is
// distinguishable from "known false", per the spec's Open Question: unknown
// XPC status must never penalize safety.
type CacheValidationState struct {
	SpotlightIndexed         bool
	TimeMachineCovered       bool
	ICloudSynced             bool
	LaunchServicesRegistered bool
	ActiveXPCService         *bool
}

// SafetyMetrics is the full layered-scoring breakdown behind a safety_score.
type SafetyMetrics struct {
	StaticPatternScore int
	UsageScore         int
	ContentCueScore    int
	SystemIntegration  CacheValidationState
	CategoryBaseScore  int
	InProtectedLocation bool
	IsSystemComponent   bool
}

// EnhancedFile is CleanableFile plus the full safety breakdown.
type EnhancedFile struct {
	CleanableFile
	SafetyMetrics    SafetyMetrics
	CacheValidation  CacheValidationState
	AutoSelectScore  int
	MacOSStatus      string
	ValidationState  string
	BackupStatus     BackupStatus
	ContentHash      string // not filled in by the scan; duplicate hashes are reported in DuplicateGroup.Hash
}

// CategorySummary aggregates CleanableFiles sharing a category.
type CategorySummary struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	Size     int64  `json:"size"`
}

// DuplicateGroup is a set of files judged to be duplicates: files of 1MB or
// more by identical SHA-256 content hash, smaller files by equal size and
// mtime (Hash is then "equiv"). Original is excluded from Duplicates and is
// never counted toward recoverable space.
type DuplicateGroup struct {
	Hash       string   `json:"hash"`
	Original   string   `json:"original"`
	Duplicates []string `json:"duplicates"`
	Size       int64    `json:"size"`
}

// EnhancedCleaningReport is the result of scan_cleanable_files_enhanced.
type EnhancedCleaningReport struct {
	TotalSize               int64             `json:"total_size"`
	FilesCount              int               `json:"files_count"`
	Categories              []string          `json:"categories"`
	AdvancedCategories      []string          `json:"advanced_categories"`
	EnhancedFiles           []EnhancedFile    `json:"enhanced_files"`
	CategorySummaries       []CategorySummary `json:"category_summaries"`
	SafetySummary           map[SafetyRecommendation]int `json:"safety_summary"`
	DuplicateGroups         []DuplicateGroup  `json:"duplicate_groups"`
	DuplicateSpaceRecoverable int64           `json:"duplicate_space_recoverable"`
}

// FailedFile pairs a path with why deletion did not happen.
type FailedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// CleaningResult is the result of clean_files_enhanced.
type CleaningResult struct {
	DeletedCount     int          `json:"deleted_count"`
	FailedCount      int          `json:"failed_count"`
	TotalFreed       int64        `json:"total_freed"`
	DeletedFiles     []string     `json:"deleted_files"`
	FailedFiles      []FailedFile `json:"failed_files"`
	RecoveryPointID  string       `json:"recovery_point_id,omitempty"`
}

// RecoveryItem is a single file's metadata captured before deletion.
type RecoveryItem struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Category  string    `json:"category"`
	RemovedAt time.Time `json:"removed_at"`
	TrashPath string    `json:"trash_path,omitempty"`
}

// RecoveryPoint is created during pre-deletion validation so a destructive
// action can be reviewed (and, in principle, restored) after the fact.
type RecoveryPoint struct {
	ID        string         `json:"id"`
	Items     []RecoveryItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// ValidationResult is returned by prepare_deletion_enhanced. Errors carries
// human-readable "path: reason" messages for display; Rejected carries the
// same rejections with path and reason kept as separate fields so callers
// (clean_files_enhanced's failed_files) don't have to re-parse a string.
type ValidationResult struct {
	Errors          []string     `json:"errors"`
	Rejected        []FailedFile `json:"rejected,omitempty"`
	Warnings        []string     `json:"warnings"`
	RecoveryPointID string       `json:"recovery_point_id,omitempty"`
}

// PressureState categorizes MemoryStats.PressurePercent.
type PressureState string

const (
	PressureNormal   PressureState = "Normal"
	PressureWarning  PressureState = "Warning"
	PressureCritical PressureState = "Critical"
)

// MemoryStats is a single memory snapshot. All sizes are in bytes unless
// noted as percent.
type MemoryStats struct {
	Total            uint64        `json:"total"`
	Used             uint64        `json:"used"`
	Available        uint64        `json:"available"`
	Free             uint64        `json:"free"`
	Active           uint64        `json:"active"`
	Inactive         uint64        `json:"inactive"`
	Wired            uint64        `json:"wired"`
	Compressed       uint64        `json:"compressed"`
	SwapTotal        uint64        `json:"swap_total"`
	SwapUsed         uint64        `json:"swap_used"`
	PressurePercent  float64       `json:"pressure_percent"`
	PressureState    PressureState `json:"pressure_state"`
}

// CPUStats is a single CPU snapshot.
type CPUStats struct {
	TotalUsage float64 `json:"total_usage"`
	CoreCount  int     `json:"core_count"`
}

// DiskStats is a single volume snapshot.
type DiskStats struct {
	Mount      string `json:"mount"`
	TotalSpace uint64 `json:"total_space"`
	UsedSpace  uint64 `json:"used_space"`
	IsSystem   bool   `json:"is_system"`
}

// UptimeStats is a single uptime snapshot.
type UptimeStats struct {
	UptimeSeconds uint64    `json:"uptime_seconds"`
	BootTime      time.Time `json:"boot_time"`
}

// ProcessInfo describes one running process for the Processes view.
type ProcessInfo struct {
	PID         int32   `json:"pid"`
	Name        string  `json:"name"`
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage uint64  `json:"memory_usage"`
}

// MemoryOptimizationResult is the contract returned by both the safe and
// admin memory-optimization operations.
type MemoryOptimizationResult struct {
	OptimizationType       string      `json:"optimization_type"` // "safe" | "admin"
	Success                bool        `json:"success"`
	Canceled               bool        `json:"canceled"`
	MemoryBefore           MemoryStats `json:"memory_before"`
	MemoryAfter            MemoryStats `json:"memory_after"`
	FreedMemory            uint64      `json:"freed_memory"`
	OptimizationsPerformed []string    `json:"optimizations_performed"`
	Message                string      `json:"message"`
}

// FreedMemory computes max(0, before.Used - after.Used) per spec.md §4.4.
func FreedMemory(before, after MemoryStats) uint64 {
	if after.Used >= before.Used {
		return 0
	}
	return before.Used - after.Used
}
