// Package daemon assembles the Operation Registry, Telemetry Sampler,
// Storage Cleaner and Memory Optimizer into the command surface named in
// spec.md §6. Every long-running, cancellable command goes through the
// registry's Register/Acquire/Emit* lifecycle and publishes its lifecycle
// and progress events on the event bus while it runs (SPEC_FULL.md §9);
// quick synchronous reads and writes bypass the registry entirely,
// matching the Open Question's "pick one per command" resolution.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/cleaner"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/memopt"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/telemetry"
)

// Daemon is the backend facade: one struct owning every subsystem,
// grounded on the teacher's Engine facade (engine.go) shape — a single
// entry point hiding the registry, bus, and per-subsystem workers behind
// named methods.
type Daemon struct {
	Registry    *registry.Registry
	Sampler     *telemetry.Sampler
	Cleaner     *cleaner.Cleaner
	Optimizer   *memopt.Optimizer
	DeepCleaner *memopt.AdminDeepCleaner
	Logger      *slog.Logger
}

// New builds a Daemon over already-constructed subsystems.
func New(reg *registry.Registry, sampler *telemetry.Sampler, clnr *cleaner.Cleaner, optimizer *memopt.Optimizer, deepCleaner *memopt.AdminDeepCleaner, logger *slog.Logger) *Daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &Daemon{Registry: reg, Sampler: sampler, Cleaner: clnr, Optimizer: optimizer, DeepCleaner: deepCleaner, Logger: logger}
}

// Ack identifies the registry operation behind a long-running command. The
// command methods return it together with their result once the operation
// has reached its terminal event; while the operation runs, other callers
// follow it on the event bus (or via GetOperationState) and can cancel it
// by id.
type Ack struct {
	OperationID string
	Token       *registry.Token
}

// --- Telemetry: quick synchronous reads, not registry-tracked ---

func (d *Daemon) GetMetricsSnapshot() telemetry.MetricsSnapshot { return d.Sampler.Snapshot() }

func (d *Daemon) GetSystemInfo() (osName, osVersion, hostname string, uptime time.Duration, bootTime time.Time, err error) {
	return d.Sampler.SystemInfo()
}

func (d *Daemon) GetMemoryStats() (models.MemoryStats, bool) { return d.Sampler.MemoryStats() }

func (d *Daemon) GetCPUInfo() models.CPUStats { return d.Sampler.Snapshot().CPU.Value }

func (d *Daemon) GetDisks() []models.DiskStats { return d.Sampler.Snapshot().Disks.Value }

func (d *Daemon) GetProcesses(ctx context.Context) ([]models.ProcessInfo, error) {
	return telemetry.Processes(ctx)
}

func (d *Daemon) KillProcess(ctx context.Context, pid int32) error {
	return telemetry.KillProcess(ctx, pid)
}

// --- Storage Cleaner: scan/clean/empty_trash are long-running and
// registry-tracked; the rest are quick catalog reads/writes. ---

// ScanCleanableFilesEnhanced runs scan_cleanable_files_enhanced under the
// Scan class and returns when the scan has finished. Progress and the
// terminal event are published on the event bus as it runs; the report
// itself is returned only here and is not carried by any event.
func (d *Daemon) ScanCleanableFilesEnhanced(ctx context.Context) (Ack, models.EnhancedCleaningReport, error) {
	id, token := d.Registry.Register(models.ClassScan)
	if err := d.Registry.Acquire(ctx, id); err != nil {
		return Ack{OperationID: id, Token: token}, models.EnhancedCleaningReport{}, err
	}
	d.Registry.EmitStart(id, nil)

	var seen int64
	report, canceled := d.Cleaner.ScanEnhanced(token, func(filesSeen int64) {
		seen = filesSeen
		eta, tp := d.Registry.ReportProgress(id, filesSeen, 0, 0, 0)
		d.Registry.EmitProgress(id, 0, "scanning", "scan", true, eta, tp)
	})
	_ = seen
	d.Registry.EmitComplete(id, !canceled, canceled, "scan finished")
	return Ack{OperationID: id, Token: token}, report, nil
}

func (d *Daemon) GetCleanableFiles() []models.CleanableFile { return d.Cleaner.CleanableFiles() }

func (d *Daemon) GetAutoSelectableFiles() []models.CleanableFile {
	return d.Cleaner.AutoSelectableFiles()
}

func (d *Daemon) GetFilesBySafety(minSafety int) []models.CleanableFile {
	return d.Cleaner.FilesBySafety(minSafety)
}

func (d *Daemon) PrepareDeletionEnhanced(paths []string, allowLowSafety bool) (models.ValidationResult, []string) {
	return d.Cleaner.PrepareDeletion(paths, allowLowSafety)
}

// CleanFilesEnhanced starts clean_files_enhanced under the Clean class.
func (d *Daemon) CleanFilesEnhanced(ctx context.Context, paths []string, allowLowSafety bool) (Ack, models.CleaningResult, error) {
	id, token := d.Registry.Register(models.ClassClean)
	if err := d.Registry.Acquire(ctx, id); err != nil {
		return Ack{OperationID: id, Token: token}, models.CleaningResult{}, err
	}
	d.Registry.EmitStart(id, nil)

	result := d.Cleaner.CleanFiles(token, paths, allowLowSafety, func(p cleaner.DeleteProgress) {
		progress := 0.0
		if p.Total > 0 {
			progress = float64(p.Current) / float64(p.Total)
		}
		d.Registry.EmitProgress(id, progress, "deleting", "clean", true, nil, nil)
	})
	d.Registry.EmitComplete(id, result.FailedCount == 0, token.Canceled(), "clean finished")
	return Ack{OperationID: id, Token: token}, result, nil
}

// EmptyTrash starts empty_trash under the EmptyTrash class.
func (d *Daemon) EmptyTrash(ctx context.Context) (Ack, int64, int, error) {
	id, token := d.Registry.Register(models.ClassEmptyTrash)
	if err := d.Registry.Acquire(ctx, id); err != nil {
		return Ack{OperationID: id, Token: token}, 0, 0, err
	}
	d.Registry.EmitStart(id, nil)
	freed, items, canceled := d.Cleaner.EmptyTrash(token)
	d.Registry.EmitComplete(id, true, canceled, "trash emptied")
	return Ack{OperationID: id, Token: token}, freed, items, nil
}

func (d *Daemon) RestoreFromTrash(fileNames []string) int { return d.Cleaner.RestoreFromTrash(fileNames) }

func (d *Daemon) RecordUserFeedback(path string, action cleaner.FeedbackAction) {
	d.Cleaner.RecordFeedback(path, action)
}

// --- Memory Optimizer ---

// OptimizeMemory starts optimize_memory() under the MemOptimize class.
func (d *Daemon) OptimizeMemory(ctx context.Context) (Ack, models.MemoryOptimizationResult, error) {
	id, token := d.Registry.Register(models.ClassMemOptimize)
	if err := d.Registry.Acquire(ctx, id); err != nil {
		return Ack{OperationID: id, Token: token}, models.MemoryOptimizationResult{}, err
	}
	d.Registry.EmitStart(id, nil)
	result := d.Optimizer.OptimizeSafe(token, samplerAdapter{d.Sampler})
	d.Registry.EmitComplete(id, result.Success, result.Canceled, result.Message)
	return Ack{OperationID: id, Token: token}, result, nil
}

// OptimizeMemoryAdmin starts optimize_memory_admin() under the
// MemOptimizeAdmin class, with a hard ceiling enforced inside
// registry.StartChild.
func (d *Daemon) OptimizeMemoryAdmin(ctx context.Context) (Ack, models.MemoryOptimizationResult, error) {
	id, token := d.Registry.Register(models.ClassMemOptimizeAdmin)
	if err := d.Registry.Acquire(ctx, id); err != nil {
		return Ack{OperationID: id, Token: token}, models.MemoryOptimizationResult{}, err
	}
	d.Registry.EmitStart(id, nil)
	result := d.DeepCleaner.Run(token, samplerAdapter{d.Sampler},
		func(stage string, progress float64) {
			d.Registry.EmitProgress(id, progress, "deep clean: "+stage, stage, true, nil, nil)
		},
		func(child *registry.ChildProcess) {
			d.Registry.AttachChild(id, child)
		},
	)
	d.Registry.EmitComplete(id, result.Success, result.Canceled, result.Message)
	return Ack{OperationID: id, Token: token}, result, nil
}

// --- Operations ---

func (d *Daemon) CancelOperation(id string) bool { return d.Registry.Cancel(id) }

func (d *Daemon) GetOperationState(id string) *models.OperationState { return d.Registry.GetState(id) }

// samplerAdapter narrows *telemetry.Sampler to memopt.MemorySampler,
// keeping the memopt package free of a telemetry import.
type samplerAdapter struct{ s *telemetry.Sampler }

func (a samplerAdapter) MemoryStats() (models.MemoryStats, bool) { return a.s.MemoryStats() }
