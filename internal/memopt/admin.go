package memopt

import (
	"context"
	"fmt"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// adminStages is the deep-clean state machine from spec.md §4.4. "complete"
// is a terminal marker, not a child invocation.
var adminStages = []string{"auth", "disk_cache", "network_cache", "kext_cache", "restart_services"}

// AdminDeepCleaner runs the elevated maintenance script stage by stage,
// registering each stage's child process with the operation so a cancel
// kills whichever stage is currently running. Grounded on
// registry.StartChild/AdminDeepCleanCeiling (itself grounded on
// tim-coutinho-agentops's supervised-subprocess pattern) plus the
// cleanup-staging shape of steveyegge-vc's executor_cleanup.go (ordered
// named stages, one subprocess per stage, stop on first failure).
type AdminDeepCleaner struct {
	// HelperPath is the curated maintenance script invoked as
	// HelperPath(stageName). Each invocation is expected to perform one
	// stage and exit zero on success.
	HelperPath string
}

// NewAdminDeepCleaner builds a deep-cleaner targeting the given helper
// script path.
func NewAdminDeepCleaner(helperPath string) *AdminDeepCleaner {
	return &AdminDeepCleaner{HelperPath: helperPath}
}

// Run executes optimize_memory_admin(): walks adminStages in order,
// reporting progress via onStage and registering each stage's child via
// onChild (so the caller's registry.Registry can attach it to the
// operation's Token), and returns the before/after contract. A cancel
// kills the in-flight stage's child and the operation ends without
// running remaining stages, per spec.md scenario 5. Kept decoupled from
// *registry.Registry itself, matching the cleaner package's
// onProgress-callback style.
func (a *AdminDeepCleaner) Run(token *registry.Token, sampler MemorySampler, onStage func(stage string, progress float64), onChild func(*registry.ChildProcess)) models.MemoryOptimizationResult {
	before, _ := sampler.MemoryStats()

	var performed []string
	canceled := false
	var failMessage string

	for i, stage := range adminStages {
		if token != nil && token.Canceled() {
			canceled = true
			break
		}

		progress := float64(i) / float64(len(adminStages))
		if onStage != nil {
			onStage(stage, progress)
		}

		child, err := registry.StartChild(context.Background(), nil, a.HelperPath, stage)
		if err != nil {
			failMessage = fmt.Sprintf("stage %s failed to start: %v", stage, err)
			break
		}
		if onChild != nil {
			onChild(child)
		}

		waitErr := child.Wait()
		if waitErr != nil {
			if child.KilledByCancel() {
				canceled = true
				break
			}
			failMessage = fmt.Sprintf("stage %s exited with error: %v", stage, waitErr)
			break
		}
		performed = append(performed, stage)
	}

	if !canceled && failMessage == "" {
		if onStage != nil {
			onStage("complete", 1.0)
		}
		performed = append(performed, "complete")
	}

	after, _ := sampler.MemoryStats()
	freed := models.FreedMemory(before, after)

	message := fmt.Sprintf("%d of %d stages completed", len(performed), len(adminStages)+1)
	switch {
	case canceled:
		message = "deep clean canceled: " + message
	case failMessage != "":
		message = failMessage
	}

	return models.MemoryOptimizationResult{
		OptimizationType:       "admin",
		Success:                !canceled && failMessage == "",
		Canceled:               canceled,
		MemoryBefore:           before,
		MemoryAfter:            after,
		FreedMemory:            freed,
		OptimizationsPerformed: performed,
		Message:                message,
	}
}
