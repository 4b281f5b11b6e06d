package memopt

import (
	"fmt"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// Optimizer is the Memory Optimizer facade: it owns the bounded chunk pool
// shared across rounds and across operations (spec.md §4.4) and the clock
// used by the adaptive pressure loop.
type Optimizer struct {
	pool  *ChunkPool
	clock Clock
}

// New builds an Optimizer with the production clock.
func New() *Optimizer {
	return &Optimizer{pool: NewChunkPool(), clock: RealClock}
}

// WithClock overrides the clock, for deterministic tests of the adaptive
// loop's round timing.
func (o *Optimizer) WithClock(c Clock) *Optimizer {
	if c != nil {
		o.clock = c
	}
	return o
}

// OptimizeSafe satisfies optimize_memory(): runs the non-admin pipeline to
// completion (or cancellation) and reports the before/after delta.
func (o *Optimizer) OptimizeSafe(token *registry.Token, sampler MemorySampler) models.MemoryOptimizationResult {
	before, _ := sampler.MemoryStats()

	sample := func() models.MemoryStats {
		st, _ := sampler.MemoryStats()
		return st
	}
	performed := runPipeline(token, o.pool, o.clock, sample)

	after, _ := sampler.MemoryStats()
	freed := models.FreedMemory(before, after)

	canceled := token != nil && token.Canceled()
	message := fmt.Sprintf("%d of %d optimizations applied", len(performed), len(pipeline))
	if canceled {
		message = "optimization canceled: " + message
	}

	return models.MemoryOptimizationResult{
		OptimizationType:       "safe",
		Success:                !canceled,
		Canceled:               canceled,
		MemoryBefore:           before,
		MemoryAfter:            after,
		FreedMemory:            freed,
		OptimizationsPerformed: performed,
		Message:                message,
	}
}
