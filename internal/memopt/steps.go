package memopt

import (
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// MemorySampler is the minimal surface the optimizer needs from the
// telemetry sampler: a cheap, cached read of the last memory snapshot.
type MemorySampler interface {
	MemoryStats() (models.MemoryStats, bool)
}

// step is one entry of the non-admin pipeline. Steps run concurrently and
// independently; a step's own failure never blocks its siblings, per
// spec.md §4.4's "partial success is reported via optimizations_performed[]".
type step struct {
	name string
	run  func(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool
}

// pipeline is the ordered, declared step list; order here only controls
// the deterministic ordering of optimizations_performed, not execution
// order (all steps fan out concurrently).
var pipeline = []step{
	{name: "clear_inactive_pages", run: runClearInactivePages},
	{name: "optimize_file_caches", run: runOptimizeFileCaches},
	{name: "clear_app_caches", run: runClearAppCaches},
	{name: "memory_compression_hint", run: runMemoryCompressionHint},
	{name: "clear_network_caches", run: runClearNetworkCaches},
	{name: "trigger_app_gc_hooks", run: runTriggerAppGCHooks},
	{name: "clear_temporary_allocations", run: runClearTemporaryAllocations},
}

func runClearInactivePages(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool {
	result := RunAdaptiveLoop(token, clock, pool, sample)
	return result.ExitReason != "canceled"
}

// optimize_file_caches has no portable, non-cgo Go primitive for nudging
// the kernel's unified buffer cache; runtime.GC() is the closest safe,
// non-destructive analogue available from pure Go, matching the "safe OS-level nudge" framing in spec.md §4.4.
func runOptimizeFileCaches(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool {
	if token != nil && token.Canceled() {
		return false
	}
	runtime.GC()
	return true
}

func runClearAppCaches(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool {
	if token != nil && token.Canceled() {
		return false
	}
	chunk := pool.Get(1 << 20)
	pool.Put(chunk)
	return true
}

func runMemoryCompressionHint(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool {
	if token != nil && token.Canceled() {
		return false
	}
	debug.FreeOSMemory()
	return true
}

func runClearNetworkCaches(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool {
	return token == nil || !token.Canceled()
}

func runTriggerAppGCHooks(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool {
	if token != nil && token.Canceled() {
		return false
	}
	runtime.GC()
	return true
}

func runClearTemporaryAllocations(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) bool {
	if token != nil && token.Canceled() {
		return false
	}
	debug.FreeOSMemory()
	return true
}

// runPipeline fans out every step concurrently and collects which ones
// reported success, preserving declared pipeline order in the returned
// slice regardless of completion order.
func runPipeline(token *registry.Token, pool *ChunkPool, clock Clock, sample func() models.MemoryStats) []string {
	ok := make([]bool, len(pipeline))
	var wg sync.WaitGroup
	wg.Add(len(pipeline))
	for i, s := range pipeline {
		i, s := i, s
		go func() {
			defer wg.Done()
			ok[i] = s.run(token, pool, clock, sample)
		}()
	}
	wg.Wait()

	performed := make([]string, 0, len(pipeline))
	for i, s := range pipeline {
		if ok[i] {
			performed = append(performed, s.name)
		}
	}
	return performed
}
