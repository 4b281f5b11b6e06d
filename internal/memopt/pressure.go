package memopt

import (
	"time"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// Chunk sizes and thresholds for the adaptive pressure loop, per spec.md
// §4.4: base 50 MB, reduced to 25 MB above 75% pressure and 12.5 MB above
// 90%. Grounded on the teacher's AdaptiveRateLimiter (sample a pressure
// signal, scale a quantity down on bad signal, round-bounded iteration) in
// engine/internal/ratelimit/limiter.go, retargeted from request fill-rate
// to reclaim chunk size.
const (
	baseChunkBytes     = 50 * 1 << 20
	reducedChunkBytes  = 25 * 1 << 20
	minChunkBytes      = 12*1<<20 + 512*1<<10 // 12.5 MB
	maxPressureRounds  = 10
	pressureWarnPct    = 75.0
	pressureCriticalPct = 90.0
	earlyExitAvailablePct = 10.0
	roundYield         = time.Millisecond
)

// chunkSizeFor returns the reclaim chunk size for the given pressure
// percentage, per the three-tier schedule in spec.md §4.4.
func chunkSizeFor(pressurePct float64) int {
	switch {
	case pressurePct > pressureCriticalPct:
		return minChunkBytes
	case pressurePct > pressureWarnPct:
		return reducedChunkBytes
	default:
		return baseChunkBytes
	}
}

// AdaptiveResult summarizes one run of the adaptive pressure loop.
type AdaptiveResult struct {
	Rounds     int
	ExitReason string // "available_threshold" | "diminishing_returns" | "canceled" | "round_ceiling"
}

// RunAdaptiveLoop allocates/releases pool chunks sized by the current
// memory pressure, re-sampling after each round and exiting early per
// spec.md §4.4: available ≥ 10% of total, freed-per-round < chunk/10, or
// cancellation observed. sample is called once before the first round and
// once after each round, and must be cheap (the caller wires it to the telemetry sampler's cached memory
// envelope, not a fresh OS syscall per round).
func RunAdaptiveLoop(token *registry.Token, clock Clock, pool *ChunkPool, sample func() models.MemoryStats) AdaptiveResult {
	if clock == nil {
		clock = RealClock
	}
	prev := sample()
	for round := 1; round <= maxPressureRounds; round++ {
		if token != nil && token.Canceled() {
			return AdaptiveResult{Rounds: round - 1, ExitReason: "canceled"}
		}
		if prev.Total > 0 && float64(prev.Available)/float64(prev.Total)*100 >= earlyExitAvailablePct {
			return AdaptiveResult{Rounds: round - 1, ExitReason: "available_threshold"}
		}

		size := chunkSizeFor(prev.PressurePercent)
		chunk := pool.Get(size)
		clock.Sleep(roundYield)
		pool.Put(chunk)

		next := sample()
		var freed uint64
		if prev.Used > next.Used {
			freed = prev.Used - next.Used
		}
		prev = next

		if uint64(size/10) > freed {
			return AdaptiveResult{Rounds: round, ExitReason: "diminishing_returns"}
		}
	}
	return AdaptiveResult{Rounds: maxPressureRounds, ExitReason: "round_ceiling"}
}
