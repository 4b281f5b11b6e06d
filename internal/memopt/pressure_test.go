package memopt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

// fakeClock makes Sleep a no-op so the adaptive loop runs instantly in tests.
type fakeClock struct{ now time.Time }

func (f fakeClock) Now() time.Time    { return f.now }
func (fakeClock) Sleep(time.Duration) {}

func TestChunkSizeForTiers(t *testing.T) {
	assert.Equal(t, baseChunkBytes, chunkSizeFor(50))
	assert.Equal(t, reducedChunkBytes, chunkSizeFor(80))
	assert.Equal(t, minChunkBytes, chunkSizeFor(95))
}

func TestRunAdaptiveLoopExitsOnAvailableThreshold(t *testing.T) {
	pool := NewChunkPool()
	sample := func() models.MemoryStats {
		return models.MemoryStats{Total: 100, Available: 20, Used: 80, PressurePercent: 80}
	}

	result := RunAdaptiveLoop(nil, fakeClock{}, pool, sample)
	assert.Equal(t, "available_threshold", result.ExitReason)
	assert.Equal(t, 0, result.Rounds)
}

func TestRunAdaptiveLoopExitsOnDiminishingReturns(t *testing.T) {
	pool := NewChunkPool()
	sample := func() models.MemoryStats {
		// available always below threshold, used never changes: freed=0 every round
		return models.MemoryStats{Total: 100, Available: 1, Used: 99, PressurePercent: 95}
	}

	result := RunAdaptiveLoop(nil, fakeClock{}, pool, sample)
	assert.Equal(t, "diminishing_returns", result.ExitReason)
	assert.Equal(t, 1, result.Rounds)
}

func TestRunAdaptiveLoopExitsOnCancellation(t *testing.T) {
	pool := NewChunkPool()
	token := &registry.Token{}
	token.Cancel()
	sample := func() models.MemoryStats {
		return models.MemoryStats{Total: 100, Available: 1, Used: 99, PressurePercent: 95}
	}

	result := RunAdaptiveLoop(token, fakeClock{}, pool, sample)
	assert.Equal(t, "canceled", result.ExitReason)
	assert.Equal(t, 0, result.Rounds)
}

func TestRunAdaptiveLoopHitsRoundCeiling(t *testing.T) {
	pool := NewChunkPool()
	used := uint64(2_000_000_000)
	sample := func() models.MemoryStats {
		// available stays under threshold, used decreases by more than
		// chunk/10 every round so diminishing-returns never triggers.
		used -= uint64(baseChunkBytes)
		return models.MemoryStats{Total: 20_000_000_000, Available: 1, Used: used, PressurePercent: 80}
	}

	result := RunAdaptiveLoop(nil, fakeClock{}, pool, sample)
	assert.Equal(t, "round_ceiling", result.ExitReason)
	assert.Equal(t, maxPressureRounds, result.Rounds)
}
