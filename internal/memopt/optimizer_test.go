package memopt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
)

type fakeSampler struct {
	stats []models.MemoryStats
	i     int
}

func (f *fakeSampler) MemoryStats() (models.MemoryStats, bool) {
	s := f.stats[f.i]
	if f.i < len(f.stats)-1 {
		f.i++
	}
	return s, true
}

func TestOptimizeSafeReportsFreedMemory(t *testing.T) {
	sampler := &fakeSampler{stats: []models.MemoryStats{
		{Total: 100, Available: 50, Used: 50, PressurePercent: 50},
		{Total: 100, Available: 70, Used: 30, PressurePercent: 30},
	}}

	opt := New().WithClock(fakeClock{})
	result := opt.OptimizeSafe(nil, sampler)

	assert.Equal(t, "safe", result.OptimizationType)
	assert.True(t, result.Success)
	assert.False(t, result.Canceled)
	assert.Equal(t, uint64(20), result.FreedMemory)
	assert.Len(t, result.OptimizationsPerformed, 7)
}

func TestOptimizeSafeCanceledUpfrontSkipsEverything(t *testing.T) {
	sampler := &fakeSampler{stats: []models.MemoryStats{
		{Total: 100, Available: 1, Used: 99, PressurePercent: 95},
	}}
	token := &registry.Token{}
	token.Cancel()

	opt := New().WithClock(fakeClock{})
	result := opt.OptimizeSafe(token, sampler)

	require.Empty(t, result.OptimizationsPerformed)
	assert.False(t, result.Success)
	assert.True(t, result.Canceled)
	assert.Contains(t, result.Message, "canceled")
}
