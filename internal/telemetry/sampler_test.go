package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

func TestSamplerStartPopulatesSnapshotImmediately(t *testing.T) {
	s := NewSampler()
	s.Start(context.Background())
	defer s.Stop()

	require.Eventually(t, func() bool {
		snap := s.Snapshot()
		return !snap.Memory.CollectedAt.IsZero() && !snap.CPU.CollectedAt.IsZero()
	}, 2*time.Second, 10*time.Millisecond, "sampler should populate its first snapshot without waiting for a full cadence tick")
}

func TestSamplerStopHaltsPolling(t *testing.T) {
	s := NewSampler()
	s.Start(context.Background())
	s.Stop() // must return promptly, not hang forever

	before := s.Snapshot()
	time.Sleep(50 * time.Millisecond)
	after := s.Snapshot()
	assert.Equal(t, before.Memory.CollectedAt, after.Memory.CollectedAt, "no sampling should occur after Stop")
}

func TestPressureStateThresholds(t *testing.T) {
	assert.Equal(t, models.PressureNormal, pressureState(10))
	assert.Equal(t, models.PressureWarning, pressureState(80))
	assert.Equal(t, models.PressureCritical, pressureState(95))
}
