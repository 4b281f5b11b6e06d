package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateWorstOfRollup(t *testing.T) {
	t.Run("all healthy rolls up healthy", func(t *testing.T) {
		e := NewEvaluator(0,
			ProbeFunc(func(ctx context.Context) ProbeResult { return Healthy("a") }),
			ProbeFunc(func(ctx context.Context) ProbeResult { return Healthy("b") }),
		)
		snap := e.Evaluate(context.Background())
		assert.Equal(t, StatusHealthy, snap.Overall)
	})

	t.Run("any degraded rolls up degraded", func(t *testing.T) {
		e := NewEvaluator(0,
			ProbeFunc(func(ctx context.Context) ProbeResult { return Healthy("a") }),
			ProbeFunc(func(ctx context.Context) ProbeResult { return Degraded("b", "slow") }),
		)
		snap := e.Evaluate(context.Background())
		assert.Equal(t, StatusDegraded, snap.Overall)
	})

	t.Run("any unhealthy dominates degraded", func(t *testing.T) {
		e := NewEvaluator(0,
			ProbeFunc(func(ctx context.Context) ProbeResult { return Degraded("a", "slow") }),
			ProbeFunc(func(ctx context.Context) ProbeResult { return Unhealthy("b", "down") }),
		)
		snap := e.Evaluate(context.Background())
		assert.Equal(t, StatusUnhealthy, snap.Overall)
	})

	t.Run("unknown never escalates severity", func(t *testing.T) {
		e := NewEvaluator(0,
			ProbeFunc(func(ctx context.Context) ProbeResult { return Unknown("a", "no data") }),
		)
		snap := e.Evaluate(context.Background())
		assert.Equal(t, StatusHealthy, snap.Overall)
	})
}

func TestEvaluateCachesWithinTTL(t *testing.T) {
	calls := 0
	e := NewEvaluator(50*time.Millisecond, ProbeFunc(func(ctx context.Context) ProbeResult {
		calls++
		return Healthy("a")
	}))

	e.Evaluate(context.Background())
	e.Evaluate(context.Background())
	assert.Equal(t, 1, calls, "second call within ttl should hit cache")

	time.Sleep(60 * time.Millisecond)
	e.Evaluate(context.Background())
	assert.Equal(t, 2, calls, "call after ttl should re-run probes")
}
