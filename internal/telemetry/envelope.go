// Package telemetry implements the background, staged-cadence Telemetry
// Sampler: typed OS snapshots for CPU, memory, disks and uptime, each
// wrapped in a freshness/error Envelope. Sources are backed by
// github.com/shirou/gopsutil/v3, the cross-platform sysinfo facade spec.md
// §4.2 calls for in place of Mach host_statistics64 and the kernel
// boot-time sysctl.
package telemetry

import "time"

// Envelope is the generic freshness/error wrapper every sampled field uses.
// It never drops freshness metadata even when Value is zero and Err is set.
type Envelope[T any] struct {
	Value      T
	Err        string
	CollectedAt time.Time
	LatencyMS  int64
	ageBase    time.Time
}

// NewEnvelope builds an Envelope around a value sampled at collectedAt,
// taking latency as the time spent sampling.
func NewEnvelope[T any](value T, collectedAt time.Time, latency time.Duration) Envelope[T] {
	return Envelope[T]{Value: value, CollectedAt: collectedAt, LatencyMS: latency.Milliseconds(), ageBase: collectedAt}
}

// NewErrorEnvelope builds an Envelope carrying only an error; the GUI can
// still render "stale/degraded" instead of guessing, per the Envelope
// contract.
func NewErrorEnvelope[T any](errMsg string, collectedAt time.Time, latency time.Duration) Envelope[T] {
	var zero T
	return Envelope[T]{Value: zero, Err: errMsg, CollectedAt: collectedAt, LatencyMS: latency.Milliseconds(), ageBase: collectedAt}
}

// AgeMS derives the envelope's age from the wall clock at call time; ages
// are monotonically derived from a single wall clock per spec.md Invariant
// (v).
func (e Envelope[T]) AgeMS(now time.Time) int64 {
	if e.ageBase.IsZero() {
		return 0
	}
	d := now.Sub(e.ageBase)
	if d < 0 {
		return 0
	}
	return d.Milliseconds()
}

// HasError reports whether this sample failed to collect.
func (e Envelope[T]) HasError() bool { return e.Err != "" }
