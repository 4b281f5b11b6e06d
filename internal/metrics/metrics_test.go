package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopProviderDiscardsEverything(t *testing.T) {
	var p Provider = Noop{}

	counter := p.NewCounter(CounterOpts{CommonOpts{Name: "x"}})
	gauge := p.NewGauge(GaugeOpts{CommonOpts{Name: "y"}})
	hist := p.NewHistogram(HistogramOpts{CommonOpts: CommonOpts{Name: "z"}})
	timer := p.NewTimer(HistogramOpts{CommonOpts: CommonOpts{Name: "w"}})

	assert.NotPanics(t, func() {
		counter.Inc(1)
		gauge.Set(1)
		gauge.Add(1)
		hist.Observe(1)
		timer().ObserveDuration()
	})
	assert.NoError(t, p.Health(context.Background()))
}

func TestPrometheusProviderBuildsFQName(t *testing.T) {
	p := NewPrometheusProvider()

	fq, err := p.buildFQName(CommonOpts{Namespace: "optimizerd", Subsystem: "cleaner", Name: "scans_total"})
	require.NoError(t, err)
	assert.Equal(t, "optimizerd_cleaner_scans_total", fq)

	_, err = p.buildFQName(CommonOpts{Name: ""})
	assert.Error(t, err)

	_, err = p.buildFQName(CommonOpts{Name: "bad name with spaces"})
	assert.Error(t, err)
}

func TestPrometheusProviderReusesExistingCollector(t *testing.T) {
	p := NewPrometheusProvider()
	opts := CounterOpts{CommonOpts{Namespace: "optimizerd", Name: "ops_total"}}

	c1 := p.NewCounter(opts)
	c2 := p.NewCounter(opts)

	c1.Inc(1)
	c2.Inc(2)

	require.NoError(t, p.Health(context.Background()))
}

func TestPrometheusProviderFallsBackToNoopOnInvalidName(t *testing.T) {
	p := NewPrometheusProvider()
	c := p.NewCounter(CounterOpts{CommonOpts{Name: "bad name"}})

	// invalid name falls back to a noop collector, never panics.
	assert.NotPanics(t, func() { c.Inc(1) })
}
