package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelProvider implements Provider on top of an OpenTelemetry SDK
// MeterProvider. It is the alternative backend selected by
// config.Config.MetricsBackend == "otel", grounded on the teacher's direct
// dependency on the full go.opentelemetry.io/otel/{metric,sdk,sdk/metric}
// stack (wired there for tracing/metrics parity with Prometheus).
type OTelProvider struct {
	mp    *sdkmetric.MeterProvider
	meter metric.Meter
}

// NewOTelProvider builds a provider using the SDK's default in-process
// MeterProvider. Exporting is left to the caller via sdkmetric.Option
// (e.g. a periodic reader wired to an OTLP exporter); by default metrics
// are computed but not exported, matching this daemon's Non-goal of not
// depending on any particular external telemetry backend.
func NewOTelProvider(opts ...sdkmetric.Option) *OTelProvider {
	mp := sdkmetric.NewMeterProvider(opts...)
	return &OTelProvider{mp: mp, meter: mp.Meter("macos-optimizer-beta")}
}

func (p *OTelProvider) NewCounter(o CounterOpts) Counter {
	c, err := p.meter.Float64Counter(fqName(o.CommonOpts), metric.WithDescription(o.Help))
	if err != nil {
		return noopCounter{}
	}
	return &otelCounter{c: c}
}

func (p *OTelProvider) NewGauge(o GaugeOpts) Gauge {
	g, err := p.meter.Float64UpDownCounter(fqName(o.CommonOpts), metric.WithDescription(o.Help))
	if err != nil {
		return noopGauge{}
	}
	return &otelGauge{g: g}
}

func (p *OTelProvider) NewHistogram(o HistogramOpts) Histogram {
	h, err := p.meter.Float64Histogram(fqName(o.CommonOpts), metric.WithDescription(o.Help))
	if err != nil {
		return noopHistogram{}
	}
	return &otelHistogram{h: h}
}

func (p *OTelProvider) NewTimer(o HistogramOpts) func() Timer {
	hist := p.NewHistogram(o)
	return func() Timer { return &sdkTimer{hist: hist, start: time.Now()} }
}

func (p *OTelProvider) Health(ctx context.Context) error { return nil }

// Shutdown flushes and releases the underlying SDK MeterProvider.
func (p *OTelProvider) Shutdown(ctx context.Context) error { return p.mp.Shutdown(ctx) }

func fqName(c CommonOpts) string {
	name := c.Name
	if c.Subsystem != "" {
		name = c.Subsystem + "." + name
	}
	if c.Namespace != "" {
		name = c.Namespace + "." + name
	}
	return name
}

type otelCounter struct{ c metric.Float64Counter }

func (c *otelCounter) Inc(delta float64, labels ...string) {
	if delta <= 0 {
		return
	}
	c.c.Add(context.Background(), delta)
}

type otelGauge struct{ g metric.Float64UpDownCounter }

func (g *otelGauge) Set(value float64, labels ...string) {} // gauges need observable callbacks; Add is the supported path here
func (g *otelGauge) Add(delta float64, labels ...string)  { g.g.Add(context.Background(), delta) }

type otelHistogram struct{ h metric.Float64Histogram }

func (h *otelHistogram) Observe(value float64, labels ...string) {
	h.h.Record(context.Background(), value)
}

type sdkTimer struct {
	hist  Histogram
	start time.Time
}

func (t *sdkTimer) ObserveDuration(labels ...string) {
	t.hist.Observe(time.Since(t.start).Seconds(), labels...)
}
