package telemetry

import "github.com/LuciferMornens/macos-optimizer-beta/internal/models"

// MetricsSnapshot is the payload of get_metrics_snapshot: a consistent read
// of the sampler's latest envelopes across every source.
type MetricsSnapshot struct {
	Memory Envelope[models.MemoryStats]
	CPU    Envelope[models.CPUStats]
	Disks  Envelope[[]models.DiskStats]
	Uptime Envelope[models.UptimeStats]
}
