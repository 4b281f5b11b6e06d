package telemetry

import (
	"context"
	"sort"
	"sync"
	"time"

	gcpu "github.com/shirou/gopsutil/v3/cpu"
	gdisk "github.com/shirou/gopsutil/v3/disk"
	ghost "github.com/shirou/gopsutil/v3/host"
	gmem "github.com/shirou/gopsutil/v3/mem"
	gprocess "github.com/shirou/gopsutil/v3/process"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/models"
)

// Cadences match spec.md §4.2's staged polling intervals. CPU and uptime
// tick fastest; memory is mid-frequency; disks are the slowest and most
// expensive to enumerate.
const (
	CPUUptimeCadence = time.Second
	MemoryCadence    = 5 * time.Second
	DiskCadence      = 30 * time.Second
)

// Sampler runs independent background pollers per source, each on its own
// cooperative ticker, so a slow source never blocks another — grounded on
// the engine's per-stage goroutine model in internal/pipeline/pipeline.go,
// narrowed here from pipeline stages to independent polling loops.
type Sampler struct {
	mu   sync.RWMutex
	snap MetricsSnapshot

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSampler builds a Sampler; call Start to begin polling.
func NewSampler() *Sampler { return &Sampler{} }

// Start launches the per-source polling loops. It is safe to call once;
// call Stop to release the goroutines.
func (s *Sampler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(3)
	go s.loop(ctx, CPUUptimeCadence, s.sampleCPUAndUptime)
	go s.loop(ctx, MemoryCadence, s.sampleMemory)
	go s.loop(ctx, DiskCadence, s.sampleDisks)
}

// Stop halts all polling loops and waits for them to exit.
func (s *Sampler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Sampler) loop(ctx context.Context, interval time.Duration, sample func()) {
	defer s.wg.Done()
	sample() // populate immediately so the first snapshot isn't empty
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sample()
		}
	}
}

func (s *Sampler) sampleCPUAndUptime() {
	now := time.Now()
	start := time.Now()
	percents, err := gcpu.Percent(0, false)
	counts, countErr := gcpu.Counts(true)
	latency := time.Since(start)
	s.mu.Lock()
	if err != nil || len(percents) == 0 {
		msg := "cpu sample unavailable"
		if err != nil {
			msg = err.Error()
		}
		s.snap.CPU = NewErrorEnvelope[models.CPUStats](msg, now, latency)
	} else {
		cores := 0
		if countErr == nil {
			cores = counts
		}
		s.snap.CPU = NewEnvelope(models.CPUStats{TotalUsage: percents[0], CoreCount: cores}, now, latency)
	}
	s.mu.Unlock()

	now = time.Now()
	start = time.Now()
	uptimeSecs, err := ghost.Uptime()
	bootTime, bootErr := ghost.BootTime()
	latency = time.Since(start)
	s.mu.Lock()
	if err != nil {
		s.snap.Uptime = NewErrorEnvelope[models.UptimeStats](err.Error(), now, latency)
	} else {
		var boot time.Time
		if bootErr == nil {
			boot = time.Unix(int64(bootTime), 0)
		}
		s.snap.Uptime = NewEnvelope(models.UptimeStats{UptimeSeconds: uptimeSecs, BootTime: boot}, now, latency)
	}
	s.mu.Unlock()
}

// sampleMemory reads virtual memory via gopsutil; on failure it attempts a
// swap-only fallback so the envelope still carries partial data rather than
// nothing, mirroring the product's vm_stat fallback path.
func (s *Sampler) sampleMemory() {
	now := time.Now()
	start := time.Now()
	vm, err := gmem.VirtualMemory()
	latency := time.Since(start)

	if err != nil {
		if swap, swapErr := gmem.SwapMemory(); swapErr == nil {
			stats := models.MemoryStats{SwapTotal: swap.Total, SwapUsed: swap.Used}
			s.mu.Lock()
			s.snap.Memory = NewEnvelope(stats, now, latency)
			s.mu.Unlock()
			return
		}
		s.mu.Lock()
		s.snap.Memory = NewErrorEnvelope[models.MemoryStats](err.Error(), now, latency)
		s.mu.Unlock()
		return
	}

	swap, _ := gmem.SwapMemory()
	var swapTotal, swapUsed uint64
	if swap != nil {
		swapTotal, swapUsed = swap.Total, swap.Used
	}

	pressure := 0.0
	if vm.Total > 0 {
		pressure = float64(vm.Used) / float64(vm.Total) * 100
	}
	stats := models.MemoryStats{
		Total:           vm.Total,
		Used:            vm.Used,
		Available:       vm.Available,
		Free:            vm.Free,
		Active:          vm.Active,
		Inactive:        vm.Inactive,
		Wired:           vm.Wired,
		Compressed:      vm.Cached, // gopsutil has no native "compressed" field on every platform; closest analogue
		SwapTotal:       swapTotal,
		SwapUsed:        swapUsed,
		PressurePercent: pressure,
		PressureState:   pressureState(pressure),
	}
	s.mu.Lock()
	s.snap.Memory = NewEnvelope(stats, now, latency)
	s.mu.Unlock()
}

func pressureState(pct float64) models.PressureState {
	switch {
	case pct >= 90:
		return models.PressureCritical
	case pct >= 75:
		return models.PressureWarning
	default:
		return models.PressureNormal
	}
}

func (s *Sampler) sampleDisks() {
	now := time.Now()
	start := time.Now()
	partitions, err := gdisk.Partitions(false)
	if err != nil {
		latency := time.Since(start)
		s.mu.Lock()
		s.snap.Disks = NewErrorEnvelope[[]models.DiskStats](err.Error(), now, latency)
		s.mu.Unlock()
		return
	}
	stats := make([]models.DiskStats, 0, len(partitions))
	for _, p := range partitions {
		usage, uerr := gdisk.Usage(p.Mountpoint)
		if uerr != nil {
			continue
		}
		stats = append(stats, models.DiskStats{
			Mount:      p.Mountpoint,
			TotalSpace: usage.Total,
			UsedSpace:  usage.Used,
			IsSystem:   p.Mountpoint == "/",
		})
	}
	latency := time.Since(start)
	s.mu.Lock()
	s.snap.Disks = NewEnvelope(stats, now, latency)
	s.mu.Unlock()
}

// Snapshot returns the latest consistent MetricsSnapshot.
func (s *Sampler) Snapshot() MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// MemoryStats returns the latest memory envelope's value, used by the
// Memory Optimizer as its primary memory-stats source (spec.md §4.2: "the
// optimizer reads memory stats from the sampler").
func (s *Sampler) MemoryStats() (models.MemoryStats, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Memory.Value, !s.snap.Memory.HasError()
}

// SystemInfo satisfies get_system_info().
func (s *Sampler) SystemInfo() (osName, osVersion, hostname string, uptime time.Duration, bootTime time.Time, err error) {
	info, ierr := ghost.Info()
	if ierr != nil {
		return "", "", "", 0, time.Time{}, ierr
	}
	return info.Platform, info.PlatformVersion, info.Hostname, time.Duration(info.Uptime) * time.Second, time.Unix(int64(info.BootTime), 0), nil
}

// Processes satisfies get_processes(): sorted server-side by memory desc.
func Processes(ctx context.Context) ([]models.ProcessInfo, error) {
	procs, err := gprocess.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, _ := p.NameWithContext(ctx)
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		var rss uint64
		if mi, merr := p.MemoryInfoWithContext(ctx); merr == nil && mi != nil {
			rss = mi.RSS
		}
		out = append(out, models.ProcessInfo{PID: p.Pid, Name: name, CPUUsage: cpuPct, MemoryUsage: rss})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MemoryUsage > out[j].MemoryUsage })
	return out, nil
}

// KillProcess satisfies kill_process(pid).
func KillProcess(ctx context.Context, pid int32) error {
	p, err := gprocess.NewProcess(pid)
	if err != nil {
		return err
	}
	return p.KillWithContext(ctx)
}
