// Command optimizerd is the macOS maintenance daemon: it wires the
// Operation Registry, Telemetry Sampler, Storage Cleaner and Memory
// Optimizer behind a single process, exposing the RPC-style command
// surface plus Prometheus metrics and a health rollup over HTTP. Modeled
// on the teacher's root main.go (flag-based CLI construction,
// signal-driven graceful shutdown), adapted from a one-shot crawl run to
// a long-lived daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LuciferMornens/macos-optimizer-beta/config"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/cleaner"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/daemon"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/eventbus"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/health"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/memopt"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/metrics"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/registry"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/telemetry"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (defaults applied when empty or missing)")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(config.LogLevelFromEnv(cfg))
	slog.SetDefault(logger)

	provider := newMetricsProvider(cfg.MetricsBackend)
	bus := eventbus.New(
		func() {},
		func() { logger.Warn("event dropped under subscriber backpressure") },
	)
	reg := registry.New(bus)

	sampler := telemetry.NewSampler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sampler.Start(ctx)
	defer sampler.Stop()

	rules, err := cleaner.LoadRules(cleaner.ExpandHome(cfg.RuleFilePath))
	if err != nil {
		logger.Warn("initial rule load failed, starting with an empty rule set", "path", cfg.RuleFilePath, "err", err)
	}
	clnr := cleaner.New(rules)
	if watcher, err := clnr.Rules().Watch(cleaner.ExpandHome(cfg.RuleFilePath), func(err error) {
		logger.Error("rule file reload failed", "err", err)
	}); err != nil {
		logger.Warn("rule file watch disabled", "err", err)
	} else {
		defer watcher.Close()
	}

	optimizer := memopt.New()
	deepCleaner := memopt.NewAdminDeepCleaner(cfg.AdminHelperPath)
	d := daemon.New(reg, sampler, clnr, optimizer, deepCleaner, logger)

	evaluator := health.NewEvaluator(5*time.Second,
		health.ProbeFunc(func(ctx context.Context) health.ProbeResult {
			if _, ok := d.GetMemoryStats(); !ok {
				return health.Degraded("telemetry_sampler", "memory envelope carries an error")
			}
			return health.Healthy("telemetry_sampler")
		}),
		health.ProbeFunc(func(ctx context.Context) health.ProbeResult {
			if err := provider.Health(ctx); err != nil {
				return health.Unhealthy("metrics_provider", err.Error())
			}
			return health.Healthy("metrics_provider")
		}),
	)

	mux := http.NewServeMux()
	if promProvider, ok := provider.(*metrics.PrometheusProvider); ok {
		mux.Handle("/metrics", promProvider.MetricsHandler())
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		snap := evaluator.Evaluate(r.Context())
		status := http.StatusOK
		if snap.Overall == health.StatusUnhealthy {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"overall":%q}`, snap.Overall)
	})
	registerCommandRoutes(mux, d, logger)

	httpServer := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics/health server exited", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info("signal received; shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func newMetricsProvider(backend string) metrics.Provider {
	switch backend {
	case "otel":
		return metrics.NewOTelProvider()
	case "noop":
		return metrics.Noop{}
	default:
		return metrics.NewPrometheusProvider()
	}
}
