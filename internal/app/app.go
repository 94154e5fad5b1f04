// Package app wires config, registry, breaker/limiter registries, the
// subprocess tracker, the tool catalog, and both transports into one
// runnable server, and owns the shutdown sequence spec.md §5 describes.
//
// Grounded on the teacher's internal/app (App{http,stdio}, New(configPath),
// RunStdio/RunHTTP), generalized with the health/metrics/registry/tracker
// wiring the teacher's minimal App never needed.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"secmcp/internal/breaker"
	"secmcp/internal/config"
	"secmcp/internal/health"
	"secmcp/internal/limiter"
	"secmcp/internal/metrics"
	"secmcp/internal/observability/logging"
	"secmcp/internal/procexec"
	"secmcp/internal/registry"
	"secmcp/internal/tool"
	"secmcp/internal/transport"
)

// shutdownGrace is the grace period given to live subprocess groups on
// server shutdown before SIGKILL, per spec.md §5's default.
const shutdownGrace = 30 * time.Second

// App is the fully wired server, ready to run either transport.
type App struct {
	cfgLoader *config.Loader
	registry  *registry.Registry
	tracker   *procexec.Tracker
	metrics   *metrics.Metrics
	health    *health.DebouncedAggregator

	http  *transport.HTTP
	stdio *transport.Stdio

	logger *slog.Logger
}

// New loads configPath (empty uses built-in defaults only), builds every
// shared component, and registers the tool catalog, filtered by the
// resolved Tools.Include/Exclude.
func New(configPath string) (*App, error) {
	loader, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := loader.Current()

	logger := logging.New(logging.Config{Mode: logging.ModeJSON, Level: parseLevel(cfg.LogLevel)})

	m := metrics.New()
	tracker := procexec.NewTracker()

	brkReg := breaker.NewRegistry(func(string) breaker.Params {
		return breaker.Params{
			FailureThreshold:  cfg.CircuitBreaker.FailureThreshold,
			RecoveryTimeout:   cfg.CircuitBreaker.RecoveryTimeout,
			HalfOpenThreshold: 1,
		}
	})
	limReg := limiter.NewRegistry(func(name string) int {
		for _, d := range tool.Catalog(true) {
			if d.Name == name && d.Concurrency > 0 {
				return d.Concurrency
			}
		}
		return cfg.Limits.DefaultConcurrency
	})

	filter := registry.Filter{Include: cfg.Tools.Include, Exclude: cfg.Tools.Exclude}
	reg := registry.New(tool.Catalog(true), filter, brkReg, limReg, m, tracker)
	applyResourceLimits(reg, cfg.Limits)

	checks := []health.Check{
		health.ProcessLivenessCheck(),
		health.SystemResourcesCheck(health.ResourceThresholds{
			CPUPercent:    cfg.Health.CPUThreshold * 100,
			MemoryPercent: cfg.Health.MemoryThreshold * 100,
			DiskPercent:   cfg.Health.DiskThreshold * 100,
		}, health.PlatformSample()),
		health.ToolAvailabilityCheck(func() map[string]string { return toolCommands(reg) }),
	}
	agg := health.New(checks, cfg.Health.CheckInterval)
	debounced := health.NewDebounced(agg)

	httpTransport := transport.NewHTTP(reg, debounced, m)
	stdioTransport := transport.NewStdio(reg)

	a := &App{
		cfgLoader: loader,
		registry:  reg,
		tracker:   tracker,
		metrics:   m,
		health:    debounced,
		http:      httpTransport,
		stdio:     stdioTransport,
		logger:    logger,
	}

	loader.WatchAndReload(a.onConfigReload, a.onConfigReloadError)

	return a, nil
}

// RunStdio runs the stdio transport until ctx is done or stdin closes.
func (a *App) RunStdio(ctx context.Context) error {
	go a.health.StartScheduled(ctx)
	err := a.stdio.Run(ctx)
	a.shutdownSubprocesses()
	return err
}

// RunHTTP runs the HTTP transport on addr until ctx is done, performing a
// graceful shutdown: the HTTP server stops accepting new work first, then
// every tracked subprocess group is signaled.
func (a *App) RunHTTP(ctx context.Context, addr string) error {
	go a.health.StartScheduled(ctx)
	err := a.http.Run(ctx, addr)
	a.shutdownSubprocesses()
	return err
}

func (a *App) shutdownSubprocesses() {
	a.logger.Info("shutting down, signaling live subprocess groups",
		logging.Int64("grace_seconds", int64(shutdownGrace.Seconds())))
	a.tracker.Shutdown(shutdownGrace)
}

func (a *App) onConfigReload(cfg *config.Config) {
	a.logger.Info("config reloaded",
		logging.String("log_level", cfg.LogLevel),
		logging.Bool("metrics_enabled", cfg.MetricsEnabled),
	)
	for _, name := range a.registry.Names() {
		included := len(cfg.Tools.Include) == 0
		for _, n := range cfg.Tools.Include {
			if n == name {
				included = true
			}
		}
		for _, n := range cfg.Tools.Exclude {
			if n == name {
				included = false
			}
		}
		_ = a.registry.SetEnabled(name, included)
	}
}

func (a *App) onConfigReloadError(err error) {
	a.logger.Error("config reload failed, keeping previous config in effect", logging.Err(err))
}

// applyResourceLimits pushes the resolved config's global resource caps
// (MCP_MAX_MEMORY_MB, MCP_MAX_FILE_DESCRIPTORS, MCP_MAX_STDOUT_BYTES,
// MCP_MAX_STDERR_BYTES) down into every registered tool, so procexec.Spawn
// enforces operator-configured caps instead of always falling back to its
// own package defaults.
func applyResourceLimits(reg *registry.Registry, lim config.Limits) {
	caps := procexec.Limits{
		MemoryBytes:    uint64(lim.MaxMemoryMB) * 1 << 20,
		MaxOpenFiles:   uint64(lim.MaxFileDescriptors),
		MaxStdoutBytes: lim.MaxStdoutBytes,
		MaxStderrBytes: lim.MaxStderrBytes,
	}
	for _, name := range reg.Names() {
		if t, ok := reg.Get(name); ok {
			t.SetLimits(caps)
		}
	}
}

func toolCommands(reg *registry.Registry) map[string]string {
	out := make(map[string]string)
	for _, name := range reg.Names() {
		if t, ok := reg.Get(name); ok {
			out[name] = t.Descriptor.CommandName
		}
	}
	return out
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
