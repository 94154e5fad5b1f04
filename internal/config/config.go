// Package config implements the config resolver (C1): merging built-in
// defaults, an optional YAML file, and environment variable overrides into
// one typed, validated Config, with optional hot-reload.
//
// Grounded on the teacher's internal/config (yaml.v3, Validate()), upgraded
// from file-only to the three-source merge (defaults/file/env) and
// fsnotify-driven hot reload spec.md §4's config resolver requires, using
// github.com/spf13/viper the way RedClaus-cortex's services do.
package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Server holds the transport/listener section.
type Server struct {
	Transport string `mapstructure:"transport"`
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
}

// Limits holds the C3/C6 argument and resource caps.
type Limits struct {
	MaxArgsLen       int `mapstructure:"max_args_len"`
	MaxStdoutBytes   int `mapstructure:"max_stdout_bytes"`
	MaxStderrBytes   int `mapstructure:"max_stderr_bytes"`
	DefaultTimeout   float64 `mapstructure:"default_timeout_sec"`
	DefaultConcurrency int `mapstructure:"default_concurrency"`
	MaxMemoryMB      int `mapstructure:"max_memory_mb"`
	MaxFileDescriptors int `mapstructure:"max_file_descriptors"`
}

// CircuitBreaker holds C4's tunables.
type CircuitBreaker struct {
	FailureThreshold int           `mapstructure:"failure_threshold"`
	RecoveryTimeout  time.Duration `mapstructure:"recovery_timeout"`
}

// HealthThresholds holds C10's check interval and per-resource degraded
// cutoffs.
type HealthThresholds struct {
	CheckInterval   time.Duration `mapstructure:"check_interval"`
	CPUThreshold    float64       `mapstructure:"cpu_threshold"`
	MemoryThreshold float64       `mapstructure:"memory_threshold"`
	DiskThreshold   float64       `mapstructure:"disk_threshold"`
}

// Tools holds C8's include/exclude filter.
type Tools struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

// Config is the fully resolved, validated configuration snapshot.
type Config struct {
	Server         Server           `mapstructure:"server"`
	Limits         Limits           `mapstructure:"limits"`
	CircuitBreaker CircuitBreaker   `mapstructure:"circuit_breaker"`
	Health         HealthThresholds `mapstructure:"health"`
	Tools          Tools            `mapstructure:"tools"`
	MetricsEnabled bool             `mapstructure:"metrics_enabled"`
	LogLevel       string           `mapstructure:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.transport", "http")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	v.SetDefault("limits.max_args_len", 2048)
	v.SetDefault("limits.max_stdout_bytes", 1<<20)
	v.SetDefault("limits.max_stderr_bytes", 256<<10)
	v.SetDefault("limits.default_timeout_sec", 30.0)
	v.SetDefault("limits.default_concurrency", 1)
	v.SetDefault("limits.max_memory_mb", 512)
	v.SetDefault("limits.max_file_descriptors", 256)

	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("circuit_breaker.recovery_timeout", 30*time.Second)

	v.SetDefault("health.check_interval", 30*time.Second)
	v.SetDefault("health.cpu_threshold", 0.8)
	v.SetDefault("health.memory_threshold", 0.8)
	v.SetDefault("health.disk_threshold", 0.8)

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("log_level", "info")
}

// envBindings maps every environment variable spec.md §6 names to its
// viper key, so MCP_SERVER_PORT etc. override the file/defaults layer
// without relying on viper's automatic SCREAMING_SNAKE-to-dotted guessing,
// which doesn't hold for names like MCP_HEALTH_CPU_THRESHOLD.
var envBindings = map[string]string{
	"MCP_SERVER_TRANSPORT":                   "server.transport",
	"MCP_SERVER_HOST":                         "server.host",
	"MCP_SERVER_PORT":                         "server.port",
	"MCP_MAX_ARGS_LEN":                        "limits.max_args_len",
	"MCP_MAX_STDOUT_BYTES":                    "limits.max_stdout_bytes",
	"MCP_MAX_STDERR_BYTES":                    "limits.max_stderr_bytes",
	"MCP_DEFAULT_TIMEOUT_SEC":                 "limits.default_timeout_sec",
	"MCP_DEFAULT_CONCURRENCY":                 "limits.default_concurrency",
	"MCP_MAX_MEMORY_MB":                       "limits.max_memory_mb",
	"MCP_MAX_FILE_DESCRIPTORS":                "limits.max_file_descriptors",
	"MCP_CIRCUIT_BREAKER_FAILURE_THRESHOLD":   "circuit_breaker.failure_threshold",
	"MCP_CIRCUIT_BREAKER_RECOVERY_TIMEOUT":    "circuit_breaker.recovery_timeout",
	"MCP_HEALTH_CHECK_INTERVAL":               "health.check_interval",
	"MCP_HEALTH_CPU_THRESHOLD":                "health.cpu_threshold",
	"MCP_HEALTH_MEMORY_THRESHOLD":             "health.memory_threshold",
	"MCP_HEALTH_DISK_THRESHOLD":               "health.disk_threshold",
	"MCP_METRICS_ENABLED":                     "metrics_enabled",
	"TOOL_INCLUDE":                            "tools.include",
	"TOOL_EXCLUDE":                            "tools.exclude",
	"LOG_LEVEL":                               "log_level",
}

func bindEnv(v *viper.Viper) error {
	for env, key := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("config: bind env %s: %w", env, err)
		}
	}
	return nil
}

// splitListEnv lets TOOL_INCLUDE/TOOL_EXCLUDE accept a comma-separated
// string (the natural shell-env shape) even though viper's env binding
// otherwise yields a single string where a []string is expected.
func splitListEnv(v *viper.Viper, key string) {
	raw := v.GetString(key)
	if raw == "" {
		return
	}
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	v.Set(key, parts)
}

func build(v *viper.Viper) (*Config, error) {
	splitListEnv(v, "tools.include")
	splitListEnv(v, "tools.exclude")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants a malformed file or env override could
// otherwise violate silently.
func (c *Config) Validate() error {
	switch c.Server.Transport {
	case "http", "stdio":
	default:
		return fmt.Errorf("config: server.transport must be http or stdio, got %q", c.Server.Transport)
	}
	if c.Server.Transport == "http" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return fmt.Errorf("config: server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Limits.MaxArgsLen <= 0 {
		return fmt.Errorf("config: limits.max_args_len must be > 0")
	}
	if c.Limits.DefaultConcurrency <= 0 {
		return fmt.Errorf("config: limits.default_concurrency must be > 0")
	}
	if c.CircuitBreaker.FailureThreshold <= 0 {
		return fmt.Errorf("config: circuit_breaker.failure_threshold must be > 0")
	}
	for _, threshold := range []float64{c.Health.CPUThreshold, c.Health.MemoryThreshold, c.Health.DiskThreshold} {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("config: health thresholds must be in (0,1], got %v", threshold)
		}
	}
	return nil
}

// Loader owns the live viper instance and the most recently resolved,
// validated Config, swapped atomically under Watch's reload callback.
type Loader struct {
	v *viper.Viper

	mu  sync.RWMutex
	cur *Config
}

// Load builds a Loader from defaults, merges path if non-empty (a path that
// is missing, unreadable or unparsable is an error; an empty path means
// defaults and env only), applies env overrides, validates, and returns
// the Loader holding the first resolved Config.
func Load(path string) (*Loader, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg, err := build(v)
	if err != nil {
		return nil, err
	}

	return &Loader{v: v, cur: cfg}, nil
}

// Current returns the most recently resolved, validated Config.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cur
}

// OnChangeFunc receives every successfully reloaded Config.
type OnChangeFunc func(*Config)

// WatchAndReload watches the backing file (if any) for changes and
// re-resolves the Config on every write, swapping Current() only when the
// new config validates; an invalid reload is logged by the caller via
// onInvalid and the previous Config stays in effect, matching C1's "never
// let a bad reload take the server down" requirement.
func (l *Loader) WatchAndReload(onChange OnChangeFunc, onInvalid func(error)) {
	l.v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := build(l.v)
		if err != nil {
			if onInvalid != nil {
				onInvalid(err)
			}
			return
		}
		l.mu.Lock()
		l.cur = cfg
		l.mu.Unlock()
		if onChange != nil {
			onChange(cfg)
		}
	})
	l.v.WatchConfig()
}
