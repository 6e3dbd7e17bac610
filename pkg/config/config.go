package config

import "time"

// Config is the root configuration structure for Ganymede. It contains the
// gateway server settings, the module registry, and telemetry.
type Config struct {
	// Gateway contains HTTP gateway server configuration including listen
	// address, timeouts, and the request watchdog threshold.
	Gateway GatewayConfig `yaml:"gateway"`

	// Registry contains module registry configuration: the storage
	// backend, statically configured modules, and maintenance settings.
	Registry RegistryConfig `yaml:"registry"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// GatewayConfig contains configuration for the HTTP gateway server.
type GatewayConfig struct {
	// ListenAddress is the address and port the gateway listens on.
	// Default: "127.0.0.1:9130"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request,
	// including the body.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of
	// the response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next
	// request when keep-alives are enabled.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxHeaderBytes limits the bytes read parsing request headers.
	// Default: 1048576 (1MB)
	MaxHeaderBytes int `yaml:"max_header_bytes"`

	// WaitThreshold is the watchdog interval for backend calls: while a
	// call stays open past this, a WAIT warning is logged each interval.
	// Zero or negative disables the watchdog.
	// Default: 0 (disabled)
	WaitThreshold time.Duration `yaml:"wait_threshold"`

	// BackendTimeout bounds each backend module call.
	// Default: 30s
	BackendTimeout time.Duration `yaml:"backend_timeout"`
}

// ModuleDefinition is a statically configured backend module.
type ModuleDefinition struct {
	// ID is the module identifier, e.g. "mod-users-1.2.0".
	ID string `yaml:"id"`

	// URL is the base URL the module is reachable at.
	URL string `yaml:"url"`

	// PathPrefix is the inbound path prefix the module serves.
	// Default: "/"
	PathPrefix string `yaml:"path_prefix"`
}

// RegistryConfig contains configuration for the module registry.
type RegistryConfig struct {
	// Backend selects the registry store: "memory" or "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// Path is the SQLite database file path (sqlite backend only).
	// Default: "data/registry.db"
	Path string `yaml:"path"`

	// Modules are registered at startup.
	Modules []ModuleDefinition `yaml:"modules"`

	// ModulesFile is an optional YAML file containing a module list that
	// is watched for changes and reloaded at runtime.
	ModulesFile string `yaml:"modules_file"`

	// SweepSchedule is the cron schedule for pruning stale instances.
	// Empty disables sweeping.
	// Example: "@every 1m"
	SweepSchedule string `yaml:"sweep_schedule"`

	// InstanceTTL is how long an instance may go without reporting in
	// before the sweeper removes it.
	// Default: 5m
	InstanceTTL time.Duration `yaml:"instance_ttl"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the minimum log level ("trace", "debug", "info", "warn",
	// "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text", "console").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in logs.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether the metrics endpoint is served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are the histogram buckets for backend call
	// durations, in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the Prometheus collector.
	Metrics MetricsConfig `yaml:"metrics"`
}
