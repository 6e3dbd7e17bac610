package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config contains configuration for the metrics collector.
type Config struct {
	// Enabled controls whether metrics are collected.
	Enabled bool `yaml:"enabled"`

	// Namespace is the Prometheus metric namespace.
	// Default: "ganymede"
	Namespace string `yaml:"namespace"`

	// Subsystem is the Prometheus metric subsystem.
	// Default: "gateway"
	Subsystem string `yaml:"subsystem"`

	// DurationBuckets are the histogram buckets for backend call durations,
	// in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// Collector manages metric registration and provides a unified interface
// for recording metrics across the gateway.
type Collector struct {
	config   *Config
	registry *prometheus.Registry

	// Timer samples for backend calls
	timers *TimerMetrics

	// Proxy request metrics
	requests *RequestMetrics
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a fresh
// registry is created.
func NewCollector(cfg *Config, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = "ganymede"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "gateway"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Backend module calls are typically fast; stretch to 30s for
		// stalled requests surfaced by the watchdog.
		cfg.DurationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0}
	}

	return &Collector{
		config:   cfg,
		registry: registry,
		timers:   NewTimerMetrics(cfg, registry),
		requests: NewRequestMetrics(cfg, registry),
	}
}

// Timers returns the named timer sink for backend call measurements.
func (c *Collector) Timers() *TimerMetrics {
	return c.timers
}

// Requests returns the proxy request metrics.
func (c *Collector) Requests() *RequestMetrics {
	return c.requests
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
