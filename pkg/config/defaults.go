package config

import "time"

// ApplyDefaults fills in default values for any unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Gateway.ListenAddress == "" {
		cfg.Gateway.ListenAddress = "127.0.0.1:9130"
	}
	if cfg.Gateway.ReadTimeout == 0 {
		cfg.Gateway.ReadTimeout = 30 * time.Second
	}
	if cfg.Gateway.WriteTimeout == 0 {
		cfg.Gateway.WriteTimeout = 30 * time.Second
	}
	if cfg.Gateway.IdleTimeout == 0 {
		cfg.Gateway.IdleTimeout = 120 * time.Second
	}
	if cfg.Gateway.ShutdownTimeout == 0 {
		cfg.Gateway.ShutdownTimeout = 30 * time.Second
	}
	if cfg.Gateway.MaxHeaderBytes == 0 {
		cfg.Gateway.MaxHeaderBytes = 1 << 20
	}
	if cfg.Gateway.BackendTimeout == 0 {
		cfg.Gateway.BackendTimeout = 30 * time.Second
	}

	if cfg.Registry.Backend == "" {
		cfg.Registry.Backend = "memory"
	}
	if cfg.Registry.Path == "" {
		cfg.Registry.Path = "data/registry.db"
	}
	if cfg.Registry.InstanceTTL == 0 {
		cfg.Registry.InstanceTTL = 5 * time.Minute
	}
	for i := range cfg.Registry.Modules {
		if cfg.Registry.Modules[i].PathPrefix == "" {
			cfg.Registry.Modules[i].PathPrefix = "/"
		}
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "ganymede"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "gateway"
	}
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.Telemetry.Metrics.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}
