package config

import (
	"fmt"
	"net"
)

// Validate checks the configuration for inconsistencies. It expects
// defaults to have been applied already.
func Validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Gateway.ListenAddress); err != nil {
		return fmt.Errorf("gateway.listen_address %q: %w", cfg.Gateway.ListenAddress, err)
	}

	switch cfg.Registry.Backend {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("registry.backend %q: must be \"memory\" or \"sqlite\"", cfg.Registry.Backend)
	}

	if cfg.Registry.Backend == "sqlite" && cfg.Registry.Path == "" {
		return fmt.Errorf("registry.path is required for the sqlite backend")
	}

	seen := make(map[string]bool, len(cfg.Registry.Modules))
	for _, m := range cfg.Registry.Modules {
		if m.ID == "" {
			return fmt.Errorf("registry.modules: module id is required")
		}
		if m.URL == "" {
			return fmt.Errorf("registry.modules: module %s: url is required", m.ID)
		}
		if seen[m.ID] {
			return fmt.Errorf("registry.modules: duplicate module id %s", m.ID)
		}
		seen[m.ID] = true
	}

	if cfg.Registry.InstanceTTL < 0 {
		return fmt.Errorf("registry.instance_ttl must not be negative")
	}

	for _, b := range cfg.Telemetry.Metrics.DurationBuckets {
		if b <= 0 {
			return fmt.Errorf("telemetry.metrics.duration_buckets: bucket %v must be positive", b)
		}
	}

	return nil
}
