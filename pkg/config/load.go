package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from a YAML file at the specified path, applies
// default values, and validates the result. Environment variables are not
// consulted; use LoadWithEnvOverrides for that.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	var cfg Config
	cfg.Telemetry.Metrics.Enabled = true
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Variables follow the naming convention
// GANYMEDE_SECTION_FIELD (e.g. GANYMEDE_GATEWAY_LISTEN_ADDRESS) and always
// take precedence over file-based configuration.
//
// The loading sequence is:
//  1. Load YAML from file
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadWithEnvOverrides(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to cfg.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("GANYMEDE_GATEWAY_LISTEN_ADDRESS"); val != "" {
		cfg.Gateway.ListenAddress = val
	}
	if val := os.Getenv("GANYMEDE_GATEWAY_READ_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.ReadTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_GATEWAY_WRITE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.WriteTimeout = d
		}
	}
	if val := os.Getenv("GANYMEDE_GATEWAY_WAIT_THRESHOLD"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.WaitThreshold = d
		}
	}
	if val := os.Getenv("GANYMEDE_GATEWAY_BACKEND_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Gateway.BackendTimeout = d
		}
	}

	if val := os.Getenv("GANYMEDE_REGISTRY_BACKEND"); val != "" {
		cfg.Registry.Backend = val
	}
	if val := os.Getenv("GANYMEDE_REGISTRY_PATH"); val != "" {
		cfg.Registry.Path = val
	}
	if val := os.Getenv("GANYMEDE_REGISTRY_SWEEP_SCHEDULE"); val != "" {
		cfg.Registry.SweepSchedule = val
	}
	if val := os.Getenv("GANYMEDE_REGISTRY_INSTANCE_TTL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Registry.InstanceTTL = d
		}
	}

	if val := os.Getenv("GANYMEDE_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("GANYMEDE_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("GANYMEDE_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
}

// LoadModules parses a standalone module list file: a YAML document with a
// top-level "modules" key, in the same shape as registry.modules.
func LoadModules(path string) ([]ModuleDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read modules file %q: %w", path, err)
	}

	var doc struct {
		Modules []ModuleDefinition `yaml:"modules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse modules file %q: %w", path, err)
	}

	for i := range doc.Modules {
		if doc.Modules[i].ID == "" {
			return nil, fmt.Errorf("modules file %q: module id is required", path)
		}
		if doc.Modules[i].URL == "" {
			return nil, fmt.Errorf("modules file %q: module %s: url is required", path, doc.Modules[i].ID)
		}
		if doc.Modules[i].PathPrefix == "" {
			doc.Modules[i].PathPrefix = "/"
		}
	}

	return doc.Modules, nil
}
