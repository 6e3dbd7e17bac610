package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"mercator-hq/ganymede/pkg/config"
	"mercator-hq/ganymede/pkg/gateway"
	"mercator-hq/ganymede/pkg/proxy"
	"mercator-hq/ganymede/pkg/registry"
	"mercator-hq/ganymede/pkg/telemetry/logging"
	"mercator-hq/ganymede/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Ganymede gateway server",
	Long: `Start the Ganymede gateway server with the specified configuration.

The gateway listens on the configured address, resolves the module chain
for each request path from the registry, and forwards the request through
the chain with per-hop timing and trace headers.

Examples:
  # Start with default config
  ganymede run

  # Start with custom config
  ganymede run --config /etc/ganymede/config.yaml

  # Override listen address
  ganymede run --listen 0.0.0.0:9130

  # Validate config without starting the server
  ganymede run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (trace, debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Gateway.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose && cfg.Telemetry.Logging.Level != "trace" {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	var collector *metrics.Collector
	if cfg.Telemetry.Metrics.Enabled {
		collector = metrics.NewCollector(&metrics.Config{
			Enabled:         true,
			Namespace:       cfg.Telemetry.Metrics.Namespace,
			Subsystem:       cfg.Telemetry.Metrics.Subsystem,
			DurationBuckets: cfg.Telemetry.Metrics.DurationBuckets,
		}, nil)
	}

	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}
	reg := registry.New(store, logger)
	defer reg.Close()

	if err := syncModules(reg, cfg.Registry.Modules); err != nil {
		return fmt.Errorf("failed to register configured modules: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if cfg.Registry.ModulesFile != "" {
		defs, err := config.LoadModules(cfg.Registry.ModulesFile)
		if err != nil {
			return fmt.Errorf("failed to load modules file: %w", err)
		}
		if err := syncModules(reg, defs); err != nil {
			return fmt.Errorf("failed to register modules from file: %w", err)
		}

		watcher, err := config.NewModulesWatcher(cfg.Registry.ModulesFile, time.Second, logger)
		if err != nil {
			return fmt.Errorf("failed to watch modules file: %w", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx, func(defs []config.ModuleDefinition) error {
				return syncModules(reg, defs)
			}); err != nil {
				logger.Error("modules watcher stopped", "error", err)
			}
		}()
	}

	if cfg.Registry.SweepSchedule != "" {
		sweeper := registry.NewSweeper(reg, cfg.Registry.SweepSchedule, cfg.Registry.InstanceTTL, logger)
		if err := sweeper.Start(ctx); err != nil {
			return fmt.Errorf("failed to start registry sweeper: %w", err)
		}
		defer sweeper.Stop()
	}

	handler := proxy.NewHandler(proxy.HandlerConfig{
		Resolver:       reg,
		Requests:       requestMetrics(collector),
		BackendTimeout: cfg.Gateway.BackendTimeout,
		Context: gateway.Options{
			Logger:        logger,
			Timers:        timerMetrics(collector),
			WaitThreshold: cfg.Gateway.WaitThreshold,
		},
	})

	srv := proxy.NewServer(&cfg.Gateway, logger, handler, collector)
	return srv.Start(ctx)
}

// loadConfig reads the configured file. When the default config file is
// absent, built-in defaults are used so the gateway can start bare.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadWithEnvOverrides(cfgFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config") {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// newStore builds the registry store selected by the configuration.
func newStore(cfg *config.Config, logger *logging.Logger) (registry.Store, error) {
	switch strings.ToLower(cfg.Registry.Backend) {
	case "", "memory":
		return registry.NewMemoryStore(), nil
	case "sqlite":
		store, err := registry.NewSQLiteStore(registry.SQLiteConfig{Path: cfg.Registry.Path})
		if err != nil {
			return nil, fmt.Errorf("failed to open registry database: %w", err)
		}
		logger.Info("registry database opened", "path", cfg.Registry.Path)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported registry backend: %s", cfg.Registry.Backend)
	}
}

// syncModules replaces the registry contents with the given module list.
func syncModules(reg *registry.Registry, defs []config.ModuleDefinition) error {
	existing, err := reg.List()
	if err != nil {
		return err
	}
	for _, inst := range existing {
		if err := reg.Deregister(inst.InstanceID); err != nil && !errors.Is(err, registry.ErrNotFound) {
			return err
		}
	}
	for _, def := range defs {
		md := registry.ModuleDescriptor{
			ID:         def.ID,
			URL:        def.URL,
			PathPrefix: def.PathPrefix,
		}
		if _, err := reg.Register(md); err != nil {
			return err
		}
	}
	return nil
}

func timerMetrics(collector *metrics.Collector) *metrics.TimerMetrics {
	if collector == nil {
		return nil
	}
	return collector.Timers()
}

func requestMetrics(collector *metrics.Collector) *metrics.RequestMetrics {
	if collector == nil {
		return nil
	}
	return collector.Requests()
}
