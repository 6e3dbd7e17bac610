// Package telemetry groups the observability support for Ganymede.
//
// # Components
//
//   - logging: structured logging with an extra trace severity
//   - metrics: Prometheus metrics for backend call timing and outcomes
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//		return err
//	}
//
//	collector := metrics.NewCollector(&metrics.Config{Enabled: true}, nil)
//	sample := collector.Timers().Start("proxy.mod-users")
//	defer sample.Stop()
package telemetry
