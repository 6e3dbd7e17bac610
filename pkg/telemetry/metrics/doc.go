// Package metrics provides Prometheus metrics for Ganymede.
//
// The Collector owns a Prometheus registry and the metric families used by
// the gateway:
//
//   - TimerMetrics: a named start/stop timer sink. Each backend module call
//     is measured as a Sample and recorded into a duration histogram
//     labelled by the measurement key.
//   - RequestMetrics: counters for backend calls and gateway-generated
//     error responses.
//
// Collector.Handler exposes the registry in Prometheus exposition format.
package metrics
