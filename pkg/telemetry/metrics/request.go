package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// RequestMetrics tracks metrics related to proxied gateway requests.
//
// Metrics:
//   - ganymede_gateway_requests_total: Total request count by module and status
//   - ganymede_gateway_errors_total: Total error responses by status
type RequestMetrics struct {
	requestsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

// NewRequestMetrics creates and registers request metrics with the provided
// registry.
func NewRequestMetrics(cfg *Config, registry *prometheus.Registry) *RequestMetrics {
	rm := &RequestMetrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "requests_total",
				Help:      "Total number of backend module calls made by the gateway",
			},
			[]string{"module", "status"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "errors_total",
				Help:      "Total number of error responses produced by the gateway itself",
			},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		rm.requestsTotal,
		rm.errorsTotal,
	)

	return rm
}

// RecordCall records one backend module call with its response status.
func (rm *RequestMetrics) RecordCall(module string, status int) {
	rm.requestsTotal.WithLabelValues(module, strconv.Itoa(status)).Inc()
}

// RecordError records one gateway-generated error response.
func (rm *RequestMetrics) RecordError(status int) {
	rm.errorsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}
