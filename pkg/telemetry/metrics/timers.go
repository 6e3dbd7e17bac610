package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TimerMetrics is a named timer sink for backend call measurements.
//
// A measurement is started with Start and finalized exactly once with
// Sample.Stop, which records the elapsed duration into a histogram
// labelled by the measurement key. Sample.Elapsed peeks at the running
// duration without recording anything.
type TimerMetrics struct {
	duration *prometheus.HistogramVec
}

// NewTimerMetrics creates and registers timer metrics with the provided
// registry.
func NewTimerMetrics(cfg *Config, registry *prometheus.Registry) *TimerMetrics {
	tm := &TimerMetrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "backend_call_duration_seconds",
				Help:      "Duration of proxied backend module calls in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"key"},
		),
	}

	registry.MustRegister(tm.duration)

	return tm
}

// Start begins a named measurement and returns its sample handle.
func (tm *TimerMetrics) Start(key string) *Sample {
	return &Sample{
		tm:    tm,
		key:   key,
		start: time.Now(),
	}
}

// Sample is a single in-flight timer measurement.
type Sample struct {
	tm    *TimerMetrics
	key   string
	start time.Time
}

// Key returns the measurement name the sample was started under.
func (s *Sample) Key() string {
	return s.key
}

// Elapsed returns the duration since the sample was started without
// finalizing it.
func (s *Sample) Elapsed() time.Duration {
	return time.Since(s.start)
}

// Stop finalizes the sample, records it into the histogram, and returns
// the elapsed duration.
func (s *Sample) Stop() time.Duration {
	elapsed := time.Since(s.start)
	s.tm.duration.WithLabelValues(s.key).Observe(elapsed.Seconds())
	return elapsed
}
