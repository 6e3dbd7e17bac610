package registry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// Sweeper prunes stale module instances on a cron schedule. An instance is
// stale when it has not been touched within the configured TTL.
type Sweeper struct {
	registry *Registry
	cron     *cron.Cron
	schedule string
	ttl      time.Duration
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
}

// NewSweeper creates a maintenance sweeper for the registry.
//
// Common schedules:
//   - "@every 1m"  - every minute
//   - "0 * * * *"  - hourly
func NewSweeper(registry *Registry, schedule string, ttl time.Duration, logger *logging.Logger) *Sweeper {
	return &Sweeper{
		registry: registry,
		cron:     cron.New(),
		schedule: schedule,
		ttl:      ttl,
		logger:   logger.With("component", "registry.sweeper"),
	}
}

// Start begins the scheduled sweeping. An empty schedule disables the
// sweeper. Start returns once the schedule is registered; sweeping runs in
// the background until the context is cancelled or Stop is called.
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sweep schedule not configured, skipping sweeper")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("registry sweeper started",
		"schedule", s.schedule,
		"ttl", s.ttl,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// runSweep executes one sweep cycle.
func (s *Sweeper) runSweep() {
	pruned, err := s.registry.PruneStale(time.Now().Add(-s.ttl))
	if err != nil {
		s.logger.Error("registry sweep failed", "error", err)
		return
	}
	if pruned > 0 {
		s.logger.Info("registry sweep completed", "pruned", pruned)
	}
}

// Stop halts scheduled sweeping. It is safe to call more than once.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	s.logger.Info("registry sweeper stopped")
}
