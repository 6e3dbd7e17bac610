package gateway

import (
	"sync"
	"time"
)

// Scheduler registers periodic callbacks for the request watchdog. The
// default implementation is ticker-backed; tests substitute a fake to
// drive ticks deterministically.
type Scheduler interface {
	// Every runs fn at the given fixed interval until the returned handle
	// is stopped.
	Every(interval time.Duration, fn func()) WatchdogHandle
}

// WatchdogHandle cancels a previously registered periodic callback.
type WatchdogHandle interface {
	// Stop cancels the callback. Once Stop returns, no subsequent tick
	// will run; a tick already in flight may still complete. Stop is
	// idempotent.
	Stop()
}

// TickerScheduler runs periodic callbacks on a time.Ticker, one goroutine
// per registration.
type TickerScheduler struct{}

// Every implements Scheduler.
func (TickerScheduler) Every(interval time.Duration, fn func()) WatchdogHandle {
	t := &tickerTask{
		ticker: time.NewTicker(interval),
		fn:     fn,
		done:   make(chan struct{}),
	}
	go t.run()
	return t
}

type tickerTask struct {
	ticker *time.Ticker
	fn     func()
	done   chan struct{}

	mu      sync.Mutex
	stopped bool
}

func (t *tickerTask) run() {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// The ticker channel may already hold a tick when Stop runs.
			// Ticks fire under the same mutex Stop takes, so once Stop has
			// returned no further tick can run.
			t.mu.Lock()
			if t.stopped {
				t.mu.Unlock()
				return
			}
			t.fn()
			t.mu.Unlock()
		}
	}
}

// Stop implements WatchdogHandle.
func (t *tickerTask) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	t.ticker.Stop()
	close(t.done)
}
