package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// ModulesWatcher watches a module list file for changes and triggers
// reloads. Writes are debounced to prevent reload storms from editors that
// write in several steps.
type ModulesWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *logging.Logger
	path     string
	debounce *debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewModulesWatcher creates a watcher for the module list file at path.
func NewModulesWatcher(path string, debounceInterval time.Duration, logger *logging.Logger) (*ModulesWatcher, error) {
	if debounceInterval <= 0 {
		debounceInterval = 100 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &ModulesWatcher{
		watcher:  watcher,
		logger:   logger.With("component", "config.watcher"),
		path:     path,
		debounce: newDebouncer(debounceInterval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch starts watching for file changes, calling onReload with the parsed
// module list after each change. It blocks until the context is cancelled
// or Stop is called.
func (w *ModulesWatcher) Watch(ctx context.Context, onReload func([]ModuleDefinition) error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch %q: %w", w.path, err)
	}

	w.logger.Info("modules watcher started", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("modules watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("modules watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			w.logger.Debug("modules file event", "path", event.Name, "op", event.Op.String())

			w.debounce.trigger(func() {
				modules, err := LoadModules(w.path)
				if err != nil {
					w.logger.Error("modules reload failed", "error", err)
					return
				}
				w.logger.Info("reloading modules", "count", len(modules))
				if err := onReload(modules); err != nil {
					w.logger.Error("modules reload failed", "error", err)
				}
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching despite errors.
			w.logger.Error("modules watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for the watch loop to exit.
func (w *ModulesWatcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.debounce.stop()

	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// debouncer coalesces rapid triggers into one callback after a quiet
// interval.
type debouncer struct {
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

// trigger schedules fn after the quiet interval, replacing any pending
// callback.
func (d *debouncer) trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, fn)
}

// stop cancels any pending callback.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
