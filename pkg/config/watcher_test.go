package config

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

func TestModulesWatcher(t *testing.T) {
	logger, err := logging.New(logging.Config{Writer: io.Discard})
	if err != nil {
		t.Fatalf("logging.New() error = %v", err)
	}

	path := writeFile(t, "modules.yaml", `
modules:
  - id: mod-a
    url: http://localhost:9131
`)

	watcher, err := NewModulesWatcher(path, 20*time.Millisecond, logger)
	if err != nil {
		t.Fatalf("NewModulesWatcher() error = %v", err)
	}

	var mu sync.Mutex
	var reloaded [][]ModuleDefinition

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- watcher.Watch(ctx, func(modules []ModuleDefinition) error {
			mu.Lock()
			reloaded = append(reloaded, modules)
			mu.Unlock()
			return nil
		})
	}()

	// Give the watch loop time to register the path.
	time.Sleep(50 * time.Millisecond)

	updated := `
modules:
  - id: mod-a
    url: http://localhost:9131
  - id: mod-b
    url: http://localhost:9132
`
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(reloaded)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		case <-time.After(10 * time.Millisecond):
		}
	}

	mu.Lock()
	last := reloaded[len(reloaded)-1]
	mu.Unlock()
	if len(last) != 2 {
		t.Errorf("reloaded modules = %v, want 2 entries", last)
	}

	if err := watcher.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
