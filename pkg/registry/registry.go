package registry

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/ganymede/pkg/telemetry/logging"
)

// Registry tracks the backend modules the gateway proxies to and resolves
// the module chain for an inbound path.
type Registry struct {
	store  Store
	logger *logging.Logger
}

// New creates a registry on top of the given store.
func New(store Store, logger *logging.Logger) *Registry {
	return &Registry{
		store:  store,
		logger: logger.With("component", "registry"),
	}
}

// Register records a new instance of the module and returns it. Each
// registration gets a fresh instance identifier.
func (r *Registry) Register(md ModuleDescriptor) (*Instance, error) {
	if md.ID == "" {
		return nil, fmt.Errorf("registry: module id is required")
	}
	if md.URL == "" {
		return nil, fmt.Errorf("registry: module %s: url is required", md.ID)
	}
	if md.PathPrefix == "" {
		md.PathPrefix = "/"
	}

	now := time.Now()
	inst := &Instance{
		InstanceID: uuid.New().String(),
		Module:     md,
		CreatedAt:  now,
		LastSeen:   now,
	}

	if err := r.store.Register(inst); err != nil {
		return nil, fmt.Errorf("registry: register %s: %w", md.ID, err)
	}

	r.logger.Info("module registered",
		"module", md.ID,
		"instance", inst.InstanceID,
		"url", md.URL,
		"path_prefix", md.PathPrefix,
	)
	return inst, nil
}

// Deregister removes an instance.
func (r *Registry) Deregister(instanceID string) error {
	if err := r.store.Deregister(instanceID); err != nil {
		return err
	}
	r.logger.Info("module deregistered", "instance", instanceID)
	return nil
}

// Touch marks an instance as alive now.
func (r *Registry) Touch(instanceID string) error {
	return r.store.Touch(instanceID, time.Now())
}

// List returns all registered instances in registration order.
func (r *Registry) List() ([]*Instance, error) {
	return r.store.List()
}

// ChainForPath resolves the ordered module chain for an inbound path: all
// registered modules whose path prefix matches, in registration order.
func (r *Registry) ChainForPath(path string) ([]ModuleDescriptor, error) {
	instances, err := r.store.List()
	if err != nil {
		return nil, fmt.Errorf("registry: list: %w", err)
	}

	var chain []ModuleDescriptor
	for _, inst := range instances {
		if prefixMatches(inst.Module.PathPrefix, path) {
			chain = append(chain, inst.Module)
		}
	}
	return chain, nil
}

// PruneStale removes instances not seen since cutoff.
func (r *Registry) PruneStale(cutoff time.Time) (int, error) {
	n, err := r.store.PruneStale(cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Info("pruned stale module instances", "count", n)
	}
	return n, nil
}

// Close releases the underlying store.
func (r *Registry) Close() error {
	return r.store.Close()
}

// prefixMatches reports whether prefix matches path on a path-segment
// boundary. "/" matches everything.
func prefixMatches(prefix, path string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/' || path[len(prefix)] == '?'
}
