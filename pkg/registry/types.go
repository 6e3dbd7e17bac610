package registry

import (
	"errors"
	"time"
)

// ErrNotFound is returned when an instance is not in the registry.
var ErrNotFound = errors.New("registry: instance not found")

// ModuleDescriptor describes a backend module the gateway can proxy to.
type ModuleDescriptor struct {
	// ID is the module identifier, e.g. "mod-users-1.2.0".
	ID string `yaml:"id"`

	// URL is the base URL the module is reachable at.
	URL string `yaml:"url"`

	// PathPrefix is the inbound path prefix the module serves.
	// "/" matches every path.
	PathPrefix string `yaml:"path_prefix"`
}

// ModuleID returns the module identifier. It satisfies the gateway's
// module reference interface.
func (m ModuleDescriptor) ModuleID() string {
	return m.ID
}

// Instance is one registered deployment of a module.
type Instance struct {
	// InstanceID uniquely identifies this registration.
	InstanceID string

	// Module is the registered descriptor.
	Module ModuleDescriptor

	// CreatedAt is the registration time.
	CreatedAt time.Time

	// LastSeen is the last time the instance reported in. Stale instances
	// are swept by the maintenance job.
	LastSeen time.Time
}

// Store persists module instances. Implementations must preserve
// registration order in List.
type Store interface {
	// Register stores a new instance.
	Register(inst *Instance) error

	// Deregister removes an instance. Returns ErrNotFound if absent.
	Deregister(instanceID string) error

	// Touch updates an instance's LastSeen. Returns ErrNotFound if absent.
	Touch(instanceID string, at time.Time) error

	// List returns all instances in registration order.
	List() ([]*Instance, error)

	// PruneStale removes instances whose LastSeen is before cutoff and
	// returns how many were removed.
	PruneStale(cutoff time.Time) (int, error)

	// Close releases store resources.
	Close() error
}
