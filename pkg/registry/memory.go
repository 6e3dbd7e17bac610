package registry

import (
	"sync"
	"time"
)

// MemoryStore implements Store using in-memory storage. It is the default
// backend; all registrations are lost when the process exits.
//
// MemoryStore is thread-safe.
type MemoryStore struct {
	mu sync.RWMutex

	// instances in registration order.
	instances []*Instance

	// byID indexes instances by instance id.
	byID map[string]*Instance
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]*Instance),
	}
}

// Register implements Store.
func (m *MemoryStore) Register(inst *Instance) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *inst
	m.instances = append(m.instances, &cp)
	m.byID[cp.InstanceID] = &cp
	return nil
}

// Deregister implements Store.
func (m *MemoryStore) Deregister(instanceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[instanceID]; !ok {
		return ErrNotFound
	}
	delete(m.byID, instanceID)
	m.instances = m.removeLocked(func(inst *Instance) bool {
		return inst.InstanceID == instanceID
	})
	return nil
}

// Touch implements Store.
func (m *MemoryStore) Touch(instanceID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.byID[instanceID]
	if !ok {
		return ErrNotFound
	}
	inst.LastSeen = at
	return nil
}

// List implements Store.
func (m *MemoryStore) List() ([]*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Instance, len(m.instances))
	for i, inst := range m.instances {
		cp := *inst
		out[i] = &cp
	}
	return out, nil
}

// PruneStale implements Store.
func (m *MemoryStore) PruneStale(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	before := len(m.instances)
	m.instances = m.removeLocked(func(inst *Instance) bool {
		if inst.LastSeen.Before(cutoff) {
			delete(m.byID, inst.InstanceID)
			return true
		}
		return false
	})
	return before - len(m.instances), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

// removeLocked returns m.instances without the entries drop selects.
// The caller must hold the write lock.
func (m *MemoryStore) removeLocked(drop func(*Instance) bool) []*Instance {
	kept := m.instances[:0]
	for _, inst := range m.instances {
		if !drop(inst) {
			kept = append(kept, inst)
		}
	}
	return kept
}
