package catalog

import (
	"slices"
	"strings"
	"sync"
)

// Registry is the in-memory map of server name to definition, persisted
// through a Backend. Mutating operations validate, apply, and persist
// synchronously; callers never need an explicit Save after AddServer or
// RemoveServer.
type Registry struct {
	mu      sync.RWMutex
	backend Backend
	servers map[string]ServerDefinition
}

// NewRegistry creates a registry over the given backend.
func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend: backend,
		servers: make(map[string]ServerDefinition),
	}
}

// NewDefaultRegistry creates a registry over the default JSON file backend.
func NewDefaultRegistry() (*Registry, error) {
	backend, err := NewDefaultFileBackend()
	if err != nil {
		return nil, err
	}
	return NewRegistry(backend), nil
}

// Load reads the backing store into memory, replacing the current state.
// Entries that fail validation are dropped. Backends degrade missing or
// corrupted data to an empty set, so Load never fails on first run.
func (r *Registry) Load() error {
	defs, err := r.backend.Load()
	if err != nil {
		return err
	}

	servers := make(map[string]ServerDefinition, len(defs))
	for _, def := range defs {
		if err := ValidateDefinition(def); err != nil {
			continue
		}
		servers[def.Name] = def
	}

	r.mu.Lock()
	r.servers = servers
	r.mu.Unlock()
	return nil
}

// AddServer validates the definition, inserts or fully replaces the entry
// keyed by its name, and persists. An invalid definition fails the call
// and leaves prior state untouched.
func (r *Registry) AddServer(def ServerDefinition) error {
	if err := ValidateDefinition(def); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[def.Name] = def.Clone()
	return r.persistLocked()
}

// RemoveServer removes the entry if present and persists. It reports
// whether anything was removed; an unknown name is not an error.
func (r *Registry) RemoveServer(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.servers[name]; !ok {
		return false, nil
	}
	delete(r.servers, name)
	if err := r.persistLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// GetServer returns the definition for name.
func (r *Registry) GetServer(name string) (ServerDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.servers[name]
	if !ok {
		return ServerDefinition{}, false
	}
	return def.Clone(), true
}

// HasServer reports whether name is present.
func (r *Registry) HasServer(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.servers[name]
	return ok
}

// ListServers returns all definitions in name-sorted order.
func (r *Registry) ListServers() []ServerDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sortedLocked()
}

// ListEnabledServers returns definitions whose enabled flag is not
// explicitly false, in name-sorted order.
func (r *Registry) ListEnabledServers() []ServerDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := r.sortedLocked()
	enabled := defs[:0]
	for _, def := range defs {
		if def.IsEnabled() {
			enabled = append(enabled, def)
		}
	}
	return enabled
}

// Save force-persists the current in-memory state.
func (r *Registry) Save() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked()
}

// Path returns the backing store path.
func (r *Registry) Path() string {
	return r.backend.Path()
}

func (r *Registry) persistLocked() error {
	return r.backend.Save(r.sortedLocked())
}

func (r *Registry) sortedLocked() []ServerDefinition {
	defs := make([]ServerDefinition, 0, len(r.servers))
	for _, def := range r.servers {
		defs = append(defs, def.Clone())
	}
	slices.SortFunc(defs, func(a, b ServerDefinition) int {
		return strings.Compare(a.Name, b.Name)
	})
	return defs
}
