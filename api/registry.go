// Package api exposes the analysis objects over HTTP for external
// optimization scripts.
//
// Information Hiding:
// - Object storage and lookup implementation hidden
// - HTTP marshalling and status mapping hidden
// - Mesh cache lifecycle per foil hidden

package api

import (
	"fmt"
	"sort"
	"sync"

	"aeropolar/analysis"
	"aeropolar/geom"
)

// Registry holds the named foils known to the server together with
// their mesh caches. Safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// entry pairs a foil with its mesh cache. The map-level mu guards the
// entries map and the foil pointer; meshMu guards the cache pointer and
// the cache contents, since PolarMeshCache leaves generate/query
// serialization to its caller and echo runs handlers concurrently.
type entry struct {
	foil   *geom.Foil
	meshMu sync.RWMutex
	mesh   *analysis.PolarMeshCache
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Register adds a foil under its name.
// Returns an error if a foil with the same name already exists.
func (r *Registry) Register(f *geom.Foil) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[f.Name]; exists {
		return fmt.Errorf("foil '%s' already registered", f.Name)
	}
	r.entries[f.Name] = &entry{foil: f}
	return nil
}

// Foil returns a foil by name.
func (r *Registry) Foil(name string) (*geom.Foil, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, false
	}
	return e.foil, true
}

// ReadMesh runs fn with shared access to the named foil's mesh cache.
// The cache passed to fn is nil when no mesh has been generated yet.
// The first result reports whether the foil exists.
func (r *Registry) ReadMesh(name string, fn func(*analysis.PolarMeshCache) error) (bool, error) {
	e, exists := r.lookup(name)
	if !exists {
		return false, nil
	}

	e.meshMu.RLock()
	defer e.meshMu.RUnlock()
	return true, fn(e.mesh)
}

// UpdateMesh runs fn with exclusive access to the named foil's mesh
// cache, creating the cache with create on first use. Holding the
// exclusive lock across the whole of fn makes a hit check followed by
// generation atomic with respect to other requests for the same foil.
// The first result reports whether the foil exists.
func (r *Registry) UpdateMesh(name string, create func() *analysis.PolarMeshCache, fn func(*analysis.PolarMeshCache) error) (bool, error) {
	e, exists := r.lookup(name)
	if !exists {
		return false, nil
	}

	e.meshMu.Lock()
	defer e.meshMu.Unlock()
	if e.mesh == nil {
		e.mesh = create()
	}
	return true, fn(e.mesh)
}

func (r *Registry) lookup(name string) (*entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	return e, exists
}

// Remove deletes a foil and its mesh. Reports whether the foil existed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.entries[name]
	delete(r.entries, name)
	return exists
}

// Names returns all registered foil names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
