package server

import (
	"sort"
	"sync"

	"github.com/gitrdm/natded/pkg/natded"
)

// Registry holds the relations the server answers for. Relations are
// immutable, so readers only need the lock to fetch one; a reload swaps the
// whole map.
type Registry struct {
	mu        sync.RWMutex
	relations map[string]*natded.Relation
}

// NewRegistry returns a registry over a copy of relations.
func NewRegistry(relations map[string]*natded.Relation) *Registry {
	r := &Registry{}
	r.Replace(relations)
	return r
}

// Get returns the relation called name.
func (r *Registry) Get(name string) (*natded.Relation, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rel, ok := r.relations[name]
	return rel, ok
}

// Names returns the relation names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.relations))
	for n := range r.relations {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of relations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.relations)
}

// Replace swaps in a copy of relations.
func (r *Registry) Replace(relations map[string]*natded.Relation) {
	m := make(map[string]*natded.Relation, len(relations))
	for k, v := range relations {
		m[k] = v
	}
	r.mu.Lock()
	r.relations = m
	r.mu.Unlock()
	relationsLoaded.Set(float64(len(m)))
}

// Set adds or replaces one relation.
func (r *Registry) Set(name string, rel *natded.Relation) {
	r.mu.Lock()
	m := make(map[string]*natded.Relation, len(r.relations)+1)
	for k, v := range r.relations {
		m[k] = v
	}
	m[name] = rel
	r.relations = m
	r.mu.Unlock()
	relationsLoaded.Set(float64(len(m)))
}
