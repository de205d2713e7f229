package model

import (
	"sort"
	"sync"
)

// Registry stores the handles of models loaded in this process.
type Registry struct {
	models map[string]*Handle
	mu     sync.RWMutex
}

// NewRegistry creates a new model registry.
func NewRegistry() *Registry {
	return &Registry{
		models: make(map[string]*Handle),
	}
}

// Set adds a model handle to the registry, replacing any previous one.
func (r *Registry) Set(handle *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.models[handle.Arch] = handle
}

// Get returns the handle for the given architecture.
func (r *Registry) Get(arch string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.models[arch]
	return handle, ok
}

// List returns all handles sorted by architecture.
func (r *Registry) List() []*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handles := make([]*Handle, 0, len(r.models))
	for _, handle := range r.models {
		handles = append(handles, handle)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i].Arch < handles[j].Arch })

	return handles
}

