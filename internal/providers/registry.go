package providers

import "assetgen/internal/domain"

// Registry resolves provider names to adapters and answers support checks
// for the dispatcher's validation.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry builds a registry from the given adapters, keyed by Name().
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.adapters[name]
	return a, ok
}

// Supports reports whether the named provider can perform op for jobType.
// Unknown providers support nothing.
func (r *Registry) Supports(name string, jobType domain.JobType, op domain.Operation) bool {
	a, ok := r.adapters[name]
	if !ok {
		return false
	}
	return a.Supports(jobType, op)
}

// Names lists the registered provider names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		names = append(names, name)
	}
	return names
}
