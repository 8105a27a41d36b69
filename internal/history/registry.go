package history

import "sync"

// FieldFormatters looks up the filter registered for a model field.
type FieldFormatters interface {
	Filter(model, field string) (Filter, bool)
}

// Registry is the default FieldFormatters. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	filters map[string]map[string]Filter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{filters: make(map[string]map[string]Filter)}
}

// Register binds f to model.field, replacing any earlier filter.
func (r *Registry) Register(model, field string, f Filter) *Registry {
	r.mu.Lock()
	defer r.mu.Unlock()

	fields, ok := r.filters[model]
	if !ok {
		fields = make(map[string]Filter)
		r.filters[model] = fields
	}
	fields[field] = f
	return r
}

// Filter returns the filter bound to model.field, if any.
func (r *Registry) Filter(model, field string) (Filter, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.filters[model][field]
	return f, ok
}
