package schema

import "sync"

// SupertypesFunc returns the direct supertypes of a type ID.
type SupertypesFunc func(id string) []string

// Hierarchy memoizes the transitive supertype closure of type IDs. It is safe
// for concurrent use.
type Hierarchy struct {
	direct SupertypesFunc

	mu      sync.RWMutex
	closure map[string][]string
}

// NewHierarchy creates a hierarchy over the given direct-supertype relation.
func NewHierarchy(direct SupertypesFunc) *Hierarchy {
	if direct == nil {
		direct = func(string) []string { return nil }
	}
	return &Hierarchy{direct: direct, closure: make(map[string][]string)}
}

// Closure returns id followed by all of its transitive supertypes, nearest
// first. Cycles in the relation are tolerated.
func (h *Hierarchy) Closure(id string) []string {
	h.mu.RLock()
	cached, ok := h.closure[id]
	h.mu.RUnlock()
	if ok {
		return cached
	}

	seen := map[string]bool{id: true}
	result := []string{id}
	for i := 0; i < len(result); i++ {
		for _, super := range h.direct(result[i]) {
			if !seen[super] {
				seen[super] = true
				result = append(result, super)
			}
		}
	}

	h.mu.Lock()
	h.closure[id] = result
	h.mu.Unlock()

	return result
}

// IsSubtype reports whether super is id or one of its supertypes.
func (h *Hierarchy) IsSubtype(id, super string) bool {
	for _, t := range h.Closure(id) {
		if t == super {
			return true
		}
	}
	return false
}

// Registry maps type IDs to values. An exact registration applies only to
// its own ID; an inheriting registration also applies to every subtype.
// Exact registrations win, then the nearest inheriting one.
type Registry[V any] struct {
	hierarchy *Hierarchy

	mu         sync.RWMutex
	exact      map[string]V
	inheriting map[string]V
}

// NewRegistry creates an empty registry resolving through h.
func NewRegistry[V any](h *Hierarchy) *Registry[V] {
	return &Registry[V]{
		hierarchy:  h,
		exact:      make(map[string]V),
		inheriting: make(map[string]V),
	}
}

// RegisterExact binds v to id only.
func (r *Registry[V]) RegisterExact(id string, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exact[id] = v
}

// RegisterInheriting binds v to id and all of its subtypes.
func (r *Registry[V]) RegisterInheriting(id string, v V) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inheriting[id] = v
}

// Lookup resolves the value for id.
func (r *Registry[V]) Lookup(id string) (V, bool) {
	closure := r.hierarchy.Closure(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if v, ok := r.exact[id]; ok {
		return v, true
	}
	for _, t := range closure {
		if v, ok := r.inheriting[t]; ok {
			return v, true
		}
	}

	var zero V
	return zero, false
}
