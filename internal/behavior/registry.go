package behavior

import (
	"context"
	"sort"
	"sync"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
)

// Registry maps node types to behaviors.
type Registry struct {
	mu        sync.RWMutex
	behaviors map[node.Type]*Behavior
	empty     *Behavior
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		behaviors: make(map[node.Type]*Behavior),
		empty:     &Behavior{},
	}
}

// Register stores b under t. A second registration for the same type
// replaces the first and logs a warning.
func (r *Registry) Register(ctx context.Context, t node.Type, b *Behavior) {
	if b == nil {
		b = &Behavior{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.behaviors[t]; exists {
		ctxlog.FromContext(ctx).Warn("Behavior already registered, replacing it.", "type", t)
	}
	r.behaviors[t] = b
}

// Get returns the behavior for t: an exact match first, then the category
// of a `category:instance` type, then the shared empty behavior.
func (r *Registry) Get(t node.Type) *Behavior {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if b, ok := r.behaviors[t]; ok {
		return b
	}
	if cat := node.Type(t.Category()); cat != t {
		if b, ok := r.behaviors[cat]; ok {
			return b
		}
	}
	return r.empty
}

// Types lists every registered type, sorted.
func (r *Registry) Types() []node.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]node.Type, 0, len(r.behaviors))
	for t := range r.behaviors {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
