package recipe

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vk/synnia/internal/schema"
)

// Registry holds recipe definitions by id.
type Registry struct {
	mu      sync.RWMutex
	recipes map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{recipes: make(map[string]*Definition)}
}

// Register adds def. Ids must be unique.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("recipe definition must have an id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.recipes[def.ID]; exists {
		return fmt.Errorf("recipe %q is already registered", def.ID)
	}
	r.recipes[def.ID] = def
	return nil
}

// Get returns the definition for id.
func (r *Registry) Get(id string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.recipes[id]
	return def, ok
}

// All returns every definition sorted by id.
func (r *Registry) All() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Definition, 0, len(r.recipes))
	for _, def := range r.recipes {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// InputSchema returns the input fields of a recipe.
func (r *Registry) InputSchema(id string) (schema.Fields, bool) {
	def, ok := r.Get(id)
	if !ok {
		return nil, false
	}
	return def.Inputs, true
}
