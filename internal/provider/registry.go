package provider

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/synnia/internal/ctxlog"
)

// Registry holds providers in registration order.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	order     []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds p. Re-registering an id replaces the provider in place.
func (r *Registry) Register(ctx context.Context, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[p.ID()]; exists {
		ctxlog.FromContext(ctx).Warn("Provider already registered, replacing it.", "provider", p.ID())
	} else {
		r.order = append(r.order, p.ID())
	}
	r.providers[p.ID()] = p
	ctxlog.FromContext(ctx).Debug("Provider registered.", "provider", p.ID(), "category", p.Category())
}

// Get returns the provider with the given id.
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	return p, ok
}

// ByCategory returns the providers of one category in registration order.
func (r *Registry) ByCategory(cat Category) []Provider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Provider
	for _, id := range r.order {
		if p := r.providers[id]; p.Category() == cat {
			out = append(out, p)
		}
	}
	return out
}

// Select picks the provider for a category. The per-category default from
// settings wins when it names a registered provider of that category;
// otherwise the first provider whose required credential is configured is
// used. The returned model is the part of the default after a slash.
func (r *Registry) Select(cat Category, settings Settings, creds Credentials) (Provider, string, error) {
	if pref := settings.DefaultModels[cat]; pref != "" {
		id, model, _ := strings.Cut(pref, "/")
		if p, ok := r.Get(id); ok && p.Category() == cat {
			return p, model, nil
		}
	}
	for _, p := range r.ByCategory(cat) {
		if cred := p.RequiredCredential(); cred == "" || creds.Has(cred) {
			return p, "", nil
		}
	}
	return nil, "", fmt.Errorf("%w for category %q", ErrNoProvider, cat)
}
