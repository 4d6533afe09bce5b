package registry

import (
	"context"

	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/behaviors"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
)

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds all the registered behaviors, recipes, providers and
// handlers for a single application instance.
type Registry struct {
	Behaviors *behavior.Registry
	Recipes   *recipe.Registry
	Providers *provider.Registry

	handlers map[string]recipe.ExecuteFunc
}

// New creates a Registry with the built-in node behaviors installed.
func New(ctx context.Context) *Registry {
	r := &Registry{
		Behaviors: behavior.NewRegistry(),
		Recipes:   recipe.NewRegistry(),
		Providers: provider.NewRegistry(),
		handlers:  make(map[string]recipe.ExecuteFunc),
	}
	behaviors.RegisterAll(ctx, r.Behaviors, r.Recipes)
	return r
}

// Install registers every module in order.
func (r *Registry) Install(modules ...Module) {
	for _, m := range modules {
		m.Register(r)
	}
}
