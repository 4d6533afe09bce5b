package registry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
)

// RegisterHandler registers a Go execute function under the name manifests
// use to refer to it.
func (r *Registry) RegisterHandler(name string, fn recipe.ExecuteFunc) {
	if _, exists := r.handlers[name]; exists {
		panic(fmt.Sprintf("handler with name '%s' already registered", name))
	}
	slog.Debug("Registering recipe handler.", "name", name)
	r.handlers[name] = fn
}

// Handler returns the execute function registered under name.
func (r *Registry) Handler(name string) (recipe.ExecuteFunc, bool) {
	fn, ok := r.handlers[name]
	return fn, ok
}

// RegisterRecipe registers a recipe defined in Go.
func (r *Registry) RegisterRecipe(def *recipe.Definition) {
	if err := r.Recipes.Register(def); err != nil {
		panic(err.Error())
	}
	slog.Debug("Registering recipe.", "recipe", def.ID)
}

// RegisterProvider registers a compute provider.
func (r *Registry) RegisterProvider(p provider.Provider) {
	r.Providers.Register(context.Background(), p)
}
