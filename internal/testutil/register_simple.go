package testutil

import (
	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/registry"
)

// SimpleModule is a test helper for easily creating a mock module that
// registers a single handler, a Go recipe, or both.
type SimpleModule struct {
	HandlerName string
	Handler     recipe.ExecuteFunc

	Recipe *recipe.Definition
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.HandlerName != "" && m.Handler != nil {
		r.RegisterHandler(m.HandlerName, m.Handler)
	}
	if m.Recipe != nil {
		r.RegisterRecipe(m.Recipe)
	}
}
