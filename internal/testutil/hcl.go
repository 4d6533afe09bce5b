package testutil

import (
	"testing"

	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/registry"
)

// RunHCLRecipeTest loads a single recipe manifest through the full app and
// returns the recipe it defines, or nil when startup failed. Manifests may
// use the "NoOp" handler.
func RunHCLRecipeTest(t *testing.T, id, recipeHCL string) (*HarnessResult, *recipe.Definition) {
	t.Helper()

	result := RunIntegrationTest(t, Harness{
		Files:   map[string]string{"main.hcl": recipeHCL},
		Modules: []registry.Module{&NoOpModule{}},
	})
	if result.App == nil {
		return result, nil
	}
	def, _ := result.App.Registry().Recipes.Get(id)
	return result, def
}
