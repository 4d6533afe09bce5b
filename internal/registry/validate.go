package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/schema"
)

// ValidateRegistry checks that every recipe can actually run: delegates
// point at registered recipes one level deep, manifest recipes have a
// provider category someone serves, and product node types are known.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, def := range r.Recipes.All() {
		if def.Delegate != "" {
			target, ok := r.Recipes.Get(def.Delegate)
			switch {
			case !ok:
				errs = append(errs, fmt.Sprintf("recipe '%s': delegates to unknown recipe '%s'", def.ID, def.Delegate))
			case target.Delegate != "":
				errs = append(errs, fmt.Sprintf("recipe '%s': delegate '%s' delegates again, only one level is allowed", def.ID, def.Delegate))
			}
		}

		if def.Delegate == "" && def.Execute == nil {
			if def.Manifest.Prompt == "" && def.Manifest.RenderPrompt == nil {
				errs = append(errs, fmt.Sprintf("recipe '%s': has no prompt, handler or delegate", def.ID))
			}
			cat := def.Manifest.Provider
			if cat == "" {
				cat = provider.CategoryLLM
			}
			if len(r.Providers.ByCategory(cat)) == 0 {
				logger.Warn("No provider is registered for the recipe's category, running it will fail.", "recipe", def.ID, "category", cat)
			}
		}

		if def.Output != nil && (!def.Output.NodeType.Valid() || def.Output.NodeType.IsRecipe()) {
			errs = append(errs, fmt.Sprintf("recipe '%s': output node type '%s' is not a data node type", def.ID, def.Output.NodeType))
		}

		for _, f := range def.Inputs {
			if f.Type == schema.TypeAny {
				logger.Debug("Recipe input has 'type = any', which disables connection type checking.", "recipe", def.ID, "input", f.Key)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
