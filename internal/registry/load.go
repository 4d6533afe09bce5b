package registry

import (
	"context"
	"fmt"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/hcl"
)

// LoadManifests reads recipe manifests from paths and registers them.
// Handler names are resolved against the handlers modules registered, so
// modules must be installed first.
func (r *Registry) LoadManifests(ctx context.Context, paths ...string) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading recipe manifests...", "paths", paths)

	defs, err := hcl.NewLoader().Load(ctx, paths...)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		logger.Warn("No recipe manifests found.", "paths", paths)
		return nil
	}

	for _, def := range defs {
		if def.Handler != "" {
			fn, ok := r.Handler(def.Handler)
			if !ok {
				return fmt.Errorf("recipe %q: handler %q is not registered by any module", def.ID, def.Handler)
			}
			def.Execute = fn
		}
		if err := r.Recipes.Register(def); err != nil {
			return err
		}
		logger.Debug("Recipe manifest registered.", "recipe", def.ID)
	}

	logger.Info("Registry loaded successfully.", "recipe_definitions_loaded", len(defs))
	return nil
}
