package behaviors

import (
	"context"

	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/node"
)

// RegisterAll registers the bundle of every built-in node type. Recipe
// instances (`recipe:<id>`) resolve to the recipe bundle through the
// registry's category fallback.
func RegisterAll(ctx context.Context, reg *behavior.Registry, recipes InputSchemas) {
	reg.Register(ctx, node.TypeText, Text())
	reg.Register(ctx, node.TypeImage, Image())
	reg.Register(ctx, node.TypeForm, Form())
	reg.Register(ctx, node.TypeSelector, Selector())
	reg.Register(ctx, node.TypeTable, Table())
	reg.Register(ctx, node.TypeCollection, Collection())
	reg.Register(ctx, node.TypeRecipe, Recipe(recipes))
}
