// This file translates decoded HCL recipe blocks into recipe definitions.

package hcl

import (
	"context"
	"fmt"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/schema"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

var knownCategories = map[provider.Category]bool{
	provider.CategoryLLM:    true,
	provider.CategoryImage:  true,
	provider.CategoryVideo:  true,
	provider.CategoryScript: true,
	provider.CategoryRemote: true,
}

func translateRecipe(ctx context.Context, r *Recipe) (*recipe.Definition, error) {
	logger := ctxlog.FromContext(ctx).With("recipe", r.ID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL recipe to a recipe definition.")

	def := &recipe.Definition{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Delegate:    r.Delegate,
		Handler:     r.Handler,
	}
	if def.Name == "" {
		def.Name = r.ID
	}

	cat := provider.Category(r.Provider)
	if cat != "" && !knownCategories[cat] {
		return nil, fmt.Errorf("recipe %q: unknown provider category %q", r.ID, r.Provider)
	}
	def.Manifest = recipe.Manifest{Provider: cat, Model: r.Model}

	keys := make([]string, 0, len(r.Inputs))
	for _, in := range r.Inputs {
		f, err := translateInput(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("recipe %q: input %q: %w", r.ID, in.Key, err)
		}
		if _, dup := def.Inputs.Get(f.Key); dup {
			return nil, fmt.Errorf("recipe %q: input %q is declared twice", r.ID, in.Key)
		}
		def.Inputs = append(def.Inputs, f)
		keys = append(keys, f.Key)
	}

	system, err := evalStatic(ctx, r.SystemPrompt, "system_prompt")
	if err != nil {
		return nil, fmt.Errorf("recipe %q: system_prompt must not reference inputs: %w", r.ID, err)
	}
	if system != nil {
		def.Manifest.SystemPrompt = fmt.Sprint(system)
	}

	if isExprDefined(ctx, r.Prompt, "prompt") {
		def.Manifest.RenderPrompt = promptRenderer(r.Prompt, keys)
	} else if def.Delegate == "" && def.Handler == "" {
		return nil, fmt.Errorf("recipe %q needs a prompt, a handler or a delegate", r.ID)
	}

	cfg, err := evalStatic(ctx, r.Config, "config")
	if err != nil {
		return nil, fmt.Errorf("recipe %q: config: %w", r.ID, err)
	}
	if cfg != nil {
		m, ok := cfg.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("recipe %q: config must be an object", r.ID)
		}
		def.Manifest.Config = m
	}

	if r.Output != nil {
		out, err := translateOutput(r.Output)
		if err != nil {
			return nil, fmt.Errorf("recipe %q: output: %w", r.ID, err)
		}
		def.Output = out
	}
	return def, nil
}

func translateInput(ctx context.Context, in *Input) (schema.Field, error) {
	ft, ty, err := fieldType(ctx, in.Type)
	if err != nil {
		return schema.Field{}, err
	}

	f := schema.Field{
		Key:          in.Key,
		Label:        in.Label,
		Type:         ft,
		Required:     in.Required,
		RequiredKeys: in.RequiredKeys,
		Connection:   schema.Connection{Input: true},
	}
	if in.Connectable != nil {
		f.Connection.Input = *in.Connectable
	}
	if len(f.RequiredKeys) > 0 && ft != schema.TypeObject {
		return schema.Field{}, fmt.Errorf("required_keys is only valid for object inputs")
	}

	if isExprDefined(ctx, in.Default, "default") {
		v, diags := in.Default.Value(nil)
		if diags.HasErrors() {
			return schema.Field{}, diags
		}
		if ty != cty.DynamicPseudoType && ty.IsPrimitiveType() {
			if v, err = convert.Convert(v, ty); err != nil {
				return schema.Field{}, fmt.Errorf("default does not match type %s: %w", ty.FriendlyName(), err)
			}
		}
		if f.Default, err = toGo(v); err != nil {
			return schema.Field{}, err
		}
	}
	return f, nil
}

func translateOutput(o *Output) (*recipe.OutputConfig, error) {
	out := &recipe.OutputConfig{
		NodeType:  node.Type(o.NodeType),
		Placement: recipe.Placement(o.Placement),
		Title:     o.Title,
		Dock:      o.Dock,
		Collapsed: o.Collapsed,
		Parse:     recipe.ParseMode(o.Parse),
	}
	if out.NodeType == "" {
		out.NodeType = node.TypeText
	}
	if !out.NodeType.Valid() || out.NodeType.IsRecipe() {
		return nil, fmt.Errorf("unsupported node_type %q", o.NodeType)
	}
	switch out.Placement {
	case "":
		out.Placement = recipe.PlaceBelow
	case recipe.PlaceBelow, recipe.PlaceRight:
	default:
		return nil, fmt.Errorf("unsupported placement %q", o.Placement)
	}
	switch out.Parse {
	case "":
		out.Parse = recipe.ParseText
	case recipe.ParseText, recipe.ParseJSON, recipe.ParseLines:
	default:
		return nil, fmt.Errorf("unsupported parse mode %q", o.Parse)
	}
	return out, nil
}
