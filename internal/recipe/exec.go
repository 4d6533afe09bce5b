package recipe

import (
	"context"
	"fmt"

	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/provider"
)

// GraphReader is the slice of the graph engine recipes may consult.
type GraphReader interface {
	Node(ctx context.Context, id string) (node.Node, bool)
	Asset(ctx context.Context, id string) (asset.Asset, bool)
	ConnectedFields(ctx context.Context, nodeID string) map[string]*port.Value
}

// ChatConfig is the provider-selection state of the session.
type ChatConfig struct {
	Settings    provider.Settings
	Credentials provider.Credentials
}

// ExecContext is handed to a recipe's execute function.
type ExecContext struct {
	Inputs    map[string]any
	NodeID    string
	Recipe    *Definition
	Graph     GraphReader
	Chat      ChatConfig
	Providers *provider.Registry
	Recipes   *Registry

	depth int
}

// CallProvider selects a provider for cat and executes in against it.
func (ec *ExecContext) CallProvider(ctx context.Context, cat provider.Category, in provider.Input) (*provider.Result, error) {
	if ec.Providers == nil {
		return nil, fmt.Errorf("%w: no provider registry configured", provider.ErrNoProvider)
	}
	p, model, err := ec.Providers.Select(cat, ec.Chat.Settings, ec.Chat.Credentials)
	if err != nil {
		return nil, err
	}
	if in.Model == "" {
		in.Model = model
	}
	in.Credentials = ec.Chat.Credentials

	ctxlog.FromContext(ctx).Debug("Calling provider.", "provider", p.ID(), "category", cat, "model", in.Model, "node", ec.NodeID)
	return p.Execute(ctx, in)
}

// Delegate runs another recipe with the same inputs. Only one level of
// delegation is allowed.
func (ec *ExecContext) Delegate(ctx context.Context, recipeID string) (*Result, error) {
	if ec.depth > 0 {
		return nil, ErrNestedDelegation
	}
	if ec.Recipes == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, recipeID)
	}
	def, ok := ec.Recipes.Get(recipeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, recipeID)
	}

	child := *ec
	child.Recipe = def
	child.depth = ec.depth + 1
	ctxlog.FromContext(ctx).Debug("Delegating recipe execution.", "from", ec.Recipe.ID, "to", def.ID)
	return Run(ctx, &child)
}

// Run executes ec.Recipe: its delegate if it names one, its own execute
// function otherwise, and the manifest when it has neither.
func Run(ctx context.Context, ec *ExecContext) (*Result, error) {
	def := ec.Recipe
	switch {
	case def.Delegate != "":
		return ec.Delegate(ctx, def.Delegate)
	case def.Execute != nil:
		return def.Execute(ctx, ec)
	default:
		return RunManifest(ctx, ec)
	}
}

// RunManifest renders the manifest prompt and sends it to the provider
// category the manifest names.
func RunManifest(ctx context.Context, ec *ExecContext) (*Result, error) {
	m := ec.Recipe.Manifest

	prompt := Render(m.Prompt, ec.Inputs)
	if m.RenderPrompt != nil {
		rendered, err := m.RenderPrompt(ec.Inputs)
		if err != nil {
			return nil, fmt.Errorf("failed to render prompt for recipe %q: %w", ec.Recipe.ID, err)
		}
		prompt = rendered
	}

	cat := m.Provider
	if cat == "" {
		cat = provider.CategoryLLM
	}
	in := provider.Input{
		Prompt:       prompt,
		SystemPrompt: Render(m.SystemPrompt, ec.Inputs),
		Model:        m.Model,
		Config:       m.Config,
		Images:       imageInputs(ec.Inputs),
	}

	pr, err := ec.CallProvider(ctx, cat, in)
	if err != nil {
		return nil, err
	}
	return FromProvider(pr), nil
}

// imageInputs collects the "images" input when it is a list of strings or a
// single string.
func imageInputs(inputs map[string]any) []string {
	switch v := inputs["images"].(type) {
	case string:
		if v != "" {
			return []string{v}
		}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	}
	return nil
}
