// Package script provides a sandboxed Lisp compute provider and the
// "script" recipe that runs it over connected inputs.
package script

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/registry"
	"github.com/vk/synnia/internal/schema"
)

// EvalTimeout is the hard limit for a single script run.
const EvalTimeout = 5 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Provider runs zygomys programs. The program is the prompt; the values the
// `(input "key")` builtin returns come from Config["inputs"].
type Provider struct {
	Timeout time.Duration
}

func (p *Provider) ID() string                          { return "zygomys" }
func (p *Provider) Category() provider.Category         { return provider.CategoryScript }
func (p *Provider) Capabilities() []provider.Capability { return nil }
func (p *Provider) RequiredCredential() string          { return "" }

type evalResult struct {
	value any
	err   error
}

// Execute evaluates the program in a fresh sandbox. Script errors and
// timeouts are unsuccessful results.
func (p *Provider) Execute(ctx context.Context, in provider.Input) (*provider.Result, error) {
	logger := ctxlog.FromContext(ctx).With("provider", p.ID())
	inputs, _ := in.Config["inputs"].(map[string]any)

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		v, err := evaluate(in.Prompt, inputs)
		ch <- evalResult{value: v, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			logger.Debug("Script failed.", "error", res.err)
			return provider.Failure(res.err.Error()), nil
		}
		if s, ok := res.value.(string); ok {
			return &provider.Result{Success: true, Text: s}, nil
		}
		return &provider.Result{Success: true, Data: res.value}, nil
	case <-timer.C:
		return provider.Failure(fmt.Sprintf("Script timed out after %s.", timeout)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// OnRunScript sends the script input, or the recipe prompt when the input is
// empty, to the script provider with every input available to `input`.
func OnRunScript(ctx context.Context, ec *recipe.ExecContext) (*recipe.Result, error) {
	source, _ := ec.Inputs["script"].(string)
	if source == "" {
		source = recipe.Render(ec.Recipe.Manifest.Prompt, ec.Inputs)
	}

	cfg := make(map[string]any, len(ec.Recipe.Manifest.Config)+1)
	for k, v := range ec.Recipe.Manifest.Config {
		cfg[k] = v
	}
	cfg["inputs"] = ec.Inputs

	pr, err := ec.CallProvider(ctx, provider.CategoryScript, provider.Input{Prompt: source, Config: cfg})
	if err != nil {
		return nil, err
	}
	return recipe.FromProvider(pr), nil
}

// Register registers the provider, handler and recipe with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProvider(&Provider{})
	r.RegisterHandler("OnRunScript", OnRunScript)
	r.RegisterRecipe(&recipe.Definition{
		ID:          "script",
		Name:        "Script",
		Description: "Runs a sandboxed Lisp program over its inputs.",
		Inputs: schema.Fields{
			{Key: "script", Label: "Script", Type: schema.TypeString, Required: true, Connection: schema.Connection{Input: true}},
			{Key: "data", Label: "Data", Type: schema.TypeAny, Connection: schema.Connection{Input: true}},
		},
		Output:  &recipe.OutputConfig{NodeType: node.TypeText, Placement: recipe.PlaceBelow, Title: "Script result"},
		Execute: OnRunScript,
	})
}

func stringify(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
