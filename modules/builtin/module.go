// Package builtin registers the recipes every installation ships with.
package builtin

import (
	"context"
	"strings"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/registry"
	"github.com/vk/synnia/internal/schema"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

var textInput = schema.Field{
	Key:        "text",
	Label:      "Text",
	Type:       schema.TypeString,
	Required:   true,
	Connection: schema.Connection{Input: true},
}

var generateInputs = schema.Fields{
	{Key: "prompt", Label: "Prompt", Type: schema.TypeString, Required: true, Connection: schema.Connection{Input: true}},
	{Key: "system", Label: "System prompt", Type: schema.TypeString, Default: "", Connection: schema.Connection{Input: true}},
	{Key: "images", Label: "Images", Type: schema.TypeArray, Connection: schema.Connection{Input: true}},
}

// OnRunEcho returns the text input unchanged.
func OnRunEcho(ctx context.Context, ec *recipe.ExecContext) (*recipe.Result, error) {
	ctxlog.FromContext(ctx).Debug("Echoing input.", "node", ec.NodeID)
	return &recipe.Result{Success: true, Text: recipe.Stringify(ec.Inputs["text"])}, nil
}

// OnRunSplitLines returns the non-blank lines of the text input as a list.
func OnRunSplitLines(ctx context.Context, ec *recipe.ExecContext) (*recipe.Result, error) {
	var lines []any
	for _, line := range strings.Split(recipe.Stringify(ec.Inputs["text"]), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return &recipe.Result{Success: false, Error: "Nothing to split."}, nil
	}
	ctxlog.FromContext(ctx).Debug("Split text into lines.", "node", ec.NodeID, "lines", len(lines))
	return &recipe.Result{Success: true, Data: lines}, nil
}

// Register registers the handlers and recipes with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterHandler("OnRunEcho", OnRunEcho)
	r.RegisterHandler("OnRunSplitLines", OnRunSplitLines)

	r.RegisterRecipe(&recipe.Definition{
		ID:          "echo",
		Name:        "Echo",
		Description: "Copies its text input into a new text node.",
		Category:    "utility",
		Inputs:      schema.Fields{textInput},
		Output:      &recipe.OutputConfig{NodeType: node.TypeText, Placement: recipe.PlaceBelow, Title: "Echo"},
		Execute:     OnRunEcho,
	})
	r.RegisterRecipe(&recipe.Definition{
		ID:          "split-lines",
		Name:        "Split lines",
		Description: "Turns every non-blank line into its own docked text node.",
		Category:    "utility",
		Inputs:      schema.Fields{textInput},
		Output:      &recipe.OutputConfig{NodeType: node.TypeText, Placement: recipe.PlaceBelow, Title: "Line", Dock: true},
		Execute:     OnRunSplitLines,
	})
	r.RegisterRecipe(&recipe.Definition{
		ID:          "generate",
		Name:        "Generate",
		Description: "Sends the prompt to the selected language model.",
		Category:    "text",
		Inputs:      generateInputs,
		Manifest: recipe.Manifest{
			Provider:     provider.CategoryLLM,
			Prompt:       "{{prompt}}",
			SystemPrompt: "{{system}}",
		},
		Output: &recipe.OutputConfig{NodeType: node.TypeText, Placement: recipe.PlaceBelow, Title: "Generated"},
	})
	r.RegisterRecipe(&recipe.Definition{
		ID:          "compose",
		Name:        "Compose",
		Description: "Generate under another name, with its own product.",
		Category:    "text",
		Inputs:      generateInputs,
		Output:      &recipe.OutputConfig{NodeType: node.TypeText, Placement: recipe.PlaceRight, Title: "Composed"},
		Delegate:    "generate",
	})
}
