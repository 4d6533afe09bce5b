package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes every top-level block of a manifest file.
type fileRoot struct {
	Recipes []*Recipe `hcl:"recipe,block"`
	Remain  hcl.Body  `hcl:",remain"`
}

// Recipe is the HCL shape of a `recipe "<id>" { ... }` block.
type Recipe struct {
	ID           string         `hcl:"id,label"`
	Name         string         `hcl:"name,optional"`
	Description  string         `hcl:"description,optional"`
	Category     string         `hcl:"category,optional"`
	Provider     string         `hcl:"provider,optional"`
	Model        string         `hcl:"model,optional"`
	SystemPrompt hcl.Expression `hcl:"system_prompt,optional"`
	Prompt       hcl.Expression `hcl:"prompt,optional"`
	Delegate     string         `hcl:"delegate,optional"`
	Handler      string         `hcl:"handler,optional"`
	Config       hcl.Expression `hcl:"config,optional"`
	Inputs       []*Input       `hcl:"input,block"`
	Output       *Output        `hcl:"output,block"`
}

// Input is an `input "<key>" { ... }` block inside a recipe.
type Input struct {
	Key          string         `hcl:"key,label"`
	Label        string         `hcl:"label,optional"`
	Type         hcl.Expression `hcl:"type,optional"`
	Required     bool           `hcl:"required,optional"`
	Default      hcl.Expression `hcl:"default,optional"`
	RequiredKeys []string       `hcl:"required_keys,optional"`
	Connectable  *bool          `hcl:"connectable,optional"`
}

// Output is the optional `output { ... }` block inside a recipe.
type Output struct {
	NodeType  string `hcl:"node_type,optional"`
	Placement string `hcl:"placement,optional"`
	Title     string `hcl:"title,optional"`
	Dock      bool   `hcl:"dock,optional"`
	Collapsed bool   `hcl:"collapsed,optional"`
	Parse     string `hcl:"parse,optional"`
}
