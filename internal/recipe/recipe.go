// Package recipe defines declarative compute units: an ordered input schema,
// a manifest describing how to reach a provider, an optional output layout,
// and an execute function that turns resolved inputs into results.
package recipe

import (
	"context"
	"errors"

	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/schema"
)

var (
	// ErrNotFound is returned for unknown recipe ids.
	ErrNotFound = errors.New("recipe not found")
	// ErrNestedDelegation is returned when a delegated recipe tries to
	// delegate again.
	ErrNestedDelegation = errors.New("recipes may only delegate one level deep")
)

// Placement says where new product nodes go relative to the recipe node.
type Placement string

const (
	PlaceBelow    Placement = "below"
	PlaceRight    Placement = "right"
	PlaceExplicit Placement = "explicit"
)

// ParseMode says how raw provider text becomes a product value.
type ParseMode string

const (
	ParseText  ParseMode = "text"
	ParseJSON  ParseMode = "json"
	ParseLines ParseMode = "lines"
)

// PrevRef in NodeSpec.DockedTo refers to the node created just before.
const PrevRef = "$prev"

// OutputConfig describes the nodes synthesized from a raw result.
type OutputConfig struct {
	NodeType  node.Type
	Placement Placement
	Title     string
	// Dock chains one node per list item, each docked under the previous.
	Dock      bool
	Collapsed bool
	Parse     ParseMode
}

// EdgeSpec is an explicit edge from the recipe node to a new node.
type EdgeSpec struct {
	SourceHandle string
	TargetHandle string
}

// NodeSpec describes one node to materialize.
type NodeSpec struct {
	Type      node.Type
	Title     string
	ValueType asset.ValueType
	Value     any
	Config    map[string]any
	Placement Placement
	At        *node.Position
	DockedTo  string
	Connect   *EdgeSpec
	Collapsed bool
}

// Result is what a recipe execution yields.
type Result struct {
	Success      bool
	Text         string
	Data         any
	Images       []string
	VideoURL     string
	Error        string
	WasTruncated bool
	// Nodes, when set, bypasses synthesis from OutputConfig.
	Nodes []NodeSpec
}

// Value is the raw payload of the result: data first, then text, then images.
func (r *Result) Value() any {
	switch {
	case r.Data != nil:
		return r.Data
	case r.Text != "":
		return r.Text
	case len(r.Images) > 0:
		imgs := make([]any, len(r.Images))
		for i, s := range r.Images {
			imgs[i] = s
		}
		return imgs
	case r.VideoURL != "":
		return r.VideoURL
	default:
		return nil
	}
}

// FromProvider converts a provider result.
func FromProvider(pr *provider.Result) *Result {
	if pr == nil {
		return &Result{Success: false, Error: "provider returned no result"}
	}
	return &Result{
		Success:      pr.Success,
		Text:         pr.Text,
		Data:         pr.Data,
		Images:       pr.Images,
		VideoURL:     pr.VideoURL,
		Error:        pr.Error,
		WasTruncated: pr.WasTruncated,
	}
}

// Manifest carries the provider-facing part of a recipe.
type Manifest struct {
	Provider     provider.Category
	Model        string
	SystemPrompt string
	Prompt       string
	// RenderPrompt, when set, replaces {{key}} substitution of Prompt.
	RenderPrompt func(inputs map[string]any) (string, error)
	Config       map[string]any
}

// ExecuteFunc runs a recipe.
type ExecuteFunc func(ctx context.Context, ec *ExecContext) (*Result, error)

// Definition is a registered recipe.
type Definition struct {
	ID          string
	Name        string
	Description string
	// Category groups recipes in menus, e.g. "text" or "utility".
	Category string
	Inputs      schema.Fields
	Outputs     schema.Fields
	Manifest    Manifest
	Output      *OutputConfig
	// Delegate names a recipe to hand execution to, with the same inputs.
	Delegate string
	// Handler names a Go execute function registered by a module. The
	// registry resolves it into Execute when manifests are loaded.
	Handler string
	// Execute defaults to RunManifest when nil.
	Execute ExecuteFunc
}

// NodeType is the node type that runs this recipe.
func (d *Definition) NodeType() node.Type {
	return node.RecipeType(d.ID)
}
