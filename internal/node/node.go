// Package node defines graph vertices, the edges between them, and the
// patch records used to change them.
package node

import (
	"strings"

	"github.com/vk/synnia/internal/asset"
)

// Type identifies the behavior bundle a node is driven by. Apart from the
// recipe category, which carries an instance suffix (`recipe:<id>`), the set
// of node types is closed.
type Type string

const (
	TypeText       Type = "text"
	TypeImage      Type = "image"
	TypeForm       Type = "form"
	TypeSelector   Type = "selector"
	TypeTable      Type = "table"
	TypeCollection Type = "collection"
	TypeRecipe     Type = "recipe"
)

var knownCategories = map[string]struct{}{
	string(TypeText):       {},
	string(TypeImage):      {},
	string(TypeForm):       {},
	string(TypeSelector):   {},
	string(TypeTable):      {},
	string(TypeCollection): {},
	string(TypeRecipe):     {},
}

// RecipeType returns the node type for the recipe with the given id.
func RecipeType(recipeID string) Type {
	return Type(string(TypeRecipe) + ":" + recipeID)
}

// Category is the part before the first colon.
func (t Type) Category() string {
	c, _, _ := strings.Cut(string(t), ":")
	return c
}

// Instance is the part after the first colon, empty when there is none.
func (t Type) Instance() string {
	_, inst, _ := strings.Cut(string(t), ":")
	return inst
}

// IsRecipe reports whether the node runs a recipe.
func (t Type) IsRecipe() bool {
	return t.Category() == string(TypeRecipe)
}

// Valid reports whether t belongs to the closed set of node types. Only
// recipes may carry an instance suffix.
func (t Type) Valid() bool {
	if _, ok := knownCategories[t.Category()]; !ok {
		return false
	}
	return t.Instance() == "" || t.IsRecipe()
}

// DefaultValueType is the asset value type created alongside a new node.
func (t Type) DefaultValueType() asset.ValueType {
	switch t.Category() {
	case string(TypeImage):
		return asset.TypeImage
	case string(TypeForm):
		return asset.TypeRecord
	case string(TypeSelector):
		return asset.TypeSelector
	case string(TypeTable):
		return asset.TypeTable
	case string(TypeCollection):
		return asset.TypeCollection
	case string(TypeRecipe):
		return asset.TypeRecipe
	default:
		return asset.TypeText
	}
}

// State is the execution state of a recipe node.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateSuccess State = "success"
	StateError   State = "error"
)

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Style struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Data is the mutable per-node state shown by the view layer.
type Data struct {
	Title            string         `json:"title,omitempty"`
	Collapsed        bool           `json:"collapsed,omitempty"`
	DockedTo         string         `json:"dockedTo,omitempty"`
	AssetID          string         `json:"assetId,omitempty"`
	State            State          `json:"state,omitempty"`
	Error            string         `json:"error,omitempty"`
	ExecutionResult  any            `json:"executionResult,omitempty"`
	HasProductHandle bool           `json:"hasProductHandle,omitempty"`
	IsReference      bool           `json:"isReference,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// Node is a single vertex on the canvas.
type Node struct {
	ID       string   `json:"id"`
	Type     Type     `json:"type"`
	Position Position `json:"position"`
	Data     Data     `json:"data"`
	Style    *Style   `json:"style,omitempty"`
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	out := n
	if n.Style != nil {
		s := *n.Style
		out.Style = &s
	}
	out.Data.ExecutionResult = asset.DeepCopy(n.Data.ExecutionResult)
	if n.Data.Extra != nil {
		out.Data.Extra = asset.DeepCopy(n.Data.Extra).(map[string]any)
	}
	return out
}

// EffectiveState treats an unset state as idle.
func (n Node) EffectiveState() State {
	if n.Data.State == "" {
		return StateIdle
	}
	return n.Data.State
}
