// Package asset defines the content records that nodes point at. Several
// nodes may reference the same asset; all value writes go through Apply.
package asset

import "fmt"

// ValueType tags the shape of an asset's value. It is fixed at creation.
type ValueType string

const (
	TypeText       ValueType = "text"
	TypeImage      ValueType = "image"
	TypeRecord     ValueType = "record"
	TypeArray      ValueType = "array"
	TypeTable      ValueType = "table"
	TypeSelector   ValueType = "selector"
	TypeCollection ValueType = "collection"
	TypeRecipe     ValueType = "recipe"
)

// Asset is a typed piece of content.
type Asset struct {
	ID        string         `json:"id"`
	ValueType ValueType      `json:"valueType"`
	Value     any            `json:"value"`
	ValueMeta map[string]any `json:"valueMeta,omitempty"`
	Config    map[string]any `json:"config,omitempty"`
}

// Clone returns a deep copy of the asset.
func (a Asset) Clone() Asset {
	return Asset{
		ID:        a.ID,
		ValueType: a.ValueType,
		Value:     DeepCopy(a.Value),
		ValueMeta: copyMap(a.ValueMeta),
		Config:    copyMap(a.Config),
	}
}

// Record returns the value as a record when it is one.
func (a Asset) Record() (map[string]any, bool) {
	m, ok := a.Value.(map[string]any)
	return m, ok
}

// Validate checks the invariants every stored asset must hold.
func (a Asset) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("asset id cannot be empty")
	}
	if a.ValueType == "" {
		return fmt.Errorf("asset %q has no value type", a.ID)
	}
	return nil
}

// DeepCopy copies the JSON-shaped containers inside v. Scalars are returned as is.
func DeepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = DeepCopy(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = copyMap(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	default:
		return v
	}
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = DeepCopy(v)
	}
	return out
}
