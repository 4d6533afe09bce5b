// Package schema describes the ordered input and output fields of recipes
// and structured assets.
package schema

import "strings"

// FieldType is the declared type of a field.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
	TypeAny     FieldType = "any"
)

// ParseFieldType maps user-facing type names onto FieldType. Unknown names
// become TypeAny.
func ParseFieldType(s string) FieldType {
	switch strings.ToLower(s) {
	case "string", "text":
		return TypeString
	case "number", "int", "float":
		return TypeNumber
	case "boolean", "bool":
		return TypeBoolean
	case "object", "record", "json":
		return TypeObject
	case "array", "list":
		return TypeArray
	default:
		return TypeAny
	}
}

// Connection says which sides of a field may take part in edges.
type Connection struct {
	Input  bool `json:"input,omitempty"`
	Output bool `json:"output,omitempty"`
}

// Field is one entry of an ordered schema.
type Field struct {
	Key          string     `json:"key"`
	Label        string     `json:"label,omitempty"`
	Type         FieldType  `json:"type"`
	Required     bool       `json:"required,omitempty"`
	Default      any        `json:"default,omitempty"`
	RequiredKeys []string   `json:"requiredKeys,omitempty"`
	Connection   Connection `json:"connection"`
}

// MissingKeys lists the RequiredKeys absent from an object value.
func (f Field) MissingKeys(v any) []string {
	if f.Type != TypeObject || len(f.RequiredKeys) == 0 {
		return nil
	}
	rec, _ := v.(map[string]any)
	var missing []string
	for _, k := range f.RequiredKeys {
		if _, ok := rec[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Fields is an ordered schema.
type Fields []Field

// Get finds a field by key.
func (fs Fields) Get(key string) (*Field, bool) {
	for i := range fs {
		if fs[i].Key == key {
			return &fs[i], true
		}
	}
	return nil, false
}

// Keys returns the field keys in declaration order.
func (fs Fields) Keys() []string {
	keys := make([]string, len(fs))
	for i, f := range fs {
		keys[i] = f.Key
	}
	return keys
}

// Defaults collects the declared default of every field that has one.
func (fs Fields) Defaults() map[string]any {
	out := make(map[string]any)
	for _, f := range fs {
		if f.Default != nil {
			out[f.Key] = f.Default
		}
	}
	return out
}

// IsEmptyValue reports whether v counts as "not provided" for a required field.
func IsEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// Effective overlays stored values on the field defaults. A stored nil
// counts as unset. Keys outside the schema are kept.
func (fs Fields) Effective(stored map[string]any) map[string]any {
	out := fs.Defaults()
	for k, v := range stored {
		if v == nil {
			continue
		}
		out[k] = v
	}
	return out
}
