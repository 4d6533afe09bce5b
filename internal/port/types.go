package port

// Kind is the coarse type tag carried by a resolved port value.
type Kind string

const (
	KindText  Kind = "text"
	KindJSON  Kind = "json"
	KindArray Kind = "array"
	KindImage Kind = "image"
)

// Value is what a node exposes on one of its output ports.
type Value struct {
	Type  Kind           `json:"type"`
	Value any            `json:"value"`
	Meta  map[string]any `json:"meta,omitempty"`
}

// KindOf picks the port kind for an arbitrary asset value: lists are arrays,
// records are json, everything else is text.
func KindOf(v any) Kind {
	switch v.(type) {
	case []any, []map[string]any, []string:
		return KindArray
	case map[string]any:
		return KindJSON
	default:
		return KindText
	}
}

// New wraps v with the kind inferred by KindOf.
func New(v any) *Value {
	return &Value{Type: KindOf(v), Value: v}
}
