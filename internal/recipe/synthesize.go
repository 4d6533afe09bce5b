package recipe

import (
	"fmt"

	"github.com/vk/synnia/internal/node"
)

// Synthesize builds node specs from a raw result using the output config.
// Lists become one node per item for node types that hold a single value;
// with Dock set, each item after the first docks under the previous one.
func Synthesize(out *OutputConfig, res *Result) ([]NodeSpec, error) {
	if out == nil || res == nil {
		return nil, nil
	}

	value := res.Value()
	if s, ok := value.(string); ok && out.Parse != "" && out.Parse != ParseText {
		parsed, err := Parse(s, out.Parse)
		if err != nil {
			return nil, err
		}
		value = parsed
	}
	if value == nil {
		return nil, nil
	}

	nodeType := out.NodeType
	if nodeType == "" {
		nodeType = node.TypeText
	}
	placement := out.Placement
	if placement == "" {
		placement = PlaceBelow
	}

	list, isList := value.([]any)
	if !isList || !splitsLists(nodeType) {
		return []NodeSpec{newSpec(nodeType, out.Title, placement, out.Collapsed, value)}, nil
	}

	specs := make([]NodeSpec, 0, len(list))
	for i, item := range list {
		title := out.Title
		if title != "" && len(list) > 1 {
			title = fmt.Sprintf("%s %d", out.Title, i+1)
		}
		spec := newSpec(nodeType, title, placement, out.Collapsed, item)
		if out.Dock && i > 0 {
			spec.DockedTo = PrevRef
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func splitsLists(t node.Type) bool {
	switch t.Category() {
	case string(node.TypeText), string(node.TypeImage), string(node.TypeForm):
		return true
	default:
		return false
	}
}

func newSpec(t node.Type, title string, placement Placement, collapsed bool, value any) NodeSpec {
	switch t.Category() {
	case string(node.TypeText):
		if _, ok := value.(string); !ok {
			value = Stringify(value)
		}
	case string(node.TypeTable):
		if rows, ok := value.([]any); ok {
			value = map[string]any{"rows": rows}
		}
	}
	return NodeSpec{
		Type:      t,
		Title:     title,
		ValueType: t.DefaultValueType(),
		Value:     value,
		Placement: placement,
		Collapsed: collapsed,
	}
}
