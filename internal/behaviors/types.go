package behaviors

import (
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/schema"
)

// Text is the plain standard behavior.
func Text() *behavior.Behavior {
	return Standard()
}

// Image exposes its value as an image-typed port value.
func Image() *behavior.Behavior {
	return behavior.Extend(Standard(), behavior.Behavior{
		ResolveOutput: func(rc behavior.ResolveContext) (*port.Value, bool) {
			if rc.Port != port.Origin && rc.Port != port.Output {
				return nil, false
			}
			if rc.Asset == nil || rc.Asset.Value == nil {
				return nil, true
			}
			return &port.Value{
				Type:  port.KindImage,
				Value: asset.DeepCopy(rc.Asset.Value),
				Meta:  rc.Asset.ValueMeta,
			}, true
		},
	})
}

// Form is a record with an optional schema. Besides the whole record and
// single fields it exposes the chain port: every record in its dock chain,
// from the top of the chain down to this node.
func Form() *behavior.Behavior {
	return behavior.Extend(Standard(), behavior.Behavior{
		ResolveOutput: func(rc behavior.ResolveContext) (*port.Value, bool) {
			switch rc.Port {
			case port.Origin, port.Output:
				return &port.Value{Type: port.KindJSON, Value: formRecord(rc.Asset)}, true
			case port.Chain:
				return &port.Value{Type: port.KindArray, Value: chainRecords(rc)}, true
			}
			key, ok := port.ScopedFieldKey(rc.Port)
			if !ok {
				return nil, false
			}
			v, exists := formRecord(rc.Asset)[key]
			if !exists {
				return nil, true
			}
			return port.New(v), true
		},
	})
}

// formRecord merges schema defaults under the stored record.
func formRecord(a *asset.Asset) map[string]any {
	if a == nil {
		return map[string]any{}
	}
	rec, _ := asset.DeepCopy(a.Value).(map[string]any)
	return assetSchema(a).Effective(rec)
}

func chainRecords(rc behavior.ResolveContext) []any {
	out := []any{formRecord(rc.Asset)}
	seen := map[string]bool{rc.Node.ID: true}
	cur := rc.Node
	for cur.Data.DockedTo != "" {
		anchor, ok := rc.Lookup.Node(rc.Ctx, cur.Data.DockedTo)
		if !ok || seen[anchor.ID] || anchor.Type.Category() != string(node.TypeForm) {
			break
		}
		seen[anchor.ID] = true
		var rec map[string]any
		if a, ok := rc.Lookup.Asset(rc.Ctx, anchor.Data.AssetID); ok {
			rec = formRecord(&a)
		} else {
			rec = map[string]any{}
		}
		out = append([]any{rec}, out...)
		cur = anchor
	}
	return out
}

// Selector holds {options, selected}. Its output is the list of selected
// options; a field port reads that key from the selection.
func Selector() *behavior.Behavior {
	return behavior.Extend(Standard(), behavior.Behavior{
		ResolveOutput: func(rc behavior.ResolveContext) (*port.Value, bool) {
			selected := selectedOptions(rc.Asset)
			switch rc.Port {
			case port.Origin, port.Output:
				return &port.Value{Type: port.KindArray, Value: selected}, true
			}
			key, ok := port.ScopedFieldKey(rc.Port)
			if !ok {
				return nil, false
			}
			var values []any
			for _, opt := range selected {
				if rec, ok := opt.(map[string]any); ok {
					if v, exists := rec[key]; exists {
						values = append(values, v)
					}
				}
			}
			switch len(values) {
			case 0:
				return nil, true
			case 1:
				return port.New(values[0]), true
			default:
				return &port.Value{Type: port.KindArray, Value: values}, true
			}
		},
	})
}

func selectedOptions(a *asset.Asset) []any {
	out := []any{}
	if a == nil {
		return out
	}
	rec, ok := a.Record()
	if !ok {
		return out
	}
	options, _ := rec["options"].([]any)
	chosen := make(map[string]bool)
	if sel, ok := rec["selected"].([]any); ok {
		for _, s := range sel {
			if id, ok := s.(string); ok {
				chosen[id] = true
			}
		}
	} else if id, ok := rec["selected"].(string); ok {
		chosen[id] = true
	}

	for _, opt := range options {
		if chosen[optionID(opt)] {
			out = append(out, asset.DeepCopy(opt))
		}
	}
	return out
}

func optionID(opt any) string {
	switch t := opt.(type) {
	case string:
		return t
	case map[string]any:
		if id, ok := t["id"].(string); ok {
			return id
		}
		if v, ok := t["value"].(string); ok {
			return v
		}
	}
	return ""
}

// Table holds {columns, rows}. Its output is the rows; a field port is the
// column with that key.
func Table() *behavior.Behavior {
	return behavior.Extend(Standard(), behavior.Behavior{
		ResolveOutput: func(rc behavior.ResolveContext) (*port.Value, bool) {
			rows := tableRows(rc.Asset)
			switch rc.Port {
			case port.Origin, port.Output:
				return &port.Value{Type: port.KindArray, Value: rows}, true
			}
			key, ok := port.ScopedFieldKey(rc.Port)
			if !ok {
				return nil, false
			}
			column := make([]any, 0, len(rows))
			found := false
			for _, r := range rows {
				rec, _ := r.(map[string]any)
				v, exists := rec[key]
				found = found || exists
				column = append(column, v)
			}
			if !found {
				return nil, true
			}
			return &port.Value{Type: port.KindArray, Value: column}, true
		},
	})
}

func tableRows(a *asset.Asset) []any {
	if a == nil {
		return []any{}
	}
	rec, ok := a.Record()
	if !ok {
		return []any{}
	}
	rows, ok := asset.DeepCopy(rec["rows"]).([]any)
	if !ok {
		return []any{}
	}
	return rows
}

// Collection is a list of records keyed by id that re-runs merge into.
func Collection() *behavior.Behavior {
	return behavior.Extend(Standard(), behavior.Behavior{
		GetItems: func(value any) []any {
			items, _ := asset.DeepCopy(value).([]any)
			return items
		},
		MergeItems: mergeItems,
	})
}

// mergeItems replaces existing items that share an id with an incoming one
// and appends the rest in their incoming order.
func mergeItems(existing any, items []any) any {
	current, _ := asset.DeepCopy(existing).([]any)
	index := make(map[string]int, len(current))
	for i, item := range current {
		if id := itemID(item); id != "" {
			index[id] = i
		}
	}
	for _, item := range items {
		id := itemID(item)
		if i, ok := index[id]; ok && id != "" {
			current[i] = asset.DeepCopy(item)
			continue
		}
		if id != "" {
			index[id] = len(current)
		}
		current = append(current, asset.DeepCopy(item))
	}
	if current == nil {
		current = []any{}
	}
	return current
}

func itemID(item any) string {
	rec, ok := item.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := rec["id"].(string)
	return id
}

// InputSchemas resolves a recipe id to its input fields.
type InputSchemas interface {
	InputSchema(recipeID string) (schema.Fields, bool)
}

// Recipe is the parameter-set behavior of recipe nodes. Field ports expose
// effective inputs, the output ports expose the last execution result, and
// incoming edges must target a declared, connectable input.
func Recipe(recipes InputSchemas) *behavior.Behavior {
	inputs := func(n node.Node, a *asset.Asset) (schema.Fields, bool) {
		if recipes != nil {
			if fields, ok := recipes.InputSchema(n.Type.Instance()); ok {
				return fields, true
			}
		}
		return assetSchema(a), false
	}

	return behavior.Extend(Standard(), behavior.Behavior{
		ResolveOutput: func(rc behavior.ResolveContext) (*port.Value, bool) {
			switch rc.Port {
			case port.Origin, port.Output, port.Product:
				if rc.Node.Data.ExecutionResult == nil {
					return nil, true
				}
				return port.New(asset.DeepCopy(rc.Node.Data.ExecutionResult)), true
			}
			key, ok := port.ScopedFieldKey(rc.Port)
			if !ok {
				return nil, false
			}
			fields, _ := inputs(rc.Node, rc.Asset)
			var stored map[string]any
			if rc.Asset != nil {
				stored, _ = asset.DeepCopy(rc.Asset.Value).(map[string]any)
			}
			v, exists := fields.Effective(stored)[key]
			if !exists {
				return nil, true
			}
			return port.New(v), true
		},
		CanConnect: func(cc behavior.ConnectContext) string {
			fields, known := inputs(cc.Target, cc.TargetAsset)
			return canConnectFields(fields, known, cc)
		},
		OnConnect: func(cc behavior.ConnectContext) map[string]any {
			fields, _ := inputs(cc.Target, cc.TargetAsset)
			return connectFields(fields, cc)
		},
		OnDisconnect: func(dc behavior.DisconnectContext) map[string]any {
			fields, _ := inputs(dc.Target, dc.TargetAsset)
			return disconnectFields(fields, dc)
		},
		OnCreate: func(cc behavior.CreateContext) *asset.Patch {
			if cc.Asset == nil || cc.Asset.Value != nil {
				return nil
			}
			return &asset.Patch{ID: cc.Asset.ID, SetValue: true, Value: map[string]any{}}
		},
	})
}
