package behaviors

import (
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/schema"
	"github.com/vk/synnia/internal/validator"
)

// Standard is the canonical behavior: default port resolution, schema-driven
// coercion on field ports, defaults restored on disconnect, and dock chains
// kept intact when a member is collapsed or deleted.
func Standard() *behavior.Behavior {
	return &behavior.Behavior{
		CanConnect: func(cc behavior.ConnectContext) string {
			return canConnectFields(assetSchema(cc.TargetAsset), false, cc)
		},
		OnConnect: func(cc behavior.ConnectContext) map[string]any {
			return connectFields(assetSchema(cc.TargetAsset), cc)
		},
		OnDisconnect: func(dc behavior.DisconnectContext) map[string]any {
			return disconnectFields(assetSchema(dc.TargetAsset), dc)
		},
		OnCollapse: collapseFollowers,
		OnCreate: func(cc behavior.CreateContext) *asset.Patch {
			return fillDefaults(assetSchema(cc.Asset), cc.Asset)
		},
		OnDelete: redockFollowers,
	}
}

func assetSchema(a *asset.Asset) schema.Fields {
	if a == nil {
		return nil
	}
	return schema.FromConfig(a.Config)
}

// canConnectFields checks an incoming edge against fields. With strict set,
// unknown fields are rejected; otherwise they take the legacy path.
func canConnectFields(fields schema.Fields, strict bool, cc behavior.ConnectContext) string {
	targetPort := cc.Edge.TargetPort()
	if port.IsReserved(targetPort) {
		return ""
	}
	key, ok := port.FieldKey(targetPort)
	if !ok {
		return ""
	}

	field, exists := fields.Get(key)
	if !exists && strict {
		return "There is no input named \"" + key + "\" on this node."
	}
	if exists && !field.Connection.Input {
		return "Field \"" + key + "\" does not accept connections."
	}

	if res := validator.Coerce(field, cc.Value, targetPort); !res.Compatible {
		return res.Reason
	}
	return ""
}

func connectFields(fields schema.Fields, cc behavior.ConnectContext) map[string]any {
	targetPort := cc.Edge.TargetPort()
	key, ok := port.FieldKey(targetPort)
	if !ok {
		return nil
	}
	field, _ := fields.Get(key)
	res := validator.Coerce(field, cc.Value, targetPort)
	for _, w := range res.Warnings {
		ctxlog.FromContext(cc.Ctx).Warn("Connected value does not fully match the field schema.", "node", cc.Target.ID, "warning", w)
	}
	if !res.Compatible || !res.HasValue {
		return nil
	}
	return map[string]any{key: res.Value}
}

func disconnectFields(fields schema.Fields, dc behavior.DisconnectContext) map[string]any {
	key, ok := port.FieldKey(dc.Edge.TargetPort())
	if !ok {
		return nil
	}
	var def any
	if field, exists := fields.Get(key); exists {
		def = field.Default
	}
	return map[string]any{key: def}
}

// fillDefaults seeds a record value with field defaults for missing keys.
func fillDefaults(fields schema.Fields, a *asset.Asset) *asset.Patch {
	if a == nil || len(fields) == 0 {
		return nil
	}
	rec, _ := a.Record()
	if a.Value != nil && rec == nil {
		return nil
	}
	missing := make(map[string]any)
	for k, v := range fields.Defaults() {
		if _, ok := rec[k]; !ok {
			missing[k] = v
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &asset.Patch{ID: a.ID, Fields: missing}
}

// followers returns every node docked, directly or transitively, under id,
// in chain order.
func followers(cc behavior.CollapseContext, id string) []node.Node {
	nodes := cc.Lookup.Nodes(cc.Ctx)
	var out []node.Node
	seen := map[string]bool{id: true}
	cur := id
	for {
		var next *node.Node
		for i := range nodes {
			if nodes[i].Data.DockedTo == cur && !seen[nodes[i].ID] {
				next = &nodes[i]
				break
			}
		}
		if next == nil {
			return out
		}
		seen[next.ID] = true
		out = append(out, *next)
		cur = next.ID
	}
}

func collapseFollowers(cc behavior.CollapseContext) []node.Patch {
	var patches []node.Patch
	for _, f := range followers(cc, cc.Node.ID) {
		if f.Data.Collapsed != cc.Collapsed {
			patches = append(patches, node.Patch{ID: f.ID, Collapsed: node.Ptr(cc.Collapsed)})
		}
	}
	return patches
}

// redockFollowers hands the deleted node's direct followers to its own
// anchor so the rest of the chain stays connected.
func redockFollowers(dc behavior.DeleteContext) []node.Patch {
	var patches []node.Patch
	for _, n := range dc.Lookup.Nodes(dc.Ctx) {
		if n.Data.DockedTo == dc.Node.ID {
			patches = append(patches, node.Patch{ID: n.ID, DockedTo: node.Ptr(dc.Node.Data.DockedTo)})
		}
	}
	return patches
}
