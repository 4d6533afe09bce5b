// Package resolver computes the value a node exposes on one of its ports.
package resolver

import (
	"context"

	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
)

// Default is the resolution used when a behavior does not handle a port.
// The whole value is exposed on origin and output; a record's entries are
// exposed on field: ports. Anything else, bare keys included, resolves to nil, which is a miss
// and not an error.
func Default(a *asset.Asset, portID string) *port.Value {
	if a == nil {
		return nil
	}
	switch portID {
	case port.Origin, port.Output:
		return port.New(asset.DeepCopy(a.Value))
	}

	key, ok := port.ScopedFieldKey(portID)
	if !ok {
		return nil
	}
	rec, ok := a.Record()
	if !ok {
		return nil
	}
	v, exists := rec[key]
	if !exists {
		return nil
	}
	return port.New(asset.DeepCopy(v))
}

// Resolve dispatches to the behavior registered for the node's type and
// falls back to Default when the behavior has no opinion on the port.
func Resolve(ctx context.Context, reg *behavior.Registry, lookup behavior.Lookup, n node.Node, a *asset.Asset, portID string) *port.Value {
	if b := reg.Get(n.Type); b.ResolveOutput != nil {
		v, handled := b.ResolveOutput(behavior.ResolveContext{
			Ctx:    ctx,
			Node:   n,
			Asset:  a,
			Port:   portID,
			Lookup: lookup,
		})
		if handled {
			return v
		}
	}
	v := Default(a, portID)
	if v == nil {
		ctxlog.FromContext(ctx).Debug("Port resolved to nothing.", "node", n.ID, "port", portID)
	}
	return v
}

// ConnectedFields maps each connected field of nodeID to the value arriving
// over its incoming edge. Edges into reserved ports are skipped.
func ConnectedFields(ctx context.Context, lookup behavior.Lookup, nodeID string) map[string]*port.Value {
	out := make(map[string]*port.Value)
	for _, e := range lookup.EdgesTo(ctx, nodeID) {
		key, ok := port.FieldKey(e.TargetPort())
		if !ok {
			continue
		}
		out[key] = lookup.ResolveOutput(ctx, e.Source, e.SourcePort())
	}
	return out
}
