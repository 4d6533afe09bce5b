package behavior

import (
	"context"

	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
)

// Lookup is the read-only view of the graph handed to hooks.
type Lookup interface {
	Node(ctx context.Context, id string) (node.Node, bool)
	Asset(ctx context.Context, id string) (asset.Asset, bool)
	Nodes(ctx context.Context) []node.Node
	EdgesTo(ctx context.Context, nodeID string) []node.Edge
	EdgesFrom(ctx context.Context, nodeID string) []node.Edge
	ResolveOutput(ctx context.Context, nodeID, portID string) *port.Value
}

// ResolveContext is passed to ResolveOutput.
type ResolveContext struct {
	Ctx    context.Context
	Node   node.Node
	Asset  *asset.Asset
	Port   string
	Lookup Lookup
}

// ConnectContext is passed to CanConnect and OnConnect. Value is the source
// port value, resolved once before any hook runs.
type ConnectContext struct {
	Ctx         context.Context
	Source      node.Node
	SourceAsset *asset.Asset
	Target      node.Node
	TargetAsset *asset.Asset
	Edge        node.Edge
	Value       *port.Value
	Lookup      Lookup
}

// DisconnectContext is passed to OnDisconnect.
type DisconnectContext struct {
	Ctx         context.Context
	Source      node.Node
	Target      node.Node
	TargetAsset *asset.Asset
	Edge        node.Edge
	Lookup      Lookup
}

// CollapseContext is passed to OnCollapse.
type CollapseContext struct {
	Ctx       context.Context
	Node      node.Node
	Collapsed bool
	Lookup    Lookup
}

// CreateContext is passed to OnCreate, after the node and its asset exist.
type CreateContext struct {
	Ctx    context.Context
	Node   node.Node
	Asset  *asset.Asset
	Lookup Lookup
}

// DeleteContext is passed to OnDelete, before the node is removed.
type DeleteContext struct {
	Ctx    context.Context
	Node   node.Node
	Asset  *asset.Asset
	Lookup Lookup
}

// Behavior is the capability bundle for one node type.
type Behavior struct {
	// ResolveOutput returns the value on a port. handled=false falls through
	// to the default resolution.
	ResolveOutput func(rc ResolveContext) (v *port.Value, handled bool)

	// CanConnect returns a human-readable rejection reason, or "" to accept.
	CanConnect func(cc ConnectContext) string

	// OnConnect returns field updates merged into the target asset.
	OnConnect func(cc ConnectContext) map[string]any

	// OnDisconnect returns field updates merged into the target asset.
	OnDisconnect func(dc DisconnectContext) map[string]any

	OnCollapse func(cc CollapseContext) []node.Patch
	OnCreate   func(cc CreateContext) *asset.Patch
	OnDelete   func(dc DeleteContext) []node.Patch

	// GetItems and MergeItems let a collection be updated in place by a
	// re-run instead of growing new product nodes.
	GetItems   func(value any) []any
	MergeItems func(existing any, items []any) any
}

// Extend returns a copy of base where every non-nil hook of override wins.
func Extend(base *Behavior, override Behavior) *Behavior {
	out := Behavior{}
	if base != nil {
		out = *base
	}
	if override.ResolveOutput != nil {
		out.ResolveOutput = override.ResolveOutput
	}
	if override.CanConnect != nil {
		out.CanConnect = override.CanConnect
	}
	if override.OnConnect != nil {
		out.OnConnect = override.OnConnect
	}
	if override.OnDisconnect != nil {
		out.OnDisconnect = override.OnDisconnect
	}
	if override.OnCollapse != nil {
		out.OnCollapse = override.OnCollapse
	}
	if override.OnCreate != nil {
		out.OnCreate = override.OnCreate
	}
	if override.OnDelete != nil {
		out.OnDelete = override.OnDelete
	}
	if override.GetItems != nil {
		out.GetItems = override.GetItems
	}
	if override.MergeItems != nil {
		out.MergeItems = override.MergeItems
	}
	return &out
}

// SupportsItems reports whether b can merge list results in place.
func (b *Behavior) SupportsItems() bool {
	return b != nil && b.GetItems != nil && b.MergeItems != nil
}
