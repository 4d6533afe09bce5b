package graph

import (
	"context"

	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
)

// Graph is the surface of the engine used by the recipe executor, the
// project adapter and the view layer.
//
// # Thread-Safety
//
// Implementations MUST be thread-safe. Executions of different recipe nodes
// overlap and read the graph while other mutations are applied.
type Graph interface {
	Node(ctx context.Context, id string) (node.Node, bool)
	Asset(ctx context.Context, id string) (asset.Asset, bool)
	Nodes(ctx context.Context) []node.Node
	Edges(ctx context.Context) []node.Edge
	EdgesTo(ctx context.Context, nodeID string) []node.Edge
	EdgesFrom(ctx context.Context, nodeID string) []node.Edge

	// Behaviors is the registry hooks are dispatched through.
	Behaviors() *behavior.Registry

	// ResolveOutput returns the value a node exposes on a port, or nil.
	ResolveOutput(ctx context.Context, nodeID, portID string) *port.Value

	// ConnectedFields maps each connected field of a node to its incoming value.
	ConnectedFields(ctx context.Context, nodeID string) map[string]*port.Value

	// RefreshConnections re-runs OnConnect for every incoming edge of a node
	// and returns its asset after the merged write.
	RefreshConnections(ctx context.Context, nodeID string) (asset.Asset, error)

	CreateNode(ctx context.Context, spec NodeSpec) (node.Node, error)
	PatchAsset(ctx context.Context, p asset.Patch) error
	UpdateNode(ctx context.Context, p node.Patch) error
	ApplyNodePatches(ctx context.Context, patches []node.Patch) error
	Connect(ctx context.Context, e node.Edge) (node.Edge, error)
	Disconnect(ctx context.Context, edgeID string) error
	RemoveNode(ctx context.Context, id string) error
}

var _ Graph = (*Manager)(nil)
