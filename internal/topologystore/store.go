// Package topologystore defines the interface for storing the structure of
// the canvas graph: its nodes and the edges between them.
//
// # Why Topology Store Exists
//
// The topology store holds **where things are and how they are wired**, while
// assetstore holds **what they contain**. The split lets many nodes share one
// asset and keeps value writes from contending with structural reads.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. **Created** once per session
//  2. **Hydrated** from a saved project, if any
//  3. **Mutated** only by graph.Manager, which serializes every write
//  4. **Captured** back into the project document on save
//
// Unlike a pure DAG, the graph may temporarily hold nodes with no edges at
// all (free-standing text, dock chains); cycle rules are enforced one level
// up by the connection validator.
package topologystore

import (
	"context"

	"github.com/vk/synnia/internal/node"
)

// Store is the interface for managing nodes and edges.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent reads and writes. Readers get
// copies; mutating a returned value never changes stored state.
//
// # Typical Implementation
//
// See internal/inmemorytopology for the reference in-memory implementation
// using maps and sync.RWMutex.
type Store interface {
	// PutNode inserts a node or replaces the node with the same id. New nodes
	// are appended to the iteration order; replacements keep their position.
	PutNode(ctx context.Context, n node.Node) error

	// GetNode returns a copy of the node, or false if it does not exist.
	GetNode(ctx context.Context, id string) (node.Node, bool)

	// DeleteNode removes the node together with any edges still attached to
	// it. Deleting an unknown id is not an error.
	DeleteNode(ctx context.Context, id string) error

	// AllNodes returns every node in insertion order.
	AllNodes(ctx context.Context) []node.Node

	// PutEdge inserts or replaces an edge. Both endpoints must exist.
	PutEdge(ctx context.Context, e node.Edge) error

	// GetEdge returns a copy of the edge, or false if it does not exist.
	GetEdge(ctx context.Context, id string) (node.Edge, bool)

	// DeleteEdge removes an edge. Deleting an unknown id is not an error.
	DeleteEdge(ctx context.Context, id string) error

	// AllEdges returns every edge in insertion order.
	AllEdges(ctx context.Context) []node.Edge

	// EdgesTo returns the edges whose target is the given node.
	EdgesTo(ctx context.Context, nodeID string) []node.Edge

	// EdgesFrom returns the edges whose source is the given node.
	EdgesFrom(ctx context.Context, nodeID string) []node.Edge
}
