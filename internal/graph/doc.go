// Package graph provides the engine that owns the canvas graph: the single
// writer in front of the topology store and the asset store.
//
// # Why Graph Package Exists
//
// Nodes, edges and assets live in two separate stores, and every change to
// them has to run the behavior hooks of the node types involved. The Manager
// is the one place that does both, so callers (the view layer, the recipe
// executor, project hydration) never touch a store directly.
//
//	┌─────────────────────────────────────┐
//	│           graph.Manager             │
//	│  (mutation mutex, behavior hooks,   │
//	│   declarative patches)              │
//	└──────────┬────────────┬─────────────┘
//	           │            │
//	           ▼            ▼
//	  ┌────────────┐  ┌────────────┐
//	  │  Topology  │  │   Asset    │
//	  │   Store    │  │   Store    │
//	  └────────────┘  └────────────┘
//
// # Mutations
//
// Every write is expressed as a node.Patch or an asset.Patch and applied
// while holding the mutation mutex. Connecting an edge resolves the source
// port once, asks the target behavior whether it accepts the value, checks
// the structure for self-loops and cycles, creates the edge and finally
// merges the target's field updates into a single asset write.
//
// # Reads
//
// Reads go straight to the stores, which are safe for concurrent use. Hooks
// receive the Manager as their behavior.Lookup, so they can read the graph
// while a mutation is in progress without deadlocking.
package graph
