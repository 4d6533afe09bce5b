package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/topologystore"
)

// Store implements the topologystore.Store interface using maps and a mutex
// for thread-safe concurrent access.
type Store struct {
	mu        sync.RWMutex
	nodes     map[string]node.Node
	nodeOrder []string
	edges     map[string]node.Edge
	edgeOrder []string
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		nodes: make(map[string]node.Node),
		edges: make(map[string]node.Edge),
	}
}

// PutNode adds or replaces a node.
func (s *Store) PutNode(ctx context.Context, n node.Node) error {
	if n.ID == "" {
		return fmt.Errorf("node id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[n.ID]; !exists {
		s.nodeOrder = append(s.nodeOrder, n.ID)
	}
	s.nodes[n.ID] = n.Clone()
	return nil
}

// GetNode retrieves a single node by id.
func (s *Store) GetNode(ctx context.Context, id string) (node.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n, ok := s.nodes[id]
	if !ok {
		return node.Node{}, false
	}
	return n.Clone(), true
}

// DeleteNode removes a node and every edge attached to it.
func (s *Store) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[id]; !exists {
		return nil
	}
	delete(s.nodes, id)
	s.nodeOrder = slices.DeleteFunc(s.nodeOrder, func(k string) bool { return k == id })

	for edgeID, e := range s.edges {
		if e.Source == id || e.Target == id {
			s.deleteEdgeLocked(edgeID)
		}
	}
	return nil
}

// AllNodes returns all nodes in insertion order.
func (s *Store) AllNodes(ctx context.Context) []node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]node.Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		nodes = append(nodes, s.nodes[id].Clone())
	}
	return nodes
}

// PutEdge adds or replaces an edge after checking both endpoints exist.
func (s *Store) PutEdge(ctx context.Context, e node.Edge) error {
	if e.ID == "" {
		return fmt.Errorf("edge id cannot be empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[e.Source]; !exists {
		return fmt.Errorf("edge source node '%s' not found in topology", e.Source)
	}
	if _, exists := s.nodes[e.Target]; !exists {
		return fmt.Errorf("edge target node '%s' not found in topology", e.Target)
	}

	if _, exists := s.edges[e.ID]; !exists {
		s.edgeOrder = append(s.edgeOrder, e.ID)
	}
	s.edges[e.ID] = e
	return nil
}

// GetEdge retrieves a single edge by id.
func (s *Store) GetEdge(ctx context.Context, id string) (node.Edge, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.edges[id]
	return e, ok
}

// DeleteEdge removes an edge.
func (s *Store) DeleteEdge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteEdgeLocked(id)
	return nil
}

func (s *Store) deleteEdgeLocked(id string) {
	if _, exists := s.edges[id]; !exists {
		return
	}
	delete(s.edges, id)
	s.edgeOrder = slices.DeleteFunc(s.edgeOrder, func(k string) bool { return k == id })
}

// AllEdges returns all edges in insertion order.
func (s *Store) AllEdges(ctx context.Context) []node.Edge {
	return s.filterEdges(func(node.Edge) bool { return true })
}

// EdgesTo returns the edges that end at nodeID.
func (s *Store) EdgesTo(ctx context.Context, nodeID string) []node.Edge {
	return s.filterEdges(func(e node.Edge) bool { return e.Target == nodeID })
}

// EdgesFrom returns the edges that start at nodeID.
func (s *Store) EdgesFrom(ctx context.Context, nodeID string) []node.Edge {
	return s.filterEdges(func(e node.Edge) bool { return e.Source == nodeID })
}

func (s *Store) filterEdges(keep func(node.Edge) bool) []node.Edge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]node.Edge, 0)
	for _, id := range s.edgeOrder {
		if e := s.edges[id]; keep(e) {
			out = append(out, e)
		}
	}
	return out
}
