package validator

import (
	"context"

	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/node"
)

// CheckStructure returns a rejection reason when adding e would create a
// self-loop or a cycle. Dock links count as edges from the anchor to the
// docked node.
func CheckStructure(ctx context.Context, lookup behavior.Lookup, e node.Edge) string {
	if e.Source == e.Target {
		return "A node cannot be connected to itself."
	}
	if reaches(ctx, lookup, e.Target, e.Source) {
		return "This connection would create a cycle."
	}
	return ""
}

// reaches reports whether to is reachable from from.
func reaches(ctx context.Context, lookup behavior.Lookup, from, to string) bool {
	followers := make(map[string][]string)
	for _, n := range lookup.Nodes(ctx) {
		if n.Data.DockedTo != "" {
			followers[n.Data.DockedTo] = append(followers[n.Data.DockedTo], n.ID)
		}
	}

	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		next := append([]string(nil), followers[cur]...)
		for _, e := range lookup.EdgesFrom(ctx, cur) {
			next = append(next, e.Target)
		}
		for _, id := range next {
			if !visited[id] {
				visited[id] = true
				queue = append(queue, id)
			}
		}
	}
	return false
}
