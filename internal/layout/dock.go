package layout

import (
	"context"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
)

// Canvas is the part of the graph engine the layout pass needs.
type Canvas interface {
	Nodes(ctx context.Context) []node.Node
	ApplyNodePatches(ctx context.Context, patches []node.Patch) error
}

// Fixer repairs node positions after the graph changed.
type Fixer interface {
	Fix(ctx context.Context, c Canvas) error
}

// DockStacker moves every docked node directly beneath its anchor, walking
// each chain from its head so a moved node drags the rest of its chain.
type DockStacker struct{}

var _ Fixer = DockStacker{}

func (DockStacker) Fix(ctx context.Context, c Canvas) error {
	nodes := c.Nodes(ctx)
	byID := make(map[string]node.Node, len(nodes))
	followers := make(map[string][]string)
	for _, n := range nodes {
		byID[n.ID] = n
		if n.Data.DockedTo != "" {
			followers[n.Data.DockedTo] = append(followers[n.Data.DockedTo], n.ID)
		}
	}

	var patches []node.Patch
	visited := make(map[string]bool)
	var walk func(anchorID string)
	walk = func(anchorID string) {
		anchor := byID[anchorID]
		for _, id := range followers[anchorID] {
			if visited[id] {
				continue
			}
			visited[id] = true
			f := byID[id]
			if want := Beneath(anchor); f.Position != want {
				f.Position = want
				byID[id] = f
				patches = append(patches, node.Patch{ID: id, Position: &want})
			}
			walk(id)
		}
	}
	for _, n := range nodes {
		if _, anchored := byID[n.Data.DockedTo]; !anchored {
			visited[n.ID] = true
			walk(n.ID)
		}
	}

	if len(patches) == 0 {
		return nil
	}
	ctxlog.FromContext(ctx).Debug("Dock layout fixed.", "moved", len(patches))
	return c.ApplyNodePatches(ctx, patches)
}
