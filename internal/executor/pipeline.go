package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/graph"
	"github.com/vk/synnia/internal/layout"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/schema"
)

// execute runs steps one to six for a node already marked running.
func (e *Executor) execute(ctx context.Context, n node.Node, def *recipe.Definition) error {
	logger := ctxlog.FromContext(ctx)

	stored, err := e.refreshInputs(ctx, n, def)
	if err != nil {
		return err
	}
	inputs := def.Inputs.Effective(stored)
	logger.Debug("Effective inputs computed.", "inputs", len(inputs))

	if err := validateInputs(n.ID, def.Inputs, inputs); err != nil {
		return err
	}

	ec := &recipe.ExecContext{
		Inputs:    inputs,
		NodeID:    n.ID,
		Recipe:    def,
		Graph:     e.graph,
		Chat:      e.chat,
		Providers: e.providers,
		Recipes:   e.recipes,
	}
	res, err := recipe.Run(ctx, ec)
	if err != nil {
		return &ExecutionError{NodeID: n.ID, RecipeID: def.ID, Err: err}
	}
	if res == nil || !res.Success {
		msg := "Recipe execution failed."
		if res != nil && res.Error != "" {
			msg = res.Error
		}
		return &ExecutionError{NodeID: n.ID, RecipeID: def.ID, Message: msg}
	}
	if res.WasTruncated {
		logger.Warn("Provider output was truncated.", "recipe", def.ID)
	}

	specs := res.Nodes
	if len(specs) == 0 && def.Output != nil {
		specs, err = recipe.Synthesize(def.Output, res)
		if err != nil {
			return &ExecutionError{NodeID: n.ID, RecipeID: def.ID, Err: err}
		}
	}
	logger.Debug("Recipe result received.", "specs", len(specs))

	if err := e.graph.UpdateNode(ctx, node.Patch{ID: n.ID, SetExecutionResult: true, ExecutionResult: res.Value()}); err != nil {
		return err
	}
	if len(specs) == 0 {
		return nil
	}
	return e.reconcile(ctx, n, def, specs)
}

// refreshInputs re-applies every incoming connection to the recipe asset
// through the engine, so the node's OnConnect hook sees fresh upstream
// values, and returns the stored record.
func (e *Executor) refreshInputs(ctx context.Context, n node.Node, def *recipe.Definition) (map[string]any, error) {
	a, err := e.graph.RefreshConnections(ctx, n.ID)
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Connected inputs refreshed.", "recipe", def.ID)
	stored, _ := a.Record()
	return stored, nil
}

// validateInputs stops at the first required field that is empty or object
// field that lacks a required key.
func validateInputs(nodeID string, fields schema.Fields, inputs map[string]any) error {
	for _, f := range fields {
		v := inputs[f.Key]
		label := f.Label
		if label == "" {
			label = f.Key
		}
		if f.Required && schema.IsEmptyValue(v) {
			return &ValidationError{NodeID: nodeID, Field: f.Key, Reason: fmt.Sprintf("Missing required input %q.", label)}
		}
		if v == nil {
			continue
		}
		if missing := f.MissingKeys(v); len(missing) > 0 {
			return &ValidationError{
				NodeID: nodeID,
				Field:  f.Key,
				Reason: fmt.Sprintf("Input %q is missing required keys: %s.", label, strings.Join(missing, ", ")),
			}
		}
	}
	return nil
}

// product returns the node the recipe's output edge points at, if any.
func (e *Executor) product(ctx context.Context, recipeID string) (node.Node, bool) {
	for _, edge := range e.graph.EdgesFrom(ctx, recipeID) {
		if edge.IsOutput() {
			return e.graph.Node(ctx, edge.Target)
		}
	}
	return node.Node{}, false
}

func (e *Executor) provenance(ctx context.Context, n node.Node, def *recipe.Definition) map[string]any {
	var sources []any
	for _, edge := range e.graph.EdgesTo(ctx, n.ID) {
		sources = append(sources, edge.Source)
	}
	if sources == nil {
		sources = []any{}
	}
	return map[string]any{
		"provenance": map[string]any{
			"recipeId":    def.ID,
			"generatedAt": e.now().UTC().Format(time.RFC3339),
			"sources":     sources,
		},
	}
}

// reconcile writes specs into the graph. A single spec for a recipe that
// already has its single product updates that product in place; anything
// else creates new nodes.
func (e *Executor) reconcile(ctx context.Context, n node.Node, def *recipe.Definition, specs []recipe.NodeSpec) error {
	logger := ctxlog.FromContext(ctx)
	extra := e.provenance(ctx, n, def)

	existing, hasProduct := e.product(ctx, n.ID)
	if hasProduct && len(specs) == 1 && specs[0].Type.Category() == existing.Type.Category() && specs[0].Connect == nil {
		logger.Debug("Updating existing product in place.", "product", existing.ID)
		return e.updateProduct(ctx, existing, specs[0], extra)
	}

	anchor := n
	if hasProduct {
		anchor = existing
	}
	var prev *node.Node
	for i, spec := range specs {
		pos := e.place(anchor, prev, spec)
		dockedTo := spec.DockedTo
		if dockedTo == recipe.PrevRef {
			dockedTo = ""
			if prev != nil {
				dockedTo = prev.ID
				pos = layout.Beneath(*prev)
			}
		}
		vt := spec.ValueType
		if vt == "" {
			vt = spec.Type.DefaultValueType()
		}

		created, err := e.graph.CreateNode(ctx, graph.NodeSpec{
			Type:      spec.Type,
			Position:  pos,
			Title:     spec.Title,
			Collapsed: spec.Collapsed,
			DockedTo:  dockedTo,
			Extra:     extra,
			ValueType: vt,
			Value:     spec.Value,
			Config:    spec.Config,
		})
		if err != nil {
			return fmt.Errorf("failed to create product %d: %w", i, err)
		}

		switch {
		case spec.Connect != nil:
			_, err = e.graph.Connect(ctx, node.Edge{
				Source:       n.ID,
				SourceHandle: spec.Connect.SourceHandle,
				Target:       created.ID,
				TargetHandle: spec.Connect.TargetHandle,
			})
		case i == 0:
			if err = e.graph.UpdateNode(ctx, node.Patch{ID: n.ID, HasProductHandle: node.Ptr(true)}); err == nil {
				_, err = e.graph.Connect(ctx, node.Edge{
					Source:       n.ID,
					SourceHandle: port.Product,
					Target:       created.ID,
					TargetHandle: port.Origin,
					Type:         node.EdgeTypeOutput,
				})
			}
		}
		if err != nil {
			return fmt.Errorf("failed to connect product %s: %w", created.ID, err)
		}
		logger.Debug("Product created.", "product", created.ID, "type", created.Type, "dockedTo", dockedTo)
		prev = &created
	}

	if e.fixer != nil {
		return e.fixer.Fix(ctx, e.graph)
	}
	return nil
}

// place picks a position for a new node. The first node goes next to the
// anchor, later ones next to the node created before them.
func (e *Executor) place(anchor node.Node, prev *node.Node, spec recipe.NodeSpec) node.Position {
	ref := anchor
	if prev != nil {
		ref = *prev
	}
	switch spec.Placement {
	case recipe.PlaceExplicit:
		if spec.At != nil {
			return *spec.At
		}
	case recipe.PlaceRight:
		return e.grid.Snap(layout.RightOf(ref))
	}
	return e.grid.Snap(layout.Below(ref))
}

func (e *Executor) updateProduct(ctx context.Context, product node.Node, spec recipe.NodeSpec, extra map[string]any) error {
	current, ok := e.graph.Asset(ctx, product.Data.AssetID)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrAssetNotFound, product.Data.AssetID)
	}

	value := spec.Value
	if b := e.graph.Behaviors().Get(product.Type); b.SupportsItems() {
		items := b.GetItems(spec.Value)
		if items == nil {
			items = []any{spec.Value}
		}
		value = b.MergeItems(current.Value, items)
	}
	if err := e.graph.PatchAsset(ctx, asset.Patch{ID: current.ID, SetValue: true, Value: value}); err != nil {
		return err
	}
	return e.graph.UpdateNode(ctx, node.Patch{ID: product.ID, Extra: extra})
}
