package behaviors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/schema"
)

type fakeGraph struct {
	nodes  []node.Node
	assets map[string]asset.Asset
}

func (f *fakeGraph) Node(_ context.Context, id string) (node.Node, bool) {
	for _, n := range f.nodes {
		if n.ID == id {
			return n, true
		}
	}
	return node.Node{}, false
}
func (f *fakeGraph) Asset(_ context.Context, id string) (asset.Asset, bool) {
	a, ok := f.assets[id]
	return a, ok
}
func (f *fakeGraph) Nodes(context.Context) []node.Node                         { return f.nodes }
func (f *fakeGraph) EdgesTo(context.Context, string) []node.Edge               { return nil }
func (f *fakeGraph) EdgesFrom(context.Context, string) []node.Edge             { return nil }
func (f *fakeGraph) ResolveOutput(context.Context, string, string) *port.Value { return nil }

type staticSchemas map[string]schema.Fields

func (s staticSchemas) InputSchema(id string) (schema.Fields, bool) {
	fs, ok := s[id]
	return fs, ok
}

func resolve(t *testing.T, b *behavior.Behavior, g *fakeGraph, nodeID, portID string) *port.Value {
	t.Helper()
	n, ok := g.Node(context.Background(), nodeID)
	require.True(t, ok)
	var a *asset.Asset
	if stored, ok := g.assets[n.Data.AssetID]; ok {
		a = &stored
	}
	v, handled := b.ResolveOutput(behavior.ResolveContext{
		Ctx: context.Background(), Node: n, Asset: a, Port: portID, Lookup: g,
	})
	require.True(t, handled)
	return v
}

func TestFormChain(t *testing.T) {
	g := &fakeGraph{
		nodes: []node.Node{
			{ID: "a", Type: node.TypeForm, Data: node.Data{AssetID: "fa"}},
			{ID: "b", Type: node.TypeForm, Data: node.Data{AssetID: "fb", DockedTo: "a"}},
			{ID: "c", Type: node.TypeForm, Data: node.Data{AssetID: "fc", DockedTo: "b"}},
		},
		assets: map[string]asset.Asset{
			"fa": {ID: "fa", ValueType: asset.TypeRecord, Value: map[string]any{"name": "A"}},
			"fb": {ID: "fb", ValueType: asset.TypeRecord, Value: map[string]any{"name": "B"}},
			"fc": {ID: "fc", ValueType: asset.TypeRecord, Value: map[string]any{"name": "C"}},
		},
	}

	v := resolve(t, Form(), g, "c", port.Chain)
	require.NotNil(t, v)
	assert.Equal(t, port.KindArray, v.Type)
	assert.Equal(t, []any{
		map[string]any{"name": "A"},
		map[string]any{"name": "B"},
		map[string]any{"name": "C"},
	}, v.Value)

	v = resolve(t, Form(), g, "a", port.Chain)
	assert.Equal(t, []any{map[string]any{"name": "A"}}, v.Value)
}

func TestFormFields(t *testing.T) {
	g := &fakeGraph{
		nodes: []node.Node{{ID: "f", Type: node.TypeForm, Data: node.Data{AssetID: "fa"}}},
		assets: map[string]asset.Asset{
			"fa": {
				ID: "fa", ValueType: asset.TypeRecord,
				Value: map[string]any{"topic": "cats"},
				Config: map[string]any{schema.ConfigKey: schema.ToConfig(schema.Fields{
					{Key: "topic", Type: schema.TypeString},
					{Key: "count", Type: schema.TypeNumber, Default: 3.0},
				})},
			},
		},
	}

	assert.Equal(t, map[string]any{"topic": "cats", "count": 3.0}, resolve(t, Form(), g, "f", port.Output).Value)
	assert.Equal(t, "cats", resolve(t, Form(), g, "f", "field:topic").Value)
	assert.Equal(t, 3.0, resolve(t, Form(), g, "f", "field:count").Value)
	assert.Nil(t, resolve(t, Form(), g, "f", "field:missing"))

	n, _ := g.Node(context.Background(), "f")
	v, handled := Form().ResolveOutput(behavior.ResolveContext{Ctx: context.Background(), Node: n, Port: "topic", Lookup: g})
	assert.False(t, handled, "bare keys are not output ports")
	assert.Nil(t, v)
}

func TestSelectorOutput(t *testing.T) {
	g := &fakeGraph{
		nodes: []node.Node{{ID: "s", Type: node.TypeSelector, Data: node.Data{AssetID: "sa"}}},
		assets: map[string]asset.Asset{
			"sa": {ID: "sa", ValueType: asset.TypeSelector, Value: map[string]any{
				"options": []any{
					map[string]any{"id": "1", "label": "Red"},
					map[string]any{"id": "2", "label": "Blue"},
				},
				"selected": []any{"2"},
			}},
		},
	}

	v := resolve(t, Selector(), g, "s", port.Output)
	assert.Equal(t, []any{map[string]any{"id": "2", "label": "Blue"}}, v.Value)
	assert.Equal(t, "Blue", resolve(t, Selector(), g, "s", "field:label").Value)
}

func TestTableColumns(t *testing.T) {
	g := &fakeGraph{
		nodes: []node.Node{{ID: "t", Type: node.TypeTable, Data: node.Data{AssetID: "ta"}}},
		assets: map[string]asset.Asset{
			"ta": {ID: "ta", ValueType: asset.TypeTable, Value: map[string]any{
				"columns": []any{map[string]any{"key": "name"}},
				"rows": []any{
					map[string]any{"name": "x"},
					map[string]any{"name": "y"},
				},
			}},
		},
	}

	assert.Len(t, resolve(t, Table(), g, "t", port.Output).Value, 2)
	assert.Equal(t, []any{"x", "y"}, resolve(t, Table(), g, "t", "field:name").Value)
	assert.Nil(t, resolve(t, Table(), g, "t", "field:age"))
}

func TestCollectionMergeItems(t *testing.T) {
	b := Collection()
	require.True(t, b.SupportsItems())

	existing := []any{
		map[string]any{"id": "1", "v": "old"},
		map[string]any{"id": "2", "v": "keep"},
	}
	merged := b.MergeItems(existing, []any{
		map[string]any{"id": "1", "v": "new"},
		map[string]any{"id": "3", "v": "added"},
	})
	assert.Equal(t, []any{
		map[string]any{"id": "1", "v": "new"},
		map[string]any{"id": "2", "v": "keep"},
		map[string]any{"id": "3", "v": "added"},
	}, merged)
	assert.Equal(t, "old", existing[0].(map[string]any)["v"], "input must not be mutated")
}

func TestRecipeBehavior(t *testing.T) {
	schemas := staticSchemas{"copy": schema.Fields{
		{Key: "topic", Type: schema.TypeString, Connection: schema.Connection{Input: true}},
		{Key: "tone", Type: schema.TypeString, Default: "neutral", Connection: schema.Connection{Input: true}},
		{Key: "secret", Type: schema.TypeString},
	}}
	b := Recipe(schemas)
	recipeNode := node.Node{ID: "r", Type: node.RecipeType("copy"), Data: node.Data{AssetID: "ra"}}
	g := &fakeGraph{
		nodes:  []node.Node{recipeNode},
		assets: map[string]asset.Asset{"ra": {ID: "ra", ValueType: asset.TypeRecipe, Value: map[string]any{"topic": "cats"}}},
	}

	t.Run("output is nil before the first run", func(t *testing.T) {
		assert.Nil(t, resolve(t, b, g, "r", port.Output))
	})

	t.Run("field ports expose effective inputs", func(t *testing.T) {
		assert.Equal(t, "cats", resolve(t, b, g, "r", "field:topic").Value)
		assert.Equal(t, "neutral", resolve(t, b, g, "r", "field:tone").Value)
	})

	t.Run("connections are checked against the recipe inputs", func(t *testing.T) {
		ra := g.assets["ra"]
		cc := behavior.ConnectContext{
			Ctx: context.Background(), Target: recipeNode, TargetAsset: &ra,
			Value: port.New("hello"), Lookup: g,
		}

		cc.Edge = node.Edge{Source: "x", Target: "r", TargetHandle: "field:topic"}
		assert.Empty(t, b.CanConnect(cc))
		assert.Equal(t, map[string]any{"topic": "hello"}, b.OnConnect(cc))

		cc.Edge.TargetHandle = "field:nope"
		assert.NotEmpty(t, b.CanConnect(cc))

		cc.Edge.TargetHandle = "field:secret"
		assert.NotEmpty(t, b.CanConnect(cc))
	})

	t.Run("disconnect restores the default", func(t *testing.T) {
		ra := g.assets["ra"]
		got := b.OnDisconnect(behavior.DisconnectContext{
			Ctx: context.Background(), Target: recipeNode, TargetAsset: &ra, Lookup: g,
			Edge: node.Edge{Source: "x", Target: "r", TargetHandle: "field:tone"},
		})
		assert.Equal(t, map[string]any{"tone": "neutral"}, got)
	})
}

func TestRegisterAllFallsBackForRecipeInstances(t *testing.T) {
	reg := behavior.NewRegistry()
	RegisterAll(context.Background(), reg, staticSchemas{})

	assert.Same(t, reg.Get(node.TypeRecipe), reg.Get(node.RecipeType("anything")))
	assert.NotNil(t, reg.Get(node.TypeForm).ResolveOutput)
}

func TestStandardCollapseAndDelete(t *testing.T) {
	g := &fakeGraph{nodes: []node.Node{
		{ID: "a"},
		{ID: "b", Data: node.Data{DockedTo: "a"}},
		{ID: "c", Data: node.Data{DockedTo: "b"}},
	}}
	b := Standard()

	patches := b.OnCollapse(behavior.CollapseContext{Ctx: context.Background(), Node: g.nodes[0], Collapsed: true, Lookup: g})
	require.Len(t, patches, 2)
	assert.Equal(t, "b", patches[0].ID)
	assert.Equal(t, "c", patches[1].ID)

	patches = b.OnDelete(behavior.DeleteContext{Ctx: context.Background(), Node: g.nodes[1], Lookup: g})
	require.Len(t, patches, 1)
	assert.Equal(t, "c", patches[0].ID)
	assert.Equal(t, "a", *patches[0].DockedTo)
}
