package graph

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/behaviors"
	"github.com/vk/synnia/internal/inmemorystore"
	"github.com/vk/synnia/internal/inmemorytopology"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/schema"
)

// createTestGraph creates a manager with in-memory stores, every built-in
// behavior and sequential ids.
func createTestGraph(t *testing.T) *Manager {
	t.Helper()
	reg := behavior.NewRegistry()
	behaviors.RegisterAll(context.Background(), reg, nil)

	var mu sync.Mutex
	seq := 0
	return New(inmemorytopology.New(), inmemorystore.New(), reg, WithIDGenerator(func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("id-%d", seq)
	}))
}

func addText(t *testing.T, m *Manager, id, value string) node.Node {
	t.Helper()
	n, err := m.CreateNode(context.Background(), NodeSpec{ID: id, Type: node.TypeText, Value: value})
	require.NoError(t, err)
	return n
}

func addForm(t *testing.T, m *Manager, id string, fields schema.Fields, value map[string]any) node.Node {
	t.Helper()
	n, err := m.CreateNode(context.Background(), NodeSpec{
		ID:     id,
		Type:   node.TypeForm,
		Value:  value,
		Config: map[string]any{schema.ConfigKey: schema.ToConfig(fields)},
	})
	require.NoError(t, err)
	return n
}

func TestCreateNode(t *testing.T) {
	ctx := context.Background()

	t.Run("creates the asset with the type's value type", func(t *testing.T) {
		m := createTestGraph(t)
		n := addText(t, m, "t1", "hello")

		a, ok := m.Asset(ctx, n.Data.AssetID)
		require.True(t, ok)
		assert.Equal(t, asset.TypeText, a.ValueType)
		assert.Equal(t, "hello", a.Value)
		assert.False(t, n.Data.IsReference)
	})

	t.Run("reference nodes share the asset", func(t *testing.T) {
		m := createTestGraph(t)
		orig := addText(t, m, "t1", "shared")
		ref, err := m.CreateNode(ctx, NodeSpec{ID: "t2", Type: node.TypeText, AssetID: orig.Data.AssetID})
		require.NoError(t, err)
		assert.True(t, ref.Data.IsReference)
		assert.Equal(t, orig.Data.AssetID, ref.Data.AssetID)
		assert.Len(t, m.Snapshot(ctx).Assets, 1)
	})

	t.Run("onCreate seeds schema defaults", func(t *testing.T) {
		m := createTestGraph(t)
		n := addForm(t, m, "f", schema.Fields{{Key: "count", Type: schema.TypeNumber, Default: 2.0}}, nil)
		a, _ := m.Asset(ctx, n.Data.AssetID)
		assert.Equal(t, map[string]any{"count": 2.0}, a.Value)
	})

	t.Run("rejects unknown types and missing assets", func(t *testing.T) {
		m := createTestGraph(t)
		_, err := m.CreateNode(ctx, NodeSpec{Type: "sticker"})
		assert.ErrorIs(t, err, ErrInvalidNode)
		_, err = m.CreateNode(ctx, NodeSpec{Type: node.TypeText, AssetID: "nope"})
		assert.ErrorIs(t, err, ErrAssetNotFound)
	})
}

func TestConnect(t *testing.T) {
	ctx := context.Background()
	fields := schema.Fields{
		{Key: "count", Type: schema.TypeNumber, Default: 1.0, Connection: schema.Connection{Input: true}},
	}

	t.Run("coerces the source value into the target field", func(t *testing.T) {
		m := createTestGraph(t)
		addText(t, m, "src", "42")
		f := addForm(t, m, "dst", fields, nil)

		e, err := m.Connect(ctx, node.Edge{Source: "src", Target: "dst", TargetHandle: "field:count"})
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)

		a, _ := m.Asset(ctx, f.Data.AssetID)
		assert.Equal(t, map[string]any{"count": 42.0}, a.Value)
		assert.Equal(t, "42", m.ConnectedFields(ctx, "dst")["count"].Value)
	})

	t.Run("incompatible values are rejected without mutation", func(t *testing.T) {
		m := createTestGraph(t)
		addText(t, m, "src", "many")
		f := addForm(t, m, "dst", fields, nil)

		_, err := m.Connect(ctx, node.Edge{Source: "src", Target: "dst", TargetHandle: "field:count"})
		var rej *RejectionError
		require.ErrorAs(t, err, &rej)
		assert.NotEmpty(t, rej.Reason)
		assert.Empty(t, m.Edges(ctx))

		a, _ := m.Asset(ctx, f.Data.AssetID)
		assert.Equal(t, map[string]any{"count": 1.0}, a.Value)
	})

	t.Run("cycles are rejected", func(t *testing.T) {
		m := createTestGraph(t)
		addText(t, m, "a", "x")
		addText(t, m, "b", "y")

		_, err := m.Connect(ctx, node.Edge{Source: "a", Target: "b"})
		require.NoError(t, err)

		_, err = m.Connect(ctx, node.Edge{Source: "b", Target: "a"})
		var rej *RejectionError
		require.ErrorAs(t, err, &rej)
		assert.Len(t, m.Edges(ctx), 1)

		_, err = m.Connect(ctx, node.Edge{Source: "a", Target: "a"})
		require.ErrorAs(t, err, &rej)
	})

	t.Run("connecting the same ports twice is a no-op", func(t *testing.T) {
		m := createTestGraph(t)
		addText(t, m, "a", "x")
		addText(t, m, "b", "y")

		first, err := m.Connect(ctx, node.Edge{Source: "a", Target: "b"})
		require.NoError(t, err)
		second, err := m.Connect(ctx, node.Edge{Source: "a", Target: "b"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, m.Edges(ctx), 1)
	})

	t.Run("a recipe keeps a single output edge", func(t *testing.T) {
		m := createTestGraph(t)
		_, err := m.CreateNode(ctx, NodeSpec{ID: "r", Type: node.RecipeType("echo")})
		require.NoError(t, err)
		addText(t, m, "p1", "one")
		addText(t, m, "p2", "two")

		_, err = m.Connect(ctx, node.Edge{Source: "r", SourceHandle: port.Product, Target: "p1", TargetHandle: port.Origin})
		require.NoError(t, err)
		e, err := m.Connect(ctx, node.Edge{Source: "r", SourceHandle: port.Product, Target: "p2", TargetHandle: port.Origin})
		require.NoError(t, err)

		edges := m.EdgesFrom(ctx, "r")
		require.Len(t, edges, 1)
		assert.Equal(t, e.ID, edges[0].ID)
		assert.Equal(t, node.EdgeTypeOutput, edges[0].Type)
	})

	t.Run("unknown nodes", func(t *testing.T) {
		m := createTestGraph(t)
		_, err := m.Connect(ctx, node.Edge{Source: "a", Target: "b"})
		assert.ErrorIs(t, err, ErrNodeNotFound)
	})
}

func TestDisconnectRestoresDefault(t *testing.T) {
	ctx := context.Background()
	m := createTestGraph(t)
	addText(t, m, "src", "7")
	f := addForm(t, m, "dst", schema.Fields{
		{Key: "count", Type: schema.TypeNumber, Default: 1.0, Connection: schema.Connection{Input: true}},
	}, nil)

	e, err := m.Connect(ctx, node.Edge{Source: "src", Target: "dst", TargetHandle: "field:count"})
	require.NoError(t, err)
	require.NoError(t, m.Disconnect(ctx, e.ID))

	a, _ := m.Asset(ctx, f.Data.AssetID)
	assert.Equal(t, map[string]any{"count": 1.0}, a.Value)
	assert.ErrorIs(t, m.Disconnect(ctx, e.ID), ErrEdgeNotFound)
}

func TestRefreshConnections(t *testing.T) {
	ctx := context.Background()
	m := createTestGraph(t)
	src := addText(t, m, "src", "7")
	f := addForm(t, m, "dst", schema.Fields{
		{Key: "count", Type: schema.TypeNumber, Default: 1.0, Connection: schema.Connection{Input: true}},
		{Key: "note", Type: schema.TypeString, Connection: schema.Connection{Input: true}},
	}, nil)
	_, err := m.Connect(ctx, node.Edge{Source: "src", Target: "dst", TargetHandle: "field:count"})
	require.NoError(t, err)
	_, err = m.Connect(ctx, node.Edge{Source: "src", Target: "dst", TargetHandle: "field:note"})
	require.NoError(t, err)

	require.NoError(t, m.UpdateAsset(ctx, src.Data.AssetID, "9"))
	a, err := m.RefreshConnections(ctx, "dst")
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"count": 9.0, "note": "9"}, a.Value)
	stored, _ := m.Asset(ctx, f.Data.AssetID)
	assert.Equal(t, a.Value, stored.Value)

	_, err = m.RefreshConnections(ctx, "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestCreateAssetRejectsExistingID(t *testing.T) {
	ctx := context.Background()
	m := createTestGraph(t)
	n := addText(t, m, "t", "draft")

	_, err := m.CreateAsset(ctx, asset.Asset{ID: n.Data.AssetID, ValueType: asset.TypeImage, Value: "x.png"})
	assert.ErrorIs(t, err, ErrInvalidAsset)

	a, _ := m.Asset(ctx, n.Data.AssetID)
	assert.Equal(t, asset.TypeText, a.ValueType)
	assert.Equal(t, "draft", a.Value)

	created, err := m.CreateAsset(ctx, asset.Asset{ValueType: asset.TypeImage, Value: "y.png"})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
}

func TestDockingAndCollapse(t *testing.T) {
	ctx := context.Background()
	m := createTestGraph(t)
	addText(t, m, "a", "1")
	addText(t, m, "b", "2")
	addText(t, m, "c", "3")
	require.NoError(t, m.Dock(ctx, "b", "a"))
	require.NoError(t, m.Dock(ctx, "c", "b"))

	var rej *RejectionError
	require.ErrorAs(t, m.Dock(ctx, "a", "c"), &rej)

	require.NoError(t, m.Collapse(ctx, "a", true))
	for _, id := range []string{"a", "b", "c"} {
		n, _ := m.Node(ctx, id)
		assert.True(t, n.Data.Collapsed, id)
	}

	require.NoError(t, m.Resize(ctx, "a", 300, 120))
	n, _ := m.Node(ctx, "a")
	assert.Equal(t, &node.Style{Width: 300, Height: 120}, n.Style)
}

func TestRemoveNode(t *testing.T) {
	ctx := context.Background()

	t.Run("redocks followers and deletes the asset", func(t *testing.T) {
		m := createTestGraph(t)
		a := addText(t, m, "a", "1")
		addText(t, m, "b", "2")
		addText(t, m, "c", "3")
		require.NoError(t, m.Dock(ctx, "b", "a"))
		require.NoError(t, m.Dock(ctx, "c", "b"))
		_, err := m.Connect(ctx, node.Edge{Source: "a", Target: "b"})
		require.NoError(t, err)

		b, _ := m.Node(ctx, "b")
		require.NoError(t, m.RemoveNode(ctx, "b"))

		c, _ := m.Node(ctx, "c")
		assert.Equal(t, "a", c.Data.DockedTo)
		assert.Empty(t, m.Edges(ctx))
		_, ok := m.Asset(ctx, b.Data.AssetID)
		assert.False(t, ok)
		_, ok = m.Asset(ctx, a.Data.AssetID)
		assert.True(t, ok)
	})

	t.Run("keeps an asset that is still referenced", func(t *testing.T) {
		m := createTestGraph(t)
		orig := addText(t, m, "a", "shared")
		_, err := m.CreateNode(ctx, NodeSpec{ID: "ref", Type: node.TypeText, AssetID: orig.Data.AssetID})
		require.NoError(t, err)

		require.NoError(t, m.RemoveNode(ctx, "a"))
		_, ok := m.Asset(ctx, orig.Data.AssetID)
		assert.True(t, ok)
	})

	t.Run("unknown node", func(t *testing.T) {
		m := createTestGraph(t)
		assert.ErrorIs(t, m.RemoveNode(ctx, "nope"), ErrNodeNotFound)
	})
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := createTestGraph(t)
	addText(t, m, "a", "1")
	addText(t, m, "b", "2")
	_, err := m.Connect(ctx, node.Edge{Source: "a", Target: "b"})
	require.NoError(t, err)

	snap := m.Snapshot(ctx)
	other := createTestGraph(t)
	addText(t, other, "stale", "x")
	require.NoError(t, other.Load(ctx, snap))

	assert.Equal(t, snap, other.Snapshot(ctx))
	_, ok := other.Node(ctx, "stale")
	assert.False(t, ok)
}

func TestConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	m := createTestGraph(t)
	addText(t, m, "hub", "x")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("n%d", i)
			_, err := m.CreateNode(ctx, NodeSpec{ID: id, Type: node.TypeText, Value: id})
			assert.NoError(t, err)
			_, err = m.Connect(ctx, node.Edge{Source: "hub", Target: id})
			assert.NoError(t, err)
			_ = m.ResolveOutput(ctx, "hub", port.Output)
		}(i)
	}
	wg.Wait()

	assert.Len(t, m.Nodes(ctx), 21)
	assert.Len(t, m.EdgesFrom(ctx, "hub"), 20)
}
