package graph

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/assetstore"
	"github.com/vk/synnia/internal/behavior"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/port"
	"github.com/vk/synnia/internal/resolver"
	"github.com/vk/synnia/internal/topologystore"
	"github.com/vk/synnia/internal/validator"
)

// Manager is the graph engine. It composes the two stores and is the only
// component that writes to them.
type Manager struct {
	mu        sync.Mutex
	topology  topologystore.Store
	assets    assetstore.Store
	behaviors *behavior.Registry
	newID     func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// New creates a graph engine over the given stores.
func New(ts topologystore.Store, as assetstore.Store, behaviors *behavior.Registry, opts ...Option) *Manager {
	m := &Manager{
		topology:  ts,
		assets:    as,
		behaviors: behaviors,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Behaviors returns the registry the engine dispatches hooks through.
func (m *Manager) Behaviors() *behavior.Registry {
	return m.behaviors
}

func (m *Manager) Node(ctx context.Context, id string) (node.Node, bool) {
	return m.topology.GetNode(ctx, id)
}

func (m *Manager) Asset(ctx context.Context, id string) (asset.Asset, bool) {
	if id == "" {
		return asset.Asset{}, false
	}
	return m.assets.Get(ctx, id)
}

func (m *Manager) Edge(ctx context.Context, id string) (node.Edge, bool) {
	return m.topology.GetEdge(ctx, id)
}

func (m *Manager) Nodes(ctx context.Context) []node.Node {
	return m.topology.AllNodes(ctx)
}

func (m *Manager) Edges(ctx context.Context) []node.Edge {
	return m.topology.AllEdges(ctx)
}

func (m *Manager) EdgesTo(ctx context.Context, nodeID string) []node.Edge {
	return m.topology.EdgesTo(ctx, nodeID)
}

func (m *Manager) EdgesFrom(ctx context.Context, nodeID string) []node.Edge {
	return m.topology.EdgesFrom(ctx, nodeID)
}

// View returns a node together with the asset it points at, which is what
// the view layer renders. The asset is nil for nodes without one.
func (m *Manager) View(ctx context.Context, id string) (node.Node, *asset.Asset, bool) {
	n, ok := m.Node(ctx, id)
	if !ok {
		return node.Node{}, nil, false
	}
	return n, m.assetPtr(ctx, n.Data.AssetID), true
}

// ResolveOutput returns the value nodeID exposes on portID. Unknown nodes
// and unresolvable ports yield nil.
func (m *Manager) ResolveOutput(ctx context.Context, nodeID, portID string) *port.Value {
	n, ok := m.Node(ctx, nodeID)
	if !ok {
		return nil
	}
	return resolver.Resolve(ctx, m.behaviors, m, n, m.assetPtr(ctx, n.Data.AssetID), portID)
}

func (m *Manager) ConnectedFields(ctx context.Context, nodeID string) map[string]*port.Value {
	return resolver.ConnectedFields(ctx, m, nodeID)
}

func (m *Manager) assetPtr(ctx context.Context, id string) *asset.Asset {
	a, ok := m.Asset(ctx, id)
	if !ok {
		return nil
	}
	return &a
}

// NodeSpec describes a node to create. With AssetID set the node becomes a
// reference to that existing asset; otherwise a new asset is created from
// ValueType, Value, ValueMeta and Config.
type NodeSpec struct {
	ID        string
	Type      node.Type
	Position  node.Position
	Style     *node.Style
	Title     string
	Collapsed bool
	DockedTo  string
	Extra     map[string]any

	AssetID   string
	ValueType asset.ValueType
	Value     any
	ValueMeta map[string]any
	Config    map[string]any
}

// CreateNode adds a node and, unless it references an existing asset, the
// asset behind it. The node type's OnCreate hook runs once both exist.
func (m *Manager) CreateNode(ctx context.Context, spec NodeSpec) (node.Node, error) {
	logger := ctxlog.FromContext(ctx)
	if !spec.Type.Valid() {
		return node.Node{}, fmt.Errorf("%w: unknown node type %q", ErrInvalidNode, spec.Type)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	n := node.Node{
		ID:       spec.ID,
		Type:     spec.Type,
		Position: spec.Position,
		Style:    spec.Style,
		Data: node.Data{
			Title:     spec.Title,
			Collapsed: spec.Collapsed,
			DockedTo:  spec.DockedTo,
			Extra:     spec.Extra,
		},
	}
	if n.ID == "" {
		n.ID = m.newID()
	}
	if _, exists := m.Node(ctx, n.ID); exists {
		return node.Node{}, fmt.Errorf("%w: node %q already exists", ErrInvalidNode, n.ID)
	}
	if n.Data.DockedTo != "" {
		if _, ok := m.Node(ctx, n.Data.DockedTo); !ok {
			return node.Node{}, fmt.Errorf("%w: dock target %q", ErrNodeNotFound, n.Data.DockedTo)
		}
	}

	var a *asset.Asset
	if spec.AssetID != "" {
		existing, ok := m.Asset(ctx, spec.AssetID)
		if !ok {
			return node.Node{}, fmt.Errorf("%w: %s", ErrAssetNotFound, spec.AssetID)
		}
		n.Data.AssetID = existing.ID
		n.Data.IsReference = true
		a = &existing
	} else {
		vt := spec.ValueType
		if vt == "" {
			vt = spec.Type.DefaultValueType()
		}
		created := asset.Asset{
			ID:        m.newID(),
			ValueType: vt,
			Value:     asset.DeepCopy(spec.Value),
			ValueMeta: spec.ValueMeta,
			Config:    spec.Config,
		}
		if err := m.assets.Put(ctx, created); err != nil {
			return node.Node{}, fmt.Errorf("failed to create asset for node %q: %w", n.ID, err)
		}
		n.Data.AssetID = created.ID
		a = &created
	}

	if err := m.topology.PutNode(ctx, n); err != nil {
		return node.Node{}, fmt.Errorf("failed to store node %q: %w", n.ID, err)
	}
	logger.Debug("Node created.", "node", n.ID, "type", n.Type, "asset", n.Data.AssetID, "reference", n.Data.IsReference)

	if b := m.behaviors.Get(n.Type); b.OnCreate != nil && !n.Data.IsReference {
		if p := b.OnCreate(behavior.CreateContext{Ctx: ctx, Node: n, Asset: a, Lookup: m}); p != nil {
			if p.ID == "" {
				p.ID = a.ID
			}
			if err := m.patchAssetLocked(ctx, *p); err != nil {
				return node.Node{}, err
			}
		}
	}
	return n, nil
}

// CreateAsset stores a free-standing asset and returns it with its id. An
// existing asset is never replaced: values change through UpdateAsset and
// the value type never changes.
func (m *Manager) CreateAsset(ctx context.Context, a asset.Asset) (asset.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = m.newID()
	}
	if _, exists := m.Asset(ctx, a.ID); exists {
		return asset.Asset{}, fmt.Errorf("%w: asset %q already exists", ErrInvalidAsset, a.ID)
	}
	if err := m.assets.Put(ctx, a); err != nil {
		return asset.Asset{}, err
	}
	ctxlog.FromContext(ctx).Debug("Asset created.", "asset", a.ID, "valueType", a.ValueType)
	return a.Clone(), nil
}

// UpdateAsset replaces an asset's value. It is the single value write entry
// point for the view layer.
func (m *Manager) UpdateAsset(ctx context.Context, id string, value any) error {
	return m.PatchAsset(ctx, asset.Patch{ID: id, SetValue: true, Value: value})
}

// PatchAsset applies p atomically.
func (m *Manager) PatchAsset(ctx context.Context, p asset.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patchAssetLocked(ctx, p)
}

func (m *Manager) patchAssetLocked(ctx context.Context, p asset.Patch) error {
	if p.IsEmpty() {
		return nil
	}
	current, ok := m.Asset(ctx, p.ID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, p.ID)
	}
	if err := m.assets.Put(ctx, asset.Apply(current, p)); err != nil {
		return fmt.Errorf("failed to write asset %q: %w", p.ID, err)
	}
	ctxlog.FromContext(ctx).Debug("Asset patched.", "asset", p.ID, "replaced", p.SetValue, "fields", len(p.Fields))
	return nil
}

// UpdateNode applies a single node patch atomically.
func (m *Manager) UpdateNode(ctx context.Context, p node.Patch) error {
	return m.ApplyNodePatches(ctx, []node.Patch{p})
}

// ApplyNodePatches applies a batch of patches as one mutation. All patches
// are checked before any of them is written.
func (m *Manager) ApplyNodePatches(ctx context.Context, patches []node.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyNodePatchesLocked(ctx, patches)
}

func (m *Manager) applyNodePatchesLocked(ctx context.Context, patches []node.Patch) error {
	staged := make(map[string]node.Node, len(patches))
	var order []string
	for _, p := range patches {
		current, ok := staged[p.ID]
		if !ok {
			current, ok = m.Node(ctx, p.ID)
			if !ok {
				return fmt.Errorf("%w: %s", ErrNodeNotFound, p.ID)
			}
			order = append(order, p.ID)
		}
		next := node.Apply(current, p)
		if p.DockedTo != nil && next.Data.DockedTo != "" {
			if err := m.checkDock(ctx, next.ID, next.Data.DockedTo, staged); err != nil {
				return err
			}
		}
		staged[p.ID] = next
	}

	for _, id := range order {
		if err := m.topology.PutNode(ctx, staged[id]); err != nil {
			return fmt.Errorf("failed to write node %q: %w", id, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Node patches applied.", "count", len(patches), "nodes", len(order))
	return nil
}

// checkDock refuses dock targets that do not exist or whose chain leads
// back to id.
func (m *Manager) checkDock(ctx context.Context, id, to string, staged map[string]node.Node) error {
	cur := to
	seen := make(map[string]bool)
	for cur != "" && !seen[cur] {
		if cur == id {
			return &RejectionError{Reason: "A node cannot be docked into its own chain."}
		}
		seen[cur] = true
		n, ok := staged[cur]
		if !ok {
			n, ok = m.Node(ctx, cur)
			if !ok {
				return fmt.Errorf("%w: dock target %q", ErrNodeNotFound, cur)
			}
		}
		cur = n.Data.DockedTo
	}
	return nil
}

// Resize sets a node's dimensions.
func (m *Manager) Resize(ctx context.Context, id string, width, height float64) error {
	return m.UpdateNode(ctx, node.Patch{ID: id, Style: &node.Style{Width: width, Height: height}})
}

// Dock docks id under to. An empty to undocks the node.
func (m *Manager) Dock(ctx context.Context, id, to string) error {
	return m.UpdateNode(ctx, node.Patch{ID: id, DockedTo: node.Ptr(to)})
}

// Collapse sets the collapsed flag and applies the OnCollapse patches of the
// node type in the same mutation.
func (m *Manager) Collapse(ctx context.Context, id string, collapsed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.Node(ctx, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	patches := []node.Patch{{ID: id, Collapsed: node.Ptr(collapsed)}}
	if b := m.behaviors.Get(n.Type); b.OnCollapse != nil {
		patches = append(patches, b.OnCollapse(behavior.CollapseContext{Ctx: ctx, Node: n, Collapsed: collapsed, Lookup: m})...)
	}
	return m.applyNodePatchesLocked(ctx, patches)
}

// Connect validates and adds an edge. A refused connection returns a
// *RejectionError and leaves the graph untouched. Connecting the same ports
// twice returns the existing edge.
func (m *Manager) Connect(ctx context.Context, e node.Edge) (node.Edge, error) {
	logger := ctxlog.FromContext(ctx)
	m.mu.Lock()
	defer m.mu.Unlock()

	source, ok := m.Node(ctx, e.Source)
	if !ok {
		return node.Edge{}, fmt.Errorf("%w: %s", ErrNodeNotFound, e.Source)
	}
	target, ok := m.Node(ctx, e.Target)
	if !ok {
		return node.Edge{}, fmt.Errorf("%w: %s", ErrNodeNotFound, e.Target)
	}
	for _, h := range []string{e.SourceHandle, e.TargetHandle} {
		if h == "" {
			continue
		}
		if _, err := port.Parse(h); err != nil {
			return node.Edge{}, &RejectionError{Reason: fmt.Sprintf("Invalid port %q.", h)}
		}
	}

	for _, existing := range m.EdgesTo(ctx, target.ID) {
		if existing.Source == e.Source && existing.SourcePort() == e.SourcePort() && existing.TargetPort() == e.TargetPort() {
			return existing, nil
		}
		if _, isField := port.FieldKey(e.TargetPort()); isField && existing.TargetPort() == e.TargetPort() {
			return node.Edge{}, &RejectionError{Reason: "This input is already connected."}
		}
	}

	if reason := validator.CheckStructure(ctx, m, e); reason != "" {
		logger.Debug("Connection rejected.", "source", e.Source, "target", e.Target, "reason", reason)
		return node.Edge{}, &RejectionError{Reason: reason}
	}

	sourceAsset := m.assetPtr(ctx, source.Data.AssetID)
	targetAsset := m.assetPtr(ctx, target.Data.AssetID)
	cc := behavior.ConnectContext{
		Ctx:         ctx,
		Source:      source,
		SourceAsset: sourceAsset,
		Target:      target,
		TargetAsset: targetAsset,
		Edge:        e,
		Value:       resolver.Resolve(ctx, m.behaviors, m, source, sourceAsset, e.SourcePort()),
		Lookup:      m,
	}

	b := m.behaviors.Get(target.Type)
	if b.CanConnect != nil {
		if reason := b.CanConnect(cc); reason != "" {
			logger.Debug("Connection rejected.", "source", e.Source, "target", e.Target, "reason", reason)
			return node.Edge{}, &RejectionError{Reason: reason}
		}
	}

	if e.ID == "" {
		e.ID = m.newID()
	}
	if e.IsOutput() {
		e.Type = node.EdgeTypeOutput
		for _, old := range m.EdgesFrom(ctx, source.ID) {
			if old.IsOutput() {
				if err := m.topology.DeleteEdge(ctx, old.ID); err != nil {
					return node.Edge{}, err
				}
			}
		}
	}
	if err := m.topology.PutEdge(ctx, e); err != nil {
		return node.Edge{}, fmt.Errorf("failed to store edge: %w", err)
	}
	cc.Edge = e

	if b.OnConnect != nil && targetAsset != nil {
		if fields := b.OnConnect(cc); len(fields) > 0 {
			if err := m.patchAssetLocked(ctx, asset.Patch{ID: targetAsset.ID, Fields: fields}); err != nil {
				return node.Edge{}, err
			}
		}
	}
	logger.Debug("Nodes connected.", "edge", e.ID, "source", e.Source, "sourcePort", e.SourcePort(), "target", e.Target, "targetPort", e.TargetPort())
	return e, nil
}

// RefreshConnections re-resolves every incoming edge of nodeID and re-runs
// the node type's OnConnect hook for each, as if the edges had just been
// made. All field updates are merged and written in one patch. It returns
// the asset after the write.
func (m *Manager) RefreshConnections(ctx context.Context, nodeID string) (asset.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	target, ok := m.Node(ctx, nodeID)
	if !ok {
		return asset.Asset{}, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	current, ok := m.Asset(ctx, target.Data.AssetID)
	if !ok {
		return asset.Asset{}, fmt.Errorf("%w: %s", ErrAssetNotFound, target.Data.AssetID)
	}
	b := m.behaviors.Get(target.Type)
	if b.OnConnect == nil {
		return current, nil
	}

	p := asset.Patch{ID: current.ID}
	for _, e := range m.EdgesTo(ctx, nodeID) {
		source, ok := m.Node(ctx, e.Source)
		if !ok {
			continue
		}
		sourceAsset := m.assetPtr(ctx, source.Data.AssetID)
		fields := b.OnConnect(behavior.ConnectContext{
			Ctx:         ctx,
			Source:      source,
			SourceAsset: sourceAsset,
			Target:      target,
			TargetAsset: &current,
			Edge:        e,
			Value:       resolver.Resolve(ctx, m.behaviors, m, source, sourceAsset, e.SourcePort()),
			Lookup:      m,
		})
		p = p.Merge(asset.Patch{Fields: fields})
	}
	if p.IsEmpty() {
		return current, nil
	}
	if err := m.patchAssetLocked(ctx, p); err != nil {
		return asset.Asset{}, err
	}
	ctxlog.FromContext(ctx).Debug("Connections refreshed.", "node", nodeID, "fields", len(p.Fields))
	return asset.Apply(current, p), nil
}

// Disconnect removes an edge and merges the target's OnDisconnect updates
// into its asset.
func (m *Manager) Disconnect(ctx context.Context, edgeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.Edge(ctx, edgeID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, edgeID)
	}
	return m.disconnectLocked(ctx, e, true)
}

func (m *Manager) disconnectLocked(ctx context.Context, e node.Edge, notifyTarget bool) error {
	if err := m.topology.DeleteEdge(ctx, e.ID); err != nil {
		return fmt.Errorf("failed to delete edge %q: %w", e.ID, err)
	}
	ctxlog.FromContext(ctx).Debug("Nodes disconnected.", "edge", e.ID, "source", e.Source, "target", e.Target)
	if !notifyTarget {
		return nil
	}

	target, ok := m.Node(ctx, e.Target)
	if !ok {
		return nil
	}
	source, _ := m.Node(ctx, e.Source)
	targetAsset := m.assetPtr(ctx, target.Data.AssetID)
	b := m.behaviors.Get(target.Type)
	if b.OnDisconnect == nil || targetAsset == nil {
		return nil
	}
	fields := b.OnDisconnect(behavior.DisconnectContext{
		Ctx:         ctx,
		Source:      source,
		Target:      target,
		TargetAsset: targetAsset,
		Edge:        e,
		Lookup:      m,
	})
	if len(fields) == 0 {
		return nil
	}
	return m.patchAssetLocked(ctx, asset.Patch{ID: targetAsset.ID, Fields: fields})
}

// RemoveNode deletes a node. Attached edges are disconnected first, the
// node type's OnDelete patches are applied, and the node's asset is deleted
// once no other node references it.
func (m *Manager) RemoveNode(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.Node(ctx, id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}

	for _, e := range m.EdgesFrom(ctx, id) {
		if err := m.disconnectLocked(ctx, e, e.Target != id); err != nil {
			return err
		}
	}
	for _, e := range m.EdgesTo(ctx, id) {
		if err := m.disconnectLocked(ctx, e, false); err != nil {
			return err
		}
	}

	if b := m.behaviors.Get(n.Type); b.OnDelete != nil {
		patches := b.OnDelete(behavior.DeleteContext{Ctx: ctx, Node: n, Asset: m.assetPtr(ctx, n.Data.AssetID), Lookup: m})
		if err := m.applyNodePatchesLocked(ctx, patches); err != nil {
			return err
		}
	}

	if err := m.topology.DeleteNode(ctx, id); err != nil {
		return fmt.Errorf("failed to delete node %q: %w", id, err)
	}
	if n.Data.AssetID != "" && !m.assetReferenced(ctx, n.Data.AssetID) {
		if err := m.assets.Delete(ctx, n.Data.AssetID); err != nil {
			return fmt.Errorf("failed to delete asset %q: %w", n.Data.AssetID, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Node removed.", "node", id, "type", n.Type)
	return nil
}

func (m *Manager) assetReferenced(ctx context.Context, assetID string) bool {
	for _, n := range m.Nodes(ctx) {
		if n.Data.AssetID == assetID {
			return true
		}
	}
	return false
}

// Snapshot is the full content of the engine.
type Snapshot struct {
	Nodes  []node.Node
	Edges  []node.Edge
	Assets []asset.Asset
}

// Snapshot captures every node, edge and asset.
func (m *Manager) Snapshot(ctx context.Context) Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Nodes:  m.Nodes(ctx),
		Edges:  m.Edges(ctx),
		Assets: m.assets.All(ctx),
	}
}

// Load replaces the engine content with s. Hooks do not run; the snapshot is
// taken as already consistent.
func (m *Manager) Load(ctx context.Context, s Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.Nodes(ctx) {
		if err := m.topology.DeleteNode(ctx, n.ID); err != nil {
			return err
		}
	}
	for _, a := range m.assets.All(ctx) {
		if err := m.assets.Delete(ctx, a.ID); err != nil {
			return err
		}
	}

	for _, a := range s.Assets {
		if err := m.assets.Put(ctx, a); err != nil {
			return fmt.Errorf("failed to load asset %q: %w", a.ID, err)
		}
	}
	for _, n := range s.Nodes {
		if err := m.topology.PutNode(ctx, n); err != nil {
			return fmt.Errorf("failed to load node %q: %w", n.ID, err)
		}
	}
	for _, e := range s.Edges {
		if err := m.topology.PutEdge(ctx, e); err != nil {
			return fmt.Errorf("failed to load edge %q: %w", e.ID, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Graph loaded.", "nodes", len(s.Nodes), "edges", len(s.Edges), "assets", len(s.Assets))
	return nil
}
