// Package project reads and writes the project document, synnia.json, that
// holds the whole canvas of a project directory.
package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/vk/synnia/internal/asset"
	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/graph"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
)

const (
	FileName = "synnia.json"
	Version  = "2.0.0"
)

// ErrNotFound is returned when the directory holds no project document.
var ErrNotFound = errors.New(FileName + " not found in project directory")

type Meta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"`
}

type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

type Graph struct {
	Nodes []node.Node `json:"nodes"`
	Edges []node.Edge `json:"edges"`
}

// Project is the persisted document.
type Project struct {
	Version  string         `json:"version"`
	Meta     Meta           `json:"meta"`
	Viewport Viewport       `json:"viewport"`
	Graph    Graph          `json:"graph"`
	Assets   []asset.Asset  `json:"assets"`
	Settings map[string]any `json:"settings,omitempty"`
}

// New returns an empty project stamped with now.
func New(name string, now time.Time) *Project {
	ts := now.UTC().Format(time.RFC3339)
	return &Project{
		Version: Version,
		Meta: Meta{
			ID:        uuid.NewString(),
			Name:      name,
			CreatedAt: ts,
			UpdatedAt: ts,
		},
		Viewport: Viewport{Zoom: 1},
		Graph:    Graph{Nodes: []node.Node{}, Edges: []node.Edge{}},
		Assets:   []asset.Asset{},
	}
}

// Load reads the project document in root.
func Load(root string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read project: %w", err)
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &p, nil
}

// Save writes p to root. The document is written to a temporary file first
// and renamed over the old one.
func Save(root string, p *Project) error {
	if _, err := os.Stat(root); err != nil {
		return fmt.Errorf("project path does not exist: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode project: %w", err)
	}

	tmp := filepath.Join(root, FileName+".tmp")
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Join(root, FileName))
}

// Init loads the project in root, or creates and saves a new one when the
// directory has none yet.
func Init(root, name string, now time.Time) (*Project, error) {
	p, err := Load(root)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p = New(name, now)
	if err := Save(root, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ProviderSettings decodes the provider-selection part of the settings.
func (p *Project) ProviderSettings() provider.Settings {
	var s provider.Settings
	if len(p.Settings) == 0 {
		return s
	}
	raw, err := json.Marshal(p.Settings)
	if err != nil {
		return s
	}
	_ = json.Unmarshal(raw, &s)
	return s
}

// Engine is the part of the graph engine a project is exchanged with.
type Engine interface {
	Load(ctx context.Context, s graph.Snapshot) error
	Snapshot(ctx context.Context) graph.Snapshot
}

// Hydrate replaces the engine content with the project's graph.
func Hydrate(ctx context.Context, e Engine, p *Project) error {
	ctxlog.FromContext(ctx).Debug("Hydrating graph from project.", "project", p.Meta.Name, "nodes", len(p.Graph.Nodes))
	return e.Load(ctx, graph.Snapshot{
		Nodes:  p.Graph.Nodes,
		Edges:  p.Graph.Edges,
		Assets: p.Assets,
	})
}

// Capture copies the engine content into p and bumps its update time.
func Capture(ctx context.Context, e Engine, p *Project, now time.Time) {
	s := e.Snapshot(ctx)
	p.Graph = Graph{Nodes: s.Nodes, Edges: s.Edges}
	p.Assets = s.Assets
	if p.Graph.Nodes == nil {
		p.Graph.Nodes = []node.Node{}
	}
	if p.Graph.Edges == nil {
		p.Graph.Edges = []node.Edge{}
	}
	if p.Assets == nil {
		p.Assets = []asset.Asset{}
	}
	p.Meta.UpdatedAt = now.UTC().Format(time.RFC3339)
}
