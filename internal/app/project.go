package app

import (
	"fmt"
	"os"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/project"
)

// LoadProject opens the project document, creating it when the directory
// has none, and loads it into the graph engine.
func (a *App) LoadProject() error {
	logger := ctxlog.FromContext(a.ctx)
	logger.Debug("Loading project...", "project_path", a.config.ProjectPath)

	if err := os.MkdirAll(a.config.ProjectPath, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}
	p, err := project.Init(a.config.ProjectPath, a.config.ProjectName, a.now())
	if err != nil {
		return fmt.Errorf("failed to open project: %w", err)
	}
	if err := project.Hydrate(a.ctx, a.graph, p); err != nil {
		return fmt.Errorf("failed to load project graph: %w", err)
	}
	a.project = p

	logger.Info("Project loaded successfully.", "name", p.Meta.Name, "nodes", len(p.Graph.Nodes), "edges", len(p.Graph.Edges))
	return nil
}

// SaveProject writes the graph back to the project document.
func (a *App) SaveProject() error {
	if a.project == nil {
		return fmt.Errorf("no project loaded")
	}
	project.Capture(a.ctx, a.graph, a.project, a.now())
	if err := project.Save(a.config.ProjectPath, a.project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	ctxlog.FromContext(a.ctx).Debug("Project saved.", "project_path", a.config.ProjectPath)
	return nil
}
