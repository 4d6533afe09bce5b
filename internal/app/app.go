package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/graph"
	"github.com/vk/synnia/internal/inmemorystore"
	"github.com/vk/synnia/internal/inmemorytopology"
	"github.com/vk/synnia/internal/project"
	"github.com/vk/synnia/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	ctx      context.Context
	config   *Config
	registry *registry.Registry
	graph    *graph.Manager
	project  *project.Project
	now      func() time.Time

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Broken recipe manifests are fatal startup errors and panic.
func NewApp(outW io.Writer, cfg *Config, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New(ctx)
	if len(modules) == 0 {
		modules = coreModules(cfg)
	}
	reg.Install(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	if cfg.RecipesPath != "" {
		if err := reg.LoadManifests(ctx, cfg.RecipesPath); err != nil {
			panic(fmt.Errorf("failed to load recipe manifests: %w", err))
		}
	}

	// A mismatch between code and manifests is a startup error.
	if err := reg.ValidateRegistry(ctx); err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		ctx:      ctx,
		config:   cfg,
		registry: reg,
		graph:    graph.New(inmemorytopology.New(), inmemorystore.New(), reg.Behaviors),
		now:      time.Now,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Graph returns the graph engine holding the loaded project.
func (a *App) Graph() *graph.Manager {
	return a.graph
}

// Project returns the loaded project document, or nil before LoadProject.
func (a *App) Project() *project.Project {
	return a.project
}
