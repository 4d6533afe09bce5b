package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
)

// healthHandler answers liveness probes.
func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// Status is the body of the /status endpoint.
type Status struct {
	Project   string             `json:"project,omitempty"`
	Nodes     int                `json:"nodes"`
	Edges     int                `json:"edges"`
	States    map[node.State]int `json:"states"`
	Recipes   []string           `json:"recipes"`
	Providers int                `json:"providers"`
}

// Status reports what the engine currently holds.
func (app *App) Status(ctx context.Context) Status {
	s := Status{States: make(map[node.State]int)}
	if app.project != nil {
		s.Project = app.project.Meta.Name
	}
	for _, n := range app.graph.Nodes(ctx) {
		s.Nodes++
		if n.Type.IsRecipe() {
			s.States[n.EffectiveState()]++
		}
	}
	s.Edges = len(app.graph.Edges(ctx))
	for _, def := range app.registry.Recipes.All() {
		s.Recipes = append(s.Recipes, def.ID)
	}
	for _, cat := range []provider.Category{provider.CategoryLLM, provider.CategoryImage, provider.CategoryVideo, provider.CategoryScript, provider.CategoryRemote} {
		s.Providers += len(app.registry.Providers.ByCategory(cat))
	}
	return s
}

func (app *App) statusHandler(w http.ResponseWriter, r *http.Request) {
	ctxlog.FromContext(app.ctx).Debug("Status endpoint hit.", "remote_addr", r.RemoteAddr)
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(app.Status(r.Context())); err != nil {
		ctxlog.FromContext(app.ctx).Error("Failed to write status.", "error", err)
	}
}

// healthCheckServer initializes and runs the health check HTTP server.
func (app *App) healthCheckServer() {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Configuring health check server.")
	if app.config.HealthcheckPort <= 0 {
		logger.Debug("Health check server not started: disabled")
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", app.healthHandler)
	mux.HandleFunc("/status", app.statusHandler)

	addr := fmt.Sprintf(":%d", app.config.HealthcheckPort)
	app.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// ListenAndServe returns ErrServerClosed on graceful shutdown.
		if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (app *App) closeHealthCheckServer() error {
	logger := ctxlog.FromContext(app.ctx)
	logger.Debug("Closing health check server...")

	if app.httpServer == nil {
		logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(app.ctx), 5*time.Second)
	defer cancel()

	logger.Info("🩺 Shutting down health check server...")
	if err := app.httpServer.Shutdown(ctx); err != nil {
		logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	app.httpServer = nil

	logger.Debug("Health check server shut down gracefully.")
	return nil
}
