package app

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/executor"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
)

// Run loads the project, executes the requested recipe nodes and saves the
// project. Failed runs are recorded on their nodes and still saved.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.")

	if err := a.LoadProject(); err != nil {
		return err
	}

	a.healthCheckServer()
	defer a.closeHealthCheckServer()

	exec := executor.New(a.graph, a.registry.Recipes, a.registry.Providers,
		executor.WithChat(recipe.ChatConfig{
			Settings:    a.project.ProviderSettings(),
			Credentials: provider.CredentialsFromEnv(credentialNames...),
		}),
		executor.WithSuccessResetDelay(a.config.SuccessResetDelay),
	)
	defer exec.Close()

	ids := a.nodesToRun(ctx)
	var runErr error
	if len(ids) > 0 {
		a.logger.Info("🚀 Starting concurrent execution...", "nodes", len(ids), "workers", a.config.WorkerCount)
		if err := exec.RunAll(ctx, ids, a.config.WorkerCount); err != nil {
			runErr = fmt.Errorf("execution failed: %w", err)
		}
		a.logger.Info("🏁 Execution finished.")
	} else {
		a.logger.Warn("No recipe nodes requested, execution not required.")
	}

	if a.config.DryRun {
		a.logger.Info("Dry run, project not saved.")
	} else if err := a.SaveProject(); err != nil {
		return errors.Join(runErr, err)
	}

	a.logger.Debug("App.Run method finished.")
	return runErr
}

func (a *App) nodesToRun(ctx context.Context) []string {
	if !a.config.RunAll {
		return a.config.RunNodes
	}
	var ids []string
	for _, n := range a.graph.Nodes(ctx) {
		if n.Type.IsRecipe() {
			ids = append(ids, n.ID)
		}
	}
	sort.Strings(ids)
	return ids
}
