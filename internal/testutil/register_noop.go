package testutil

import (
	"context"

	"github.com/vk/synnia/internal/recipe"
	"github.com/vk/synnia/internal/registry"
)

// NoOpModule registers a single "NoOp" handler. It's useful for manifests
// that must pass registry validation but whose result does not matter.
type NoOpModule struct{}

// Register registers a "NoOp" handler that succeeds without data.
func (m *NoOpModule) Register(r *registry.Registry) {
	r.RegisterHandler("NoOp", func(ctx context.Context, ec *recipe.ExecContext) (*recipe.Result, error) {
		return &recipe.Result{Success: true}, nil
	})
}
