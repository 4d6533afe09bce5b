// Package executor runs recipe nodes: it gathers the values connected to a
// node, validates them, calls the recipe and expands the graph with the
// result.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vk/synnia/internal/ctxlog"
	"github.com/vk/synnia/internal/graph"
	"github.com/vk/synnia/internal/layout"
	"github.com/vk/synnia/internal/node"
	"github.com/vk/synnia/internal/provider"
	"github.com/vk/synnia/internal/recipe"
)

// DefaultSuccessResetDelay is how long a node shows success before it goes
// back to idle.
const DefaultSuccessResetDelay = 3 * time.Second

// Executor is the recipe execution pipeline.
type Executor struct {
	graph     graph.Graph
	recipes   *recipe.Registry
	providers *provider.Registry

	notifier   Notifier
	fixer      layout.Fixer
	grid       *layout.Grid
	chat       recipe.ChatConfig
	resetDelay time.Duration
	now        func() time.Time

	mu      sync.Mutex
	running map[string]bool
	timers  map[string]*time.Timer
}

// Option configures an Executor.
type Option func(*Executor)

func WithNotifier(n Notifier) Option {
	return func(e *Executor) { e.notifier = n }
}

func WithLayout(f layout.Fixer) Option {
	return func(e *Executor) { e.fixer = f }
}

func WithGrid(g *layout.Grid) Option {
	return func(e *Executor) { e.grid = g }
}

// WithSuccessResetDelay sets the success display time. Zero or less keeps
// the success state until the next run.
func WithSuccessResetDelay(d time.Duration) Option {
	return func(e *Executor) { e.resetDelay = d }
}

// WithChat sets the provider settings and credentials recipes run with.
func WithChat(c recipe.ChatConfig) Option {
	return func(e *Executor) { e.chat = c }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// New creates an executor over the graph engine.
func New(g graph.Graph, recipes *recipe.Registry, providers *provider.Registry, opts ...Option) *Executor {
	e := &Executor{
		graph:      g,
		recipes:    recipes,
		providers:  providers,
		notifier:   LogNotifier{},
		fixer:      layout.DockStacker{},
		grid:       layout.NewGrid(layout.DefaultGridStep),
		resetDelay: DefaultSuccessResetDelay,
		now:        time.Now,
		running:    make(map[string]bool),
		timers:     make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes the recipe behind nodeID. The node goes idle → running →
// success or error. Validation and execution failures are returned as
// *ValidationError and *ExecutionError after being recorded on the node.
func (e *Executor) Run(ctx context.Context, nodeID string) error {
	logger := ctxlog.FromContext(ctx).With("node", nodeID)
	ctx = ctxlog.WithLogger(ctx, logger)

	n, ok := e.graph.Node(ctx, nodeID)
	if !ok {
		return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, nodeID)
	}
	if !n.Type.IsRecipe() {
		return fmt.Errorf("%w: %s is %q", ErrNotRecipe, nodeID, n.Type)
	}
	def, ok := e.recipes.Get(n.Type.Instance())
	if !ok {
		return fmt.Errorf("%w: %s", recipe.ErrNotFound, n.Type.Instance())
	}

	if err := e.acquire(n); err != nil {
		return err
	}
	defer e.release(nodeID)

	logger.Info("▶️ Running recipe.", "recipe", def.ID)
	if err := e.graph.UpdateNode(ctx, node.Patch{ID: nodeID, State: node.Ptr(node.StateRunning), Error: node.Ptr("")}); err != nil {
		return err
	}

	if err := e.execute(ctx, n, def); err != nil {
		logger.Error("Recipe run failed.", "recipe", def.ID, "error", err)
		if uerr := e.graph.UpdateNode(ctx, node.Patch{ID: nodeID, State: node.Ptr(node.StateError), Error: node.Ptr(err.Error())}); uerr != nil {
			logger.Error("Failed to record the error on the node.", "error", uerr)
		}
		e.notifier.Notify(ctx, Notification{Level: LevelError, NodeID: nodeID, Title: def.Name + " failed", Message: err.Error()})
		return err
	}

	if err := e.graph.UpdateNode(ctx, node.Patch{ID: nodeID, State: node.Ptr(node.StateSuccess)}); err != nil {
		return err
	}
	e.scheduleReset(ctx, nodeID)
	e.notifier.Notify(ctx, Notification{Level: LevelSuccess, NodeID: nodeID, Title: def.Name + " finished"})
	logger.Info("✅ Recipe finished.", "recipe", def.ID)
	return nil
}

// acquire marks the node as running in this executor. A node already
// running here or shown as running in the graph is busy.
func (e *Executor) acquire(n node.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running[n.ID] || n.EffectiveState() == node.StateRunning {
		return fmt.Errorf("%w: %s", ErrNodeBusy, n.ID)
	}
	e.running[n.ID] = true
	if t, ok := e.timers[n.ID]; ok {
		t.Stop()
		delete(e.timers, n.ID)
	}
	return nil
}

func (e *Executor) release(nodeID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.running, nodeID)
}

func (e *Executor) scheduleReset(ctx context.Context, nodeID string) {
	if e.resetDelay <= 0 {
		return
	}
	ctx = context.WithoutCancel(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.timers[nodeID] = time.AfterFunc(e.resetDelay, func() {
		e.mu.Lock()
		delete(e.timers, nodeID)
		e.mu.Unlock()

		n, ok := e.graph.Node(ctx, nodeID)
		if !ok || n.Data.State != node.StateSuccess {
			return
		}
		if err := e.graph.UpdateNode(ctx, node.Patch{ID: nodeID, State: node.Ptr(node.StateIdle)}); err != nil {
			ctxlog.FromContext(ctx).Warn("Failed to reset node state.", "error", err)
		}
	})
}

// Close stops pending state resets.
func (e *Executor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.timers {
		t.Stop()
		delete(e.timers, id)
	}
}

// RunAll runs the given recipe nodes on a pool of workers and returns every
// failure joined.
func (e *Executor) RunAll(ctx context.Context, nodeIDs []string, workers int) error {
	if workers < 1 {
		workers = 1
	}
	readyChan := make(chan string)
	errCh := make(chan error, len(nodeIDs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			e.worker(ctx, readyChan, errCh, workerID)
		}(i + 1)
	}

	for _, id := range nodeIDs {
		readyChan <- id
	}
	close(readyChan)
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
