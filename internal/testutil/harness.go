package testutil

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/app"
	"github.com/vk/synnia/internal/graph"
	"github.com/vk/synnia/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Root      string
}

// Harness describes one integration run: the recipe manifests to write, how
// to seed the project canvas and which nodes to execute.
type Harness struct {
	Files   map[string]string // relative to the recipes directory
	Seed    func(ctx context.Context, g *graph.Manager)
	Modules []registry.Module
	Config  func(cfg *app.Config)
}

// RunIntegrationTest runs h with a default background context.
func RunIntegrationTest(t *testing.T, h Harness) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, h)
}

// RunIntegrationTestWithContext writes the manifests to a temporary
// directory, seeds and saves the project, then runs a fresh App over it.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, h Harness) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	recipesDir := filepath.Join(tmpDir, "recipes")
	projectDir := filepath.Join(tmpDir, "project")
	require.NoError(t, os.Mkdir(recipesDir, 0755))
	require.NoError(t, os.Mkdir(projectDir, 0755))

	for name, content := range h.Files {
		filePath := filepath.Join(recipesDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	}

	cfg := &app.Config{
		ProjectPath: projectDir,
		ProjectName: t.Name(),
		RecipesPath: recipesDir,
		RunAll:      true,
		LogLevel:    "debug",
		LogFormat:   "text",
		WorkerCount: 4,
	}
	if h.Config != nil {
		h.Config(cfg)
	}

	logBuffer := &SafeBuffer{}
	testApp, panicErr := newApp(t, logBuffer, cfg, h.Modules)
	if panicErr != nil {
		return &HarnessResult{
			LogOutput: logBuffer.String(),
			Err:       fmt.Errorf("application startup panicked | %v", panicErr),
			Root:      tmpDir,
		}
	}

	if h.Seed != nil {
		require.NoError(t, testApp.LoadProject())
		h.Seed(ctx, testApp.Graph())
		require.NoError(t, testApp.SaveProject())

		// Run from disk, the way the binary would.
		testApp, panicErr = newApp(t, logBuffer, cfg, h.Modules)
		require.Nil(t, panicErr)
	}

	runErr := testApp.Run(ctx)

	if os.Getenv("SYNNIA_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Root:      tmpDir,
	}
}

func newApp(t *testing.T, buf *SafeBuffer, cfg *app.Config, modules []registry.Module) (testApp *app.App, panicErr any) {
	t.Helper()
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("SYNNIA_TEST_LOGS") == "true" {
				t.Logf("--- HARNESS RECOVERED PANIC ---\n%q", fmt.Sprintf("%v", r))
			}
			panicErr = r
		}
	}()
	return app.NewApp(buf, cfg, modules...), nil
}
