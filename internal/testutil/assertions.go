package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/synnia/internal/node"
)

// AssertNodeRan checks the log output within a HarnessResult to confirm that
// the recipe behind nodeID finished.
func AssertNodeRan(t *testing.T, result *HarnessResult, nodeID string) {
	t.Helper()

	attr := fmt.Sprintf("node=%s ", nodeID)
	for _, line := range strings.Split(result.LogOutput, "\n") {
		if strings.Contains(line, "Recipe finished.") && strings.Contains(line+" ", attr) {
			return
		}
	}
	require.Fail(t, "recipe run not found in logs", "expected a finished run for node %q", nodeID)
}

// AssertNodeState checks the state the graph holds for nodeID after the run.
func AssertNodeState(t *testing.T, result *HarnessResult, nodeID string, want node.State) {
	t.Helper()
	require.NotNil(t, result.App, "harness has no app")

	n, ok := result.App.Graph().Node(context.Background(), nodeID)
	require.True(t, ok, "node %q not found", nodeID)
	require.Equal(t, want, n.Data.State, "node %q: %s", nodeID, n.Data.Error)
}
