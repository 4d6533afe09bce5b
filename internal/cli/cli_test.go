package cli

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	// --- Arrange ---
	out := &bytes.Buffer{}
	args := []string{
		"-recipes", "r",
		"-run", "a, b",
		"-run", "c",
		"-workers", "2",
		"-log-level", "DEBUG",
		"-success-reset", "0s",
		"-dry-run",
		"proj",
	}

	// --- Act ---
	cfg, shouldExit, err := Parse(args, out)

	// --- Assert ---
	require.NoError(t, err)
	assert.False(t, shouldExit)
	assert.Equal(t, "proj", cfg.ProjectPath)
	assert.Equal(t, "r", cfg.RecipesPath)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.RunNodes)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, time.Duration(0), cfg.SuccessResetDelay)
	assert.True(t, cfg.DryRun)
}

func TestParse_FlagWinsOverArgument(t *testing.T) {
	cfg, _, err := Parse([]string{"-p", "flag", "arg"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "flag", cfg.ProjectPath)
}

func TestParse_NoProjectPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "PROJECT_PATH")
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "bad format", args: []string{"-log-format", "xml", "p"}, want: "invalid log-format"},
		{name: "bad level", args: []string{"-log-level", "loud", "p"}, want: "invalid log-level"},
		{name: "zero workers", args: []string{"-workers", "0", "p"}, want: "WorkerCount"},
		{name: "all with run", args: []string{"-all", "-run", "a", "p"}, want: "cannot be combined"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.want)
		})
	}
}
