package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/vk/synnia/internal/app"
	"github.com/vk/synnia/internal/executor"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// nodeList collects -run flags. Each flag may hold a comma-separated list.
type nodeList []string

func (l *nodeList) String() string { return strings.Join(*l, ",") }

func (l *nodeList) Set(v string) error {
	for _, id := range strings.Split(v, ",") {
		if id = strings.TrimSpace(id); id != "" {
			*l = append(*l, id)
		}
	}
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("synnia", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
Synnia - A node-graph engine for generative content workflows.

Usage:
  synnia [options] [PROJECT_PATH]

Arguments:
  PROJECT_PATH
    Directory holding synnia.json. The project is created when missing.

Options:
`)
		flagSet.PrintDefaults()
	}

	var runNodes nodeList
	projectFlag := flagSet.String("project", "", "Path to the project directory.")
	pFlag := flagSet.String("p", "", "Path to the project directory (shorthand).")
	nameFlag := flagSet.String("name", "", "Project name used when the project is created.")
	recipesFlag := flagSet.String("recipes", "recipes", "Path to a .hcl recipe manifest or a directory of them.")
	flagSet.Var(&runNodes, "run", "Recipe node to execute. Repeat or separate with commas.")
	allFlag := flagSet.Bool("all", false, "Execute every recipe node in the project.")
	dryRunFlag := flagSet.Bool("dry-run", false, "Execute without saving the project.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of recipe nodes executed concurrently.")
	socketFlag := flagSet.String("socketio-url", "", "Socket.IO endpoint of a remote worker. Empty disables the remote provider.")
	resetFlag := flagSet.Duration("success-reset", executor.DefaultSuccessResetDelay, "How long a node shows success before going idle. 0 keeps it.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *projectFlag != "" {
		path = *projectFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Project path determined.", "path", path)

	if path == "" {
		slog.Debug("No project path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ProjectPath:       path,
		ProjectName:       *nameFlag,
		RecipesPath:       *recipesFlag,
		RunNodes:          runNodes,
		RunAll:            *allFlag,
		DryRun:            *dryRunFlag,
		HealthcheckPort:   *healthPortFlag,
		LogFormat:         logFormat,
		LogLevel:          logLevel,
		WorkerCount:       *workersFlag,
		SocketIOURL:       *socketFlag,
		SuccessResetDelay: *resetFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
