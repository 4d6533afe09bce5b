package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProjectPath string // directory holding synnia.json
	ProjectName string // used when the project is created
	RecipesPath string // hcl recipe manifests

	RunNodes []string // recipe nodes to execute
	RunAll   bool     // execute every recipe node in the project

	LogFormat         string
	LogLevel          string
	HealthcheckPort   int
	WorkerCount       int
	SocketIOURL       string
	SuccessResetDelay time.Duration
	DryRun            bool // run without saving the project
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ProjectPath == "" {
		return nil, errors.New("ProjectPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 1 {
		return nil, errors.New("WorkerCount must be at least 1")
	}
	if cfg.RunAll && len(cfg.RunNodes) > 0 {
		return nil, errors.New("RunAll and RunNodes cannot be combined")
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = "Untitled"
	}
	return &cfg, nil
}
