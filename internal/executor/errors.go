package executor

import (
	"errors"
	"fmt"
)

var (
	// ErrNodeBusy is returned when a run is requested for a node that is
	// already running.
	ErrNodeBusy = errors.New("node is already running")
	// ErrNotRecipe is returned when the node does not run a recipe.
	ErrNotRecipe = errors.New("node is not a recipe node")
)

// ValidationError reports an input that failed validation before anything
// was executed.
type ValidationError struct {
	NodeID string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ExecutionError reports a recipe that failed or returned an unsuccessful
// result. Nothing was materialized.
type ExecutionError struct {
	NodeID   string
	RecipeID string
	Message  string
	Err      error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recipe %q failed: %v", e.RecipeID, e.Err)
	}
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
