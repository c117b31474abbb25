package divalidator

import (
	"errors"
	"fmt"

	"github.com/wvanhemert/DI-Validator/internal/engine"
	"github.com/wvanhemert/DI-Validator/internal/graph"
	"github.com/wvanhemert/DI-Validator/internal/workspace"
)

// ========================================
// Core Error Values (Sentinel Errors)
// ========================================

var (
	// ErrNoLocator is returned when neither ProjectDir, ProjectType nor
	// WorkspaceDir is set.
	ErrNoLocator = workspace.ErrNoLocator

	// ErrInconclusive is matched by every failure to locate or load the
	// analyzed program. Test integrations skip instead of failing.
	ErrInconclusive = errors.New("analysis inconclusive")

	// ErrConventions is returned when the container conventions are unusable.
	ErrConventions = errors.New("invalid container conventions")
)

var (
	_ error = ConfigError{}
	_ error = WorkspaceLoadError{}
	_ error = ExtractionError{}
	_ error = CircularDependencyError{}
)

// ========================================
// Typed Errors for Rich Context
// ========================================

// ConfigError indicates that the configuration cannot be used.
type ConfigError struct {
	Field string
	Cause error
}

func (e ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid config: %v", e.Cause)
	}
	return fmt.Sprintf("invalid config %s: %v", e.Field, e.Cause)
}

func (e ConfigError) Unwrap() error {
	return e.Cause
}

// WorkspaceLoadError indicates that the program could not be located or
// loaded. It matches ErrInconclusive.
type WorkspaceLoadError struct {
	Path  string
	Cause error
}

func (e WorkspaceLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load workspace: %v", e.Cause)
	}
	return fmt.Sprintf("load workspace %s: %v", e.Path, e.Cause)
}

func (e WorkspaceLoadError) Unwrap() error {
	return e.Cause
}

// Is reports ErrInconclusive as a match.
func (e WorkspaceLoadError) Is(target error) bool {
	return target == ErrInconclusive
}

// ExtractionError indicates that extraction of one unit was aborted.
type ExtractionError = engine.ExtractionError

// CircularDependencyError describes a constructor cycle in the analyzed
// program. Cycles are never findings; the report lists them.
type CircularDependencyError = graph.CircularDependencyError
