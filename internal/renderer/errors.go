package renderer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidArgument is matched by InvalidArgumentError.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrMissingDependency is matched by MissingDependencyError.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrRendererExecution is matched by ExecutionError.
	ErrRendererExecution = errors.New("renderer execution failed")
)

// JavaMissingMessage explains both ways java is looked up.
const JavaMissingMessage = "Can not run openapi-to-plantuml without java installed." +
	"Couldn't find the 'JAVA_HOME' environment variable or java on the PATH."

// GraphvizMissingMessage is the warning shown when dot is not on the PATH.
const GraphvizMissingMessage = "Graphviz installation not found, some output formats might not be available."

// InvalidArgumentError reports a request value outside its allowed set.
type InvalidArgumentError struct {
	Name    string
	Value   string
	Allowed []string
}

func (e *InvalidArgumentError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("%s must not be empty", e.Name)
	}
	return fmt.Sprintf("invalid %s %q: must be one of %s", e.Name, e.Value, strings.Join(e.Allowed, ", "))
}

// Is makes errors.Is(err, ErrInvalidArgument) succeed.
func (e *InvalidArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// MissingDependencyError reports a required external program that could not be found.
type MissingDependencyError struct {
	Dependency string
	Message    string
}

func (e *MissingDependencyError) Error() string { return e.Message }

// Is makes errors.Is(err, ErrMissingDependency) succeed.
func (e *MissingDependencyError) Is(target error) bool { return target == ErrMissingDependency }

// ExecutionError reports a renderer process that failed.
type ExecutionError struct {
	// ExitCode is the process exit code, or -1 when it did not exit normally.
	ExitCode int
	// Stderr holds the tail of the renderer's error output.
	Stderr string
	Err    error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("openapi-to-plantuml failed with exit code %d", e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrRendererExecution) succeed.
func (e *ExecutionError) Is(target error) bool { return target == ErrRendererExecution }
