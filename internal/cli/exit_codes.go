package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
)

// Exit codes for the openapi-diagram CLI
const (
	// ExitSuccess indicates successful command execution
	ExitSuccess = 0

	// ExitFailure indicates a general failure (download, config, I/O)
	ExitFailure = 1

	// ExitInvalidArguments indicates invalid command arguments
	ExitInvalidArguments = 3

	// ExitMissingDependencies indicates required dependencies are missing
	ExitMissingDependencies = 4

	// ExitTimeout indicates command execution timed out
	ExitTimeout = 5

	// ExitRendererFailed indicates the renderer process exited non-zero
	ExitRendererFailed = 6
)

// exitError carries an exit code. With a nil err the message was already
// printed by the command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit code %d", e.code)
}

func (e *exitError) Unwrap() error { return e.err }

// ExitCode returns the exit code for an error returned by Execute.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, renderer.ErrRendererExecution):
		return ExitRendererFailed
	case errors.Is(err, renderer.ErrMissingDependency):
		return ExitMissingDependencies
	case errors.Is(err, renderer.ErrInvalidArgument),
		errors.Is(err, staging.ErrUnsupportedFileFormat),
		errors.Is(err, artifact.ErrInvalidVersion):
		return ExitInvalidArguments
	}

	switch clierrors.FromError(err).Category {
	case clierrors.Argument:
		return ExitInvalidArguments
	case clierrors.Prerequisite:
		return ExitMissingDependencies
	}
	return ExitFailure
}
