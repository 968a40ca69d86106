package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
	"github.com/ariel-frischer/openapi-diagram/internal/fetch"
	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
)

// Common error messages for the openapi-diagram CLI.

// JavaNotFound creates an error when neither JAVA_HOME nor PATH provide java.
func JavaNotFound() *CLIError {
	return NewPrerequisiteError(
		renderer.JavaMissingMessage,
		"Install a Java runtime (11 or newer)",
		"Or set JAVA_HOME to an existing installation",
		"Check your setup with: openapi-diagram doctor",
	)
}

// UnsupportedSpecFormat creates an error for a spec file that is not JSON or YAML.
func UnsupportedSpecFormat(suffix string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("File type: *%s is not supported.", suffix),
		"Pass a specification ending in .json, .yaml or .yml",
	)
}

// InvalidMode creates an error for an unknown rendering mode.
func InvalidMode(mode string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid mode: %q", mode),
		"openapi-diagram create --mode single|split",
		"Valid modes: "+strings.Join(renderer.ModeNames(), ", "),
	)
}

// InvalidFormat creates an error for an unknown diagram format.
func InvalidFormat(format string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid diagram format: %q", format),
		"openapi-diagram create --diagram-format SVG",
		"Valid formats: "+strings.Join(renderer.FormatNames(), ", "),
	)
}

// DownloadVerificationFailed creates an error for a jar whose checksum did not match.
func DownloadVerificationFailed(err error) *CLIError {
	return &CLIError{
		Category: Runtime,
		Message:  err.Error(),
		Remediation: []string{
			"Retry the download with: openapi-diagram cache get",
			"Check for a proxy rewriting downloads from the Maven repository",
		},
		Err: err,
	}
}

// ArtifactLinkMissing creates an error for a release page without a jar link.
func ArtifactLinkMissing(err error) *CLIError {
	return &CLIError{
		Category: Runtime,
		Message:  err.Error(),
		Remediation: []string{
			"Check that the renderer version exists: openapi-diagram cache latest",
			"Or point maven_url at a repository mirroring openapi-to-plantuml",
		},
		Err: err,
	}
}

// RendererFailed creates an error for a renderer process that exited non-zero.
func RendererFailed(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"rendering failed",
		"Check that the specification is valid: set validate_spec: true",
		"Re-run with --debug to see the renderer command",
	)
}

// NothingCached creates an error for removing a version that is not cached.
func NothingCached(version string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("Nothing cached for version '%s'.", version),
		"List cached versions with: openapi-diagram cache show",
	)
}

// ConfigParseError creates an error for invalid config file format.
func ConfigParseError(path string, err error) *CLIError {
	return WrapWithMessage(err, Configuration,
		fmt.Sprintf("failed to parse config file: %s", path),
		"Check the file for YAML syntax errors",
		"Show the effective configuration with: openapi-diagram config show",
	)
}

// ServerUnavailable creates an error when the diagram server cannot be reached.
func ServerUnavailable(url string, err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		fmt.Sprintf("could not reach diagram server at %s", url),
		"Start a server with: openapi-diagram serve",
		"Or pass another address with --base-url",
	)
}

// DiagramServerError creates an error for a rejected fetch. A 422 means the
// request itself was invalid.
func DiagramServerError(err *fetch.StatusError) *CLIError {
	if err.StatusCode == http.StatusUnprocessableEntity {
		return Wrap(err, Argument, "Check the specification with: openapi-diagram create --debug")
	}
	return Wrap(err, Runtime,
		"Check the server logs",
		"Check the server with: curl <base-url>/healthz")
}

// TimeoutError creates an error when an operation exceeds its time limit.
func TimeoutError(err error) *CLIError {
	return WrapWithMessage(err, Runtime,
		"operation timed out",
		"Increase the limit with --max-timeout or OPENAPI_DIAGRAM_FETCH_TIMEOUT",
		"Or set http_timeout in the config file",
	)
}

// FromError maps errors of the domain packages to CLI errors. CLIErrors are
// returned unchanged and unknown errors become runtime errors.
func FromError(err error) *CLIError {
	if err == nil {
		return nil
	}
	if cliErr := AsCLIError(err); cliErr != nil {
		return cliErr
	}

	var (
		formatErr  *staging.UnsupportedFileFormatError
		argErr     *renderer.InvalidArgumentError
		missingErr *renderer.MissingDependencyError
		statusErr  *fetch.StatusError
	)
	switch {
	case stderrors.As(err, &formatErr):
		e := UnsupportedSpecFormat(formatErr.Suffix)
		e.Err = err
		return e
	case stderrors.As(err, &argErr):
		var e *CLIError
		switch argErr.Name {
		case "mode":
			e = InvalidMode(argErr.Value)
		case "diagram format":
			e = InvalidFormat(argErr.Value)
		default:
			e = NewArgumentError(argErr.Error())
		}
		e.Err = err
		return e
	case stderrors.As(err, &missingErr):
		if missingErr.Dependency == "java" {
			e := JavaNotFound()
			e.Err = err
			return e
		}
		return Wrap(err, Prerequisite)
	case stderrors.Is(err, artifact.ErrDownloadVerification):
		return DownloadVerificationFailed(err)
	case stderrors.Is(err, artifact.ErrArtifactLinkNotFound), stderrors.Is(err, artifact.ErrVersionNotFound):
		return ArtifactLinkMissing(err)
	case stderrors.Is(err, artifact.ErrInvalidVersion):
		return Wrap(err, Argument, "Versions look like 0.1.28")
	case stderrors.Is(err, renderer.ErrRendererExecution):
		return RendererFailed(err)
	case stderrors.As(err, &statusErr):
		return DiagramServerError(statusErr)
	case stderrors.Is(err, context.DeadlineExceeded):
		return TimeoutError(err)
	default:
		return Wrap(err, Runtime)
	}
}
