// Package renderer runs the openapi-to-plantuml jar on a specification.
package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
	"github.com/ariel-frischer/openapi-diagram/internal/staging"
)

// maxStderrTail bounds the renderer output kept for error messages.
const maxStderrTail = 2048

// Resolver returns the local path of a renderer jar. *artifact.Cache implements it.
type Resolver interface {
	Resolve(ctx context.Context, version string) (string, error)
}

// CommandFunc builds the renderer process.
type CommandFunc func(ctx context.Context, name string, args ...string) *exec.Cmd

// Invoker renders diagrams with the external renderer.
type Invoker struct {
	resolver       Resolver
	defaultVersion string
	validate       bool
	logger         *slog.Logger
	warnings       io.Writer
	stdout         io.Writer
	stderr         io.Writer
	command        CommandFunc
	lookPath       func(string) (string, error)
	getenv         func(string) string
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) { i.logger = logger }
}

// WithWarnings sets where user facing warnings are printed.
func WithWarnings(w io.Writer) Option {
	return func(i *Invoker) { i.warnings = w }
}

// WithOutput forwards the renderer's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(i *Invoker) { i.stdout, i.stderr = stdout, stderr }
}

// WithDefaultVersion sets the renderer version used when a request names none.
func WithDefaultVersion(version string) Option {
	return func(i *Invoker) { i.defaultVersion = version }
}

// WithValidation validates every staged specification before rendering.
func WithValidation(enabled bool) Option {
	return func(i *Invoker) { i.validate = enabled }
}

// WithCommand replaces exec.CommandContext.
func WithCommand(fn CommandFunc) Option {
	return func(i *Invoker) { i.command = fn }
}

// WithLookPath replaces exec.LookPath.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(i *Invoker) { i.lookPath = fn }
}

// WithGetenv replaces os.Getenv.
func WithGetenv(fn func(string) string) Option {
	return func(i *Invoker) { i.getenv = fn }
}

// New creates an Invoker resolving jars through resolver.
func New(resolver Resolver, opts ...Option) *Invoker {
	i := &Invoker{
		resolver:       resolver,
		defaultVersion: artifact.DefaultVersion,
		logger:         slog.Default(),
		warnings:       io.Discard,
		stdout:         io.Discard,
		stderr:         io.Discard,
		command:        exec.CommandContext,
		lookPath:       exec.LookPath,
		getenv:         os.Getenv,
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = i.logger.With("component", "renderer")
	return i
}

// JavaPath locates the java executable. JAVA_HOME wins over PATH and is not
// checked for existence.
func (i *Invoker) JavaPath() (string, error) {
	if home := i.getenv("JAVA_HOME"); home != "" {
		name := "java"
		if runtime.GOOS == "windows" {
			name = "java.exe"
		}
		return filepath.Join(home, "bin", name), nil
	}
	if path, err := i.lookPath("java"); err == nil {
		return path, nil
	}
	return "", &MissingDependencyError{Dependency: "java", Message: JavaMissingMessage}
}

// GraphvizInstalled reports whether dot is on the PATH.
func (i *Invoker) GraphvizInstalled() bool {
	_, err := i.lookPath("dot")
	return err == nil
}

// Render runs the renderer for req and returns the files it produced, sorted.
// Mode and format are checked before anything else happens.
func (i *Invoker) Render(ctx context.Context, req Request) ([]string, error) {
	req, err := req.validate()
	if err != nil {
		return nil, err
	}
	if req.Version == "" {
		req.Version = i.defaultVersion
	}

	java, err := i.JavaPath()
	if err != nil {
		return nil, err
	}
	if !i.GraphvizInstalled() {
		i.logger.Warn("graphviz not found", "binary", "dot")
		fmt.Fprintln(i.warnings, GraphvizMissingMessage)
	}

	jar, err := i.resolver.Resolve(ctx, req.Version)
	if err != nil {
		return nil, fmt.Errorf("resolving renderer %s: %w", req.Version, err)
	}

	output, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("resolving output path: %w", err)
	}
	if err := prepareOutput(req.Mode, output); err != nil {
		return nil, err
	}

	expected := -1
	err = staging.WithStaged(req.SpecPath, func(staged *staging.Staged) error {
		if i.validate {
			if err := staged.Validate(ctx); err != nil {
				return err
			}
		}
		if req.Mode == ModeSplit {
			if ops, err := staging.Operations(staged.Document); err == nil {
				expected = len(ops)
			}
		}
		return i.run(ctx, java, jar, req, staged.Path, output)
	})
	if err != nil {
		return nil, err
	}

	files, err := collectOutputs(req.Mode, req.Format, output)
	if err != nil {
		return nil, err
	}
	if expected >= 0 && len(files) != expected {
		i.logger.Warn("diagram count differs from operation count",
			"operations", expected, "diagrams", len(files), "output", output)
	}
	return files, nil
}

func prepareOutput(mode Mode, output string) error {
	dir := output
	if mode == ModeSingle {
		dir = filepath.Dir(output)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return nil
}

func (i *Invoker) run(ctx context.Context, java, jar string, req Request, stagedPath, output string) error {
	absJar, err := filepath.Abs(jar)
	if err != nil {
		return fmt.Errorf("resolving renderer path: %w", err)
	}

	args := []string{"-jar", absJar, string(req.Mode), stagedPath, string(req.Format), output}
	cmd := i.command(ctx, java, args...)
	var errBuf bytes.Buffer
	cmd.Stdout = i.stdout
	cmd.Stderr = io.MultiWriter(i.stderr, &errBuf)

	i.logger.Debug("running renderer", "java", java, "args", args)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("renderer interrupted: %w", ctx.Err())
		}
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return &ExecutionError{ExitCode: exitCode, Stderr: tail(errBuf.String()), Err: err}
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		s = s[len(s)-maxStderrTail:]
	}
	return s
}

// collectOutputs lists the files carrying the requested format's extension:
// those next to the output file in single mode and those directly inside the
// output directory in split mode.
func collectOutputs(mode Mode, format Format, output string) ([]string, error) {
	dir := output
	if mode == ModeSingle {
		dir = filepath.Dir(output)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing output: %w", err)
	}

	suffix := "." + strings.ToLower(string(format))
	var files []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.HasSuffix(entry.Name(), suffix) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}
