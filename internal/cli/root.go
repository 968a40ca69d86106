// Package cli implements the openapi-diagram command line interface.
package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
)

var (
	configFile   string
	cacheDirFlag string
	debugFlag    bool
	noColorFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "openapi-diagram",
	Short: "Create diagrams from OpenAPI specifications",
	Long: `openapi-diagram renders diagrams of OpenAPI specifications with the
openapi-to-plantuml renderer.

The renderer is a Java program downloaded from Maven Central on first use,
verified against its published MD5 checksum and cached. OpenAPI 3.1
documents are rewritten to 3.0.3 before rendering.

Requirements:
  - java (JAVA_HOME or PATH)
  - graphviz 'dot' for some output formats`,
	Example: `  # Render a single SVG diagram
  openapi-diagram create -s openapi.yaml -o diagram.svg

  # One PlantUML file per operation
  openapi-diagram create -s openapi.json -o diagrams -m split -d PUML

  # Check java, graphviz and the renderer cache
  openapi-diagram doctor`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupOutput(cmd.ErrOrStderr())
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: shared.GroupGettingStarted, Title: "Getting Started:"},
		&cobra.Group{ID: shared.GroupDiagrams, Title: "Diagrams:"},
		&cobra.Group{ID: shared.GroupCache, Title: "Renderer Cache:"},
		&cobra.Group{ID: shared.GroupConfiguration, Title: "Configuration:"},
	)

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return clierrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine())
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "Config file (YAML or JSON)")
	pf.StringVar(&cacheDirFlag, "cache-dir", "", "Renderer cache directory (overrides cache_dir)")
	pf.BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	pf.BoolVar(&noColorFlag, "no-color", false, "Disable colored output")
}

// setupOutput installs the process logger. Without --debug only errors are
// logged; warnings reach the user as plain messages.
func setupOutput(stderr io.Writer) {
	if noColorFlag {
		color.NoColor = true
	}
	level := slog.LevelError
	if debugFlag {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
}

// Execute runs the root command.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and prints any error.
func ExecuteContext(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

func reportError(w io.Writer, err error) {
	var exitErr *exitError
	if errors.As(err, &exitErr) && exitErr.err == nil {
		return
	}
	clierrors.FprintError(w, clierrors.FromError(err))
}
