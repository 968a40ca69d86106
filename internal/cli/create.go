package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
	"github.com/ariel-frischer/openapi-diagram/internal/output"
	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
	"github.com/ariel-frischer/openapi-diagram/internal/watch"
)

var (
	createSpec            string
	createOutput          string
	createMode            string
	createFormat          string
	createRendererVersion string
	createWatch           bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create diagrams from an OpenAPI specification",
	Long: `Create diagrams from an OpenAPI specification with openapi-to-plantuml.

The specification may be JSON (.json) or YAML (.yaml, .yml). OpenAPI 3.1
documents are converted to 3.0.3 first.

Modes:
  single - one diagram of the whole API, written to --output-path
  split  - one diagram per operation, written into the --output-path directory

Flags default to environment variables:
  --openapi-spec    ` + shared.EnvSpecFilePath + `
  --output-path     ` + shared.EnvOutputPath + `
  --mode            ` + shared.EnvMode + `
  --diagram-format  ` + shared.EnvFormat + `

Exit Codes:
  0 - Success
  1 - Download or I/O failure
  3 - Invalid arguments (mode, format or spec file type)
  4 - java not found
  6 - Renderer failed`,
	Example: `  # SVG of the whole API
  openapi-diagram create -s openapi.yaml -o docs/api.svg

  # One PNG per operation
  openapi-diagram create -s openapi.json -o docs/operations -m split -d png

  # Re-render whenever the specification changes
  openapi-diagram create -s openapi.yaml -o docs/api.svg --watch`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func init() {
	createCmd.GroupID = shared.GroupDiagrams
	rootCmd.AddCommand(createCmd)
	addRenderFlags(createCmd, &createSpec, &createOutput, &createMode, &createFormat)
	createCmd.Flags().StringVar(&createRendererVersion, "version", "", "openapi-to-plantuml version (default: renderer_version config)")
	createCmd.Flags().BoolVarP(&createWatch, "watch", "w", false, "Re-render when the specification changes")
}

// addRenderFlags registers the flags shared by create and fetch.
func addRenderFlags(cmd *cobra.Command, spec, out, mode, format *string) {
	cmd.Flags().StringVarP(spec, "openapi-spec", "s", "", "Path to the OpenAPI specification (JSON or YAML)")
	cmd.Flags().StringVarP(out, "output-path", "o", "", "Output file (single mode) or directory (split mode)")
	cmd.Flags().StringVarP(mode, "mode", "m", "", "Rendering mode: single or split (default \"single\")")
	cmd.Flags().StringVarP(format, "diagram-format", "d", "", "Diagram format, e.g. SVG, PNG, PUML (default \"SVG\")")
}

// stringFlag returns the flag value, the environment variable when the flag
// was not given, or fallback.
func stringFlag(cmd *cobra.Command, name, value, env, fallback string) string {
	if cmd.Flags().Changed(name) {
		return value
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if value != "" {
		return value
	}
	return fallback
}

// renderRequest builds and checks a request from the shared render flags.
// Nothing touches the filesystem before this succeeds.
func renderRequest(cmd *cobra.Command, spec, out, mode, format string) (renderer.Request, error) {
	req := renderer.Request{
		SpecPath:   stringFlag(cmd, "openapi-spec", spec, shared.EnvSpecFilePath, ""),
		OutputPath: stringFlag(cmd, "output-path", out, shared.EnvOutputPath, ""),
	}

	parsedMode, err := renderer.ParseMode(stringFlag(cmd, "mode", mode, shared.EnvMode, shared.DefaultMode))
	if err != nil {
		return req, err
	}
	parsedFormat, err := renderer.ParseFormat(stringFlag(cmd, "diagram-format", format, shared.EnvFormat, shared.DefaultFormat))
	if err != nil {
		return req, err
	}
	req.Mode, req.Format = parsedMode, parsedFormat

	if req.SpecPath == "" {
		return req, clierrors.NewArgumentErrorWithUsage("missing OpenAPI specification",
			cmd.CommandPath()+" --openapi-spec <file>",
			"Or set "+shared.EnvSpecFilePath)
	}
	if req.OutputPath == "" {
		return req, clierrors.NewArgumentErrorWithUsage("missing output path",
			cmd.CommandPath()+" --output-path <path>",
			"Or set "+shared.EnvOutputPath)
	}
	if info, err := os.Stat(req.SpecPath); err != nil || info.IsDir() {
		return req, clierrors.NewArgumentError(fmt.Sprintf("specification not found: %s", req.SpecPath))
	}
	return req, nil
}

func runCreate(cmd *cobra.Command, _ []string) error {
	req, err := renderRequest(cmd, createSpec, createOutput, createMode, createFormat)
	if err != nil {
		return err
	}
	req.Version = createRendererVersion

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := newCache(cfg)
	if err != nil {
		return err
	}
	invoker := newInvoker(cmd, cfg, cache)
	out := cmd.OutOrStdout()

	if !createWatch {
		return renderOnce(cmd.Context(), out, invoker, req)
	}

	if err := renderOnce(cmd.Context(), out, invoker, req); err != nil {
		clierrors.FprintError(cmd.ErrOrStderr(), clierrors.FromError(err))
	}
	w, err := watch.New(req.SpecPath, cfg.WatchDebounce,
		watch.WithReady(func() {
			fmt.Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", req.SpecPath)
		}),
		watch.WithErrorHandler(func(err error) {
			clierrors.FprintError(cmd.ErrOrStderr(), clierrors.FromError(err))
		}),
	)
	if err != nil {
		return err
	}
	return w.Run(cmd.Context(), func(ctx context.Context) error {
		output.PrintSeparator(out, "change detected")
		return renderOnce(ctx, out, invoker, req)
	})
}

// diagramRenderer is satisfied by *renderer.Invoker.
type diagramRenderer interface {
	Render(ctx context.Context, req renderer.Request) ([]string, error)
}

func renderOnce(ctx context.Context, out io.Writer, r diagramRenderer, req renderer.Request) error {
	files, err := r.Render(ctx, req)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		output.PrintWarning(out, "the renderer finished without writing any diagram")
		return nil
	}
	output.PrintSuccess(out, fmt.Sprintf("Created %d diagram(s):", len(files)))
	output.PrintFiles(out, files)
	return nil
}
