package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
	"github.com/ariel-frischer/openapi-diagram/internal/server"
)

var (
	serveAddr      string
	serveMaxBodyMB int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the openapi-diagram REST server",
	Long: `Run an HTTP server that renders diagrams for clients such as
'openapi-diagram fetch'.

Endpoints:
  POST ` + server.CreateDiagramsPath + `  render a specification, responds with a zip
  GET  /healthz                  liveness probe

The server stops gracefully on Ctrl+C or SIGTERM.`,
	Example: `  openapi-diagram serve
  openapi-diagram serve --addr 0.0.0.0:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.GroupID = shared.GroupDiagrams
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server_addr config)")
	serveCmd.Flags().IntVar(&serveMaxBodyMB, "max-body-mb", 16, "Largest accepted request body in MiB")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := newCache(cfg)
	if err != nil {
		return err
	}

	addr := cfg.ServerAddr
	if cmd.Flags().Changed("addr") {
		addr = serveAddr
	}

	if serveMaxBodyMB < 1 {
		return clierrors.NewArgumentError("--max-body-mb must be at least 1")
	}

	srv := server.New(newInvoker(cmd, cfg, cache),
		server.WithMaxBodyBytes(int64(serveMaxBodyMB)<<20))
	return srv.ListenAndServe(cmd.Context(), addr, func(a net.Addr) {
		fmt.Fprintf(cmd.OutOrStdout(), "Serving diagrams on http://%s (Ctrl+C to stop)\n", a)
	})
}
