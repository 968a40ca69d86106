package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
	"github.com/ariel-frischer/openapi-diagram/internal/fetch"
	"github.com/ariel-frischer/openapi-diagram/internal/output"
	"github.com/ariel-frischer/openapi-diagram/internal/progress"
)

var (
	fetchSpec       string
	fetchOutput     string
	fetchMode       string
	fetchFormat     string
	fetchBaseURL    string
	fetchMaxTimeout int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch diagrams from an openapi-diagram server",
	Long: `Send a specification to an openapi-diagram server ('openapi-diagram serve')
and write the returned diagrams locally. No java installation is needed.

The server URL defaults to fetch_url (OPENAPI_DIAGRAM_FETCH_URL) and the
timeout to fetch_timeout (OPENAPI_DIAGRAM_FETCH_TIMEOUT).`,
	Example: `  openapi-diagram fetch -s openapi.yaml -o api.svg -u http://diagrams.internal:8000

  # Split mode with a longer timeout
  openapi-diagram fetch -s openapi.yaml -o diagrams -m split -t 120`,
	Args: cobra.NoArgs,
	RunE: runFetch,
}

func init() {
	fetchCmd.GroupID = shared.GroupDiagrams
	rootCmd.AddCommand(fetchCmd)
	addRenderFlags(fetchCmd, &fetchSpec, &fetchOutput, &fetchMode, &fetchFormat)
	fetchCmd.Flags().StringVarP(&fetchBaseURL, "base-url", "u", "", "Base URL of the openapi-diagram server (default: fetch_url config)")
	fetchCmd.Flags().IntVarP(&fetchMaxTimeout, "max-timeout", "t", 0, "Seconds to wait for the server (default: fetch_timeout config)")
}

func runFetch(cmd *cobra.Command, _ []string) error {
	req, err := renderRequest(cmd, fetchSpec, fetchOutput, fetchMode, fetchFormat)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	baseURL := cfg.FetchURL
	if cmd.Flags().Changed("base-url") {
		baseURL = fetchBaseURL
	}
	timeout := cfg.FetchTimeoutDuration()
	if cmd.Flags().Changed("max-timeout") {
		if fetchMaxTimeout < 1 {
			return clierrors.NewArgumentError("--max-timeout must be at least 1 second")
		}
		timeout = time.Duration(fetchMaxTimeout) * time.Second
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	out := cmd.OutOrStdout()
	spin := progress.NewSpinner(out, progress.DetectTerminalCapabilities(os.Stdout))
	spin.Start("Fetching diagrams...")
	files, err := fetch.New(baseURL).Fetch(ctx, req)
	spin.Stop()
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && !errors.Is(err, context.DeadlineExceeded) {
			return clierrors.ServerUnavailable(baseURL, err)
		}
		return err
	}

	output.PrintSuccess(out, fmt.Sprintf("Fetched %d diagram(s):", len(files)))
	output.PrintFiles(out, files)
	return nil
}
