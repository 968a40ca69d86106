package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	"github.com/ariel-frischer/openapi-diagram/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check java, graphviz and the renderer cache",
	Long: `Check that everything needed to render diagrams is available:
  - java (JAVA_HOME or PATH)                 required
  - cache directory exists and is writable   required
  - graphviz 'dot'                           optional, some formats need it
  - renderer jar cached                      optional, downloaded on first use

Exit Codes:
  0 - All required checks passed
  4 - A required dependency is missing`,
	Example: `  openapi-diagram doctor`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		cache, err := newCache(cfg)
		if err != nil {
			return err
		}

		report := health.RunHealthChecks(newInvoker(cmd, cfg, cache), cache, cfg.RendererVersion)
		fmt.Fprint(cmd.OutOrStdout(), health.FormatReport(report))
		if !report.Passed {
			return &exitError{code: ExitMissingDependencies}
		}
		return nil
	},
}

func init() {
	doctorCmd.GroupID = shared.GroupGettingStarted
	rootCmd.AddCommand(doctorCmd)
}
