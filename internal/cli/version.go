package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	"github.com/ariel-frischer/openapi-diagram/internal/version"
)

var versionPlain bool

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Long:    "Display version, commit, build date and Go version information for openapi-diagram",
	Example: `  # Show version info
  openapi-diagram version

  # Plain output (for scripts)
  openapi-diagram version --plain`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		if versionPlain {
			printPlainVersion(cmd.OutOrStdout(), version.Get())
			return
		}
		printPrettyVersion(cmd.OutOrStdout(), version.Get())
	},
}

func init() {
	versionCmd.GroupID = shared.GroupGettingStarted
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionPlain, "plain", false, "Plain output without formatting")
}

// printPlainVersion prints a simple version output for scripting
func printPlainVersion(out io.Writer, info version.Info) {
	fmt.Fprintf(out, "openapi-diagram %s\n", info.Version)
	fmt.Fprintf(out, "commit: %s\n", info.Commit)
	fmt.Fprintf(out, "built: %s\n", info.BuildDate)
	fmt.Fprintf(out, "go: %s\n", info.GoVersion)
	fmt.Fprintf(out, "platform: %s\n", info.Platform)
	fmt.Fprintf(out, "renderer: %s\n", artifact.DefaultVersion)
}

func printPrettyVersion(out io.Writer, info version.Info) {
	label := color.New(color.FgYellow).SprintfFunc()
	value := color.New(color.FgWhite, color.Bold).SprintFunc()

	title := color.New(color.FgCyan, color.Bold).Sprint("openapi-diagram")
	if version.IsDevBuild() {
		title += color.New(color.Faint).Sprint(" (development build)")
	}
	fmt.Fprintln(out, title)
	rows := []struct{ name, val string }{
		{"Version", info.Version},
		{"Commit", truncateCommit(info.Commit)},
		{"Built", info.BuildDate},
		{"Go", info.GoVersion},
		{"Platform", info.Platform},
		{"Renderer", artifact.DefaultVersion},
	}
	for _, row := range rows {
		fmt.Fprintf(out, "  %s  %s\n", label("%-9s", row.name), value(row.val))
	}
	fmt.Fprintf(out, "\n  %s\n", shared.SourceURL)
}

// truncateCommit shortens a commit hash to 8 characters
func truncateCommit(commit string) string {
	if len(commit) > 8 {
		return commit[:8]
	}
	return commit
}
