package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	"github.com/ariel-frischer/openapi-diagram/internal/config"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
	"github.com/ariel-frischer/openapi-diagram/internal/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and create configuration files",
	Long: `Configuration is merged from, in increasing priority:
  1. built-in defaults
  2. user config    (~/.config/openapi-diagram/config.yml on Linux)
  3. project config (.openapi-diagram.yml)
  4. --config file
  5. OPENAPI_DIAGRAM_<KEY> environment variables`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration and where each value came from",
	Example: `  openapi-diagram config show
  openapi-diagram config show --json`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		for _, key := range config.SortedKeys() {
			schema := config.KnownKeys[key]
			fmt.Fprintf(out, "%-18s %-9s %s\n", key, schema.Type, schema.Description)
		}
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config file with the defaults",
	Example: `  # User config
  openapi-diagram config init

  # .openapi-diagram.yml in the current directory
  openapi-diagram config init --project`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	configCmd.GroupID = shared.GroupConfiguration
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configKeysCmd, configInitCmd)

	configShowCmd.Flags().Bool("json", false, "Output in JSON format")
	configInitCmd.Flags().BoolP("project", "p", false, "Create project-level config (.openapi-diagram.yml)")
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
}

type sourcedValue struct {
	Value  interface{}         `json:"value"`
	Source config.ConfigSource `json:"source"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	values := cfg.Values()
	out := cmd.OutOrStdout()

	if asJSON {
		doc := make(map[string]sourcedValue, len(values))
		for key, value := range values {
			doc[key] = sourcedValue{Value: value, Source: cfg.Source(key)}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	// YAML with the source of each value as a line comment.
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range config.SortedKeys() {
		var value yaml.Node
		if err := value.Encode(values[key]); err != nil {
			return fmt.Errorf("encoding %s: %w", key, err)
		}
		value.LineComment = string(cfg.Source(key))
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			&value,
		)
	}
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return err
	}
	return enc.Close()
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	project, _ := cmd.Flags().GetBool("project")
	force, _ := cmd.Flags().GetBool("force")

	path := config.ProjectConfigPath()
	if !project {
		userPath, err := config.UserConfigPath()
		if err != nil {
			return clierrors.WrapWithMessage(err, clierrors.Configuration,
				"could not determine the user config directory",
				"Create a project config instead: openapi-diagram config init --project")
		}
		path = userPath
	}

	if _, err := os.Stat(path); err == nil && !force {
		return clierrors.NewConfigError(
			fmt.Sprintf("config file already exists: %s", path),
			"Overwrite it with: openapi-diagram config init --force",
		)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	output.PrintSuccess(cmd.OutOrStdout(), "Created "+path)
	return nil
}
