package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
	"github.com/ariel-frischer/openapi-diagram/internal/cli/shared"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
	"github.com/ariel-frischer/openapi-diagram/internal/progress"
)

var (
	cacheGetVersion    string
	cacheRemoveVersion string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached openapi-to-plantuml jars",
	Long: `Manage the openapi-to-plantuml jars cached by openapi-diagram.

Jars are downloaded from Maven Central, verified against their MD5 checksum
and stored in the cache directory (cache_dir, or --cache-dir).`,
	Example: `  # List cached jars
  openapi-diagram cache show

  # Download the default renderer version ahead of time
  openapi-diagram cache get

  # Remove everything
  openapi-diagram cache remove --version all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show cached openapi-to-plantuml jars",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := openCache()
		if err != nil {
			return err
		}
		entries, err := cache.List()
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Fprintln(cmd.OutOrStdout(), filepath.ToSlash(entry.Path))
		}
		return nil
	},
}

var cacheGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Download an openapi-to-plantuml jar into the cache",
	Example: `  # Default version (renderer_version config)
  openapi-diagram cache get

  # A specific release
  openapi-diagram cache get --version 0.1.28`,
	Args: cobra.NoArgs,
	RunE: runCacheGet,
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove cached openapi-to-plantuml jars",
	Example: `  openapi-diagram cache remove --version 0.1.28
  openapi-diagram cache remove --version all`,
	Args: cobra.NoArgs,
	RunE: runCacheRemove,
}

var cacheLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Print the latest openapi-to-plantuml release",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cache, err := openCache()
		if err != nil {
			return err
		}
		latest, err := cache.LatestVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), latest)
		return nil
	},
}

func init() {
	cacheCmd.GroupID = shared.GroupCache
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheShowCmd, cacheGetCmd, cacheRemoveCmd, cacheLatestCmd)

	cacheGetCmd.Flags().StringVar(&cacheGetVersion, "version", "", "Version to download (default: renderer_version config)")
	cacheRemoveCmd.Flags().StringVar(&cacheRemoveVersion, "version", "", "Version to remove from cache, or 'all'")
	_ = cacheRemoveCmd.MarkFlagRequired("version")
}

func openCache() (*artifact.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newCache(cfg)
}

func runCacheGet(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cache, err := newCache(cfg)
	if err != nil {
		return err
	}

	version := cacheGetVersion
	if version == "" {
		version = cfg.RendererVersion
	}
	out := cmd.OutOrStdout()

	if cache.Has(version) {
		fmt.Fprintf(out, "openapi-to-plantuml version '%s' is already in cache.\n", version)
		fmt.Fprintln(out, filepath.ToSlash(cache.Path(version)))
		return nil
	}

	fmt.Fprintf(out, "Downloading openapi-to-plantuml version '%s'.\n", version)
	spin := progress.NewSpinner(out, progress.DetectTerminalCapabilities(os.Stdout))
	spin.Start("Downloading " + artifact.FileName(version))
	path, err := cache.Resolve(cmd.Context(), version)
	if err != nil {
		spin.Fail("Download failed")
		return err
	}
	spin.Success(fmt.Sprintf("Added openapi-to-plantuml version '%s' to cache.", version))
	fmt.Fprintln(out, filepath.ToSlash(path))
	return nil
}

func runCacheRemove(cmd *cobra.Command, _ []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if cacheRemoveVersion == "all" {
		removed, err := cache.RemoveAll()
		for _, path := range removed {
			fmt.Fprintf(out, "Removed '%s' from cache.\n", filepath.Base(path))
		}
		return err
	}

	path, err := cache.Remove(cacheRemoveVersion)
	if errors.Is(err, artifact.ErrNotCached) {
		return clierrors.NothingCached(cacheRemoveVersion)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Removed '%s' from cache.\n", filepath.Base(path))
	return nil
}
