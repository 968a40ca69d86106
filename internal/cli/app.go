package cli

import (
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
	"github.com/ariel-frischer/openapi-diagram/internal/config"
	clierrors "github.com/ariel-frischer/openapi-diagram/internal/errors"
	"github.com/ariel-frischer/openapi-diagram/internal/renderer"
)

// extraRendererOptions are appended to every invoker. Tests use it to replace
// java with a helper process.
var extraRendererOptions []renderer.Option

// loadConfig loads the configuration and applies --cache-dir.
func loadConfig() (*config.Configuration, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		path := configFile
		if path == "" {
			path = config.ProjectConfigPath()
		}
		return nil, clierrors.ConfigParseError(path, err)
	}
	if cacheDirFlag != "" {
		dir, err := filepath.Abs(cacheDirFlag)
		if err != nil {
			return nil, clierrors.Wrap(err, clierrors.Argument)
		}
		cfg.CacheDir = dir
		cfg.Sources["cache_dir"] = config.SourceFlag
	}
	return cfg, nil
}

// newCache opens the renderer cache described by cfg.
func newCache(cfg *config.Configuration) (*artifact.Cache, error) {
	cache, err := artifact.New(cfg.CacheDir,
		artifact.WithBaseURL(cfg.MavenURL),
		artifact.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeoutDuration()}),
	)
	if err != nil {
		return nil, clierrors.WrapWithMessage(err, clierrors.Configuration,
			"could not open renderer cache "+cfg.CacheDir,
			"Pass a writable directory with --cache-dir or set cache_dir")
	}
	return cache, nil
}

// newInvoker wires the renderer to the cache and the command's output.
func newInvoker(cmd *cobra.Command, cfg *config.Configuration, cache *artifact.Cache) *renderer.Invoker {
	opts := []renderer.Option{
		renderer.WithWarnings(cmd.ErrOrStderr()),
		renderer.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
		renderer.WithDefaultVersion(cfg.RendererVersion),
		renderer.WithValidation(cfg.ValidateSpec),
	}
	return renderer.New(cache, append(opts, extraRendererOptions...)...)
}
