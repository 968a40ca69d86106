// openapi-diagram - Diagrams for OpenAPI specifications
// Source: https://github.com/ariel-frischer/openapi-diagram

// Package config provides hierarchical configuration management for
// openapi-diagram using koanf. Configuration is loaded with priority:
// environment variables > --config file > project config (.openapi-diagram.yml)
// > user config (~/.config/openapi-diagram/config.yml) > defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of environment variables mapped onto config keys.
const EnvPrefix = "OPENAPI_DIAGRAM_"

// ConfigSource tracks where a configuration value came from
type ConfigSource string

const (
	SourceDefault ConfigSource = "default"
	SourceUser    ConfigSource = "user"
	SourceProject ConfigSource = "project"
	SourceFile    ConfigSource = "file"
	SourceEnv     ConfigSource = "env"
	// SourceFlag marks values overridden by a command line flag.
	SourceFlag ConfigSource = "flag"
)

// Configuration represents the openapi-diagram configuration
type Configuration struct {
	CacheDir        string `koanf:"cache_dir" validate:"required"`
	RendererVersion string `koanf:"renderer_version" validate:"required,excludesall=/\\"`
	MavenURL        string `koanf:"maven_url" validate:"required,url"`
	// HTTPTimeout is in seconds.
	HTTPTimeout int    `koanf:"http_timeout" validate:"min=1"`
	ServerAddr  string `koanf:"server_addr" validate:"required,hostname_port"`
	FetchURL    string `koanf:"fetch_url" validate:"required,url"`
	// FetchTimeout is in seconds.
	FetchTimeout  int           `koanf:"fetch_timeout" validate:"min=1"`
	ValidateSpec  bool          `koanf:"validate_spec"`
	WatchDebounce time.Duration `koanf:"watch_debounce" validate:"min=0"`

	// Sources records which layer set each key.
	Sources map[string]ConfigSource `koanf:"-"`
}

// HTTPTimeoutDuration returns HTTPTimeout as a duration.
func (c *Configuration) HTTPTimeoutDuration() time.Duration {
	return time.Duration(c.HTTPTimeout) * time.Second
}

// FetchTimeoutDuration returns FetchTimeout as a duration.
func (c *Configuration) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// LoadOptions configures how configuration is loaded
type LoadOptions struct {
	// ConfigFile is an explicit config file (YAML or JSON by extension). It
	// must exist.
	ConfigFile string
	// ProjectConfigPath overrides the project config path (default: .openapi-diagram.yml)
	ProjectConfigPath string
	// UserConfigPath overrides the user config path.
	UserConfigPath string
	// SkipUserConfig ignores the user config file.
	SkipUserConfig bool
}

// Load loads configuration from all sources with default paths.
func Load(configFile string) (*Configuration, error) {
	return LoadWithOptions(LoadOptions{ConfigFile: configFile})
}

// LoadWithOptions loads configuration with custom options
func LoadWithOptions(opts LoadOptions) (*Configuration, error) {
	k := koanf.New(".")
	sources := make(map[string]ConfigSource)

	for key, value := range GetDefaults() {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("setting default %s: %w", key, err)
		}
		sources[key] = SourceDefault
	}

	if !opts.SkipUserConfig {
		userPath := opts.UserConfigPath
		if userPath == "" {
			userPath, _ = UserConfigPath()
		}
		if err := loadOptionalFile(k, sources, SourceUser, userPath); err != nil {
			return nil, fmt.Errorf("loading user config: %w", err)
		}
	}

	projectPath := opts.ProjectConfigPath
	if projectPath == "" {
		projectPath = ProjectConfigPath()
	}
	if err := loadOptionalFile(k, sources, SourceProject, projectPath); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	if opts.ConfigFile != "" {
		if !fileExists(opts.ConfigFile) {
			return nil, fmt.Errorf("config file not found: %s", opts.ConfigFile)
		}
		if err := loadOptionalFile(k, sources, SourceFile, opts.ConfigFile); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := loadLayer(k, sources, SourceEnv, env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	return finalizeConfig(k, sources)
}

// loadLayer loads one source into its own koanf instance, records the keys it
// sets and merges it over k.
func loadLayer(k *koanf.Koanf, sources map[string]ConfigSource, source ConfigSource, p koanf.Provider, parser koanf.Parser) error {
	layer := koanf.New(".")
	if err := layer.Load(p, parser); err != nil {
		return err
	}
	for _, key := range layer.Keys() {
		sources[key] = source
	}
	return k.Merge(layer)
}

// loadOptionalFile loads a YAML or JSON config file when it exists.
func loadOptionalFile(k *koanf.Koanf, sources map[string]ConfigSource, source ConfigSource, path string) error {
	if !fileExists(path) {
		return nil
	}

	var parser koanf.Parser = yaml.Parser()
	if strings.EqualFold(filepath.Ext(path), ".json") {
		parser = json.Parser()
	} else if err := ValidateYAMLSyntax(path); err != nil {
		return err
	}

	if err := loadLayer(k, sources, source, file.Provider(path), parser); err != nil {
		return fmt.Errorf("failed to load %s config %s: %w", source, path, err)
	}
	return nil
}

// finalizeConfig unmarshals, validates, and applies final transformations
func finalizeConfig(k *koanf.Koanf, sources map[string]ConfigSource) (*Configuration, error) {
	var cfg Configuration
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.CacheDir = expandHomePath(cfg.CacheDir)
	cfg.Sources = sources

	if err := ValidateConfigValues(&cfg, "config"); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// fileExists returns true if the file exists and is readable
func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// envTransform converts environment variable names to config keys.
// Example: OPENAPI_DIAGRAM_FETCH_TIMEOUT -> fetch_timeout. Variables that do
// not name a config key, such as the create command's flag defaults, are
// skipped.
func envTransform(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if !IsKnownKey(key) {
		return ""
	}
	return key
}

// expandHomePath expands ~ to the user's home directory
func expandHomePath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(homeDir, path[2:])
		}
	}
	return path
}

// Source returns the layer that set key.
func (c *Configuration) Source(key string) ConfigSource {
	if s, ok := c.Sources[key]; ok {
		return s
	}
	return SourceDefault
}

// Values returns the effective configuration as key/value pairs.
func (c *Configuration) Values() map[string]interface{} {
	return map[string]interface{}{
		"cache_dir":        c.CacheDir,
		"renderer_version": c.RendererVersion,
		"maven_url":        c.MavenURL,
		"http_timeout":     c.HTTPTimeout,
		"server_addr":      c.ServerAddr,
		"fetch_url":        c.FetchURL,
		"fetch_timeout":    c.FetchTimeout,
		"validate_spec":    c.ValidateSpec,
		"watch_debounce":   c.WatchDebounce.String(),
	}
}
