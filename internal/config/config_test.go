package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolatedOptions points every file layer into an empty temp dir.
func isolatedOptions(t *testing.T) LoadOptions {
	t.Helper()
	dir := t.TempDir()
	return LoadOptions{
		ProjectConfigPath: filepath.Join(dir, ".openapi-diagram.yml"),
		UserConfigPath:    filepath.Join(dir, "user", "config.yml"),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWithOptions(isolatedOptions(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultCacheDir(), cfg.CacheDir)
	assert.Equal(t, "0.1.28", cfg.RendererVersion)
	assert.Equal(t, 60, cfg.HTTPTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeoutDuration())
	assert.Equal(t, "127.0.0.1:8000", cfg.ServerAddr)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.FetchURL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeoutDuration())
	assert.False(t, cfg.ValidateSpec)
	assert.Equal(t, 300*time.Millisecond, cfg.WatchDebounce)

	for _, key := range SortedKeys() {
		assert.Equal(t, SourceDefault, cfg.Source(key), key)
	}
}

func TestLoadLayerPriority(t *testing.T) {
	opts := isolatedOptions(t)
	writeFile(t, opts.UserConfigPath, "renderer_version: \"0.1.20\"\nhttp_timeout: 10\nfetch_timeout: 5\n")
	writeFile(t, opts.ProjectConfigPath, "http_timeout: 20\nvalidate_spec: true\n")
	explicit := filepath.Join(t.TempDir(), "custom.json")
	writeFile(t, explicit, `{"fetch_timeout": 7, "watch_debounce": "1s"}`)
	opts.ConfigFile = explicit
	t.Setenv("OPENAPI_DIAGRAM_WATCH_DEBOUNCE", "50ms")

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	tests := map[string]struct {
		got        interface{}
		want       interface{}
		wantSource ConfigSource
	}{
		"renderer_version": {got: cfg.RendererVersion, want: "0.1.20", wantSource: SourceUser},
		"http_timeout":     {got: cfg.HTTPTimeout, want: 20, wantSource: SourceProject},
		"validate_spec":    {got: cfg.ValidateSpec, want: true, wantSource: SourceProject},
		"fetch_timeout":    {got: cfg.FetchTimeout, want: 7, wantSource: SourceFile},
		"watch_debounce":   {got: cfg.WatchDebounce, want: 50 * time.Millisecond, wantSource: SourceEnv},
		"server_addr":      {got: cfg.ServerAddr, want: "127.0.0.1:8000", wantSource: SourceDefault},
	}

	for key, tt := range tests {
		t.Run(key, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
			assert.Equal(t, tt.wantSource, cfg.Source(key))
		})
	}
}

func TestLoadEnvironment(t *testing.T) {
	opts := isolatedOptions(t)
	t.Setenv("OPENAPI_DIAGRAM_HTTP_TIMEOUT", "5")
	t.Setenv("OPENAPI_DIAGRAM_VALIDATE_SPEC", "true")
	t.Setenv("OPENAPI_DIAGRAM_CACHE_DIR", "~/jars")
	// Flag defaults for 'create' share the prefix but are not config keys.
	t.Setenv("OPENAPI_DIAGRAM_MODE", "split")

	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.HTTPTimeout)
	assert.True(t, cfg.ValidateSpec)
	assert.Equal(t, filepath.Join(home, "jars"), cfg.CacheDir)
	assert.NotContains(t, cfg.Sources, "mode")
}

func TestLoadErrors(t *testing.T) {
	tests := map[string]struct {
		project string
		file    string
		wantErr string
	}{
		"invalid yaml": {
			project: "http_timeout: [1,\n",
			wantErr: ".openapi-diagram.yml",
		},
		"zero timeout": {
			project: "http_timeout: 0\n",
			wantErr: "field 'http_timeout': must be at least 1",
		},
		"bad maven url": {
			project: "maven_url: not a url\n",
			wantErr: "field 'maven_url': must be an absolute URL",
		},
		"version with slash": {
			project: "renderer_version: ../0.1.28\n",
			wantErr: "field 'renderer_version'",
		},
		"bad server addr": {
			project: "server_addr: localhost\n",
			wantErr: "field 'server_addr': must be host:port",
		},
		"missing explicit file": {
			file:    "does-not-exist.yml",
			wantErr: "config file not found",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			opts := isolatedOptions(t)
			if tt.project != "" {
				writeFile(t, opts.ProjectConfigPath, tt.project)
			}
			if tt.file != "" {
				opts.ConfigFile = filepath.Join(t.TempDir(), tt.file)
			}

			_, err := LoadWithOptions(opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefaultTemplateIsValidConfig(t *testing.T) {
	template := GetDefaultConfigTemplate()
	require.NoError(t, ValidateYAMLSyntaxFromBytes([]byte(template), "template"))

	opts := isolatedOptions(t)
	writeFile(t, opts.ProjectConfigPath, template)
	cfg, err := LoadWithOptions(opts)
	require.NoError(t, err)
	assert.Equal(t, SourceProject, cfg.Source("renderer_version"))
	assert.Equal(t, 300*time.Millisecond, cfg.WatchDebounce)
}

func TestValidateYAMLSyntax(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := map[string]struct {
		content string
		wantErr bool
	}{
		"valid":    {content: "http_timeout: 5\n"},
		"empty":    {content: "  \n"},
		"unclosed": {content: "a: 1\nb: [1, 2\n", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(dir, name+".yml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			err := ValidateYAMLSyntax(path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, path, verr.FilePath)
			assert.NotEmpty(t, verr.Message)
		})
	}

	assert.NoError(t, ValidateYAMLSyntax(filepath.Join(dir, "missing.yml")))
}

func TestExtractLineColumn(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		msg        string
		wantLine   int
		wantColumn int
	}{
		"line only":       {msg: "yaml: line 5: could not find expected ':'", wantLine: 5, wantColumn: 1},
		"line and column": {msg: "yaml: line 3: column 7: bad", wantLine: 3, wantColumn: 7},
		"no position":     {msg: "yaml: mapping values are not allowed"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			line, column := extractLineColumn(tt.msg)
			assert.Equal(t, tt.wantLine, line)
			assert.Equal(t, tt.wantColumn, column)
		})
	}
}

func TestEnvTransform(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fetch_timeout", envTransform("OPENAPI_DIAGRAM_FETCH_TIMEOUT"))
	assert.Equal(t, "", envTransform("OPENAPI_DIAGRAM_FORMAT"))
	assert.Equal(t, "", envTransform("OPENAPI_DIAGRAM_"))
}
