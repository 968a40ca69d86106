package config

import (
	"github.com/ariel-frischer/openapi-diagram/internal/artifact"
)

// GetDefaultConfigTemplate returns a fully commented config template
// that helps users understand all available options
func GetDefaultConfigTemplate() string {
	return `# openapi-diagram configuration
# Environment variables OPENAPI_DIAGRAM_<KEY> override every file.

# Renderer
renderer_version: "` + artifact.DefaultVersion + `"    # openapi-to-plantuml release
# cache_dir: ""                     # Jar cache (default: user cache dir)
maven_url: ` + artifact.DefaultBaseURL + `
http_timeout: 60                    # Download timeout in seconds
validate_spec: false                # Validate specs before rendering

# Server and client
server_addr: 127.0.0.1:8000         # 'serve' listen address
fetch_url: http://127.0.0.1:8000    # 'fetch' server URL
fetch_timeout: 30                   # 'fetch' timeout in seconds

# Watch mode
watch_debounce: 300ms               # Quiet period before re-rendering
`
}

// GetDefaults returns the default configuration values
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"cache_dir":        DefaultCacheDir(),
		"renderer_version": artifact.DefaultVersion,
		"maven_url":        artifact.DefaultBaseURL,
		"http_timeout":     60,
		"server_addr":      "127.0.0.1:8000",
		"fetch_url":        "http://127.0.0.1:8000",
		"fetch_timeout":    30,
		"validate_spec":    false,
		// watch_debounce: Editors often write a file in several steps; one
		// render per burst of events.
		"watch_debounce": "300ms",
	}
}
