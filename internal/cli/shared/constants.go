// Package shared provides constants used across the CLI commands.
package shared

// Command group IDs shown in 'openapi-diagram --help'.
const (
	GroupGettingStarted = "getting-started"
	GroupDiagrams       = "diagrams"
	GroupCache          = "cache"
	GroupConfiguration  = "configuration"
)

// Environment variables supplying defaults for the create and fetch flags.
const (
	EnvSpecFilePath = "OPENAPI_DIAGRAM_SPEC_FILE_PATH"
	EnvOutputPath   = "OPENAPI_DIAGRAM_OUTPUT_PATH"
	EnvMode         = "OPENAPI_DIAGRAM_MODE"
	EnvFormat       = "OPENAPI_DIAGRAM_FORMAT"
)

// DefaultMode and DefaultFormat apply when neither flag nor environment set them.
const (
	DefaultMode   = "single"
	DefaultFormat = "SVG"
)

// SourceURL is the project source URL
const SourceURL = "https://github.com/ariel-frischer/openapi-diagram"
