package config

import "sort"

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeDuration
	TypeString
)

// String returns the string representation of ConfigValueType.
func (t ConfigValueType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeDuration:
		return "duration"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// ConfigKeySchema describes a known configuration key.
type ConfigKeySchema struct {
	Path        string
	Type        ConfigValueType
	Description string
}

// KnownKeys is the registry of all configuration keys.
var KnownKeys = map[string]ConfigKeySchema{
	"cache_dir": {
		Path:        "cache_dir",
		Type:        TypeString,
		Description: "Directory holding downloaded renderer jars",
	},
	"renderer_version": {
		Path:        "renderer_version",
		Type:        TypeString,
		Description: "openapi-to-plantuml release used when --version is not given",
	},
	"maven_url": {
		Path:        "maven_url",
		Type:        TypeString,
		Description: "Maven directory the renderer is downloaded from",
	},
	"http_timeout": {
		Path:        "http_timeout",
		Type:        TypeInt,
		Description: "Timeout in seconds for renderer downloads",
	},
	"server_addr": {
		Path:        "server_addr",
		Type:        TypeString,
		Description: "Listen address of 'openapi-diagram serve'",
	},
	"fetch_url": {
		Path:        "fetch_url",
		Type:        TypeString,
		Description: "Diagram server used by 'openapi-diagram fetch'",
	},
	"fetch_timeout": {
		Path:        "fetch_timeout",
		Type:        TypeInt,
		Description: "Timeout in seconds for 'openapi-diagram fetch'",
	},
	"validate_spec": {
		Path:        "validate_spec",
		Type:        TypeBool,
		Description: "Validate specifications before rendering",
	},
	"watch_debounce": {
		Path:        "watch_debounce",
		Type:        TypeDuration,
		Description: "Quiet period before 'create --watch' re-renders",
	},
}

// IsKnownKey reports whether key is a configuration key.
func IsKnownKey(key string) bool {
	_, ok := KnownKeys[key]
	return ok
}

// SortedKeys returns all configuration keys in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
