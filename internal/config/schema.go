package config

import (
	"fmt"
	"slices"
	"strings"
)

// ConfigValueType defines the expected type for a configuration value.
type ConfigValueType int

const (
	TypeBool ConfigValueType = iota
	TypeInt
	TypeDuration
	TypeString
	TypeEnum
	TypeList
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
	case TypeEnum:
		return "enum"
	case TypeList:
		return "list"
	default:
		return "unknown"
	}
}

// ConfigKeySchema defines a known configuration key with its expected type and validation rules.
type ConfigKeySchema struct {
	Path          string          // Key as used in files; upper-cased with EnvPrefix in the environment
	Type          ConfigValueType // Expected value type
	AllowedValues []string        // Valid values for enum types (empty for non-enums)
	Description   string          // Human-readable description for help text
	Default       interface{}     // Default value
}

// EnvName returns the environment variable overriding the key.
func (s ConfigKeySchema) EnvName() string {
	return EnvPrefix + strings.ToUpper(s.Path)
}

// KnownKeys is the registry of all known configuration keys with their schemas.
var KnownKeys = map[string]ConfigKeySchema{
	"file": {
		Path:        "file",
		Type:        TypeString,
		Description: "Pipeline file to lint",
		Default:     ".gitlab-ci.yml",
	},
	"level": {
		Path:          "level",
		Type:          TypeEnum,
		AllowedValues: []string{"info", "warn", "error"},
		Description:   "Minimum severity of fixes to apply",
		Default:       "info",
	},
	"interactive": {
		Path:        "interactive",
		Type:        TypeBool,
		Description: "Ask before applying each fix",
		Default:     false,
	},
	"out": {
		Path:        "out",
		Type:        TypeString,
		Description: "Output file for fixes; - writes to stdout, empty overwrites the input",
		Default:     "",
	},
	"disabled_rules": {
		Path:        "disabled_rules",
		Type:        TypeList,
		Description: "Rule ids that are not run",
		Default:     []string{},
	},
	"enabled_rules": {
		Path:        "enabled_rules",
		Type:        TypeList,
		Description: "Opt-in rule ids to run",
		Default:     []string{},
	},
	"timeout_value": {
		Path:        "timeout_value",
		Type:        TypeString,
		Description: "Timeout inserted into jobs without one",
		Default:     "10 minutes",
	},
	"expire_in_value": {
		Path:        "expire_in_value",
		Type:        TypeString,
		Description: "Expiry inserted into job artifacts without one",
		Default:     "12 hours",
	},
	"fetch_timeout": {
		Path:        "fetch_timeout",
		Type:        TypeDuration,
		Description: "Timeout of a single include download (0 for none)",
		Default:     "0s",
	},
	"cache_size": {
		Path:        "cache_size",
		Type:        TypeInt,
		Description: "Number of downloaded includes kept per run",
		Default:     64,
	},
}

// ErrUnknownKey is returned for keys missing from KnownKeys.
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return fmt.Sprintf("unknown configuration key: %s", e.Key)
}

// GetKeySchema returns the schema of a known key.
func GetKeySchema(path string) (ConfigKeySchema, error) {
	schema, ok := KnownKeys[path]
	if !ok {
		return ConfigKeySchema{}, ErrUnknownKey{Key: path}
	}
	return schema, nil
}

// SortedKeys returns the known keys in alphabetical order.
func SortedKeys() []string {
	keys := make([]string, 0, len(KnownKeys))
	for k := range KnownKeys {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
